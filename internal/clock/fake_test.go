package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_FiresInOrderAndChains(t *testing.T) {
	start := time.Date(2025, time.May, 5, 7, 0, 0, 0, time.UTC)
	f := NewFake(start)

	var fired []string
	f.AfterFunc(2*time.Hour, func() { fired = append(fired, "b") })
	f.AfterFunc(time.Hour, func() {
		fired = append(fired, "a")
		assert.Equal(t, start.Add(time.Hour), f.Now())
		f.AfterFunc(30*time.Minute, func() { fired = append(fired, "a2") })
	})
	stopped := f.AfterFunc(90*time.Minute, func() { fired = append(fired, "never") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	f.Advance(3 * time.Hour)

	assert.Equal(t, []string{"a", "a2", "b"}, fired)
	assert.Equal(t, start.Add(3*time.Hour), f.Now())
	assert.Zero(t, f.Pending())
}

func TestReal_NowInLocation(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	assert.Equal(t, loc, New(loc).Now().Location())
	assert.Equal(t, time.UTC, Real{}.Now().Location())
}
