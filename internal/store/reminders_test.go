package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ykvlv/warrior-reminders/internal/domain"
)

func water(id, at string) domain.ReminderConfig {
	return domain.ReminderConfig{
		ID:       id,
		Time:     domain.MustTimeOfDay(at),
		Title:    "Hydration Reminder",
		Body:     "Drink water",
		Category: domain.CategoryWater,
		Enabled:  true,
	}
}

func TestReminderStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewReminderStore(NewMemoryKV(), zaptest.NewLogger(t))

	_, err := s.Create(ctx, water("w1", "10:00"))
	require.NoError(t, err)
	_, err = s.Create(ctx, water("w1", "11:00"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := s.Get("w1")
	require.NoError(t, err)
	assert.Equal(t, "10:00", got.Time.String())

	at := domain.MustTimeOfDay("12:30")
	updated, changed, err := s.Update(ctx, "w1", domain.Patch{Time: &at})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, at, updated.Time)

	_, changed, err = s.Update(ctx, "w1", domain.Patch{Time: &at})
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = s.Update(ctx, "nope", domain.Patch{Time: &at})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	toggled, err := s.Toggle(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	require.NoError(t, s.Delete(ctx, "w1"))
	require.NoError(t, s.Delete(ctx, "w1"))
	_, err = s.Get("w1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReminderStore_CreateValidates(t *testing.T) {
	s := NewReminderStore(NewMemoryKV(), zaptest.NewLogger(t))

	r := water("", "10:00")
	_, err := s.Create(context.Background(), r)
	assert.ErrorIs(t, err, domain.ErrInvalid)

	r = water("x", "10:00")
	r.Category = ""
	got, err := s.Create(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryCustom, got.Category)
}

func TestReminderStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reminders.db")

	kv, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	s := NewReminderStore(kv, zaptest.NewLogger(t))
	_, err = s.Create(ctx, water("a", "08:00"))
	require.NoError(t, err)
	_, err = s.Create(ctx, water("b", "09:15"))
	require.NoError(t, err)
	_, err = s.Toggle(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, kv.Close())

	kv, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer kv.Close()
	s = NewReminderStore(kv, zaptest.NewLogger(t))
	all, err := s.LoadAll(ctx)
	require.NoError(t, err)

	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.True(t, all[0].Enabled)
	assert.Equal(t, "b", all[1].ID)
	assert.False(t, all[1].Enabled)
	assert.Equal(t, "09:15", all[1].Time.String())
}

func TestReminderStore_LoadAllSkipsMalformed(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	seed := NewReminderStore(kv, zaptest.NewLogger(t))
	_, err := seed.Create(ctx, water("one", "07:00"))
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "reminder_bad", "{not json"))
	require.NoError(t, kv.Set(ctx, "reminder_notime", `{"id":"notime","time":"25:99"}`))
	_, err = seed.Create(ctx, water("two", "21:00"))
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "notification_permission", "granted"))

	s := NewReminderStore(kv, zaptest.NewLogger(t))
	all, err := s.LoadAll(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"one", "two"}, ids)

	// Malformed records stay where they are.
	_, ok, err := kv.Get(ctx, "reminder_bad")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReminderStore_LoadAllSkipsForeignKey(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "reminder_a",
		`{"id":"b","time":"08:00","title":"Pills","body":"","type":"medication","enabled":true}`))

	s := NewReminderStore(kv, zaptest.NewLogger(t))
	all, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = s.Get("b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, ok, err := kv.Get(ctx, "reminder_a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReminderStore_ConcurrentTogglesEachFlip(t *testing.T) {
	ctx := context.Background()
	s := NewReminderStore(NewMemoryKV(), zaptest.NewLogger(t))
	_, err := s.Create(ctx, water("w", "10:00"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 51; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Toggle(ctx, "w")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get("w")
	require.NoError(t, err)
	assert.False(t, got.Enabled, "an odd number of toggles must end disabled")
}

func TestReminderStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewReminderStore(kv, zaptest.NewLogger(t))
	_, err := s.Create(ctx, water("a", "08:00"))
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "reminder_bad", "garbage"))
	require.NoError(t, kv.Set(ctx, "notification_permission", "denied"))

	require.NoError(t, s.Clear(ctx))
	assert.Zero(t, s.Len())

	keys, err := kv.Keys(ctx, ReminderKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)

	v, ok, err := kv.Get(ctx, "notification_permission")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "denied", v)
}

func TestReminderStore_FailedWriteLeavesViewUntouched(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewReminderStore(kv, zaptest.NewLogger(t))
	_, err := s.Create(ctx, water("a", "08:00"))
	require.NoError(t, err)

	require.NoError(t, kv.Close())
	title := "changed"
	_, _, err = s.Update(ctx, "a", domain.Patch{Title: &title})
	assert.ErrorIs(t, err, ErrClosed)

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Hydration Reminder", got.Title)
}

func TestDecodeReminder(t *testing.T) {
	r, err := decodeReminder(`{"id":"x","time":"06:05","title":"T","body":"B","type":"mystery"}`)
	require.NoError(t, err)
	assert.True(t, r.Enabled)
	assert.Equal(t, domain.CategoryCustom, r.Category)
	assert.Equal(t, domain.TimeOfDay{Hour: 6, Minute: 5}, r.Time)

	r, err = decodeReminder(`{"id":"y","time":"23:59","type":"medication","enabled":false}`)
	require.NoError(t, err)
	assert.False(t, r.Enabled)
	assert.Equal(t, domain.CategoryMedication, r.Category)

	_, err = decodeReminder(`{"time":"10:00"}`)
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = decodeReminder(`[]`)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeReminder_WireShape(t *testing.T) {
	raw, err := encodeReminder(water("w", "10:00"))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":"w","time":"10:00","title":"Hydration Reminder","body":"Drink water","type":"water","enabled":true}`,
		raw)
}
