package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]KV {
	t.Helper()
	sq, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]KV{
		"sqlite": sq,
		"memory": NewMemoryKV(),
	}
}

func TestKV_Contract(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "reminder_a", "1"))
			require.NoError(t, kv.Set(ctx, "reminder_b", "2"))
			require.NoError(t, kv.Set(ctx, "notification_permission", "granted"))
			require.NoError(t, kv.Set(ctx, "reminder_a", "3"))

			v, ok, err := kv.Get(ctx, "reminder_a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "3", v)

			keys, err := kv.Keys(ctx, "reminder_")
			require.NoError(t, err)
			assert.Equal(t, []string{"reminder_a", "reminder_b"}, keys)

			require.NoError(t, kv.Delete(ctx, "reminder_a"))
			require.NoError(t, kv.Delete(ctx, "reminder_a"))
			keys, err = kv.Keys(ctx, "reminder_")
			require.NoError(t, err)
			assert.Equal(t, []string{"reminder_b"}, keys)
		})
	}
}

func TestKV_PrefixIsLiteral(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, "a_b", "1"))
			require.NoError(t, kv.Set(ctx, "axb", "2"))
			require.NoError(t, kv.Set(ctx, "a%b", "3"))

			keys, err := kv.Keys(ctx, "a_")
			require.NoError(t, err)
			assert.Equal(t, []string{"a_b"}, keys)
		})
	}
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	kv, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "reminder_x", "payload"))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer kv.Close()

	v, ok, err := kv.Get(ctx, "reminder_x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", v)
}

func TestMemoryKV_Closed(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Close())
	assert.ErrorIs(t, kv.Set(context.Background(), "k", "v"), ErrClosed)
}

func TestGlobEscape(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, globEscape("a*b?c[d]"))
	assert.Equal(t, "reminder_", globEscape("reminder_"))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "a", "b", "c", "c"}))
	assert.Empty(t, dedupe(nil))
}
