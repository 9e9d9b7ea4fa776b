package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ykvlv/warrior-reminders/internal/config"
	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/notify"
)

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		LogLevel:         "debug",
		DefaultTZ:        "UTC",
		StorageDriver:    config.DriverSQLite,
		DBPath:           filepath.Join(t.TempDir(), "reminders.db"),
		NotifyPermission: config.PermissionAuto,
		DispatchTimeout:  time.Second,
		SeedDefaults:     true,
	}
}

type readyChannel struct{ ready bool }

func (c readyChannel) Name() string                                    { return "stub" }
func (c readyChannel) Ready(context.Context) bool                      { return c.ready }
func (c readyChannel) Show(context.Context, domain.Notification) error { return nil }

func TestPermissionPolicy(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		policy   string
		channels []notify.Channel
		want     notify.Permission
	}{
		{config.PermissionGranted, nil, notify.PermissionGranted},
		{config.PermissionDenied, []notify.Channel{readyChannel{true}}, notify.PermissionDenied},
		{config.PermissionAuto, []notify.Channel{nil, readyChannel{true}}, notify.PermissionGranted},
		{config.PermissionAuto, []notify.Channel{readyChannel{false}}, notify.PermissionDefault},
	}
	for _, c := range cases {
		got, err := permissionPolicy(c.policy, c.channels...).Prompt(ctx)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, c.policy)
	}
}

func TestOpen_SeedsOnceAndRehydrates(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig(t)

	core, err := Open(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, core.WebPush)
	assert.Nil(t, core.Bot)
	assert.Len(t, core.Service.List(), len(domain.DefaultReminders()))

	_, err = core.Service.Toggle(ctx, "default_water")
	require.NoError(t, err)
	require.NoError(t, core.Close())

	core, err = Open(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer core.Close()

	assert.Len(t, core.Service.List(), len(domain.DefaultReminders()))
	v, err := core.Service.Get("default_water")
	require.NoError(t, err)
	assert.True(t, v.Enabled)
	assert.True(t, v.Armed)
}

func TestOpen_WebPushPrimary(t *testing.T) {
	cfg := baseConfig(t)
	cfg.StorageDriver = config.DriverMemory
	cfg.SeedDefaults = false
	cfg.VAPIDPublicKey = "pub"
	cfg.VAPIDPrivateKey = "priv"

	core, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer core.Close()

	require.NotNil(t, core.WebPush)
	st, err := core.Dispatcher.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "webpush", st.Primary)
	assert.Equal(t, "log", st.Fallback)
	assert.True(t, st.Supported)
	assert.Empty(t, core.Service.List())
}

func TestOpenKV_UnknownDriver(t *testing.T) {
	cfg := baseConfig(t)
	cfg.StorageDriver = "etcd"
	_, err := OpenKV(context.Background(), cfg)
	assert.Error(t, err)
}

func TestOpen_StoreOnlySharesBackendWithoutTimers(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig(t)
	cfg.SeedDefaults = false
	cfg.VAPIDPublicKey = "pub"
	cfg.VAPIDPrivateKey = "priv"

	daemon, err := Open(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer daemon.Close()

	editor, err := Open(ctx, cfg, zaptest.NewLogger(t), StoreOnly())
	require.NoError(t, err)
	defer editor.Close()
	assert.Nil(t, editor.WebPush)

	v, err := editor.Service.Create(ctx, domain.ReminderConfig{
		ID:       "pills",
		Time:     domain.MustTimeOfDay("08:00"),
		Title:    "Pills",
		Category: domain.CategoryMedication,
		Enabled:  true,
	})
	require.NoError(t, err)
	assert.False(t, v.Armed)
	assert.Empty(t, editor.Scheduler.Entries())

	armed, err := daemon.Service.Rehydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, armed)
	assert.True(t, daemon.Scheduler.Armed("pills"))
}
