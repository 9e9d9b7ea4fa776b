package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, PermissionAuto, cfg.NotifyPermission)
	assert.Equal(t, 15*time.Second, cfg.DispatchTimeout)
	assert.True(t, cfg.SeedDefaults)
	assert.False(t, cfg.WebPushEnabled())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DEFAULT_TZ", "Africa/Lagos")
	t.Setenv("VAPID_PUBLIC_KEY", "pub")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.True(t, cfg.WebPushEnabled())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Africa/Lagos", loc.String())
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9191\nSTORAGE_DRIVER=memory\n"), 0o600))
	for _, key := range []string{"HTTP_ADDR", "STORAGE_DRIVER"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key)) // restored by t.Setenv cleanup
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.HTTPAddr)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		StorageDriver:    DriverMemory,
		NotifyPermission: PermissionAuto,
		DispatchTimeout:  time.Second,
		DefaultTZ:        "UTC",
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"unknown driver":      func(c *Config) { c.StorageDriver = "mongo" },
		"sqlite without path": func(c *Config) { c.StorageDriver = DriverSQLite; c.DBPath = "" },
		"half vapid":          func(c *Config) { c.VAPIDPublicKey = "pub" },
		"bad permission":      func(c *Config) { c.NotifyPermission = "maybe" },
		"zero timeout":        func(c *Config) { c.DispatchTimeout = 0 },
		"bad tz":              func(c *Config) { c.DefaultTZ = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
