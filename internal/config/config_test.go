package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FICHAJES_ENDPOINT", "FICHAJES_TOKEN", "FICHAJES_CACHE_BACKEND", "FICHAJES_CACHE_DIR",
		"FICHAJES_LOG_LEVEL", "FICHAJES_LOG_FORMAT", "FICHAJES_EXPORT_DIR", "FICHAJES_DEVSTORE_ADDR",
		"FICHAJES_POLL_INTERVAL", "FICHAJES_TIMEOUT", "FICHAJES_COUNT_EMPTY_WORKDAYS",
	} {
		t.Setenv(k, "")
	}
}

func TestFirstRunWritesTemplate(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "fichajes", "config.json")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, cfg.Remote.PollInterval.Std())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "cache"), cfg.Cache.Dir)

	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := LoadFrom(path)
	require.NoError(t, err, "the template must parse")
	assert.Equal(t, cfg, again)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`// mine
{
  "remote": {
    // deployed script
    "endpoint": "https://script.example.com/exec",
    "poll_interval": "30s"
  },
  "cache": {"backend": "sqlite"},
  "dirty": {"max_mismatches": -1}
}`), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://script.example.com/exec", cfg.Remote.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Remote.PollInterval.Std())
	assert.Equal(t, DefaultTimeout, cfg.Remote.Timeout.Std())
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, -1, cfg.Dirty.MaxMismatches)
	assert.Equal(t, DefaultDirtyTTL, cfg.Dirty.TTL.Std())
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"remote": {"endpoint": "https://a.example"}}`), 0o600))

	t.Setenv("FICHAJES_ENDPOINT", "https://b.example")
	t.Setenv("FICHAJES_TIMEOUT", "3s")
	t.Setenv("FICHAJES_COUNT_EMPTY_WORKDAYS", "true")
	t.Setenv("FICHAJES_LOG_FORMAT", "json")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://b.example", cfg.Remote.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout.Std())
	assert.True(t, cfg.Stats.CountEmptyWorkdays)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestInvalidInput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"remote": `), 0o600))
	_, err := LoadFrom(bad)
	assert.ErrorContains(t, err, "parsing config file")

	t.Setenv("FICHAJES_POLL_INTERVAL", "soon")
	_, err = LoadFrom(filepath.Join(dir, "config.json"))
	assert.ErrorContains(t, err, "FICHAJES_POLL_INTERVAL")
}

func TestDirHonoursEnv(t *testing.T) {
	t.Setenv("FICHAJES_HOME", "/srv/fichajes")
	d, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/srv/fichajes", d)
}
