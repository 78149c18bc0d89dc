package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration for fichajes, stored in
// ~/.fichajes/config.json. The file supports single-line // comments.
type Config struct {
	Remote   RemoteConfig   `json:"remote"`
	Cache    CacheConfig    `json:"cache"`
	Dirty    DirtyConfig    `json:"dirty"`
	Stats    StatsConfig    `json:"stats"`
	Log      LogConfig      `json:"log"`
	Export   ExportConfig   `json:"export"`
	DevStore DevStoreConfig `json:"devstore"`
}

// RemoteConfig points at the spreadsheet web app.
type RemoteConfig struct {
	// Endpoint is the deployed script URL. Empty means offline.
	Endpoint string `json:"endpoint"`
	// Token is an optional bearer token for protected deployments.
	Token        string   `json:"token"`
	PollInterval Duration `json:"poll_interval"`
	Timeout      Duration `json:"timeout"`
}

// CacheConfig selects the local cache backend.
type CacheConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `json:"backend"`
	// Dir defaults to the cache directory under the config directory.
	Dir string `json:"dir"`
}

// DirtyConfig bounds how long unconfirmed local edits hold off remote values.
// Zero selects the default; a negative value disables the limit.
type DirtyConfig struct {
	MaxMismatches int      `json:"max_mismatches"`
	TTL           Duration `json:"ttl"`
}

// StatsConfig tunes the monthly accounting.
type StatsConfig struct {
	// CountEmptyWorkdays charges 8h for workdays with nothing recorded.
	CountEmptyWorkdays bool `json:"count_empty_workdays"`
}

// LogConfig controls diagnostic output on stderr.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// ExportConfig sets where report files are written.
type ExportConfig struct {
	Dir string `json:"dir"`
}

// DevStoreConfig configures the local stand-in store.
type DevStoreConfig struct {
	Addr string `json:"addr"`
}

// Duration is a time.Duration written as a Go duration string, e.g. "8s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("duration must be a string like \"8s\": %s", b)
		}
		*d = Duration(time.Duration(n * float64(time.Second)))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

const (
	DefaultPollInterval  = 8 * time.Second
	DefaultTimeout       = 15 * time.Second
	DefaultMaxMismatches = 5
	DefaultDirtyTTL      = 2 * time.Minute
	DefaultCacheBackend  = "file"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultDevStoreAddr  = ":8787"
)

func defaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			PollInterval: Duration(DefaultPollInterval),
			Timeout:      Duration(DefaultTimeout),
		},
		Cache:    CacheConfig{Backend: DefaultCacheBackend},
		Dirty:    DirtyConfig{MaxMismatches: DefaultMaxMismatches, TTL: Duration(DefaultDirtyTTL)},
		Log:      LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Export:   ExportConfig{Dir: "."},
		DevStore: DevStoreConfig{Addr: DefaultDevStoreAddr},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `// fichajes configuration – ~/.fichajes/config.json
//
// Every setting can also be given as an environment variable (shown next to
// it) or in a .env file in the working directory.
{
  "remote": {
    // URL of the deployed spreadsheet web app. Leave empty to work offline
    // from the local cache.                               FICHAJES_ENDPOINT
    "endpoint": "",

    // Optional bearer token for protected deployments.   FICHAJES_TOKEN
    "token": "",

    // How often "fichajes watch" refreshes.               FICHAJES_POLL_INTERVAL
    "poll_interval": "8s",

    // Per-request timeout.                                FICHAJES_TIMEOUT
    "timeout": "15s"
  },

  "cache": {
    // "file" (one JSON file per slot) or "sqlite".        FICHAJES_CACHE_BACKEND
    "backend": "file",
    // Defaults to ~/.fichajes/cache.                       FICHAJES_CACHE_DIR
    "dir": ""
  },

  // Unconfirmed local edits win over remote values until the remote echoes
  // them back, the remote contradicts them this many times, or they are
  // older than ttl. Use a negative value to disable a limit.
  "dirty": {
    "max_mismatches": 5,
    "ttl": "2m"
  },

  "stats": {
    // Charge 8h for workdays with nothing recorded.       FICHAJES_COUNT_EMPTY_WORKDAYS
    "count_empty_workdays": false
  },

  "log": {
    // debug, info, warn or error.                         FICHAJES_LOG_LEVEL
    "level": "info",
    // text or json.                                       FICHAJES_LOG_FORMAT
    "format": "text"
  },

  "export": {
    // Directory for exported reports.                     FICHAJES_EXPORT_DIR
    "dir": "."
  },

  "devstore": {
    // Listen address for "fichajes devstore".             FICHAJES_DEVSTORE_ADDR
    "addr": ":8787"
  }
}
`

// Dir returns the configuration directory: $FICHAJES_HOME or ~/.fichajes.
func Dir() (string, error) {
	if d := os.Getenv("FICHAJES_HOME"); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".fichajes"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads .env from the working directory, then config.json from Dir,
// creating it with annotated defaults on first run.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), fmt.Errorf("reading .env: %w", err)
	}
	dir, err := Dir()
	if err != nil {
		return defaultConfig(), err
	}
	return LoadFrom(filepath.Join(dir, "config.json"))
}

// LoadFrom reads the config file at path, writing the template if it does
// not exist, and applies FICHAJES_* environment overrides.
func LoadFrom(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
	case err != nil:
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
			return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	fillDefaults(&cfg, filepath.Dir(path))
	return cfg, nil
}

// fillDefaults replaces zero values left by a partially filled file.
func fillDefaults(cfg *Config, dir string) {
	if cfg.Remote.PollInterval <= 0 {
		cfg.Remote.PollInterval = Duration(DefaultPollInterval)
	}
	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = Duration(DefaultTimeout)
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(dir, "cache")
	}
	if cfg.Dirty.MaxMismatches == 0 {
		cfg.Dirty.MaxMismatches = DefaultMaxMismatches
	}
	if cfg.Dirty.TTL == 0 {
		cfg.Dirty.TTL = Duration(DefaultDirtyTTL)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "."
	}
	if cfg.DevStore.Addr == "" {
		cfg.DevStore.Addr = DefaultDevStoreAddr
	}
}

func applyEnv(cfg *Config) error {
	cfg.Remote.Endpoint = getEnv("FICHAJES_ENDPOINT", cfg.Remote.Endpoint)
	cfg.Remote.Token = getEnv("FICHAJES_TOKEN", cfg.Remote.Token)
	cfg.Cache.Backend = getEnv("FICHAJES_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.Dir = getEnv("FICHAJES_CACHE_DIR", cfg.Cache.Dir)
	cfg.Log.Level = getEnv("FICHAJES_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("FICHAJES_LOG_FORMAT", cfg.Log.Format)
	cfg.Export.Dir = getEnv("FICHAJES_EXPORT_DIR", cfg.Export.Dir)
	cfg.DevStore.Addr = getEnv("FICHAJES_DEVSTORE_ADDR", cfg.DevStore.Addr)

	for key, dst := range map[string]*Duration{
		"FICHAJES_POLL_INTERVAL": &cfg.Remote.PollInterval,
		"FICHAJES_TIMEOUT":       &cfg.Remote.Timeout,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = Duration(d)
		}
	}
	if v := os.Getenv("FICHAJES_COUNT_EMPTY_WORKDAYS"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid FICHAJES_COUNT_EMPTY_WORKDAYS: %w", err)
		}
		cfg.Stats.CountEmptyWorkdays = b
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
