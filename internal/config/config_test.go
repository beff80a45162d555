package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Pool.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(New(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poolserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 0.0.0.0:9000
pool:
  workers: 3
logging:
  level: debug
`), 0644))

	cfg, err := Load(New(path))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Pool.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "./response", cfg.Server.ResponseDir, "unset keys keep defaults")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MPSC_POOL_WORKERS", "4")

	cfg, err := Load(New(""))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Pool.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	v := New("")
	v.Set("pool.workers", 0)
	v.Set("logging.level", "loud")

	_, err := Load(v)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "pool.workers")
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate_Addresses(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = "nope"
	cfg.Metrics.Addr = "also-nope"

	errs := cfg.Validate()
	require.Len(t, errs, 2)
	assert.Equal(t, "server.addr", errs[0].Field)
	assert.Equal(t, "metrics.addr", errs[1].Field)
}

func TestWatch_ReloadsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poolserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644))

	v := New(path)
	_, err := Load(v)
	require.NoError(t, err)

	changed := make(chan *Config, 4)
	Watch(v, func(cfg *Config, _ fsnotify.Event) { changed <- cfg }, nil)

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Logging.Level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}
