package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	require.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "padron.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  rate_limit: 60
db:
  driver: memory
log:
  level: debug
lock:
  backend: redis
  ttl: 3s
identity:
  default_actor: inspector
`), 0o600))

	t.Setenv("PADRON_CONFIG_PATH", path)
	t.Setenv("PADRON_SERVER_PORT", "7070")
	t.Setenv("PADRON_LOCK_REDIS_ADDR", "redis:6380")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 60, cfg.Server.RateLimit)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, "memory", cfg.DB.Driver)
	require.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	require.Equal(t, "redis", cfg.Lock.Backend)
	require.Equal(t, "redis:6380", cfg.Lock.RedisAddr)
	require.Equal(t, 3*time.Second, cfg.Lock.TTL)
	require.Equal(t, "inspector", cfg.Identity.DefaultActor)
	require.Equal(t, "X-Actor", cfg.Identity.Header)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":  {"PADRON_DB_DRIVER": "postgres"},
		"mode":    {"PADRON_TRANSPORT_MODE": "grpc"},
		"backend": {"PADRON_LOCK_BACKEND": "etcd"},
		"level":   {"PADRON_LOG_LEVEL": "loud"},
		"port":    {"PADRON_SERVER_PORT": "not-a-number"},
		"actor":   {"PADRON_IDENTITY_DEFAULT_ACTOR": " "},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("PADRON_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}
