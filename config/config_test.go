package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.HTTPAddress)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "battleship", cfg.Monitor.Namespace)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  http_address: ":9000"
  rpc_address: ":9001"
store:
  backend: redis
  redis:
    prefix: test
monitor:
  sample_interval: 1s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("BATTLESHIP_SERVER_HTTP_ADDRESS", ":9100")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.HTTPAddress)
	assert.Equal(t, ":9001", cfg.Server.RPCAddress)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "test", cfg.Store.Redis.Prefix)
	assert.Equal(t, time.Second, cfg.Monitor.SampleInterval)
}

func TestLoadConfig_UnknownBackend(t *testing.T) {
	t.Setenv("BATTLESHIP_STORE_BACKEND", "etcd")

	_, err := LoadConfig(t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
