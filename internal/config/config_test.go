package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "taskweave.db", cfg.DBPath)
	assert.Equal(t, 100, cfg.HistoryCapacity)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.BackupRetention)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
db_path: /var/lib/tw/core.db
history_capacity: 50
sweep_interval: 30s
backup_retention: 48h
redis:
  addr: localhost:6379
  db: 2
  prefix: core
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tw/core.db", cfg.DBPath)
	assert.Equal(t, 50, cfg.HistoryCapacity)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 48*time.Hour, cfg.BackupRetention)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "core", cfg.Redis.Prefix)
}

func TestLoad_PartialYAMLKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "db_path: custom.db\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, 100, cfg.HistoryCapacity)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "db_path: from-yaml.db\nhistory_capacity: 50\n")

	t.Setenv("TASKWEAVE_DB_PATH", "from-env.db")
	t.Setenv("TASKWEAVE_SWEEP_INTERVAL", "5s")
	t.Setenv("TASKWEAVE_REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.DBPath)
	assert.Equal(t, 50, cfg.HistoryCapacity)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero history capacity":   "history_capacity: 0\n",
		"negative sweep interval": "sweep_interval: -1s\n",
		"zero backup retention":   "backup_retention: 0s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	_, err := Load(writeConfig(t, "db_path: [unclosed\n"))
	assert.Error(t, err)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
