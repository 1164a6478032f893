package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8199), cfg.HTTP.Port)
	assert.Equal(t, DefaultMainDatabasePath, cfg.Database.MainPath)
	assert.Equal(t, DefaultLevelsDatabasePath, cfg.Database.LevelsPath)
	assert.Equal(t, DefaultRemoteBaseURL, cfg.Remote.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 1, cfg.Import.Workers)
	assert.Equal(t, time.Minute, cfg.Import.ItemTimeout)
	assert.Equal(t, int64(2*1024*1024), cfg.Import.MaxFileSize)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LEVELS_DATABASE_PATH", "/tmp/levels.sqlite")
	t.Setenv("PR2_BASE_URL", "http://localhost:9000")
	t.Setenv("IMPORT_WORKERS", "4")
	t.Setenv("IMPORT_ITEM_TIMEOUT", "5s")

	cfg := NewConfig()

	assert.Equal(t, "/tmp/levels.sqlite", cfg.Database.LevelsPath)
	assert.Equal(t, "http://localhost:9000", cfg.Remote.BaseURL)
	assert.Equal(t, 4, cfg.Import.Workers)
	assert.Equal(t, 5*time.Second, cfg.Import.ItemTimeout)
}
