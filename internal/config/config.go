package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Remote
		Import
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		MainPath   string // Users database
		LevelsPath string // Levels database, the import target
	}
	Remote struct {
		BaseURL   string
		Timeout   time.Duration
		UserAgent string
	}
	Import struct {
		Workers     int           // 1 = strictly sequential, input-ordered progress
		ItemTimeout time.Duration // Applied to each resolve+convert, 0 disables
		MaxFileSize int64         // Upper bound for local level files, in bytes
		BatchSize   int           // Rows per INSERT during the batch commit
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8199)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("main_database_path", DefaultMainDatabasePath)
	v.SetDefault("levels_database_path", DefaultLevelsDatabasePath)
	v.SetDefault("pr2_base_url", DefaultRemoteBaseURL)
	v.SetDefault("pr2_timeout", "30s")
	v.SetDefault("pr2_user_agent", "PR2PS-LevelImporter/1.0")
	v.SetDefault("import_workers", 1)
	v.SetDefault("import_item_timeout", "1m")
	v.SetDefault("import_max_file_size", 2*1024*1024) // 2 MB
	v.SetDefault("import_batch_size", 100)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			MainPath:   v.GetString("MAIN_DATABASE_PATH"),
			LevelsPath: v.GetString("LEVELS_DATABASE_PATH"),
		},
		Remote: Remote{
			BaseURL:   v.GetString("PR2_BASE_URL"),
			Timeout:   v.GetDuration("PR2_TIMEOUT"),
			UserAgent: v.GetString("PR2_USER_AGENT"),
		},
		Import: Import{
			Workers:     v.GetInt("IMPORT_WORKERS"),
			ItemTimeout: v.GetDuration("IMPORT_ITEM_TIMEOUT"),
			MaxFileSize: v.GetInt64("IMPORT_MAX_FILE_SIZE"),
			BatchSize:   v.GetInt("IMPORT_BATCH_SIZE"),
		},
	}
}
