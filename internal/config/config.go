package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:",squash"`
	Common   CommonSettings `mapstructure:",squash"`
	Telegram TelegramConfig `mapstructure:",squash"`
}

type AppConfig struct {
	Name     string `mapstructure:"APP_NAME"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
}

// CommonSettings are shared read-only by every backup job.
type CommonSettings struct {
	DumpToolPath       string `mapstructure:"MONGODUMP_PATH"`
	PgDumpPath         string `mapstructure:"PG_DUMP_PATH"`
	ArchiverPath       string `mapstructure:"ARCHIVER_PATH"`
	CompressionLevel   int    `mapstructure:"COMPRESSION_LEVEL"`
	CompressionThreads int    `mapstructure:"COMPRESSION_THREADS"`
	BackupDir          string `mapstructure:"BACKUP_DIR"`
	DumpDir            string `mapstructure:"DUMP_DIR"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `mapstructure:"TELEGRAM_CHAT_ID"`
}

func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

var envKeys = []string{
	"APP_NAME", "LOG_LEVEL", "LOG_FILE",
	"MONGODUMP_PATH", "PG_DUMP_PATH", "ARCHIVER_PATH", "COMPRESSION_LEVEL", "COMPRESSION_THREADS",
	"BACKUP_DIR", "DUMP_DIR",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
}

// Load reads the process settings from the environment. envFile is loaded
// first when it exists; variables already set in the environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetDefault("APP_NAME", "mongodb-backups")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("MONGODUMP_PATH", "/usr/bin/mongodump")
	v.SetDefault("PG_DUMP_PATH", "/usr/bin/pg_dump")
	v.SetDefault("ARCHIVER_PATH", "/usr/bin/7z")
	v.SetDefault("COMPRESSION_LEVEL", 3)
	v.SetDefault("COMPRESSION_THREADS", 1)
	v.SetDefault("BACKUP_DIR", "./backups")
	v.SetDefault("DUMP_DIR", "./mongoDumpFolder")
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TELEGRAM_CHAT_ID", 0)

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Common.DumpToolPath == "" {
		return fmt.Errorf("MONGODUMP_PATH is required")
	}
	if c.Common.ArchiverPath == "" {
		return fmt.Errorf("ARCHIVER_PATH is required")
	}
	if c.Common.CompressionLevel < 0 || c.Common.CompressionLevel > 9 {
		return fmt.Errorf("COMPRESSION_LEVEL must be between 0 and 9, got %d", c.Common.CompressionLevel)
	}
	if c.Common.CompressionThreads < 1 {
		return fmt.Errorf("COMPRESSION_THREADS must be at least 1, got %d", c.Common.CompressionThreads)
	}
	if c.Common.BackupDir == "" {
		return fmt.Errorf("BACKUP_DIR is required")
	}
	if c.Common.DumpDir == "" {
		return fmt.Errorf("DUMP_DIR is required")
	}
	return nil
}
