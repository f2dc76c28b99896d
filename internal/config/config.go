package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultDatabaseURL     = "taskmaster.db"
	DefaultBackupDir       = "backups"
	DefaultReminderMinutes = 15
	DefaultMaintenanceTime = "03:00"
	DefaultReportTime      = "09:00"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken   string `toml:"telegram_token"`
	OwnerID         int64  `toml:"owner_id"`
	StorageDriver   string `toml:"storage_driver"`
	DatabaseURL     string `toml:"database_url"`
	BackupDir       string `toml:"backup_dir"`
	ReminderMinutes int    `toml:"reminder_interval_minutes"`
	MaintenanceTime string `toml:"maintenance_time"`
	ReportTime      string `toml:"report_time"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
}

// ReminderInterval is how often due-date reminders are checked.
func (c Config) ReminderInterval() time.Duration {
	return time.Duration(c.ReminderMinutes) * time.Minute
}

func defaultConfig() Config {
	return Config{
		StorageDriver:   "gorm",
		DatabaseURL:     DefaultDatabaseURL,
		BackupDir:       DefaultBackupDir,
		ReminderMinutes: DefaultReminderMinutes,
		MaintenanceTime: DefaultMaintenanceTime,
		ReportTime:      DefaultReportTime,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load reads configuration in increasing priority: defaults, the TOML file
// named by TASKMASTER_CONFIG, then environment variables (a .env file in the
// working directory is loaded first when present).
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("TASKMASTER_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("TELEGRAM_TOKEN", &cfg.TelegramToken)
	str("STORAGE_DRIVER", &cfg.StorageDriver)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("BACKUP_DIR", &cfg.BackupDir)
	str("MAINTENANCE_TIME", &cfg.MaintenanceTime)
	str("REPORT_TIME", &cfg.ReportTime)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	if raw := strings.TrimSpace(getenv("TELEGRAM_OWNER_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_OWNER_ID must be a numeric chat id: %w", err)
		}
		cfg.OwnerID = id
	}
	if raw := strings.TrimSpace(getenv("REMINDER_INTERVAL_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("REMINDER_INTERVAL_MINUTES: %w", err)
		}
		cfg.ReminderMinutes = minutes
	}
	return nil
}

func (c Config) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.OwnerID == 0 {
		return fmt.Errorf("TELEGRAM_OWNER_ID is required")
	}
	switch c.StorageDriver {
	case "gorm", "sqlite", "memory":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be gorm, sqlite or memory, got %q", c.StorageDriver)
	}
	if c.ReminderMinutes <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL_MINUTES must be positive")
	}
	return nil
}
