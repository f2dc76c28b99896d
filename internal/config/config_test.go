package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TASKMASTER_CONFIG", "TELEGRAM_TOKEN", "TELEGRAM_OWNER_ID", "STORAGE_DRIVER",
		"DATABASE_URL", "BACKUP_DIR", "REMINDER_INTERVAL_MINUTES", "MAINTENANCE_TIME", "REPORT_TIME",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_OWNER_ID", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OwnerID != 42 || cfg.TelegramToken != "token" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.StorageDriver != "gorm" || cfg.DatabaseURL != DefaultDatabaseURL || cfg.BackupDir != DefaultBackupDir {
		t.Errorf("storage defaults = %+v", cfg)
	}
	if cfg.ReminderInterval() != 15*time.Minute || cfg.MaintenanceTime != "03:00" || cfg.ReportTime != "09:00" {
		t.Errorf("schedule defaults = %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "taskmaster.toml")
	content := `
telegram_token = "from-file"
owner_id = 7
storage_driver = "sqlite"
database_url = "data/tasks.db"
reminder_interval_minutes = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TASKMASTER_CONFIG", path)
	t.Setenv("DATABASE_URL", "env.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramToken != "from-file" || cfg.OwnerID != 7 || cfg.StorageDriver != "sqlite" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.DatabaseURL != "env.db" {
		t.Errorf("env did not override file: %s", cfg.DatabaseURL)
	}
	if cfg.ReminderInterval() != 5*time.Minute {
		t.Errorf("interval = %s", cfg.ReminderInterval())
	}
}

func TestLoadMemoryDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_OWNER_ID", "42")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageDriver != "memory" {
		t.Errorf("driver = %q", cfg.StorageDriver)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing token", map[string]string{"TELEGRAM_OWNER_ID": "1"}, "TELEGRAM_TOKEN"},
		{"missing owner", map[string]string{"TELEGRAM_TOKEN": "x"}, "TELEGRAM_OWNER_ID is required"},
		{"bad owner", map[string]string{"TELEGRAM_TOKEN": "x", "TELEGRAM_OWNER_ID": "me"}, "numeric"},
		{"bad driver", map[string]string{"TELEGRAM_TOKEN": "x", "TELEGRAM_OWNER_ID": "1", "STORAGE_DRIVER": "redis"}, "STORAGE_DRIVER"},
		{"bad interval", map[string]string{"TELEGRAM_TOKEN": "x", "TELEGRAM_OWNER_ID": "1", "REMINDER_INTERVAL_MINUTES": "0"}, "positive"},
		{"missing file", map[string]string{"TASKMASTER_CONFIG": "/nonexistent/taskmaster.toml"}, "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
