package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

const exportPrefix = "taskmaster-export-"

// DataService covers export, import, backups and retention.
type DataService struct {
	taskRepo     *repository.TaskRepository
	settingsRepo *repository.SettingsRepository
	backupDir    string
}

func NewDataService(taskRepo *repository.TaskRepository, settingsRepo *repository.SettingsRepository, backupDir string) *DataService {
	return &DataService{taskRepo: taskRepo, settingsRepo: settingsRepo, backupDir: backupDir}
}

// ExportFileName follows taskmaster-export-<YYYY-MM-DD>.json with the UTC date of now.
func ExportFileName(now time.Time) string {
	return exportPrefix + now.UTC().Format("2006-01-02") + ".json"
}

func (s *DataService) Export(ctx context.Context, user *model.User, now time.Time) (name, content string, err error) {
	content, err = s.taskRepo.Export(ctx, user.ID)
	if err != nil {
		return "", "", err
	}
	return ExportFileName(now), content, nil
}

// Import replaces the user's tasks with the payload's.
func (s *DataService) Import(ctx context.Context, user *model.User, payload string) ([]model.Task, error) {
	tasks, err := s.taskRepo.Import(ctx, user.ID, payload)
	if err != nil {
		return nil, err
	}
	log.Info("tasks imported", "user", user.ID, "count", len(tasks))
	return tasks, nil
}

func (s *DataService) Clear(ctx context.Context, user *model.User) error {
	if err := s.taskRepo.Clear(ctx, user.ID); err != nil {
		return err
	}
	log.Info("tasks cleared", "user", user.ID)
	return nil
}

// ApplyRetention purges old completed tasks according to the user's retention setting.
func (s *DataService) ApplyRetention(ctx context.Context, user *model.User) (int, error) {
	settings, err := s.settingsRepo.Get(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	removed, err := s.taskRepo.ApplyRetention(ctx, user.ID, settings.Data.DataRetention)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Info("retention applied", "user", user.ID, "period", settings.Data.DataRetention, "removed", removed)
	}
	return removed, nil
}

// Backup writes the export file into the backup directory and returns its path.
func (s *DataService) Backup(ctx context.Context, user *model.User, now time.Time) (string, error) {
	name, content, err := s.Export(ctx, user, now)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir %q: %w", s.backupDir, err)
	}
	path := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	log.Info("backup written", "user", user.ID, "path", path)
	return path, nil
}

// AutoBackup runs Backup only when the user enabled automatic backups.
func (s *DataService) AutoBackup(ctx context.Context, user *model.User, now time.Time) (string, bool, error) {
	settings, err := s.settingsRepo.Get(ctx, user.ID)
	if err != nil {
		return "", false, err
	}
	if !settings.Data.AutoBackup {
		return "", false, nil
	}
	path, err := s.Backup(ctx, user, now)
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}
