package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

// SettingKeys lists the names accepted by SettingsService.Apply.
var SettingKeys = []string{
	"theme", "view", "sidebar",
	"notifications", "reminders", "reminder", "push",
	"density", "completed", "sort", "direction",
	"backup", "frequency", "retention",
}

// SettingsService reads and edits the per-user preferences.
type SettingsService struct {
	repo *repository.SettingsRepository

	mu        sync.Mutex
	listeners []func(user *model.User, settings model.UserSettings)
}

func NewSettingsService(repo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// OnChange registers fn to run after every successful save.
func (s *SettingsService) OnChange(fn func(user *model.User, settings model.UserSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *SettingsService) Get(ctx context.Context, user *model.User) (model.UserSettings, error) {
	return s.repo.Get(ctx, user.ID)
}

func (s *SettingsService) Save(ctx context.Context, user *model.User, settings model.UserSettings) error {
	settings.Normalize()
	if err := s.repo.Save(ctx, user.ID, settings); err != nil {
		return err
	}
	s.notify(user, settings)
	return nil
}

func (s *SettingsService) Reset(ctx context.Context, user *model.User) (model.UserSettings, error) {
	settings, err := s.repo.Reset(ctx, user.ID)
	if err != nil {
		return settings, err
	}
	s.notify(user, settings)
	return settings, nil
}

// Apply changes a single setting addressed by one of SettingKeys.
func (s *SettingsService) Apply(ctx context.Context, user *model.User, key, value string) (model.UserSettings, error) {
	settings, err := s.repo.Get(ctx, user.ID)
	if err != nil {
		return settings, err
	}
	if err := applySetting(&settings, strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value)); err != nil {
		return settings, err
	}
	if err := s.Save(ctx, user, settings); err != nil {
		return settings, err
	}
	return settings, nil
}

func (s *SettingsService) notify(user *model.User, settings model.UserSettings) {
	s.mu.Lock()
	listeners := append([]func(*model.User, model.UserSettings){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(user, settings)
	}
}

func applySetting(s *model.UserSettings, key, value string) error {
	invalid := func(allowed string) error {
		return &ValidationError{Fields: map[string]string{key: "must be one of " + allowed}}
	}
	switch key {
	case "theme":
		t := model.Theme(strings.ToLower(value))
		if !t.Valid() {
			return invalid("light, dark, system")
		}
		s.Theme = t
	case "view":
		v := model.View(strings.ToLower(value))
		if !v.Valid() {
			return invalid("list, board, calendar, stats")
		}
		s.DefaultView = v
	case "density":
		d := model.Density(strings.ToLower(value))
		if !d.Valid() {
			return invalid("compact, comfortable")
		}
		s.Display.TaskDensity = d
	case "sort":
		k, ok := parseSortKey(value)
		if !ok {
			return invalid("dueDate, priority, title, createdAt")
		}
		s.Display.DefaultSorting = k
	case "direction":
		d := model.SortDirection(strings.ToLower(value))
		if !d.Valid() {
			return invalid("asc, desc")
		}
		s.Display.DefaultSortDirection = d
	case "reminder":
		r := model.ReminderLead(strings.ToLower(value))
		if !r.Valid() {
			return invalid("30min, 1hour, 3hours, 1day, 2days")
		}
		s.Notifications.ReminderTime = r
	case "frequency":
		f := model.BackupFrequency(strings.ToLower(value))
		if !f.Valid() {
			return invalid("daily, weekly, monthly")
		}
		s.Data.BackupFrequency = f
	case "retention":
		p := model.RetentionPeriod(strings.ToLower(value))
		if !p.Valid() {
			return invalid("30days, 90days, 1year, forever")
		}
		s.Data.DataRetention = p
	case "sidebar", "notifications", "reminders", "push", "completed", "backup":
		b, ok := parseSwitch(value)
		if !ok {
			return invalid("on, off")
		}
		switch key {
		case "sidebar":
			s.SidebarCollapsed = b
		case "notifications":
			s.Notifications.Enabled = b
		case "reminders":
			s.Notifications.DueDateReminders = b
		case "push":
			s.Notifications.BrowserNotifications = b
		case "completed":
			s.Display.ShowCompletedTasks = b
		case "backup":
			s.Data.AutoBackup = b
		}
	default:
		return &ValidationError{Fields: map[string]string{"key": fmt.Sprintf("%q is not a setting", key)}}
	}
	return nil
}

func parseSortKey(value string) (model.SortKey, bool) {
	for _, k := range []model.SortKey{model.SortByDueDate, model.SortByPriority, model.SortByTitle, model.SortByCreatedAt} {
		if strings.EqualFold(string(k), value) {
			return k, true
		}
	}
	return "", false
}

func parseSwitch(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "on", "true", "yes", "1":
		return true, true
	case "off", "false", "no", "0":
		return false, true
	}
	return false, false
}
