package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"taskmaster/internal/model"
	"taskmaster/internal/store"
)

// SettingsRepository stores one UserSettings record per user.
type SettingsRepository struct {
	kv store.KV
}

func NewSettingsRepository(kv store.KV) *SettingsRepository {
	return &SettingsRepository{kv: kv}
}

func settingsKey(userID string) string {
	return "user_settings_" + userID
}

// Get returns the stored settings, or the defaults when nothing usable is stored.
// Fields missing from the stored record keep their default values.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (model.UserSettings, error) {
	settings := model.DefaultSettings()
	raw, ok, err := r.kv.Get(ctx, settingsKey(userID))
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return settings, nil
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		log.Warn("stored settings unreadable, using defaults", "user", userID, "err", err)
		return model.DefaultSettings(), nil
	}
	settings.Normalize()
	return settings, nil
}

// Save overwrites the user's settings record.
func (r *SettingsRepository) Save(ctx context.Context, userID string, settings model.UserSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := r.kv.Set(ctx, settingsKey(userID), data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Reset stores and returns the default record.
func (r *SettingsRepository) Reset(ctx context.Context, userID string) (model.UserSettings, error) {
	settings := model.DefaultSettings()
	if err := r.Save(ctx, userID, settings); err != nil {
		return settings, err
	}
	return settings, nil
}
