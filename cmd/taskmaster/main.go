package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"taskmaster/internal/bot"
	"taskmaster/internal/config"
	"taskmaster/internal/logging"
	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
	"taskmaster/internal/store"
)

const jobTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", "err", err)
	}
	logging.Setup(logging.OptionsFromConfig(cfg.LogLevel, cfg.LogFormat))

	kv, err := store.Open(cfg.StorageDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open storage", "driver", cfg.StorageDriver, "err", err)
	}
	defer kv.Close()

	userRepo := repository.NewUserRepository(kv)
	taskRepo := repository.NewTaskRepository(kv)
	settingsRepo := repository.NewSettingsRepository(kv)

	api, err := bot.NewAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal("telegram", "err", err)
	}
	notifier := bot.NewNotifier(api, cfg.OwnerID)

	authSvc := service.NewAuthService(userRepo, taskRepo)
	taskSvc := service.NewTaskService(taskRepo, settingsRepo, notifier)
	settingsSvc := service.NewSettingsService(settingsRepo)
	dataSvc := service.NewDataService(taskRepo, settingsRepo, cfg.BackupDir)
	reminderSvc := service.NewReminderService(taskRepo, settingsRepo, notifier)

	// runForUser runs a background job for the logged-in user, if any.
	runForUser := func(name string, job func(ctx context.Context, user *model.User) error) func() {
		return func() {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			user, err := authSvc.Current(jobCtx)
			if errors.Is(err, service.ErrNotAuthenticated) {
				log.Debug("job skipped, nobody logged in", "job", name)
				return
			}
			if err != nil {
				log.Error("job: resolve user", "job", name, "err", err)
				return
			}
			if err := job(jobCtx, user); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("job failed", "job", name, "user", user.ID, "err", err)
			}
		}
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval("reminders", cfg.ReminderInterval(), runForUser("reminders", func(ctx context.Context, user *model.User) error {
		sent, err := reminderSvc.SendReminders(ctx, user, time.Now())
		if sent > 0 {
			log.Info("reminders sent", "user", user.ID, "count", sent)
		}
		return err
	})); err != nil {
		log.Fatal("schedule reminders", "err", err)
	}
	if _, err := scheduler.ScheduleDaily("retention", cfg.MaintenanceTime, runForUser("retention", func(ctx context.Context, user *model.User) error {
		removed, err := dataSvc.ApplyRetention(ctx, user)
		if removed > 0 {
			log.Info("retention applied", "user", user.ID, "removed", removed)
		}
		return err
	})); err != nil {
		log.Fatal("schedule retention", "err", err)
	}
	if _, err := scheduler.ScheduleDaily("report", cfg.ReportTime, runForUser("report", func(ctx context.Context, user *model.User) error {
		text, err := reminderSvc.DailySummary(ctx, user, time.Now())
		if err != nil {
			return err
		}
		return notifier.Send(ctx, text)
	})); err != nil {
		log.Fatal("schedule report", "err", err)
	}

	backupJob := runForUser("backup", func(ctx context.Context, user *model.User) error {
		_, _, err := dataSvc.AutoBackup(ctx, user, time.Now())
		return err
	})
	scheduleBackup := func(freq model.BackupFrequency) {
		if _, err := scheduler.ScheduleBackup(freq, backupJob); err != nil {
			log.Error("schedule backup", "frequency", freq, "err", err)
		}
	}
	backupFreq := model.DefaultSettings().Data.BackupFrequency
	if user, err := authSvc.Current(ctx); err == nil {
		if settings, err := settingsSvc.Get(ctx, user); err == nil {
			backupFreq = settings.Data.BackupFrequency
		}
	}
	scheduleBackup(backupFreq)
	settingsSvc.OnChange(func(_ *model.User, settings model.UserSettings) {
		scheduleBackup(settings.Data.BackupFrequency)
	})

	scheduler.Start()
	defer scheduler.Stop()

	telegramBot := bot.New(api, bot.Services{
		Auth:      authSvc,
		Tasks:     taskSvc,
		Settings:  settingsSvc,
		Data:      dataSvc,
		Reminders: reminderSvc,
	}, &cfg)

	log.Info("taskmaster started", "bot", api.Self.UserName, "storage", cfg.StorageDriver)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bot stopped", "err", err)
	}
	log.Info("shutdown complete")
}
