package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

// upcomingWindow is how far ahead the daily summary looks.
const upcomingWindow = 7

// ReminderService builds due-date reminders and the daily summary.
type ReminderService struct {
	taskRepo     *repository.TaskRepository
	settingsRepo *repository.SettingsRepository
	notifier     Notifier

	mu sync.Mutex
	// sent maps user id to task id to the due date last reminded about.
	sent map[string]map[string]model.Date
}

func NewReminderService(taskRepo *repository.TaskRepository, settingsRepo *repository.SettingsRepository, notifier Notifier) *ReminderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ReminderService{
		taskRepo:     taskRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		sent:         make(map[string]map[string]model.Date),
	}
}

// DueReminders returns the open tasks whose due date starts within the
// configured lead time of now and that were not reminded for that date yet.
// Overdue tasks qualify too, once.
func (s *ReminderService) DueReminders(ctx context.Context, user *model.User, now time.Time) ([]model.Task, error) {
	settings, err := s.settingsRepo.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !settings.RemindersEnabled() {
		return nil, nil
	}
	tasks, err := s.taskRepo.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	horizon := now.Add(settings.Notifications.ReminderTime.Duration())

	s.mu.Lock()
	defer s.mu.Unlock()

	sent := s.sent[user.ID]
	open := make(map[string]bool, len(tasks))
	var due []model.Task
	for _, task := range tasks {
		if task.IsCompleted() || task.DueDate.IsZero() {
			continue
		}
		open[task.ID] = true
		if task.DueDate.In(now.Location()).After(horizon) {
			continue
		}
		if last, ok := sent[task.ID]; ok && last.Equal(task.DueDate) {
			continue
		}
		due = append(due, task)
	}
	// Deleted and completed tasks no longer need dedup entries.
	for id := range sent {
		if !open[id] {
			delete(sent, id)
		}
	}
	return due, nil
}

// remembered reports how many reminder entries are kept for the user.
func (s *ReminderService) remembered(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent[userID])
}

// SendReminders notifies about every task DueReminders selects and returns how many went out.
func (s *ReminderService) SendReminders(ctx context.Context, user *model.User, now time.Time) (int, error) {
	due, err := s.DueReminders(ctx, user, now)
	if err != nil {
		return 0, err
	}
	today := model.DateOf(now)
	sent := 0
	for _, task := range due {
		if err := s.notifier.Notify(ctx, "Task due", formatReminder(task, today)); err != nil {
			log.Warn("reminder not delivered", "task", task.ID, "err", err)
			continue
		}
		s.mu.Lock()
		if s.sent[user.ID] == nil {
			s.sent[user.ID] = make(map[string]model.Date)
		}
		s.sent[user.ID][task.ID] = task.DueDate
		s.mu.Unlock()
		sent++
	}
	return sent, nil
}

// DailySummary renders an HTML report of overdue, due-today and upcoming tasks.
func (s *ReminderService) DailySummary(ctx context.Context, user *model.User, now time.Time) (string, error) {
	tasks, err := s.taskRepo.List(ctx, user.ID)
	if err != nil {
		return "", err
	}
	settings, err := s.settingsRepo.Get(ctx, user.ID)
	if err != nil {
		return "", err
	}

	today := model.DateOf(now)
	var overdue, dueToday, upcoming []model.Task
	for _, task := range DeriveVisibleTasks(tasks, "", "", &settings) {
		if task.IsCompleted() || task.DueDate.IsZero() {
			continue
		}
		switch {
		case task.DueDate.Before(today):
			overdue = append(overdue, task)
		case task.DueDate.Equal(today):
			dueToday = append(dueToday, task)
		case !task.DueDate.After(today.AddDays(upcomingWindow)):
			upcoming = append(upcoming, task)
		}
	}

	stats := ComputeStats(tasks, now)

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily summary</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", today))
	builder.WriteString(fmt.Sprintf("%d tasks · %d%% completed · %d in progress\n\n", stats.Total, stats.CompletionRate, stats.InProgress.Count))

	writeSection(&builder, "⚠️ <b>Overdue</b>", overdue, today)
	writeSection(&builder, "⏳ <b>Due today</b>", dueToday, today)
	writeSection(&builder, fmt.Sprintf("🗓 <b>Next %d days</b>", upcomingWindow), upcoming, today)

	return strings.TrimSpace(builder.String()), nil
}

func writeSection(b *strings.Builder, title string, tasks []model.Task, today model.Date) {
	b.WriteString(title)
	b.WriteByte('\n')
	if len(tasks) == 0 {
		b.WriteString("— nothing here\n\n")
		return
	}
	for _, task := range tasks {
		b.WriteString(formatReminder(task, today))
	}
	b.WriteByte('\n')
}

func formatReminder(task model.Task, today model.Date) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.DueDate.Before(today):
		icon = "⚠️"
	case !task.DueDate.After(today.AddDays(1)):
		icon = "⏳"
	}

	sb.WriteString(fmt.Sprintf("%s %s <i>(%s, %s)</i>", icon, html.EscapeString(strings.TrimSpace(task.Title)), task.Category, task.Priority))

	if task.DueDate.Before(today) {
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>overdue</b>", task.DueDate))
	} else {
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s", task.DueDate))
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}
