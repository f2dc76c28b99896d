package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

// TaskInput represents data required to create a task.
// Zero enum values fall back to todo, medium, other; a zero due date means today.
type TaskInput struct {
	Title       string
	Description string
	Status      model.Status
	Priority    model.Priority
	Category    model.Category
	DueDate     model.Date
	Tags        []string
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	settingsRepo *repository.SettingsRepository
	notifier     Notifier
	now          func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository, settingsRepo *repository.SettingsRepository, notifier Notifier) *TaskService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TaskService{
		taskRepo:     taskRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		now:          time.Now,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	task := model.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		Category:    input.Category,
		DueDate:     input.DueDate,
		UserID:      user.ID,
		Tags:        cleanTags(input.Tags),
	}
	if task.Status == "" {
		task.Status = model.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Category == "" {
		task.Category = model.CategoryOther
	}
	if task.DueDate.IsZero() {
		task.DueDate = model.DateOf(s.now())
	}

	v := newValidator()
	v.checkCond(task.Title != "", "title", "must be provided")
	v.checkCond(task.Status.Valid(), "status", "must be todo, in-progress or completed")
	v.checkCond(task.Priority.Valid(), "priority", "must be low, medium or high")
	v.checkCond(task.Category.Valid(), "category", "must be a known category")
	if err := v.err(); err != nil {
		return nil, err
	}

	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	log.Info("task created", "id", created.ID, "user", user.ID, "category", created.Category)

	s.push(ctx, user, "Task Created", fmt.Sprintf("New task created: %s", html.EscapeString(created.Title)))
	return &created, nil
}

// UpdateTask applies a partial update. Completing a task pushes a notification.
func (s *TaskService) UpdateTask(ctx context.Context, user *model.User, taskID string, patch model.TaskPatch) (*model.Task, error) {
	v := newValidator()
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
		v.checkCond(trimmed != "", "title", "must be provided")
	}
	if patch.Status != nil {
		v.checkCond(patch.Status.Valid(), "status", "must be todo, in-progress or completed")
	}
	if patch.Priority != nil {
		v.checkCond(patch.Priority.Valid(), "priority", "must be low, medium or high")
	}
	if patch.Category != nil {
		v.checkCond(patch.Category.Valid(), "category", "must be a known category")
	}
	if patch.Tags != nil {
		tags := cleanTags(*patch.Tags)
		patch.Tags = &tags
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	updated, err := s.taskRepo.Update(ctx, user.ID, taskID, patch)
	if err != nil {
		return nil, err
	}
	log.Info("task updated", "id", updated.ID, "user", user.ID, "status", updated.Status)

	if patch.Status != nil && *patch.Status == model.StatusCompleted {
		s.push(ctx, user, "Task Completed", fmt.Sprintf("Task completed: %s", html.EscapeString(updated.Title)))
	}
	return &updated, nil
}

// SetStatus moves a task to another board lane.
func (s *TaskService) SetStatus(ctx context.Context, user *model.User, taskID string, status model.Status) (*model.Task, error) {
	return s.UpdateTask(ctx, user, taskID, model.TaskPatch{Status: &status})
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.Get(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.List(ctx, user.ID)
}

func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID string) error {
	if err := s.taskRepo.Delete(ctx, user.ID, taskID); err != nil {
		return err
	}
	log.Info("task deleted", "id", taskID, "user", user.ID)
	return nil
}

// Visible loads the user's tasks and settings and derives the list view.
func (s *TaskService) Visible(ctx context.Context, user *model.User, f Filter) ([]model.Task, error) {
	tasks, err := s.taskRepo.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return f.Visible(tasks, &settings), nil
}

// Stats covers the unfiltered task set.
func (s *TaskService) Stats(ctx context.Context, user *model.User, now time.Time) (Stats, error) {
	tasks, err := s.taskRepo.List(ctx, user.ID)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(tasks, now), nil
}

func (s *TaskService) Board(ctx context.Context, user *model.User, f Filter) (Board, error) {
	visible, err := s.Visible(ctx, user, f)
	if err != nil {
		return Board{}, err
	}
	return GroupByStatus(visible), nil
}

func (s *TaskService) Calendar(ctx context.Context, user *model.User, f Filter, year int, month time.Month) (Calendar, error) {
	visible, err := s.Visible(ctx, user, f)
	if err != nil {
		return Calendar{}, err
	}
	return CalendarMonth(visible, year, month), nil
}

func (s *TaskService) push(ctx context.Context, user *model.User, title, body string) {
	settings, err := s.settingsRepo.Get(ctx, user.ID)
	if err != nil || !settings.PushEnabled() {
		return
	}
	if err := s.notifier.Notify(ctx, title, body); err != nil {
		log.Warn("push notification failed", "title", title, "err", err)
	}
}

// cleanTags trims labels and drops empties and duplicates.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
