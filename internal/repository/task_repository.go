package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmaster/internal/model"
	"taskmaster/internal/store"
)

// TaskRepository keeps each user's tasks as one ordered JSON collection.
type TaskRepository struct {
	kv    store.KV
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewTaskRepository(kv store.KV) *TaskRepository {
	return &TaskRepository{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func tasksKey(userID string) string {
	return "tasks_" + userID
}

func (r *TaskRepository) List(ctx context.Context, userID string) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx, userID)
}

func (r *TaskRepository) Get(ctx context.Context, userID, taskID string) (model.Task, error) {
	tasks, err := r.List(ctx, userID)
	if err != nil {
		return model.Task{}, err
	}
	idx := indexOf(tasks, taskID)
	if idx < 0 {
		return model.Task{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return tasks[idx], nil
}

// Create assigns the id and creation time and appends the task to its owner's collection.
func (r *TaskRepository) Create(ctx context.Context, task model.Task) (model.Task, error) {
	if task.UserID == "" {
		return model.Task{}, errors.New("create task: user id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load(ctx, task.UserID)
	if err != nil {
		return model.Task{}, err
	}

	task.ID = r.newID()
	task.CreatedAt = r.now().UTC()
	if task.Tags == nil {
		task.Tags = []string{}
	}
	tasks = append(tasks, task)

	if err := r.save(ctx, task.UserID, tasks); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, userID, taskID string, patch model.TaskPatch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load(ctx, userID)
	if err != nil {
		return model.Task{}, err
	}
	idx := indexOf(tasks, taskID)
	if idx < 0 {
		return model.Task{}, fmt.Errorf("update task %s: %w", taskID, ErrNotFound)
	}

	patch.Apply(&tasks[idx])
	if err := r.save(ctx, userID, tasks); err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	return tasks[idx], nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load(ctx, userID)
	if err != nil {
		return err
	}
	idx := indexOf(tasks, taskID)
	if idx < 0 {
		return fmt.Errorf("delete task %s: %w", taskID, ErrNotFound)
	}

	tasks = append(tasks[:idx], tasks[idx+1:]...)
	if err := r.save(ctx, userID, tasks); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Export renders the user's collection as an indented JSON array.
func (r *TaskRepository) Export(ctx context.Context, userID string) (string, error) {
	tasks, err := r.List(ctx, userID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export tasks: %w", err)
	}
	return string(data), nil
}

// Import replaces the user's whole collection with the tasks in payload.
// Every record is re-owned by userID. Missing or repeated ids get a fresh one
// and a missing creation time becomes the import time.
func (r *TaskRepository) Import(ctx context.Context, userID, payload string) ([]model.Task, error) {
	if err := checkImportShape(payload); err != nil {
		return nil, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	now := r.now().UTC()
	tasks := make([]model.Task, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, raw := range records {
		task := decodeImportRecord(raw)
		task.UserID = userID
		for task.ID == "" || seen[task.ID] {
			task.ID = r.newID()
		}
		seen[task.ID] = true
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.Normalize()
		tasks = append(tasks, task)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.save(ctx, userID, tasks); err != nil {
		return nil, fmt.Errorf("import tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.save(ctx, userID, []model.Task{}); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	return nil
}

// ApplyRetention deletes completed tasks created before now minus period and
// returns how many were removed.
func (r *TaskRepository) ApplyRetention(ctx context.Context, userID string, period model.RetentionPeriod) (int, error) {
	cutoff, ok := period.Cutoff(r.now())
	if !ok {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	kept := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.IsCompleted() && task.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, task)
	}
	removed := len(tasks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := r.save(ctx, userID, kept); err != nil {
		return 0, fmt.Errorf("apply retention: %w", err)
	}
	return removed, nil
}

func (r *TaskRepository) load(ctx context.Context, userID string) ([]model.Task, error) {
	raw, ok, err := r.kv.Get(ctx, tasksKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !ok {
		return []model.Task{}, nil
	}
	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks for %s: %w", userID, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (r *TaskRepository) save(ctx context.Context, userID string, tasks []model.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, tasksKey(userID), data)
}

func indexOf(tasks []model.Task, taskID string) int {
	for i, task := range tasks {
		if task.ID == taskID {
			return i
		}
	}
	return -1
}
