package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

func TestExportFileName(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), "taskmaster-export-2024-03-15.json"},
		{time.Date(2024, 3, 15, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)), "taskmaster-export-2024-03-16.json"},
	}
	for _, tt := range tests {
		if got := ExportFileName(tt.now); got != tt.want {
			t.Errorf("ExportFileName(%s) = %s, want %s", tt.now, got, tt.want)
		}
	}
}

func TestDataServiceExportImport(t *testing.T) {
	f := newFixture()
	svc := NewDataService(f.tasks, f.settings, t.TempDir())
	tasks := f.taskService()
	ctx := context.Background()

	for _, title := range []string{"One", "Two"} {
		if _, err := tasks.CreateTask(ctx, f.user, TaskInput{Title: title}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	name, content, err := svc.Export(ctx, f.user, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if name != "taskmaster-export-2024-01-02.json" {
		t.Errorf("name = %s", name)
	}

	other := &model.User{ID: "u2"}
	imported, err := svc.Import(ctx, other, content)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(imported) != 2 || imported[0].Title != "One" || imported[1].UserID != "u2" {
		t.Errorf("imported = %+v", imported)
	}

	if _, err := svc.Import(ctx, other, `{"title":"not a list"}`); !errors.Is(err, repository.ErrInvalidFormat) {
		t.Errorf("object payload: %v", err)
	}
	kept, _ := f.tasks.List(ctx, other.ID)
	if len(kept) != 2 {
		t.Errorf("failed import changed data: %d tasks", len(kept))
	}

	if err := svc.Clear(ctx, other); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if left, _ := f.tasks.List(ctx, other.ID); len(left) != 0 {
		t.Errorf("%d tasks after clear", len(left))
	}
	if left, _ := f.tasks.List(ctx, f.user.ID); len(left) != 2 {
		t.Errorf("clear touched another user: %d tasks", len(left))
	}
}

func TestDataServiceBackup(t *testing.T) {
	f := newFixture()
	dir := filepath.Join(t.TempDir(), "nested", "backups")
	svc := NewDataService(f.tasks, f.settings, dir)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)

	if _, err := f.taskService().CreateTask(ctx, f.user, TaskInput{Title: "Backed up"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if _, ran, err := svc.AutoBackup(ctx, f.user, now); err != nil || ran {
		t.Fatalf("AutoBackup with backups off: ran=%v err=%v", ran, err)
	}

	s := model.DefaultSettings()
	s.Data.AutoBackup = true
	if err := f.settings.Save(ctx, f.user.ID, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path, ran, err := svc.AutoBackup(ctx, f.user, now)
	if err != nil || !ran {
		t.Fatalf("AutoBackup: ran=%v err=%v", ran, err)
	}
	if filepath.Base(path) != "taskmaster-export-2024-05-01.json" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var saved []model.Task
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("backup is not a task list: %v", err)
	}
	if len(saved) != 1 || saved[0].Title != "Backed up" {
		t.Errorf("backup = %+v", saved)
	}
}

func TestDataServiceApplyRetention(t *testing.T) {
	f := newFixture()
	svc := NewDataService(f.tasks, f.settings, t.TempDir())
	ctx := context.Background()

	payload := `[
		{"id":"old-done","title":"a","status":"completed","createdAt":"2000-01-01T00:00:00Z"},
		{"id":"old-open","title":"b","status":"todo","createdAt":"2000-01-01T00:00:00Z"},
		{"id":"new-done","title":"c","status":"completed"}
	]`
	if _, err := f.tasks.Import(ctx, f.user.ID, payload); err != nil {
		t.Fatalf("Import: %v", err)
	}

	removed, err := svc.ApplyRetention(ctx, f.user)
	if err != nil || removed != 0 {
		t.Fatalf("forever retention removed %d, err %v", removed, err)
	}

	s := model.DefaultSettings()
	s.Data.DataRetention = model.Retention30Days
	if err := f.settings.Save(ctx, f.user.ID, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	removed, err = svc.ApplyRetention(ctx, f.user)
	if err != nil {
		t.Fatalf("ApplyRetention: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	left, _ := f.tasks.List(ctx, f.user.ID)
	if ids(left) != "old-open,new-done" {
		t.Errorf("left = %s", ids(left))
	}
}
