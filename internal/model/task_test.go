package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTaskNormalize(t *testing.T) {
	task := Task{Status: "done", Priority: "urgent", Category: "hobby"}
	task.Normalize()
	if task.Status != StatusTodo || task.Priority != PriorityMedium || task.Category != CategoryOther {
		t.Errorf("normalized = %s/%s/%s", task.Status, task.Priority, task.Category)
	}
	if task.Tags == nil {
		t.Error("tags left nil")
	}

	valid := Task{Status: StatusCompleted, Priority: PriorityHigh, Category: CategoryHealth, Tags: []string{"x"}}
	valid.Normalize()
	if valid.Status != StatusCompleted || valid.Priority != PriorityHigh || valid.Category != CategoryHealth || len(valid.Tags) != 1 {
		t.Errorf("valid task changed: %+v", valid)
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityHigh.Rank() < PriorityMedium.Rank() && PriorityMedium.Rank() < PriorityLow.Rank()) {
		t.Error("rank order broken")
	}
	if Priority("urgent").Rank() <= PriorityLow.Rank() {
		t.Error("unknown priority should rank last")
	}
}

func TestParseEnums(t *testing.T) {
	if s, err := ParseStatus(" In-Progress "); err != nil || s != StatusInProgress {
		t.Errorf("ParseStatus = %s, %v", s, err)
	}
	if _, err := ParseStatus("archived"); err == nil {
		t.Error("ParseStatus accepted archived")
	}
	if p, err := ParsePriority("HIGH"); err != nil || p != PriorityHigh {
		t.Errorf("ParsePriority = %s, %v", p, err)
	}
	if c, err := ParseCategory("Finance"); err != nil || c != CategoryFinance {
		t.Errorf("ParseCategory = %s, %v", c, err)
	}
	if _, err := ParseCategory("hobby"); err == nil {
		t.Error("ParseCategory accepted hobby")
	}
}

func TestTaskPatchApply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", Title: "old", UserID: "u1", CreatedAt: created, Status: StatusTodo, Tags: []string{"a"}}

	title := "new"
	status := StatusCompleted
	due := NewDate(2024, 2, 2)
	tags := []string{}
	TaskPatch{Title: &title, Status: &status, DueDate: &due, Tags: &tags}.Apply(&task)

	if task.Title != "new" || task.Status != StatusCompleted || task.DueDate.String() != "2024-02-02" || len(task.Tags) != 0 {
		t.Errorf("patched = %+v", task)
	}
	if task.ID != "t1" || task.UserID != "u1" || !task.CreatedAt.Equal(created) {
		t.Errorf("identity fields changed: %+v", task)
	}
}

func TestTaskJSONFieldNames(t *testing.T) {
	task := Task{ID: "t1", Title: "x", Status: StatusTodo, Priority: PriorityLow, Category: CategoryWork,
		DueDate: NewDate(2024, 1, 5), UserID: "u1", Tags: []string{}}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"id", "title", "description", "status", "priority", "category", "dueDate", "createdAt", "userId", "tags"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing %q in %s", key, data)
		}
	}
	if fields["dueDate"] != "2024-01-05" {
		t.Errorf("dueDate = %v", fields["dueDate"])
	}
}
