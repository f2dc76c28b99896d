package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
)

func TestShortTitle(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"buy milk", 20, "Buy milk"},
		{"  pay\nrent  ", 20, "Pay rent"},
		{"a very long task title indeed", 10, "A very lo…"},
		{"задача", 3, "За…"},
	}
	for _, tt := range tests {
		if got := shortTitle(tt.in, tt.max); got != tt.want {
			t.Errorf("shortTitle(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestParseMonth(t *testing.T) {
	now := time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in        string
		wantYear  int
		wantMonth time.Month
		wantErr   bool
	}{
		{"", 2024, time.July, false},
		{"2025-02", 2025, time.February, false},
		{" 2023-12 ", 2023, time.December, false},
		{"2025-13", 0, 0, true},
		{"july", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			year, month, err := parseMonth(tt.in, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if year != tt.wantYear || month != tt.wantMonth {
				t.Errorf("got %d-%s", year, month)
			}
		})
	}
}

func TestParseDue(t *testing.T) {
	now := time.Date(2024, 2, 28, 22, 0, 0, 0, time.UTC)
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"today", "2024-02-28", false},
		{"Tomorrow", "2024-02-29", false},
		{"2024-03-05", "2024-03-05", false},
		{"", "", true},
		{"next week", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDue(tt.in, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got.String() != tt.want {
				t.Errorf("due = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestParseTags(t *testing.T) {
	got := parseTags("#home, garden  #urgent,,")
	want := []string{"home", "garden", "urgent"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("parseTags = %v, want %v", got, want)
	}
	if len(parseTags("   ")) != 0 {
		t.Error("blank input produced tags")
	}
}

func TestStripIcon(t *testing.T) {
	for in, want := range map[string]string{
		categoryLabel(model.CategoryWork):  "work",
		categoryLabel(model.CategoryOther): "other",
		priorityLabel(model.PriorityHigh):  "high",
		"finance":                          "finance",
	} {
		if got := stripIcon(in); got != want {
			t.Errorf("stripIcon(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTask(t *testing.T) {
	today := model.NewDate(2024, 3, 15)
	task := model.Task{
		Title:       "call <bob>",
		Description: "about & stuff",
		Status:      model.StatusTodo,
		Priority:    model.PriorityHigh,
		Category:    model.CategoryWork,
		DueDate:     model.NewDate(2024, 3, 10),
		Tags:        []string{"phone"},
	}

	full := formatTask(task, today, false)
	for _, want := range []string{iconOverdue, "Call &lt;bob&gt;", "<b>overdue</b>", "about &amp; stuff", "#phone", "💼 work", "🔴 high"} {
		if !strings.Contains(full, want) {
			t.Errorf("full entry missing %q:\n%s", want, full)
		}
	}

	compact := formatTask(task, today, true)
	if strings.Contains(compact, "about") || strings.Contains(compact, "#phone") {
		t.Errorf("compact entry shows details:\n%s", compact)
	}

	task.Status = model.StatusCompleted
	done := formatTask(task, today, false)
	if !strings.HasPrefix(done, iconDone) || strings.Contains(done, "overdue") {
		t.Errorf("completed entry:\n%s", done)
	}
}

func TestFormatListTruncates(t *testing.T) {
	var tasks []model.Task
	for i := 0; i < maxListed+3; i++ {
		tasks = append(tasks, model.Task{ID: fmt.Sprint(i), Title: fmt.Sprintf("task %d", i), Status: model.StatusTodo, Priority: model.PriorityLow, Category: model.CategoryOther})
	}
	out := formatList(tasks, service.Filter{Category: model.CategoryOther, Search: "task"}, model.NewDate(2024, 1, 1), true)
	if !strings.Contains(out, "…and 3 more") {
		t.Errorf("missing truncation note:\n%s", out)
	}
	if !strings.Contains(out, "category <b>other</b>") || !strings.Contains(out, "search “task”") {
		t.Errorf("missing filter line:\n%s", out)
	}
	if rows := taskButtons(tasks); len(rows) != maxListed {
		t.Errorf("button rows = %d, want %d", len(rows), maxListed)
	}

	empty := formatList(nil, service.Filter{}, model.NewDate(2024, 1, 1), false)
	if !strings.Contains(empty, "/newtask") {
		t.Errorf("empty list:\n%s", empty)
	}
}

func TestTaskButtons(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Title: "todo", Status: model.StatusTodo},
		{ID: "b", Title: "doing", Status: model.StatusInProgress},
		{ID: "c", Title: "done", Status: model.StatusCompleted},
	}
	want := [][]string{
		{cbStartPrefix + "a", cbCompletePrefix + "a", cbEditPrefix + "a", cbDeletePrefix + "a"},
		{cbCompletePrefix + "b", cbReopenPrefix + "b", cbEditPrefix + "b", cbDeletePrefix + "b"},
		{cbReopenPrefix + "c", cbEditPrefix + "c", cbDeletePrefix + "c"},
	}
	rows := taskButtons(tasks)
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i, row := range rows {
		var got []string
		for _, btn := range row {
			if btn.CallbackData == nil {
				t.Fatalf("row %d has a button without data", i)
			}
			got = append(got, *btn.CallbackData)
		}
		if strings.Join(got, " ") != strings.Join(want[i], " ") {
			t.Errorf("row %d = %v, want %v", i, got, want[i])
		}
		for _, data := range got {
			if len(data) > 64 {
				t.Errorf("callback data %q exceeds 64 bytes", data)
			}
		}
	}
}

func TestParseTaskEdit(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	t.Run("fields", func(t *testing.T) {
		tests := []struct {
			in    string
			check func(p model.TaskPatch) bool
		}{
			{"title Call the bank", func(p model.TaskPatch) bool { return p.Title != nil && *p.Title == "Call the bank" }},
			{"Description bring the forms", func(p model.TaskPatch) bool { return p.Description != nil && *p.Description == "bring the forms" }},
			{"desc -", func(p model.TaskPatch) bool { return p.Description != nil && *p.Description == "" }},
			{"category " + categoryLabel(model.CategoryFinance), func(p model.TaskPatch) bool { return p.Category != nil && *p.Category == model.CategoryFinance }},
			{"priority HIGH", func(p model.TaskPatch) bool { return p.Priority != nil && *p.Priority == model.PriorityHigh }},
			{"status todo", func(p model.TaskPatch) bool { return p.Status != nil && *p.Status == model.StatusTodo }},
			{"status in progress", func(p model.TaskPatch) bool { return p.Status != nil && *p.Status == model.StatusInProgress }},
			{"due tomorrow", func(p model.TaskPatch) bool { return p.DueDate != nil && p.DueDate.String() == "2024-03-16" }},
			{"due 2024-04-01", func(p model.TaskPatch) bool { return p.DueDate != nil && p.DueDate.String() == "2024-04-01" }},
			{"tags #home, errands", func(p model.TaskPatch) bool { return p.Tags != nil && strings.Join(*p.Tags, "|") == "home|errands" }},
			{"tags -", func(p model.TaskPatch) bool { return p.Tags != nil && len(*p.Tags) == 0 }},
		}
		for _, tt := range tests {
			t.Run(tt.in, func(t *testing.T) {
				patch, err := parseTaskEdit(tt.in, now)
				if err != nil {
					t.Fatalf("parseTaskEdit: %v", err)
				}
				if !tt.check(patch) {
					t.Errorf("unexpected patch %+v", patch)
				}
			})
		}
	})

	t.Run("only the named field is set", func(t *testing.T) {
		patch, err := parseTaskEdit("priority low", now)
		if err != nil {
			t.Fatalf("parseTaskEdit: %v", err)
		}
		if patch.Title != nil || patch.Status != nil || patch.DueDate != nil || patch.Tags != nil || patch.Category != nil || patch.Description != nil {
			t.Errorf("extra fields set: %+v", patch)
		}
	})

	for _, in := range []string{"", "title", "title   ", "colour red", "priority urgent", "status done", "category hobby", "due someday"} {
		t.Run("reject "+in, func(t *testing.T) {
			if _, err := parseTaskEdit(in, now); err == nil {
				t.Errorf("parseTaskEdit(%q) accepted", in)
			}
		})
	}
}

func TestFormatCalendar(t *testing.T) {
	tasks := []model.Task{{ID: "a", Title: "Dentist", Status: model.StatusTodo, DueDate: model.NewDate(2024, 2, 14)}}
	cal := service.CalendarMonth(tasks, 2024, time.February)
	out := formatCalendar(cal, model.NewDate(2024, 2, 1))

	for _, want := range []string{"February 2024", "[ 1]", " 14*", "2024-02-14", "Dentist"} {
		if !strings.Contains(out, want) {
			t.Errorf("calendar missing %q:\n%s", want, out)
		}
	}
	emptyCal := formatCalendar(service.CalendarMonth(nil, 2024, time.March), model.NewDate(2024, 2, 1))
	if !strings.Contains(emptyCal, "Nothing due") {
		t.Errorf("empty calendar:\n%s", emptyCal)
	}
}

func TestFormatStats(t *testing.T) {
	tasks := []model.Task{
		{Status: model.StatusCompleted, Priority: model.PriorityHigh, Category: model.CategoryWork},
		{Status: model.StatusTodo, Priority: model.PriorityLow, Category: model.CategoryWork},
	}
	out := formatStats(service.ComputeStats(tasks, time.Now()))
	for _, want := range []string{"Total: <b>2</b>", "completion rate <b>50%</b>", "💼 work: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestFormatSettingsListsKeys(t *testing.T) {
	out := formatSettings(model.DefaultSettings())
	for _, key := range service.SettingKeys {
		if !strings.Contains(out, key) {
			t.Errorf("settings text misses key %q", key)
		}
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   string
		wantOK bool
	}{
		{"validation", &service.ValidationError{Fields: map[string]string{"title": "must be provided"}}, "title must be provided", true},
		{"not found", fmt.Errorf("task x: %w", repository.ErrNotFound), "Task not found", true},
		{"bad import", fmt.Errorf("%w: not a list", repository.ErrInvalidFormat), "not a list", true},
		{"credentials", service.ErrInvalidCredentials, "Invalid email or password", true},
		{"logged out", service.ErrNotAuthenticated, "/login", true},
		{"unexpected", errors.New("disk <full>"), "disk &lt;full&gt;", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := errorText(tt.err)
			if ok != tt.wantOK || !strings.Contains(text, tt.want) {
				t.Errorf("errorText = %q, %v", text, ok)
			}
		})
	}
}

func TestDialogInputs(t *testing.T) {
	if !isSkipInput(btnSkip) || !isSkipInput("-") || isSkipInput("work") {
		t.Error("isSkipInput")
	}
	if !isConfirmInput(btnConfirm) || !isConfirmInput("YES") || isConfirmInput("maybe") {
		t.Error("isConfirmInput")
	}
	if !isCancelInput(btnCancel) || isCancelInput(btnConfirm) {
		t.Error("isCancelInput")
	}
	if !isCancelDialogInput(btnCancelDialog) || isCancelDialogInput("hello") {
		t.Error("isCancelDialogInput")
	}
}
