package service

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"taskmaster/internal/model"
)

// Filter is the dashboard state that narrows the task list.
// An empty Category means all categories; an empty Search matches everything.
type Filter struct {
	Category model.Category
	Search   string
}

// DeriveVisibleTasks returns the ordered subset of tasks the list, board and
// calendar views render. tasks is never modified. A nil settings uses the
// defaults (dueDate ascending, completed tasks shown).
func DeriveVisibleTasks(tasks []model.Task, category model.Category, search string, settings *model.UserSettings) []model.Task {
	display := model.DefaultSettings().Display
	if settings != nil {
		display = settings.Display
	}
	if !display.DefaultSorting.Valid() {
		display.DefaultSorting = model.SortByDueDate
	}

	query := strings.ToLower(search)
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if !display.ShowCompletedTasks && task.IsCompleted() {
			continue
		}
		if category != "" && task.Category != category {
			continue
		}
		if query != "" && !matchesQuery(task, query) {
			continue
		}
		out = append(out, task)
	}

	compare := comparatorFor(display.DefaultSorting)
	desc := display.DefaultSortDirection == model.SortDesc
	// Descending negates the comparison; equal keys keep input order either way.
	slices.SortStableFunc(out, func(a, b model.Task) int {
		c := compare(a, b)
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Visible applies DeriveVisibleTasks with f.
func (f Filter) Visible(tasks []model.Task, settings *model.UserSettings) []model.Task {
	return DeriveVisibleTasks(tasks, f.Category, f.Search, settings)
}

func matchesQuery(task model.Task, query string) bool {
	return strings.Contains(strings.ToLower(task.Title), query) ||
		strings.Contains(strings.ToLower(task.Description), query)
}

func comparatorFor(key model.SortKey) func(a, b model.Task) int {
	switch key {
	case model.SortByPriority:
		return func(a, b model.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		}
	case model.SortByTitle:
		// Collators are not safe for concurrent use; each derivation gets its own.
		col := collate.New(language.English)
		return func(a, b model.Task) int {
			return col.CompareString(a.Title, b.Title)
		}
	case model.SortByCreatedAt:
		return func(a, b model.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	default:
		return func(a, b model.Task) int {
			return a.DueDate.Compare(b.DueDate)
		}
	}
}
