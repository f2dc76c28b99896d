package service

import (
	"math"
	"slices"
	"time"

	"taskmaster/internal/model"
)

// StatusCount is a status bucket with its share of all tasks.
type StatusCount struct {
	Count   int
	Percent int
}

type CategoryCount struct {
	Category model.Category
	Count    int
}

// Stats are the dashboard metrics over a user's full task set.
type Stats struct {
	Total          int
	Todo           StatusCount
	InProgress     StatusCount
	Completed      StatusCount
	CompletionRate int
	Categories     []CategoryCount
	High           int
	Medium         int
	Low            int
	Overdue        int
	DueToday       int
}

// ComputeStats aggregates tasks. now fixes "today": a task is overdue when it
// is open and its due date is before now's calendar date, and due today when
// the dates are equal. Tasks without a due date count as neither.
func ComputeStats(tasks []model.Task, now time.Time) Stats {
	today := model.DateOf(now)
	stats := Stats{Total: len(tasks)}

	byCategory := make(map[model.Category]int, len(model.Categories))
	for _, task := range tasks {
		switch task.Status {
		case model.StatusTodo:
			stats.Todo.Count++
		case model.StatusInProgress:
			stats.InProgress.Count++
		case model.StatusCompleted:
			stats.Completed.Count++
		}

		switch task.Priority {
		case model.PriorityHigh:
			stats.High++
		case model.PriorityMedium:
			stats.Medium++
		case model.PriorityLow:
			stats.Low++
		}

		byCategory[task.Category]++

		if task.IsCompleted() || task.DueDate.IsZero() {
			continue
		}
		switch {
		case task.DueDate.Before(today):
			stats.Overdue++
		case task.DueDate.Equal(today):
			stats.DueToday++
		}
	}

	stats.Todo.Percent = percent(stats.Todo.Count, stats.Total)
	stats.InProgress.Percent = percent(stats.InProgress.Count, stats.Total)
	stats.Completed.Percent = percent(stats.Completed.Count, stats.Total)
	stats.CompletionRate = stats.Completed.Percent

	stats.Categories = make([]CategoryCount, 0, len(model.Categories))
	for _, c := range model.Categories {
		stats.Categories = append(stats.Categories, CategoryCount{Category: c, Count: byCategory[c]})
	}
	slices.SortStableFunc(stats.Categories, func(a, b CategoryCount) int {
		return b.Count - a.Count
	})

	return stats
}

func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
