package service

import (
	"time"

	"taskmaster/internal/model"
)

// Column is one status lane of the board view.
type Column struct {
	Status model.Status
	Tasks  []model.Task
}

// Board is the kanban rendering of a task list.
type Board struct {
	Columns []Column
}

// GroupByStatus splits tasks into todo, in-progress and completed lanes,
// keeping input order inside each lane. Tasks with an unknown status are dropped.
func GroupByStatus(tasks []model.Task) Board {
	board := Board{Columns: make([]Column, len(model.Statuses))}
	index := make(map[model.Status]int, len(model.Statuses))
	for i, s := range model.Statuses {
		board.Columns[i] = Column{Status: s, Tasks: []model.Task{}}
		index[s] = i
	}
	for _, task := range tasks {
		if i, ok := index[task.Status]; ok {
			board.Columns[i].Tasks = append(board.Columns[i].Tasks, task)
		}
	}
	return board
}

// CalendarDay is one cell of the month grid. Day is 0 for leading blanks.
type CalendarDay struct {
	Day   int
	Date  model.Date
	Tasks []model.Task
}

type Calendar struct {
	Year  int
	Month time.Month
	Days  []CalendarDay
}

// CalendarMonth lays out the month as a Sunday-first grid with the tasks due each day.
func CalendarMonth(tasks []model.Task, year int, month time.Month) Calendar {
	first := model.NewDate(year, month, 1)
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	cal := Calendar{Year: year, Month: month}
	for i := 0; i < int(first.Weekday()); i++ {
		cal.Days = append(cal.Days, CalendarDay{})
	}
	for d := 1; d <= daysInMonth; d++ {
		date := model.NewDate(year, month, d)
		cal.Days = append(cal.Days, CalendarDay{Day: d, Date: date, Tasks: TasksForDay(tasks, date)})
	}
	return cal
}

// TasksForDay returns the tasks due on date, in input order.
func TasksForDay(tasks []model.Task, date model.Date) []model.Task {
	var out []model.Task
	for _, task := range tasks {
		if !task.DueDate.IsZero() && task.DueDate.Equal(date) {
			out = append(out, task)
		}
	}
	return out
}
