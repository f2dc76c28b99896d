package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
)

const (
	iconDefault = "🟢"
	iconDue     = "⏳"
	iconOverdue = "⚠️"
	iconDone    = "✅"

	// maxListed keeps list messages under Telegram's 4096 character limit.
	maxListed = 25
)

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func categoryLabel(c model.Category) string {
	var icon string
	switch c {
	case model.CategoryWork:
		icon = "💼"
	case model.CategoryPersonal:
		icon = "🧩"
	case model.CategoryEducation:
		icon = "🎓"
	case model.CategoryHealth:
		icon = "🩺"
	case model.CategoryFinance:
		icon = "💰"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, c)
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴 high"
	case model.PriorityMedium:
		return "🟡 medium"
	case model.PriorityLow:
		return "🔵 low"
	}
	return string(p)
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusTodo:
		return "📝 To do"
	case model.StatusInProgress:
		return "🚧 In progress"
	case model.StatusCompleted:
		return "✅ Completed"
	}
	return string(s)
}

func taskIcon(task model.Task, today model.Date) string {
	switch {
	case task.IsCompleted():
		return iconDone
	case task.DueDate.IsZero():
		return iconDefault
	case task.DueDate.Before(today):
		return iconOverdue
	case !task.DueDate.After(today.AddDays(1)):
		return iconDue
	}
	return iconDefault
}

// formatTask renders one entry. compact drops description and tags.
func formatTask(task model.Task, today model.Date, compact bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", taskIcon(task, today), escape(normalizeTitle(task.Title))))
	b.WriteString(fmt.Sprintf("   %s · %s", categoryLabel(task.Category), priorityLabel(task.Priority)))
	if task.Status == model.StatusInProgress {
		b.WriteString(" · in progress")
	}
	b.WriteByte('\n')
	if !task.DueDate.IsZero() {
		switch {
		case !task.IsCompleted() && task.DueDate.Before(today):
			b.WriteString(fmt.Sprintf("   ⏰ %s · <b>overdue</b>\n", task.DueDate))
		case task.DueDate.Equal(today):
			b.WriteString(fmt.Sprintf("   ⏰ %s · today\n", task.DueDate))
		default:
			b.WriteString(fmt.Sprintf("   ⏰ %s\n", task.DueDate))
		}
	}
	if compact {
		return b.String()
	}
	if task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Description)))
	}
	if len(task.Tags) > 0 {
		tags := make([]string, 0, len(task.Tags))
		for _, tag := range task.Tags {
			tags = append(tags, "#"+escape(tag))
		}
		b.WriteString("   " + strings.Join(tags, " ") + "\n")
	}
	return b.String()
}

func filterLine(f service.Filter) string {
	var parts []string
	if f.Category != "" {
		parts = append(parts, "category <b>"+string(f.Category)+"</b>")
	}
	if f.Search != "" {
		parts = append(parts, "search “"+escape(f.Search)+"”")
	}
	if len(parts) == 0 {
		return ""
	}
	return "🔎 " + strings.Join(parts, ", ") + "\n"
}

func formatList(tasks []model.Task, f service.Filter, today model.Date, compact bool) string {
	var b strings.Builder
	b.WriteString("📋 <b>Tasks</b>\n")
	b.WriteString(filterLine(f))
	b.WriteByte('\n')
	if len(tasks) == 0 {
		b.WriteString("No tasks match. Add one with /newtask.")
		return b.String()
	}
	for i, task := range tasks {
		if i == maxListed {
			b.WriteString(fmt.Sprintf("…and %d more. Narrow the list with /category or /search.\n", len(tasks)-maxListed))
			break
		}
		b.WriteString(formatTask(task, today, compact))
		if !compact {
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}

func formatBoard(board service.Board, f service.Filter) string {
	var b strings.Builder
	b.WriteString("🗂 <b>Board</b>\n")
	b.WriteString(filterLine(f))
	for _, col := range board.Columns {
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%d)\n", statusLabel(col.Status), len(col.Tasks)))
		if len(col.Tasks) == 0 {
			b.WriteString("   —\n")
			continue
		}
		for i, task := range col.Tasks {
			if i == maxListed {
				b.WriteString(fmt.Sprintf("   …and %d more\n", len(col.Tasks)-maxListed))
				break
			}
			due := ""
			if !task.DueDate.IsZero() {
				due = " · " + task.DueDate.String()
			}
			b.WriteString(fmt.Sprintf("   • %s%s\n", escape(shortTitle(task.Title, 40)), due))
		}
	}
	return strings.TrimSpace(b.String())
}

// formatCalendar draws a Sunday-first month grid in a <pre> block and lists
// the tasks of each busy day below it. Busy days are marked with an asterisk.
func formatCalendar(cal service.Calendar, today model.Date) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>%s %d</b>\n<pre>", cal.Month, cal.Year))
	b.WriteString(" Su  Mo  Tu  We  Th  Fr  Sa\n")
	for i, day := range cal.Days {
		switch {
		case day.Day == 0:
			b.WriteString("    ")
		default:
			mark := " "
			if len(day.Tasks) > 0 {
				mark = "*"
			}
			if day.Date.Equal(today) {
				b.WriteString(fmt.Sprintf("[%2d]", day.Day))
			} else {
				b.WriteString(fmt.Sprintf("%3d%s", day.Day, mark))
			}
		}
		if i%7 == 6 {
			b.WriteByte('\n')
		}
	}
	b.WriteString("</pre>\n")

	busy := false
	for _, day := range cal.Days {
		if len(day.Tasks) == 0 {
			continue
		}
		busy = true
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", day.Date))
		for _, task := range day.Tasks {
			b.WriteString(fmt.Sprintf("   %s %s\n", taskIcon(task, today), escape(shortTitle(task.Title, 40))))
		}
	}
	if !busy {
		b.WriteString("\nNothing due this month.")
	}
	return strings.TrimSpace(b.String())
}

func formatStats(stats service.Stats) string {
	var b strings.Builder
	b.WriteString("📊 <b>Statistics</b>\n\n")
	b.WriteString(fmt.Sprintf("Total: <b>%d</b> · completion rate <b>%d%%</b>\n", stats.Total, stats.CompletionRate))
	b.WriteString(fmt.Sprintf("%s: %d (%d%%)\n", statusLabel(model.StatusTodo), stats.Todo.Count, stats.Todo.Percent))
	b.WriteString(fmt.Sprintf("%s: %d (%d%%)\n", statusLabel(model.StatusInProgress), stats.InProgress.Count, stats.InProgress.Percent))
	b.WriteString(fmt.Sprintf("%s: %d (%d%%)\n", statusLabel(model.StatusCompleted), stats.Completed.Count, stats.Completed.Percent))
	b.WriteString(fmt.Sprintf("\n%s %d · %s %d · %s %d\n",
		priorityLabel(model.PriorityHigh), stats.High,
		priorityLabel(model.PriorityMedium), stats.Medium,
		priorityLabel(model.PriorityLow), stats.Low))
	b.WriteString(fmt.Sprintf("%s overdue: %d · %s due today: %d\n", iconOverdue, stats.Overdue, iconDue, stats.DueToday))

	b.WriteString("\n<b>By category</b>\n")
	for _, c := range stats.Categories {
		b.WriteString(fmt.Sprintf("%s: %d\n", categoryLabel(c.Category), c.Count))
	}
	return strings.TrimSpace(b.String())
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatSettings(s model.UserSettings) string {
	var b strings.Builder
	b.WriteString("⚙️ <b>Settings</b>\n\n")
	b.WriteString("<b>Appearance</b>\n")
	b.WriteString(fmt.Sprintf("theme: %s\nview: %s\nsidebar collapsed: %s\n\n", s.Theme, s.DefaultView, onOff(s.SidebarCollapsed)))
	b.WriteString("<b>Notifications</b>\n")
	b.WriteString(fmt.Sprintf("notifications: %s\nreminders: %s\nreminder: %s before due\npush: %s\n\n",
		onOff(s.Notifications.Enabled), onOff(s.Notifications.DueDateReminders), s.Notifications.ReminderTime, onOff(s.Notifications.BrowserNotifications)))
	b.WriteString("<b>Display</b>\n")
	b.WriteString(fmt.Sprintf("density: %s\ncompleted: %s\nsort: %s %s\n\n",
		s.Display.TaskDensity, onOff(s.Display.ShowCompletedTasks), s.Display.DefaultSorting, s.Display.DefaultSortDirection))
	b.WriteString("<b>Data</b>\n")
	b.WriteString(fmt.Sprintf("backup: %s (%s)\nretention: %s\n\n", onOff(s.Data.AutoBackup), s.Data.BackupFrequency, s.Data.DataRetention))
	b.WriteString("Change one with <code>/set &lt;key&gt; &lt;value&gt;</code>. Keys: " + strings.Join(service.SettingKeys, ", "))
	return b.String()
}

func formatProfile(user *model.User) string {
	return fmt.Sprintf("👤 <b>%s</b>\n✉️ %s\n\nChange with <code>/profile name &lt;name&gt;</code> or <code>/profile email &lt;email&gt;</code>.",
		escape(user.Name), escape(user.Email))
}

// errorText turns a service error into a message for the owner. ok is false
// for unexpected errors, which callers log.
func errorText(err error) (text string, ok bool) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return "❗ " + escape(verr.Error()), true
	case errors.Is(err, repository.ErrNotFound):
		return "Task not found. It may have been deleted.", true
	case errors.Is(err, repository.ErrInvalidFormat):
		return "❗ " + escape(err.Error()), true
	case errors.Is(err, service.ErrInvalidCredentials):
		return "❗ Invalid email or password.", true
	case errors.Is(err, service.ErrNotAuthenticated):
		return "🔒 Log in first with /login or create an account with /register.", true
	}
	return "Something went wrong: " + escape(err.Error()), false
}

// parseMonth reads YYYY-MM, defaulting to now's month when raw is empty.
func parseMonth(raw string, now time.Time) (int, time.Month, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", raw)
	}
	return t.Year(), t.Month(), nil
}

// parseDue accepts today, tomorrow or a YYYY-MM-DD date.
func parseDue(raw string, now time.Time) (model.Date, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "today":
		return model.DateOf(now), nil
	case "tomorrow":
		return model.DateOf(now).AddDays(1), nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, err
	}
	if d.IsZero() {
		return model.Date{}, fmt.Errorf("due date is empty")
	}
	return d, nil
}

// parseTags splits a comma or space separated tag list, dropping leading '#'.
func parseTags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimLeft(f, "#")
		if f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}

const editUsage = "Send <code>&lt;field&gt; &lt;value&gt;</code>, for example <code>due tomorrow</code>.\n" +
	"Fields: title, description, category, priority, status, due, tags. " +
	"<code>-</code> clears description or tags."

// parseTaskEdit reads one "<field> <value>" edit into a patch.
func parseTaskEdit(raw string, now time.Time) (model.TaskPatch, error) {
	var patch model.TaskPatch
	field, value, _ := strings.Cut(strings.TrimSpace(raw), " ")
	value = strings.TrimSpace(value)
	field = strings.ToLower(field)
	if field == "" {
		return patch, errors.New("nothing to change")
	}
	if value == "" {
		return patch, fmt.Errorf("%s needs a value", field)
	}

	switch field {
	case "title":
		patch.Title = &value
	case "description", "desc":
		if value == "-" {
			value = ""
		}
		patch.Description = &value
	case "category":
		c, err := model.ParseCategory(stripIcon(value))
		if err != nil {
			return patch, err
		}
		patch.Category = &c
	case "priority":
		p, err := model.ParsePriority(stripIcon(value))
		if err != nil {
			return patch, err
		}
		patch.Priority = &p
	case "status":
		s, err := model.ParseStatus(strings.ReplaceAll(value, " ", "-"))
		if err != nil {
			return patch, err
		}
		patch.Status = &s
	case "due":
		d, err := parseDue(value, now)
		if err != nil {
			return patch, err
		}
		patch.DueDate = &d
	case "tags":
		tags := []string{}
		if value != "-" {
			tags = parseTags(value)
		}
		patch.Tags = &tags
	default:
		return patch, fmt.Errorf("unknown field %q", field)
	}
	return patch, nil
}
