package model

import "time"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// View is one of the presentation modes of the task dashboard.
type View string

const (
	ViewList     View = "list"
	ViewBoard    View = "board"
	ViewCalendar View = "calendar"
	ViewStats    View = "stats"
)

func (v View) Valid() bool {
	switch v {
	case ViewList, ViewBoard, ViewCalendar, ViewStats:
		return true
	}
	return false
}

type ReminderLead string

const (
	Reminder30Min  ReminderLead = "30min"
	Reminder1Hour  ReminderLead = "1hour"
	Reminder3Hours ReminderLead = "3hours"
	Reminder1Day   ReminderLead = "1day"
	Reminder2Days  ReminderLead = "2days"
)

// Duration returns the lead time, or 0 for unknown values.
func (r ReminderLead) Duration() time.Duration {
	switch r {
	case Reminder30Min:
		return 30 * time.Minute
	case Reminder1Hour:
		return time.Hour
	case Reminder3Hours:
		return 3 * time.Hour
	case Reminder1Day:
		return 24 * time.Hour
	case Reminder2Days:
		return 48 * time.Hour
	}
	return 0
}

func (r ReminderLead) Valid() bool { return r.Duration() > 0 }

type Density string

const (
	DensityCompact     Density = "compact"
	DensityComfortable Density = "comfortable"
)

func (d Density) Valid() bool {
	return d == DensityCompact || d == DensityComfortable
}

// SortKey names the field the task list is ordered by.
type SortKey string

const (
	SortByDueDate   SortKey = "dueDate"
	SortByPriority  SortKey = "priority"
	SortByTitle     SortKey = "title"
	SortByCreatedAt SortKey = "createdAt"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortByDueDate, SortByPriority, SortByTitle, SortByCreatedAt:
		return true
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

type BackupFrequency string

const (
	BackupDaily   BackupFrequency = "daily"
	BackupWeekly  BackupFrequency = "weekly"
	BackupMonthly BackupFrequency = "monthly"
)

func (f BackupFrequency) Valid() bool {
	return f == BackupDaily || f == BackupWeekly || f == BackupMonthly
}

// RetentionPeriod is the age after which completed tasks are purged.
type RetentionPeriod string

const (
	Retention30Days  RetentionPeriod = "30days"
	Retention90Days  RetentionPeriod = "90days"
	Retention1Year   RetentionPeriod = "1year"
	RetentionForever RetentionPeriod = "forever"
)

func (p RetentionPeriod) Valid() bool {
	switch p {
	case Retention30Days, Retention90Days, Retention1Year, RetentionForever:
		return true
	}
	return false
}

// Cutoff returns the creation time before which completed tasks expire.
// ok is false for forever and unknown periods.
func (p RetentionPeriod) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	switch p {
	case Retention30Days:
		return now.AddDate(0, 0, -30), true
	case Retention90Days:
		return now.AddDate(0, 0, -90), true
	case Retention1Year:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

type NotificationSettings struct {
	Enabled              bool         `json:"enabled"`
	DueDateReminders     bool         `json:"dueDateReminders"`
	ReminderTime         ReminderLead `json:"reminderTime"`
	BrowserNotifications bool         `json:"browserNotifications"`
}

type DisplaySettings struct {
	TaskDensity          Density       `json:"taskDensity"`
	ShowCompletedTasks   bool          `json:"showCompletedTasks"`
	DefaultSorting       SortKey       `json:"defaultSorting"`
	DefaultSortDirection SortDirection `json:"defaultSortDirection"`
}

type DataSettings struct {
	AutoBackup      bool            `json:"autoBackup"`
	BackupFrequency BackupFrequency `json:"backupFrequency"`
	DataRetention   RetentionPeriod `json:"dataRetention"`
}

// UserSettings is the single preferences record kept per user.
type UserSettings struct {
	Theme            Theme                `json:"theme"`
	DefaultView      View                 `json:"defaultView"`
	SidebarCollapsed bool                 `json:"sidebarCollapsed"`
	Notifications    NotificationSettings `json:"notifications"`
	Display          DisplaySettings      `json:"display"`
	Data             DataSettings         `json:"data"`
}

// DefaultSettings returns the record used when a user has none stored.
func DefaultSettings() UserSettings {
	return UserSettings{
		Theme:            ThemeSystem,
		DefaultView:      ViewList,
		SidebarCollapsed: false,
		Notifications: NotificationSettings{
			Enabled:              true,
			DueDateReminders:     true,
			ReminderTime:         Reminder1Day,
			BrowserNotifications: false,
		},
		Display: DisplaySettings{
			TaskDensity:          DensityComfortable,
			ShowCompletedTasks:   true,
			DefaultSorting:       SortByDueDate,
			DefaultSortDirection: SortAsc,
		},
		Data: DataSettings{
			AutoBackup:      false,
			BackupFrequency: BackupWeekly,
			DataRetention:   RetentionForever,
		},
	}
}

// Normalize replaces malformed enum fields with their defaults.
func (s *UserSettings) Normalize() {
	def := DefaultSettings()
	if !s.Theme.Valid() {
		s.Theme = def.Theme
	}
	if !s.DefaultView.Valid() {
		s.DefaultView = def.DefaultView
	}
	if !s.Notifications.ReminderTime.Valid() {
		s.Notifications.ReminderTime = def.Notifications.ReminderTime
	}
	if !s.Display.TaskDensity.Valid() {
		s.Display.TaskDensity = def.Display.TaskDensity
	}
	if !s.Display.DefaultSorting.Valid() {
		s.Display.DefaultSorting = def.Display.DefaultSorting
	}
	if !s.Display.DefaultSortDirection.Valid() {
		s.Display.DefaultSortDirection = def.Display.DefaultSortDirection
	}
	if !s.Data.BackupFrequency.Valid() {
		s.Data.BackupFrequency = def.Data.BackupFrequency
	}
	if !s.Data.DataRetention.Valid() {
		s.Data.DataRetention = def.Data.DataRetention
	}
}

// PushEnabled reports whether task events should produce a push notification.
func (s UserSettings) PushEnabled() bool {
	return s.Notifications.Enabled && s.Notifications.BrowserNotifications
}

// RemindersEnabled reports whether due-date reminders should be sent.
func (s UserSettings) RemindersEnabled() bool {
	return s.Notifications.Enabled && s.Notifications.DueDateReminders
}
