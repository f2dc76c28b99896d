package repository

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"taskmaster/internal/model"
)

// Due dates written by other tools that ParseDate does not read.
var extraDueLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// decodeImportRecord reads one element of an import payload field by field.
// A field of the wrong type or an unreadable date is dropped instead of
// failing the import; the caller fills and normalizes what is left.
func decodeImportRecord(raw json.RawMessage) model.Task {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.Task{}
	}

	var task model.Task
	task.ID = lenientString(fields["id"])
	task.Title = lenientString(fields["title"])
	task.Description = lenientString(fields["description"])
	task.Status = model.Status(lenientString(fields["status"]))
	task.Priority = model.Priority(lenientString(fields["priority"]))
	task.Category = model.Category(lenientString(fields["category"]))
	task.DueDate = lenientDate(lenientString(fields["dueDate"]))
	task.CreatedAt = lenientTime(fields["createdAt"])
	task.Tags = lenientTags(fields["tags"])
	return task
}

// lenientString accepts JSON strings and numbers (as their literal text).
func lenientString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func lenientDate(raw string) model.Date {
	if d, err := model.ParseDate(raw); err == nil {
		return d
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range extraDueLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return model.DateOf(t)
		}
	}
	return model.Date{}
}

// lenientTime reads an RFC 3339 string or a Unix timestamp in milliseconds.
// Anything else yields the zero time.
func lenientTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s)); err == nil {
			return t
		}
		return time.Time{}
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 && ms < math.MaxInt64 {
		return time.UnixMilli(int64(ms)).UTC()
	}
	return time.Time{}
}

// lenientTags keeps the string entries of a JSON array.
func lenientTags(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		var tag string
		if err := json.Unmarshal(item, &tag); err == nil && tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
