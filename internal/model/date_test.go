package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-02-29", "2024-02-29", false},
		{" 2024-01-05 ", "2024-01-05", false},
		{"2024-01-05T23:30:00-05:00", "2024-01-05", false},
		{"2024-01-05T10:00:00Z", "2024-01-05", false},
		{"", "", false},
		{"05/01/2024", "", true},
		{"2023-02-29", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got.String() != tt.want {
				t.Errorf("date = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Due Date `json:"due"`
	}
	if err := json.Unmarshal([]byte(`{"due":"2024-03-15"}`), &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !payload.Due.Equal(NewDate(2024, time.March, 15)) {
		t.Errorf("due = %s", payload.Due)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"due":"2024-03-15"}` {
		t.Errorf("json = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"due":null}`), &payload); err != nil {
		t.Fatalf("Unmarshal null: %v", err)
	}
	if !payload.Due.IsZero() {
		t.Errorf("null decoded to %s", payload.Due)
	}

	if err := json.Unmarshal([]byte(`{"due":20240315}`), &payload); err == nil {
		t.Error("numeric date accepted")
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)
	if got := d.AddDays(1).String(); got != "2024-02-29" {
		t.Errorf("AddDays(1) = %s", got)
	}
	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("AddDays(2) = %s", got)
	}
	if !d.Before(d.AddDays(1)) || d.Compare(d.AddDays(-1)) != 1 {
		t.Error("ordering broken")
	}
	if (Date{}).Compare(d) != -1 {
		t.Error("zero date should sort first")
	}

	loc := time.FixedZone("UTC+9", 9*3600)
	late := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	if got := DateOf(late.In(loc)).String(); got != "2024-03-16" {
		t.Errorf("DateOf in +9 = %s", got)
	}
	if got := NewDate(2024, 3, 16).In(loc); !got.Equal(time.Date(2024, 3, 16, 0, 0, 0, 0, loc)) {
		t.Errorf("In = %s", got)
	}
}
