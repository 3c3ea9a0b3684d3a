package ui

import (
	"strings"
	"testing"

	"keel/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("layout", []string{"a.toml", "b.toml"}, events).(*progressModel)

	m.Update(eventMsg(driver.Event{File: "a.toml", Stage: driver.StageLayout, Status: driver.StatusWorking}))
	m.Update(eventMsg(driver.Event{File: "b.toml", Stage: driver.StageLayout, Status: driver.StatusError}))
	m.Update(eventMsg(driver.Event{File: "other.toml", Status: driver.StatusDone}))

	if m.rows[0].label() != "laying out" || m.rows[1].label() != "error" {
		t.Fatalf("rows = %+v", m.rows)
	}
	if got := m.percent(); got != 0.75 {
		t.Fatalf("percent = %v, want 0.75", got)
	}

	m.Update(doneMsg{})
	view := m.View()
	for _, want := range []string{"done: layout", "a.toml", "error", "1/2 files, 1 failed"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressModelIgnoresUnknownStage(t *testing.T) {
	m := NewProgressModel("layout", []string{"a.toml"}, nil).(*progressModel)
	m.Update(eventMsg(driver.Event{File: "a.toml", Stage: "resolve", Status: driver.StatusWorking}))
	if m.rows[0].state != rowQueued || m.percent() != 0 {
		t.Fatalf("row = %+v", m.rows[0])
	}
	m.Update(eventMsg(driver.Event{File: "a.toml", Stage: driver.StageCache, Status: driver.StatusWorking}))
	if got := m.percent(); got != 0.9 {
		t.Fatalf("percent = %v, want 0.9", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a/very/long/path.toml", 10, "a/ve..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
