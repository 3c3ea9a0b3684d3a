package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordingSink) last(file string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out Event
	for _, ev := range s.events {
		if ev.File == file {
			out = ev
		}
	}
	return out
}

func TestRunAll(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	cyclic := filepath.Join(dir, "cyclic.toml")
	missing := filepath.Join(dir, "missing.toml")
	if err := os.WriteFile(good, []byte(unitSource), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(cyclic, []byte(cycleSource), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	sink := &recordingSink{}
	results, err := RunAll(context.Background(), []string{missing, good, cyclic}, Options{Jobs: 3, MaxDiagnostics: 50}, sink)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	// sorted by path
	if results[0].Path != cyclic || results[1].Path != good || results[2].Path != missing {
		t.Fatalf("order = %s, %s, %s", results[0].Path, results[1].Path, results[2].Path)
	}
	if results[1].Err != nil || results[1].Result.Bag.HasErrors() {
		t.Fatalf("good file failed: %v", results[1].Err)
	}
	if results[2].Err == nil {
		t.Fatalf("missing file should fail")
	}

	tests := []struct {
		file string
		want Status
	}{
		{good, StatusDone},
		{cyclic, StatusError},
		{missing, StatusError},
	}
	for _, tt := range tests {
		if got := sink.last(tt.file).Status; got != tt.want {
			t.Errorf("%s: last status = %s, want %s", filepath.Base(tt.file), got, tt.want)
		}
	}

	sawLayout := false
	for _, ev := range sink.events {
		if ev.File == good && ev.Stage == StageLayout && ev.Status == StatusWorking {
			sawLayout = true
		}
	}
	if !sawLayout {
		t.Fatalf("no working event for the layout stage of good.toml")
	}
}

func TestRunAllEmpty(t *testing.T) {
	results, err := RunAll(context.Background(), nil, Options{}, nil)
	if err != nil || len(results) != 0 {
		t.Fatalf("RunAll(nil) = %v, %v", results, err)
	}
}
