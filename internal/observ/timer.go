// Package observ measures the phases of a layout run.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase records the duration and metadata of one phase.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// EventStatus reports whether a phase started or finished.
type EventStatus int

const (
	PhaseStart EventStatus = iota
	PhaseEnd
)

// Event describes a phase boundary.
type Event struct {
	Name    string
	Status  EventStatus
	Elapsed time.Duration
}

// Observer receives phase events as they happen.
type Observer func(Event)

// Timer tracks the phases of a run. A nil *Timer is valid and records
// nothing. Safe for concurrent use.
type Timer struct {
	mu       sync.Mutex
	phases   []Phase
	observer Observer
	now      func() time.Time
}

// NewTimer creates a new empty Timer. observer may be nil.
func NewTimer(observer Observer) *Timer {
	return &Timer{phases: make([]Phase, 0, 8), observer: observer, now: time.Now}
}

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	idx := len(t.phases) - 1
	obs := t.observer
	t.mu.Unlock()
	if obs != nil {
		obs(Event{Name: name, Status: PhaseStart})
	}
	return idx
}

// End finishes a phase by its index.
func (t *Timer) End(idx int, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	if idx < 0 || idx >= len(t.phases) {
		t.mu.Unlock()
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Note = note
	ev := Event{Name: p.Name, Status: PhaseEnd, Elapsed: p.Dur}
	obs := t.observer
	t.mu.Unlock()
	if obs != nil {
		obs(ev)
	}
}

// Summary returns a human-readable string summarizing all tracked phases.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-20s %7.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport представляет сжатую информацию о фазе таймера для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report returns the phases recorded so far and their total.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
