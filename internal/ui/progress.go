// Package ui renders live progress of multi-file layout runs.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"keel/internal/driver"
)

// rowState is where a declaration file is in its run.
type rowState uint8

const (
	rowQueued rowState = iota
	rowActive
	rowFinished
	rowFailed
)

// stageWeight is the share of a file's run considered complete once the
// stage has started.
var stageWeight = map[driver.Stage]float64{
	driver.StageLoad:   0.2,
	driver.StageLayout: 0.5,
	driver.StageCache:  0.9,
}

var stageVerb = map[driver.Stage]string{
	driver.StageLoad:   "loading",
	driver.StageLayout: "laying out",
	driver.StageCache:  "caching",
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	queuedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	summaryStyle = lipgloss.NewStyle().Faint(true)
)

type fileRow struct {
	path    string
	state   rowState
	stage   driver.Stage
	elapsed time.Duration
}

func (r fileRow) label() string {
	switch r.state {
	case rowActive:
		return stageVerb[r.stage]
	case rowFinished:
		return "done"
	case rowFailed:
		return "error"
	default:
		return "queued"
	}
}

func (r fileRow) style() lipgloss.Style {
	switch r.state {
	case rowActive:
		return activeStyle
	case rowFinished:
		return okStyle
	case rowFailed:
		return failedStyle
	default:
		return queuedStyle
	}
}

func (r fileRow) completion() float64 {
	switch r.state {
	case rowFinished, rowFailed:
		return 1
	case rowActive:
		return stageWeight[r.stage]
	default:
		return 0
	}
}

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []fileRow
	byPath  map[string]*fileRow
	width   int
	done    bool
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that shows one row per
// declaration file and an overall bar, until events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(activeStyle))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(76))

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]fileRow, len(files)),
		byPath:  make(map[string]*fileRow, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.rows[i] = fileRow{path: file}
		m.byPath[file] = &m.rows[i]
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.record(driver.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		m.bar = updated.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// next waits for the following driver event.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.events; ok {
			return eventMsg(ev)
		}
		return doneMsg{}
	}
}

func (m *progressModel) record(ev driver.Event) tea.Cmd {
	row := m.byPath[ev.File]
	if row == nil {
		return nil
	}
	switch ev.Status {
	case driver.StatusQueued:
		row.state = rowQueued
	case driver.StatusWorking:
		if _, known := stageVerb[ev.Stage]; !known {
			return nil
		}
		row.state, row.stage = rowActive, ev.Stage
	case driver.StatusDone:
		row.state, row.elapsed = rowFinished, ev.Elapsed
	case driver.StatusError:
		row.state, row.elapsed = rowFailed, ev.Elapsed
	default:
		return nil
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range m.rows {
		sum += r.completion()
	}
	return sum / float64(len(m.rows))
}

// tally counts finished and failed files.
func (m *progressModel) tally() (finished, failed int) {
	for _, r := range m.rows {
		switch r.state {
		case rowFinished:
			finished++
		case rowFailed:
			failed++
		}
	}
	return finished, failed
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	if m.done {
		b.WriteString(titleStyle.Render("done: " + m.title))
	} else {
		b.WriteString(titleStyle.Render(m.spinner.View() + " " + m.title))
	}
	b.WriteString("\n\n")

	const labelWidth = 12
	pathWidth := max(m.width-labelWidth-14, 20)
	for _, r := range m.rows {
		label := r.style().Render(fmt.Sprintf("%*s", labelWidth, r.label()))
		fmt.Fprintf(&b, "  %s %s", label, truncate(r.path, pathWidth))
		if r.elapsed > 0 {
			b.WriteString(summaryStyle.Render(fmt.Sprintf("  %s", r.elapsed.Round(time.Millisecond))))
		}
		b.WriteByte('\n')
	}

	finished, failed := m.tally()
	b.WriteString("\n")
	b.WriteString(summaryStyle.Render(fmt.Sprintf("%d/%d files, %d failed", finished+failed, len(m.rows), failed)))
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// truncate shortens value to width display cells, marking the cut with
// an ellipsis when there is room for one.
func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	default:
		return runewidth.Truncate(value, width-3, "...")
	}
}
