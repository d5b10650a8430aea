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

	"dysc/internal/pipeline"
)

// stageSteps is the verb shown while a unit is in a stage and the share
// of that unit's work done when the stage starts.
var stageSteps = map[pipeline.Stage]struct {
	verb  string
	share float64
}{
	pipeline.StageDecode: {"decoding", 0.1},
	pipeline.StageInfer:  {"inferring", 0.3},
	pipeline.StageLower:  {"lowering", 0.6},
	pipeline.StageEmit:   {"emitting", 0.8},
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	busyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	idleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

const labelWidth = 10

// unitRow is the last reported state of one compilation unit.
type unitRow struct {
	name    string
	stage   pipeline.Stage
	status  pipeline.Status
	err     string
	elapsed time.Duration
}

func (r unitRow) finished() bool {
	switch r.status {
	case pipeline.StatusDone, pipeline.StatusCached, pipeline.StatusError:
		return true
	}
	return false
}

func (r unitRow) label() string {
	if r.status == pipeline.StatusWorking {
		return stageSteps[r.stage].verb
	}
	return string(r.status)
}

func (r unitRow) share() float64 {
	switch {
	case r.finished():
		return 1
	case r.status == pipeline.StatusWorking:
		return stageSteps[r.stage].share
	}
	return 0
}

func (r unitRow) style() lipgloss.Style {
	switch r.status {
	case pipeline.StatusDone, pipeline.StatusCached:
		return doneStyle
	case pipeline.StatusError:
		return failStyle
	case pipeline.StatusWorking:
		return busyStyle
	}
	return idleStyle
}

// progressModel shows one row per unit under a header that counts
// finished, cached and failed units, and an overall bar.
type progressModel struct {
	title   string
	events  <-chan pipeline.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []unitRow
	byName  map[string]int
	width   int
	closed  bool
}

type eventMsg pipeline.Event

type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model fed by events until the
// channel closes. files fixes the row order.
func NewProgressModel(title string, files []string, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(busyStyle))
	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		rows:    make([]unitRow, len(files)),
		byName:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.rows[i] = unitRow{name: file, status: pipeline.StatusQueued}
		m.byName[file] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(pipeline.Event(msg)), m.next())
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.closed {
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
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// apply records ev on its unit's row. Events for unknown units are ignored.
func (m *progressModel) apply(ev pipeline.Event) tea.Cmd {
	i, ok := m.byName[ev.File]
	if !ok {
		return nil
	}
	row := &m.rows[i]
	row.status = ev.Status
	if ev.Stage != "" {
		row.stage = ev.Stage
	}
	if ev.Err != nil {
		row.err = ev.Err.Error()
	}
	if ev.Elapsed > 0 {
		row.elapsed = ev.Elapsed
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	var total float64
	for _, row := range m.rows {
		total += row.share()
	}
	return total / float64(len(m.rows))
}

func (m *progressModel) summary() string {
	var finished, cached, failed int
	for _, row := range m.rows {
		if row.finished() {
			finished++
		}
		switch row.status {
		case pipeline.StatusCached:
			cached++
		case pipeline.StatusError:
			failed++
		}
	}
	out := fmt.Sprintf("%s %d/%d", m.title, finished, len(m.rows))
	if cached > 0 {
		out += fmt.Sprintf(", %d cached", cached)
	}
	if failed > 0 {
		out += fmt.Sprintf(", %d failed", failed)
	}
	return out
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	lead := m.spinner.View()
	if m.closed {
		lead = "done:"
	}
	b.WriteString(titleStyle.Render(lead + " " + m.summary()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-labelWidth-16, 20)
	for _, row := range m.rows {
		label := row.style().Render(fmt.Sprintf("%*s", labelWidth, row.label()))
		fmt.Fprintf(&b, "  %s %s", label, truncate(row.name, nameWidth))
		if row.finished() && row.elapsed > 0 {
			fmt.Fprintf(&b, " %s", idleStyle.Render(row.elapsed.Round(time.Millisecond).String()))
		}
		b.WriteString("\n")
		if row.err != "" {
			b.WriteString(strings.Repeat(" ", labelWidth+3))
			b.WriteString(failStyle.Render(truncate(row.err, nameWidth)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.closed {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// truncate shortens s to width display cells, marking the cut with "...".
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
