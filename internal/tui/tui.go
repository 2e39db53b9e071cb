// Package tui is a terminal dashboard over the pipeline. It only reads snapshots and
// invokes commands.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sleepywoodpecker/gsr-logger/internal/pipeline"
	"sleepywoodpecker/gsr-logger/internal/session"
)

const refreshInterval = 100 * time.Millisecond

const barWidth = 24

// Controller is the pipeline surface the dashboard drives.
type Controller interface {
	Connect(ctx context.Context) <-chan struct{}
	Start(now time.Time)
	Stop(now time.Time)
	Reset(now time.Time)
	SaveCSV(dir string) (string, bool, error)
	SaveJSON(dir string) (string, error)
	Snapshot() pipeline.Snapshot
}

type keyMap struct {
	Connect    key.Binding
	Start      key.Binding
	Stop       key.Binding
	Reset      key.Binding
	ExportCSV  key.Binding
	ExportJSON key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Connect, k.Start, k.Stop, k.Reset, k.ExportCSV, k.ExportJSON, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Connect:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
	Start:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Stop:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
	Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	ExportCSV:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "save csv")),
	ExportJSON: key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "save json")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E6E6E6"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E6E6"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	spikeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	channelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(barWidth + 4)
	viewerStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type refreshMsg time.Time

type Model struct {
	ctx        context.Context
	controller Controller
	outputDir  string
	help       help.Model
	snap       pipeline.Snapshot
	status     string
	now        func() time.Time
}

func New(ctx context.Context, controller Controller, outputDir string) Model {
	return Model{
		ctx:        ctx,
		controller: controller,
		outputDir:  outputDir,
		help:       help.New(),
		snap:       controller.Snapshot(),
		now:        time.Now,
	}
}

// Run blocks until the user quits or ctx is cancelled. Cancellation is not an error.
func Run(ctx context.Context, controller Controller, outputDir string) error {
	_, err := tea.NewProgram(New(ctx, controller, outputDir), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return refresh()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.snap = m.controller.Snapshot()
		return m, refresh()

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Connect):
			m.controller.Connect(m.ctx)
			m.status = "connecting..."
		case key.Matches(msg, keys.Start):
			m.controller.Start(m.now())
			m.status = "recording"
		case key.Matches(msg, keys.Stop):
			m.controller.Stop(m.now())
			m.status = "stopped"
		case key.Matches(msg, keys.Reset):
			m.controller.Reset(m.now())
			m.status = "clock reset"
		case key.Matches(msg, keys.ExportCSV):
			m.status = m.saveCSV()
		case key.Matches(msg, keys.ExportJSON):
			m.status = m.saveJSON()
		}
		m.snap = m.controller.Snapshot()
	}

	return m, nil
}

func (m Model) saveCSV() string {
	path, ok, err := m.controller.SaveCSV(m.outputDir)
	switch {
	case err != nil:
		return "csv export failed: " + err.Error()
	case !ok:
		return "nothing recorded yet"
	default:
		return "saved " + path
	}
}

func (m Model) saveJSON() string {
	path, err := m.controller.SaveJSON(m.outputDir)
	if err != nil {
		return "json export failed: " + err.Error()
	}
	return "saved " + path
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("GSR Session Logger"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.connectionState()))
	b.WriteString("\n\n")

	channels := make([]string, 0, len(pipeline.ChannelLabels))
	for i, label := range pipeline.ChannelLabels {
		channels = append(channels, m.renderChannel(i, label))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, channels...))
	b.WriteString("\n")

	b.WriteString(m.renderViewer())
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Session: " + session.FormatClock(m.snap.Elapsed)))
	if m.snap.Recording {
		b.WriteString(spikeStyle.Render("  ● REC"))
	}
	if m.status != "" {
		b.WriteString("  " + dimStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))

	return b.String()
}

func (m Model) connectionState() string {
	switch {
	case m.snap.Streaming:
		return "streaming"
	case m.snap.Connected:
		return "stream closed, holding last values"
	default:
		return "simulated"
	}
}

func (m Model) renderChannel(i int, label string) string {
	level := m.snap.Levels[i]
	filled := int(level * barWidth)
	bar := lipgloss.NewStyle().Foreground(levelColor(level)).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", barWidth-filled))

	spike := " "
	if m.snap.Spikes[i] {
		spike = spikeStyle.Render("⚡ spike")
	}

	return channelStyle.Render(fmt.Sprintf("%s\n%s\nraw %.0f  smooth %.1f\n%s",
		labelStyle.Render(label), bar, m.snap.Raw[i], m.snap.Smoothed[i], spike))
}

func (m Model) renderViewer() string {
	lines := []string{"Session Data (last 10 rows):"}
	for _, entry := range m.snap.Recent {
		lines = append(lines, entry.Preview())
	}
	return viewerStyle.Render(strings.Join(lines, "\n"))
}

// levelColor ramps blue to purple to red as level goes from 0 to 1.
func levelColor(level float64) lipgloss.Color {
	type rgb struct{ r, g, b float64 }
	blue, purple, red := rgb{0, 120, 255}, rgb{150, 0, 200}, rgb{255, 0, 60}

	from, to, t := blue, purple, level*2
	if level >= 0.5 {
		from, to, t = purple, red, (level-0.5)*2
	}
	mix := func(a, b float64) int { return int(a + (b-a)*t) }

	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", mix(from.r, to.r), mix(from.g, to.g), mix(from.b, to.b)))
}
