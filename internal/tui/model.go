// Package tui displays live progress while the benchmark grid runs.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/snapbench/snapbench/internal/meter"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	configStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	prunedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// ErrMsg aborts the TUI with a benchmark failure.
type ErrMsg struct{ Err error }

// Model tracks grid progress across configurations and runs.
type Model struct {
	progress progress.Model

	totalRuns int
	doneRuns  int

	configLabel string
	prunedCount int
	lastPruned  float64

	result *meter.RunResult
	err    error
	quit   bool

	// Called when the user interrupts; cancels the measurement context.
	Cancel func()
}

// NewModel sizes the progress bar for a walk of totalRuns measurements.
func NewModel(totalRuns int, cancel func()) Model {
	return Model{
		progress:  progress.New(progress.WithDefaultGradient()),
		totalRuns: totalRuns,
		Cancel:    cancel,
	}
}

// Result returns the finished run, if the walk completed.
func (m Model) Result() *meter.RunResult { return m.result }

// Err returns the failure that ended the TUI, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.Cancel != nil {
				m.Cancel()
			}
			m.quit = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		w := msg.Width - 8
		if w > 60 {
			w = 60
		}
		if w > 0 {
			m.progress.Width = w
		}
		return m, nil

	case meter.ConfigStartedMsg:
		m.configLabel = fmt.Sprintf("%dx%d (scale %dx%d, %d/%d)",
			msg.Width, msg.Height, msg.ScaleX, msg.ScaleY, msg.Index+1, msg.Total)
		return m, nil

	case meter.RunFinishedMsg:
		m.doneRuns++
		if m.totalRuns > 0 {
			return m, m.progress.SetPercent(float64(m.doneRuns) / float64(m.totalRuns))
		}
		return m, nil

	case meter.OutlierPrunedMsg:
		m.prunedCount++
		m.lastPruned = msg.ValueMs
		return m, nil

	case meter.WalkFinishedMsg:
		m.result = msg.Result
		return m, tea.Quit

	case ErrMsg:
		m.err = msg.Err
		return m, tea.Quit

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.result != nil || m.err != nil || m.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("snapbench") + "\n\n")
	if m.configLabel != "" {
		b.WriteString(configStyle.Render("Measuring "+m.configLabel) + "\n")
	}
	b.WriteString(m.progress.View() + "\n")
	fmt.Fprintf(&b, "%d/%d runs\n", m.doneRuns, m.totalRuns)
	if m.prunedCount > 0 {
		b.WriteString(prunedStyle.Render(fmt.Sprintf("pruned %d outliers (last %.2f ms)", m.prunedCount, m.lastPruned)) + "\n")
	}
	b.WriteString(helpStyle.Render("q to abort"))
	return b.String()
}
