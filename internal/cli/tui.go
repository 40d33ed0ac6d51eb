package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slizzai/slizzai/pkg/observability"
)

// Progress styles
var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	barHotStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	labelStyle    = lipgloss.NewStyle().Foreground(colorGray).Width(10)
)

const barWidth = 32

// =============================================================================
// Messages
// =============================================================================

type tileStartMsg struct {
	tile int
	u, v float64
}

type tileDoneMsg struct {
	tile     int
	duration time.Duration
	err      error
}

type budgetMsg struct{ used, limit float64 }

type retryMsg struct {
	tile    int
	stage   string
	attempt int
}

type runDoneMsg struct {
	state string
	err   error
}

// tuiHooks forwards pipeline events to a running bubbletea program.
type tuiHooks struct {
	observability.NoopPipelineHooks
	send func(tea.Msg)
}

func (h tuiHooks) OnTileStart(_ context.Context, tile int, u, v float64) {
	h.send(tileStartMsg{tile: tile, u: u, v: v})
}

func (h tuiHooks) OnTileComplete(_ context.Context, tile int, d time.Duration, err error) {
	h.send(tileDoneMsg{tile: tile, duration: d, err: err})
}

func (h tuiHooks) OnRetry(_ context.Context, tile int, stage string, attempt int, _ error) {
	h.send(retryMsg{tile: tile, stage: stage, attempt: attempt})
}

func (h tuiHooks) OnBudget(_ context.Context, _ int, used, limit float64) {
	h.send(budgetMsg{used: used, limit: limit})
}

// =============================================================================
// RunModel - Live run progress
// =============================================================================

// RunModel is the bubbletea model for the live run view.
type RunModel struct {
	Total     int
	Completed int
	Current   int // -1 between tiles
	U, V      float64
	Used      float64
	Limit     float64
	Retries   int
	LastTile  time.Duration
	State     string
	Err       error

	cancel context.CancelFunc
}

// NewRunModel creates a model for a run of total tiles. cancel is called
// when the user quits.
func NewRunModel(total int, limit float64, cancel context.CancelFunc) RunModel {
	return RunModel{Total: total, Limit: limit, Current: -1, State: "running", cancel: cancel}
}

func (m RunModel) Init() tea.Cmd {
	return nil
}

func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.State = "stopping"
		}
	case tileStartMsg:
		m.Current, m.U, m.V = msg.tile, msg.u, msg.v
	case tileDoneMsg:
		m.Current = -1
		if msg.err == nil {
			m.Completed++
			m.LastTile = msg.duration
		}
	case budgetMsg:
		m.Used, m.Limit = msg.used, msg.limit
	case retryMsg:
		m.Retries++
	case runDoneMsg:
		m.State, m.Err = msg.state, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m RunModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("SlizzAi run"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.State))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("tiles"))
	b.WriteString(bar(m.Completed, m.Total, barFullStyle))
	b.WriteString(fmt.Sprintf(" %d/%d\n", m.Completed, m.Total))

	b.WriteString(labelStyle.Render("water"))
	style := barFullStyle
	if m.Limit > 0 && m.Used/m.Limit > 0.8 {
		style = barHotStyle
	}
	b.WriteString(barRatio(m.Used, m.Limit, style))
	b.WriteString(" " + formatLitres(m.Used) + StyleDim.Render(" of "+formatLitres(m.Limit)) + "\n")

	b.WriteString(labelStyle.Render("tile"))
	if m.Current >= 0 {
		b.WriteString(fmt.Sprintf("%d (u=%.4f, v=%.4f)", m.Current, m.U, m.V))
	} else {
		b.WriteString(StyleDim.Render("—"))
	}
	b.WriteString("\n")

	if m.LastTile > 0 || m.Retries > 0 {
		b.WriteString(StyleDim.Render(fmt.Sprintf("%sLast tile %s · %d retries",
			strings.Repeat(" ", 10), m.LastTile.Round(time.Millisecond), m.Retries)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

func bar(n, total int, style lipgloss.Style) string {
	if total <= 0 {
		return barRatio(0, 1, style)
	}
	return barRatio(float64(n), float64(total), style)
}

func barRatio(v, limit float64, style lipgloss.Style) string {
	filled := 0
	if limit > 0 {
		filled = int(v / limit * barWidth)
	}
	filled = min(max(filled, 0), barWidth)
	return style.Render(strings.Repeat("█", filled)) + barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}
