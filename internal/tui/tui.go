// Package tui provides the Bubble Tea dashboard for the hydration record.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/hydro/internal/engine"
	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/report"
	"github.com/fakeyudi/hydro/internal/status"
	"github.com/fakeyudi/hydro/internal/tips"
)

// Default refresh intervals.
const (
	DefaultTick     = time.Second
	DefaultTipEvery = 5 * time.Minute
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("31")).
			Padding(0, 2)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	amountStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	barFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	tipStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("212"))

	flashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	syncStyles = map[status.SyncStatus]lipgloss.Style{
		status.Synced:  lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		status.Syncing: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		status.Offline: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		status.Local:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

// ── Keys ────────────

type keyMap struct {
	Cup  key.Binding
	Jug  key.Binding
	Sip  key.Binding
	Goal key.Binding
	Tip  key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Cup:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cup 150ml")),
	Jug:  key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "jug 500ml")),
	Sip:  key.NewBinding(key.WithKeys(" ", "a"), key.WithHelp("space", "sip 250ml")),
	Goal: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "goal")),
	Tip:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new tip")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() string {
	var parts []string
	for _, b := range []key.Binding{k.Cup, k.Jug, k.Sip, k.Goal, k.Tip, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return "  " + strings.Join(parts, "  ")
}

// ── Collaborators ────────────

// Engine is the part of engine.Engine the dashboard drives.
type Engine interface {
	State() hydration.State
	RecordIntake(in engine.Intake) (hydration.IntakeEvent, error)
	SetGoal(liters float64) error
	Refresh() bool
}

// SyncReader reports the sync indicator.
type SyncReader interface {
	Snapshot() status.Snapshot
}

// Options tunes the dashboard. Zero values select defaults.
type Options struct {
	Tips     tips.Source
	Tick     time.Duration
	TipEvery time.Duration
	Now      func() time.Time
}

// ── Messages ────────────

type tickMsg time.Time

type tipTickMsg struct{}

type tipMsg string

// ── Model ────────────

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	ctx  context.Context
	eng  Engine
	sync SyncReader
	opts Options

	st    hydration.State
	snap  status.Snapshot
	tip   string
	flash string
	isErr bool

	vp       viewport.Model
	vpWidth  int
	vpHeight int
	spin     spinner.Model
	width    int
	height   int
	ready    bool
	quitted  bool
}

// New creates a dashboard over eng and sync. ctx bounds tip lookups.
func New(ctx context.Context, eng Engine, sync SyncReader, opts Options) Model {
	if opts.Tips == nil {
		opts.Tips = &tips.Static{}
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.TipEvery <= 0 {
		opts.TipEvery = DefaultTipEvery
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := Model{
		ctx:  ctx,
		eng:  eng,
		sync: sync,
		opts: opts,
		tip:  tips.Waiting,
		spin: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(syncStyles[status.Syncing]),
		),
	}
	m.refresh()
	return m
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.tipTick(), m.fetchTip(), m.spin.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitted = true
			return m, tea.Quit
		case key.Matches(msg, keys.Cup):
			return m.record("cup")
		case key.Matches(msg, keys.Jug):
			return m.record("jug")
		case key.Matches(msg, keys.Sip):
			return m.record("sip")
		case key.Matches(msg, keys.Goal):
			return m.cycleGoal()
		case key.Matches(msg, keys.Tip):
			return m, m.fetchTip()
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tickMsg:
		m.eng.Refresh()
		m.refresh()
		return m, m.tick()

	case tipTickMsg:
		return m, tea.Batch(m.fetchTip(), m.tipTick())

	case tipMsg:
		m.tip = string(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitted {
		return ""
	}
	if !m.ready {
		return "Loading…"
	}
	title := titleStyle.Width(m.width).Render("  hydro  " + m.opts.Now().Format("Mon 2 Jan"))
	statusBar := statusBarStyle.Width(m.width).Render(keys.help())
	return lipgloss.JoinVertical(lipgloss.Left, title, m.renderSummary(), m.vp.View(), statusBar)
}

// ── Actions ────────────

func (m Model) record(preset string) (tea.Model, tea.Cmd) {
	p, err := hydration.LookupPreset(preset)
	if err != nil {
		m.setFlash(err.Error(), true)
		return m, nil
	}
	ev, err := m.eng.RecordIntake(engine.Intake{
		AmountMl: p.AmountMl,
		Label:    p.Label,
		Icon:     p.Icon,
		Category: p.Category,
	})
	switch {
	case errors.Is(err, engine.ErrBusy):
		return m, nil
	case err != nil:
		m.setFlash(err.Error(), true)
		return m, nil
	}
	m.setFlash(fmt.Sprintf("+%.0f ml %s", ev.Amount, ev.Label), false)
	m.refresh()
	return m, m.fetchTip()
}

func (m Model) cycleGoal() (tea.Model, tea.Cmd) {
	next := hydration.NextGoal(m.st.Goal)
	if err := m.eng.SetGoal(next); err != nil {
		m.setFlash(err.Error(), true)
		return m, nil
	}
	m.setFlash(fmt.Sprintf("goal set to %.1f L", next), false)
	m.refresh()
	return m, m.fetchTip()
}

func (m *Model) setFlash(s string, isErr bool) {
	m.flash, m.isErr = s, isErr
}

// refresh pulls the latest record and sync state into the model.
func (m *Model) refresh() {
	m.st = m.eng.State()
	if m.sync != nil {
		m.snap = m.sync.Snapshot()
	}
	if m.ready {
		m.layout()
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) tipTick() tea.Cmd {
	return tea.Tick(m.opts.TipEvery, func(time.Time) tea.Msg { return tipTickMsg{} })
}

func (m Model) fetchTip() tea.Cmd {
	src, ctx := m.opts.Tips, m.ctx
	cur, goal := m.st.CurrentAmount, m.st.Goal
	return func() tea.Msg {
		return tipMsg(src.Tip(ctx, cur, goal))
	}
}

// ── Layout ────────────

func (m *Model) layout() {
	// title(1) + summary + statusBar(1)
	vpHeight := m.height - 2 - lipgloss.Height(m.renderSummary())
	if vpHeight < 1 {
		vpHeight = 1
	}
	if m.vpWidth != m.width || m.vpHeight != vpHeight {
		m.vp = viewport.New(m.width, vpHeight)
		m.vpWidth, m.vpHeight = m.width, vpHeight
	}
	m.vp.SetContent(m.renderHistory())
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m Model) renderSummary() string {
	st := m.st
	var sb strings.Builder
	sb.WriteString(heading("Today"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-9s", label)) + " " + value + "\n")
	}

	row("Intake", amountStyle.Render(fmt.Sprintf("%.2f L", st.CurrentAmount))+
		dimStyle.Render(fmt.Sprintf(" of %.2f L", st.Goal)))
	row("Progress", m.renderBar()+fmt.Sprintf(" %d%%", report.Percent(st)))
	streak := fmt.Sprintf("%d days", st.Streak)
	if st.Streak == 1 {
		streak = "1 day"
	}
	row("Streak", streak)
	row("Mood", st.Mood)
	row("Sync", m.renderSync())

	sb.WriteString("\n  " + tipStyle.Render(m.tip) + "\n")
	if m.flash != "" {
		style := flashStyle
		if m.isErr {
			style = errStyle
		}
		sb.WriteString("  " + style.Render(m.flash) + "\n")
	}
	sb.WriteString(heading(fmt.Sprintf("Intake log (%d)", len(st.History))))
	return sb.String()
}

func (m Model) renderBar() string {
	const width = 30
	bar := report.Bar(m.st.Progress(), width)
	filled := strings.Count(bar, "#")
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func (m Model) renderSync() string {
	style := syncStyles[m.snap.Status]
	label := style.Render(string(m.snap.Status))
	if m.snap.Status == status.Syncing {
		label = m.spin.View() + " " + label
	}
	label += dimStyle.Render(" (" + m.snap.Mode.String() + ")")
	if m.snap.LastError != "" && m.snap.Status == status.Offline {
		label += "  " + errStyle.Render(m.snap.LastError)
	}
	return label
}

func (m Model) renderHistory() string {
	if len(m.st.History) == 0 {
		return dimStyle.Render("  Nothing logged yet today. Press space for a sip.") + "\n"
	}
	var sb strings.Builder
	for _, ev := range m.st.History {
		ts := timeStyle.Render(ev.Timestamp)
		amount := amountStyle.Render(fmt.Sprintf("%5.0f ml", ev.Amount))
		sb.WriteString(fmt.Sprintf("  %s  %s  %s %s\n", ts, amount, ev.Label, dimStyle.Render(ev.Category)))
	}
	return sb.String()
}

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(ctx context.Context, eng Engine, sync SyncReader, opts Options) error {
	p := tea.NewProgram(New(ctx, eng, sync, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
