package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/squeeze/internal/broker"
	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/media"
	mediaview "github.com/zappabad/squeeze/internal/media/view"
	"github.com/zappabad/squeeze/internal/sim"
	"github.com/zappabad/squeeze/tui/panels"
	"github.com/zappabad/squeeze/tui/styles"
)

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusMarket PanelFocus = 0
	FocusChart  PanelFocus = 1
	FocusVolume PanelFocus = 2
	FocusHype   PanelFocus = 3
	FocusLedger PanelFocus = 4

	panelCount = 5
)

// MarketSource is the engine state the dashboard reads.
type MarketSource interface {
	Snapshot() market.Snapshot
	Series() market.Series
	Events() <-chan market.TickSummary
}

// HypeSource is the media state the dashboard reads.
type HypeSource interface {
	Status() media.HypeStatus
	Latest(n int) []media.Headline
	Events() <-chan mediaview.HeadlineEvent
}

// LedgerSource is the trader ledger the dashboard reads.
type LedgerSource interface {
	Accounts() []broker.Account
	Recent(n int) []broker.Activity
}

// Config controls the dashboard.
type Config struct {
	Refresh             time.Duration
	TicksPerCandle      int
	VolatilityThreshold float64
	// InitialPrice and InitialShort are the reference for change figures.
	InitialPrice float64
	InitialShort float64
}

// DefaultConfig returns the default dashboard settings.
func DefaultConfig() Config {
	return Config{
		Refresh:        100 * time.Millisecond,
		TicksPerCandle: 10,
	}
}

// DoneMsg tells the dashboard that the run finished.
type DoneMsg struct {
	Report sim.Report
	Err    error
}

// Model is the main TUI application model. It only reads simulation state.
type Model struct {
	cfg Config

	// Sources
	market MarketSource
	hype   HypeSource
	ledger LedgerSource

	// Panels
	marketPanel *panels.MarketStatusPanel
	chartPanel  *panels.CandlestickPanel
	volumePanel *panels.VolumePanel
	hypePanel   *panels.HypePanel
	ledgerPanel *panels.LedgerPanel

	// Focus management
	focusedPanel PanelFocus

	// Window dimensions
	width  int
	height int

	// Status
	statusMsg string
	paused    bool
	done      bool
	ready     bool
}

// NewModel creates a new dashboard model.
func NewModel(cfg Config, m MarketSource, h HypeSource, l LedgerSource) *Model {
	if cfg.Refresh <= 0 {
		cfg.Refresh = DefaultConfig().Refresh
	}
	if cfg.TicksPerCandle <= 0 {
		cfg.TicksPerCandle = DefaultConfig().TicksPerCandle
	}

	marketPanel := panels.NewMarketStatusPanel(cfg.VolatilityThreshold)
	if cfg.InitialPrice > 0 {
		marketPanel.SetReference(cfg.InitialPrice, cfg.InitialShort)
	}

	return &Model{
		cfg:          cfg,
		market:       m,
		hype:         h,
		ledger:       l,
		marketPanel:  marketPanel,
		chartPanel:   panels.NewCandlestickPanel(),
		volumePanel:  panels.NewVolumePanel(),
		hypePanel:    panels.NewHypePanel(),
		ledgerPanel:  panels.NewLedgerPanel(),
		focusedPanel: FocusChart,
		statusMsg:    "running",
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.marketPanel.Init(),
		m.chartPanel.Init(),
		m.volumePanel.Init(),
		m.hypePanel.Init(),
		m.ledgerPanel.Init(),
		m.listenMarketEvents(),
		m.listenHypeEvents(),
		m.tickRefresh(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab":
			m.cycleFocus()

		// Freeze the panels; the run continues
		case "p":
			m.paused = !m.paused

		case "shift+tab":
			m.focusedPanel--
			if m.focusedPanel < 0 {
				m.focusedPanel = panelCount - 1
			}

		// Direct panel focus with F1-F5
		case "f1":
			m.setFocus(FocusMarket)
		case "f2":
			m.setFocus(FocusChart)
		case "f3":
			m.setFocus(FocusVolume)
		case "f4":
			m.setFocus(FocusHype)
		case "f5":
			m.setFocus(FocusLedger)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case panels.MarketUpdateMsg:
		m.marketPanel.SetLastTick(msg.Summary)
		cmds = append(cmds, m.listenMarketEvents())

	case panels.HeadlineMsg:
		m.hypePanel.AddHeadline(msg.Item)
		cmds = append(cmds, m.listenHypeEvents())

	case DoneMsg:
		m.done = true
		m.updateAllData()
		if msg.Err != nil {
			m.statusMsg = "❌ " + msg.Err.Error()
		} else {
			m.statusMsg = fmt.Sprintf("✓ done: %d ticks, peak %s at t%d",
				msg.Report.Ticks, styles.FormatPrice(msg.Report.PeakPrice), msg.Report.PeakTick)
		}

	case tickMsg:
		if !m.paused {
			m.updateAllData()
		}
		if !m.done {
			cmds = append(cmds, m.tickRefresh())
		}
	}

	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd

	switch m.focusedPanel {
	case FocusMarket:
		m.marketPanel, cmd = m.marketPanel.Update(msg)
	case FocusChart:
		m.chartPanel, cmd = m.chartPanel.Update(msg)
	case FocusVolume:
		m.volumePanel, cmd = m.volumePanel.Update(msg)
	case FocusHype:
		m.hypePanel, cmd = m.hypePanel.Update(msg)
	case FocusLedger:
		m.ledgerPanel, cmd = m.ledgerPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	m.marketPanel.SetFocus(m.focusedPanel == FocusMarket)
	m.chartPanel.SetFocus(m.focusedPanel == FocusChart)
	m.volumePanel.SetFocus(m.focusedPanel == FocusVolume)
	m.hypePanel.SetFocus(m.focusedPanel == FocusHype)
	m.ledgerPanel.SetFocus(m.focusedPanel == FocusLedger)

	// Layout:
	// ┌───────────┬──────────────────────────────┐
	// │  Market   │            Price             │
	// ├───────────┼──────────────┬───────────────┤
	// │   Media   │    Volume    │    Ledger     │
	// └───────────┴──────────────┴───────────────┘

	leftWidth := m.width / 3
	middleWidth := m.width / 3
	rightWidth := m.width - leftWidth - middleWidth

	topHeight := (m.height - 1) * 3 / 5
	bottomHeight := m.height - topHeight - 1

	m.marketPanel.SetSize(leftWidth, topHeight)
	m.chartPanel.SetSize(m.width-leftWidth, topHeight)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.marketPanel.View(),
		m.chartPanel.View(),
	)

	m.hypePanel.SetSize(leftWidth, bottomHeight)
	m.volumePanel.SetSize(middleWidth, bottomHeight)
	m.ledgerPanel.SetSize(rightWidth, bottomHeight)

	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.hypePanel.View(),
		m.volumePanel.View(),
		m.ledgerPanel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	help := []string{
		styles.StatusBarKeyStyle.Render("F1-F5") + styles.StatusBarDescStyle.Render(" panels"),
		styles.StatusBarKeyStyle.Render("Tab") + styles.StatusBarDescStyle.Render(" navigate"),
		styles.StatusBarKeyStyle.Render("↑↓") + styles.StatusBarDescStyle.Render(" scroll"),
		styles.StatusBarKeyStyle.Render("p") + styles.StatusBarDescStyle.Render(" pause"),
		styles.StatusBarKeyStyle.Render("q") + styles.StatusBarDescStyle.Render(" quit"),
	}

	helpStr := lipgloss.JoinHorizontal(lipgloss.Center, help[0], " │ ", help[1], " │ ", help[2], " │ ", help[3], " │ ", help[4])

	status := ""
	if m.statusMsg != "" {
		status = " │ " + m.statusMsg
	}
	if m.paused {
		status += " │ paused"
	}

	return styles.StatusBarStyle.Width(m.width).Render(helpStr + status)
}

func (m *Model) setFocus(panel PanelFocus) {
	m.focusedPanel = panel
}

func (m *Model) cycleFocus() {
	m.focusedPanel = (m.focusedPanel + 1) % panelCount
}

// Focus returns the focused panel.
func (m *Model) Focus() PanelFocus {
	return m.focusedPanel
}

// Paused reports whether panel refresh is frozen.
func (m *Model) Paused() bool {
	return m.paused
}

// Status returns the status bar message.
func (m *Model) Status() string {
	return m.statusMsg
}

func (m *Model) updateAllData() {
	if m.market != nil {
		m.marketPanel.SetSnapshot(m.market.Snapshot())
		series := m.market.Series()
		m.marketPanel.SetShortCurve(series.ShortInterest)

		candles := panels.BuildCandles(series.Prices, series.Volumes, m.cfg.TicksPerCandle)
		m.chartPanel.SetCandles(candles)
		m.volumePanel.SetCandles(candles)
	}

	if m.hype != nil {
		st := m.hype.Status()
		m.marketPanel.SetHype(st.Active)
		m.hypePanel.SetStatus(st)
		m.hypePanel.SetHeadlines(m.hype.Latest(50))
	}

	if m.ledger != nil {
		m.ledgerPanel.SetAccounts(m.ledger.Accounts())
		m.ledgerPanel.SetActivity(m.ledger.Recent(20))
	}
}

func (m *Model) listenMarketEvents() tea.Cmd {
	if m.market == nil {
		return nil
	}
	events := m.market.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return panels.MarketUpdateMsg{Summary: ev}
	}
}

func (m *Model) listenHypeEvents() tea.Cmd {
	if m.hype == nil {
		return nil
	}
	events := m.hype.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return panels.HeadlineMsg{Item: ev.Item}
	}
}

// tickMsg is sent periodically to refresh data.
type tickMsg struct{}

func (m *Model) tickRefresh() tea.Cmd {
	return tea.Tick(m.cfg.Refresh, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}
