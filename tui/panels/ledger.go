package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/squeeze/internal/broker"
	"github.com/zappabad/squeeze/internal/trader"
	"github.com/zappabad/squeeze/tui/styles"
)

// LedgerPanel displays per-trader accounts and the recent activity tape.
type LedgerPanel struct {
	accounts     []broker.Account
	activity     []broker.Activity
	scrollOffset int
	focused      bool
	width        int
	height       int
}

// NewLedgerPanel creates a new ledger panel.
func NewLedgerPanel() *LedgerPanel {
	return &LedgerPanel{}
}

// Init initializes the panel.
func (p *LedgerPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *LedgerPanel) Update(msg tea.Msg) (*LedgerPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.scrollOffset > 0 {
				p.scrollOffset--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.scrollOffset < len(p.accounts)-1 {
				p.scrollOffset++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *LedgerPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-10s %6s %8s %8s %8s %8s %12s", "Trader", "Orders", "Bought", "Sold", "Covered", "Open", "PnL")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	// Half the rows for accounts, the rest for the tape
	rows := (p.height - 8) / 2
	if rows < 3 {
		rows = 3
	}
	start := p.scrollOffset
	if start > len(p.accounts) {
		start = len(p.accounts)
	}
	end := start + rows
	if end > len(p.accounts) {
		end = len(p.accounts)
	}

	for _, a := range p.accounts[start:end] {
		row := fmt.Sprintf("%-10s %6d %8s %8s %8s %8s %12.2f",
			a.TraderID, a.Orders,
			styles.FormatShares(float64(a.Bought)),
			styles.FormatShares(float64(a.Sold)),
			styles.FormatShares(float64(a.Covered)),
			styles.FormatShares(float64(a.OpenShares)),
			a.RealizedPnL)

		style := styles.RowStyle
		switch {
		case a.RealizedPnL > 0:
			style = styles.PriceUpStyle
		case a.RealizedPnL < 0:
			style = styles.PriceDownStyle
		}
		content.WriteString(style.Render(row))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(styles.HeaderStyle.Render("Recent Activity"))
	content.WriteString("\n")

	tape := p.activity
	if len(tape) > rows {
		tape = tape[len(tape)-rows:]
	}
	for _, act := range tape {
		var sideStyle lipgloss.Style
		switch act.Type {
		case trader.TraderEventPlacedOrder:
			sideStyle = styles.BuyStyle
		case trader.TraderEventCovered:
			sideStyle = styles.CoverStyle
		case trader.TraderEventError:
			sideStyle = styles.FlagOffStyle
		default:
			sideStyle = styles.SellStyle
		}

		line := fmt.Sprintf("%-10s %-6s %8s @ %s", act.TraderID, act.Side, styles.FormatShares(float64(act.Size)), styles.FormatPrice(act.Price))
		if act.Message != "" {
			line += " " + act.Message
		}
		content.WriteString(sideStyle.Render(line))
		content.WriteString("\n")
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle(fmt.Sprintf("💼 Ledger (%d traders)", len(p.accounts)), p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *LedgerPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *LedgerPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetAccounts sets the account rows.
func (p *LedgerPanel) SetAccounts(accounts []broker.Account) {
	p.accounts = accounts
	if p.scrollOffset >= len(accounts) {
		p.scrollOffset = 0
	}
}

// SetActivity sets the recent activity tape, oldest first.
func (p *LedgerPanel) SetActivity(activity []broker.Activity) {
	p.activity = activity
}

// Accounts returns the displayed accounts.
func (p *LedgerPanel) Accounts() []broker.Account {
	return p.accounts
}
