package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/tui/styles"
)

// MarketStatusPanel displays the engine's scalar state and the last tick.
type MarketStatusPanel struct {
	snap       market.Snapshot
	last       market.TickSummary
	hype       bool
	startPrice float64
	startShort float64
	shortCurve []float64
	volLimit   float64
	focused    bool
	width      int
	height     int
}

// NewMarketStatusPanel creates a new status panel. volLimit is the
// volatility at which buying gets restricted.
func NewMarketStatusPanel(volLimit float64) *MarketStatusPanel {
	return &MarketStatusPanel{volLimit: volLimit}
}

// Init initializes the panel.
func (p *MarketStatusPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketStatusPanel) Update(msg tea.Msg) (*MarketStatusPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *MarketStatusPanel) View() string {
	var content strings.Builder

	row := func(label, value string) {
		content.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("%-12s", label)))
		content.WriteString(value)
		content.WriteString("\n")
	}

	row("Tick", styles.RowStyle.Render(fmt.Sprintf("%d", p.snap.Tick)))

	priceStyle := styles.PriceStyle
	change := 0.0
	if p.startPrice > 0 {
		change = (p.snap.Price - p.startPrice) / p.startPrice * 100
		if change > 0 {
			priceStyle = styles.PriceUpStyle
		} else if change < 0 {
			priceStyle = styles.PriceDownStyle
		}
	}
	row("Price", priceStyle.Render(fmt.Sprintf("%s (%+.1f%%)", styles.FormatPrice(p.snap.Price), change)))

	volStyle := styles.RowStyle
	if p.volLimit > 0 && p.snap.Volatility > p.volLimit {
		volStyle = styles.SellStyle
	}
	row("Volatility", volStyle.Render(fmt.Sprintf("%.4f / %.4f", p.snap.Volatility, p.volLimit)))

	if p.snap.BuyAllowed {
		row("Buying", styles.FlagOnStyle.Render("OPEN"))
	} else {
		row("Buying", styles.FlagOffStyle.Render("RESTRICTED"))
	}

	covered := 0.0
	if p.startShort > 0 {
		covered = (p.startShort - p.snap.ShortOutstanding) / p.startShort * 100
	}
	row("Short", styles.RowStyle.Render(fmt.Sprintf("%s (%.1f%% covered)", styles.FormatShares(p.snap.ShortOutstanding), covered)))
	if len(p.shortCurve) > 0 {
		row("", styles.SellStyle.Render(Sparkline(p.shortCurve, p.width-18)))
	}

	if p.hype {
		row("Media", styles.HypeStyle.Render("HYPE"))
	} else {
		row("Media", styles.RowStyle.Render("quiet"))
	}

	content.WriteString("\n")
	content.WriteString(styles.HeaderStyle.Render("Last tick"))
	content.WriteString("\n")
	content.WriteString(styles.BuyStyle.Render(fmt.Sprintf("buy %s", styles.FormatShares(float64(p.last.BuyVolume)))))
	content.WriteString("  ")
	content.WriteString(styles.SellStyle.Render(fmt.Sprintf("sell %s", styles.FormatShares(float64(p.last.SellVolume)))))
	content.WriteString("\n")
	content.WriteString(styles.SizeStyle.Render(fmt.Sprintf("cover %s  discarded %s",
		styles.FormatShares(float64(p.last.CoverVolume)), styles.FormatShares(float64(p.last.Discarded)))))

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📈 Market", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *MarketStatusPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MarketStatusPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetSnapshot sets the engine state. The first snapshot fixes the reference
// price and short interest used for the change figures.
func (p *MarketStatusPanel) SetSnapshot(snap market.Snapshot) {
	if p.startPrice == 0 {
		p.startPrice = snap.Price
		p.startShort = snap.ShortOutstanding
	}
	p.snap = snap
}

// SetReference fixes the opening price and short interest explicitly.
func (p *MarketStatusPanel) SetReference(price, short float64) {
	p.startPrice = price
	p.startShort = short
}

// SetShortCurve sets the short-interest history drawn under the short figure.
func (p *MarketStatusPanel) SetShortCurve(values []float64) {
	p.shortCurve = values
}

// SetHype sets the media hype flag.
func (p *MarketStatusPanel) SetHype(active bool) {
	p.hype = active
}

// SetLastTick records the most recent tick summary.
func (p *MarketStatusPanel) SetLastTick(summary market.TickSummary) {
	p.last = summary
}

// LastTick returns the most recent tick summary.
func (p *MarketStatusPanel) LastTick() market.TickSummary {
	return p.last
}

// MarketUpdateMsg is sent when the engine completes a tick.
type MarketUpdateMsg struct {
	Summary market.TickSummary
}
