package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/squeeze/tui/styles"
)

// VolumePanel draws per-candle buy volume above the axis and sell volume
// below it.
type VolumePanel struct {
	candles []Candle
	focused bool
	width   int
	height  int
}

// NewVolumePanel creates a new volume panel.
func NewVolumePanel() *VolumePanel {
	return &VolumePanel{}
}

// Init initializes the panel.
func (p *VolumePanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *VolumePanel) Update(msg tea.Msg) (*VolumePanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *VolumePanel) View() string {
	var content strings.Builder

	if len(p.candles) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No volume yet..."))
	} else {
		content.WriteString(p.renderBars(p.width-4, p.height-4))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📊 Volume", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *VolumePanel) renderBars(width, height int) string {
	cols := (width - 10) / 2
	if cols < 1 {
		cols = 1
	}
	display := p.candles
	if len(display) > cols {
		display = display[len(display)-cols:]
	}

	half := (height - 1) / 2
	if half < 1 {
		half = 1
	}

	var peak float64
	for _, c := range display {
		if v := float64(c.Volume.Buy); v > peak {
			peak = v
		}
		if v := float64(c.Volume.Sell); v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for row := half; row >= 1; row-- {
		label := "         "
		if row == half {
			label = fmt.Sprintf("%8s ", styles.FormatShares(peak))
		}
		b.WriteString(styles.ChartAxisStyle.Render(label + "│"))
		for _, c := range display {
			b.WriteString(styles.BuyStyle.Render(string(barCell(float64(c.Volume.Buy), peak, half, row))))
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.ChartAxisStyle.Render("        0┼" + strings.Repeat("──", len(display))))
	b.WriteString("\n")

	for row := 1; row <= half; row++ {
		label := "         "
		if row == half {
			label = fmt.Sprintf("%8s ", "-"+styles.FormatShares(peak))
		}
		b.WriteString(styles.ChartAxisStyle.Render(label + "│"))
		for _, c := range display {
			b.WriteString(styles.SellStyle.Render(string(barCell(float64(c.Volume.Sell), peak, half, row))))
			b.WriteString(" ")
		}
		if row < half {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// barCell returns the glyph of a bar of value v at distance row from the axis.
func barCell(v, peak float64, rows, row int) rune {
	if v <= 0 {
		return ' '
	}
	filled := int(v/peak*float64(rows) + 0.5)
	if filled < 1 {
		filled = 1
	}
	if row <= filled {
		return '█'
	}
	return ' '
}

// SetFocus sets the focus state of the panel.
func (p *VolumePanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *VolumePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetCandles sets the candles whose volume is drawn.
func (p *VolumePanel) SetCandles(candles []Candle) {
	p.candles = candles
}
