package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/tui/styles"
)

// Candle aggregates a run of consecutive ticks.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume market.VolumePair
	// Tick is the first tick of the candle, 1-based.
	Tick int64
}

// BuildCandles groups the price history into candles of perCandle ticks.
// The last candle may be partial. volumes may be shorter than prices.
func BuildCandles(prices []float64, volumes []market.VolumePair, perCandle int) []Candle {
	if perCandle <= 0 {
		perCandle = 1
	}
	candles := make([]Candle, 0, (len(prices)+perCandle-1)/perCandle)
	for start := 0; start < len(prices); start += perCandle {
		end := start + perCandle
		if end > len(prices) {
			end = len(prices)
		}
		c := Candle{
			Open:  prices[start],
			High:  prices[start],
			Low:   prices[start],
			Close: prices[end-1],
			Tick:  int64(start + 1),
		}
		for i := start; i < end; i++ {
			if prices[i] > c.High {
				c.High = prices[i]
			}
			if prices[i] < c.Low {
				c.Low = prices[i]
			}
			if i < len(volumes) {
				c.Volume.Buy += volumes[i].Buy
				c.Volume.Sell += volumes[i].Sell
			}
		}
		candles = append(candles, c)
	}
	return candles
}

// CandlestickPanel displays the price path as a candlestick chart.
type CandlestickPanel struct {
	candles []Candle

	focused bool
	width   int
	height  int
}

// NewCandlestickPanel creates a new candlestick chart panel.
func NewCandlestickPanel() *CandlestickPanel {
	return &CandlestickPanel{}
}

// Init initializes the panel.
func (p *CandlestickPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *CandlestickPanel) Update(msg tea.Msg) (*CandlestickPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *CandlestickPanel) View() string {
	var content strings.Builder

	chartWidth := p.width - 4
	chartHeight := p.height - 4
	if chartHeight < 5 {
		chartHeight = 5
	}

	if len(p.candles) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No ticks yet..."))
	} else {
		content.WriteString(p.renderChart(chartWidth, chartHeight, p.candles))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := "📉 Price"
	if n := len(p.candles); n > 0 {
		title = fmt.Sprintf("📉 Price %s", styles.FormatPrice(p.candles[n-1].Close))
	}
	panel := lipgloss.JoinVertical(lipgloss.Left, styles.RenderTitle(title, p.focused), content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *CandlestickPanel) renderChart(width, height int, candles []Candle) string {
	// 9 chars for the price axis, 1 for the separator
	chartWidth := width - 10
	if chartWidth < 10 {
		chartWidth = 10
	}

	// Each candle takes 2 columns: candle and gap
	candlesToShow := chartWidth / 2
	if candlesToShow < 1 {
		candlesToShow = 1
	}
	display := candles
	if len(candles) > candlesToShow {
		display = candles[len(candles)-candlesToShow:]
	}

	minPrice, maxPrice := display[0].Low, display[0].High
	for _, c := range display {
		if c.Low < minPrice {
			minPrice = c.Low
		}
		if c.High > maxPrice {
			maxPrice = c.High
		}
	}

	priceRange := maxPrice - minPrice
	if priceRange <= 0 {
		priceRange = maxPrice * 0.01
		if priceRange <= 0 {
			priceRange = 0.01
		}
	}
	minPrice -= priceRange * 0.1
	maxPrice += priceRange * 0.1

	// 2 rows for the tick axis
	rows := height - 3
	if rows < 5 {
		rows = 5
	}

	var result strings.Builder
	for row := 0; row < rows; row++ {
		price := yToPrice(row, minPrice, maxPrice, rows)
		result.WriteString(styles.ChartAxisStyle.Render(fmt.Sprintf("%8s │", styles.FormatPrice(price))))

		for _, c := range display {
			style := styles.CandleUpStyle
			if c.Close < c.Open {
				style = styles.CandleDownStyle
			}
			result.WriteString(style.Render(string(candleChar(c, row, minPrice, maxPrice, rows))))
			result.WriteString(" ")
		}
		result.WriteString("\n")
	}

	result.WriteString(styles.ChartAxisStyle.Render("─────────┴"))
	for range display {
		result.WriteString(styles.ChartAxisStyle.Render("──"))
	}
	result.WriteString("\n")

	// Tick labels at the first and last candle
	first := fmt.Sprintf("t%d", display[0].Tick)
	last := fmt.Sprintf("t%d", display[len(display)-1].Tick)
	gap := len(display)*2 - len(first) - len(last)
	if gap < 1 {
		gap = 1
	}
	result.WriteString(strings.Repeat(" ", 10))
	result.WriteString(styles.ChartLabelStyle.Render(first + strings.Repeat(" ", gap) + last))

	return result.String()
}

// candleChar returns the character drawn for a candle at a given row.
func candleChar(c Candle, row int, minPrice, maxPrice float64, height int) rune {
	rowPrice := yToPrice(row, minPrice, maxPrice, height)

	bodyTop, bodyBottom := c.Open, c.Close
	if c.Close > c.Open {
		bodyTop, bodyBottom = c.Close, c.Open
	}

	// Half a row of tolerance when mapping prices onto discrete rows
	tolerance := (maxPrice - minPrice) / float64(height*2)

	if rowPrice <= bodyTop+tolerance && rowPrice >= bodyBottom-tolerance {
		return '┃'
	}
	if rowPrice <= c.High+tolerance && rowPrice > bodyTop {
		return '│'
	}
	if rowPrice >= c.Low-tolerance && rowPrice < bodyBottom {
		return '│'
	}
	return ' '
}

func yToPrice(y int, minPrice, maxPrice float64, height int) float64 {
	if height <= 1 {
		return minPrice
	}
	ratio := float64(y) / float64(height-1)
	return maxPrice - ratio*(maxPrice-minPrice)
}

// SetFocus sets the focus state of the panel.
func (p *CandlestickPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *CandlestickPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetCandles sets the candle data.
func (p *CandlestickPanel) SetCandles(candles []Candle) {
	p.candles = candles
}

// Candles returns the candles currently charted.
func (p *CandlestickPanel) Candles() []Candle {
	return p.candles
}
