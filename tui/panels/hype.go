package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/squeeze/internal/media"
	"github.com/zappabad/squeeze/tui/styles"
)

// HypePanel shows the media hype state, its countdown and the headlines
// published on each transition, newest first.
type HypePanel struct {
	status       media.HypeStatus
	headlines    []media.Headline
	scrollOffset int
	maxItems     int
	focused      bool
	width        int
	height       int
}

// NewHypePanel creates a new hype panel.
func NewHypePanel() *HypePanel {
	return &HypePanel{maxItems: 50}
}

// Init initializes the panel.
func (p *HypePanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *HypePanel) Update(msg tea.Msg) (*HypePanel, tea.Cmd) {
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
			if p.scrollOffset < len(p.headlines)-1 {
				p.scrollOffset++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *HypePanel) View() string {
	var content strings.Builder

	content.WriteString(p.renderState())
	content.WriteString("\n\n")

	if len(p.headlines) == 0 {
		content.WriteString(styles.FadedStyle.Render("No headlines yet"))
	} else {
		rows := p.height - 7
		if rows < 1 {
			rows = 1
		}

		shown := 0
		for i := len(p.headlines) - 1 - p.scrollOffset; i >= 0 && shown < rows; i-- {
			if shown > 0 {
				content.WriteString("\n")
			}
			content.WriteString(p.renderHeadline(p.headlines[i]))
			shown++
		}

		if len(p.headlines) > rows {
			content.WriteString("\n")
			content.WriteString(styles.FadedStyle.Render(fmt.Sprintf(" %d-%d of %d",
				p.scrollOffset+1, p.scrollOffset+shown, len(p.headlines))))
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle(fmt.Sprintf("📣 Media (%d ignitions)", p.status.Ignitions), p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// renderState draws the hype flag and, while active, the cycles left.
func (p *HypePanel) renderState() string {
	if !p.status.Active {
		return styles.FadedStyle.Render(fmt.Sprintf("○ quiet   cycle %d", p.status.Cycles))
	}

	frac := 0.0
	if p.status.Duration > 0 {
		frac = float64(p.status.Countdown) / float64(p.status.Duration)
	}
	width := p.width - 24
	if width < 5 {
		width = 5
	}
	return styles.HypeStyle.Render("● HYPE") + "  " + gauge(frac, width) +
		styles.TimeStyle.Render(fmt.Sprintf(" %d/%d", p.status.Countdown, p.status.Duration))
}

func (p *HypePanel) renderHeadline(h media.Headline) string {
	var badge, rise string
	textStyle := styles.HeadlineStyle
	if h.Kind == media.HeadlineIgnited {
		badge = styles.HypeStyle.Render("▲ IGN")
		rise = styles.PriceUpStyle.Render(fmt.Sprintf("%+6.1f%%", h.Rise*100))
	} else {
		badge = styles.FadedStyle.Render("▼ FAD")
		rise = strings.Repeat(" ", 7)
		textStyle = styles.FadedStyle
	}

	text := h.Text
	if limit := p.width - 28; limit > 3 && len(text) > limit {
		text = text[:limit-3] + "..."
	}

	return fmt.Sprintf("%s %s %s %s", badge, rise,
		styles.TimeStyle.Render(fmt.Sprintf("c%-5d", h.Cycle)), textStyle.Render(text))
}

// gauge draws frac of width as filled cells.
func gauge(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(width) + 0.5)
	return styles.HypeStyle.Render(strings.Repeat("█", filled)) +
		styles.FadedStyle.Render(strings.Repeat("░", width-filled))
}

// SetFocus sets the focus state of the panel.
func (p *HypePanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *HypePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetStatus sets the detector state shown above the headlines.
func (p *HypePanel) SetStatus(st media.HypeStatus) {
	p.status = st
}

// SetHeadlines replaces the headlines, oldest first.
func (p *HypePanel) SetHeadlines(items []media.Headline) {
	p.headlines = items
	if p.scrollOffset >= len(items) {
		p.scrollOffset = 0
	}
}

// AddHeadline appends one headline, keeping at most maxItems.
func (p *HypePanel) AddHeadline(item media.Headline) {
	p.headlines = append(p.headlines, item)
	if len(p.headlines) > p.maxItems {
		p.headlines = p.headlines[len(p.headlines)-p.maxItems:]
	}
}

// HeadlineMsg is sent when the detector publishes a headline.
type HeadlineMsg struct {
	Item media.Headline
}
