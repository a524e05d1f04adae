package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Error:   lipgloss.Color("#ff5f5f"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Error  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Foreground(t.Dim),
		Value:  lipgloss.NewStyle().Bold(true),
		Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// Row is one label/value line of a Card.
type Row struct {
	Label string
	Value string
}

// Card is a bordered block with a title, aligned rows and an optional
// footer, used for single results.
type Card struct {
	Styles Styles
	Title  string
	Status string
	Rows   []Row
	Footer string
	Failed bool
}

// Render renders the card.
func (c Card) Render() string {
	width := 0
	for _, r := range c.Rows {
		width = max(width, lipgloss.Width(r.Label))
	}

	var lines []string
	title := c.Styles.Title.Render(c.Title)
	if c.Failed {
		title = c.Styles.Error.Render(c.Title)
	}
	if c.Status != "" {
		title += " " + c.Styles.Help.Render("["+c.Status+"]")
	}
	lines = append(lines, title, "")
	for _, r := range c.Rows {
		pad := strings.Repeat(" ", width-lipgloss.Width(r.Label))
		lines = append(lines, c.Styles.Label.Render(r.Label+pad)+"  "+c.Styles.Value.Render(r.Value))
	}
	if c.Footer != "" {
		lines = append(lines, "", c.Styles.Help.Render(c.Footer))
	}
	return c.Styles.Border.Render(strings.Join(lines, "\n"))
}

// Truncate shortens s to width display cells, marking the cut with "…".
func Truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	cur := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if cur+w > width-1 {
			return string(runes[:i]) + "…"
		}
		cur += w
	}
	return s
}
