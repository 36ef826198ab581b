package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	msgListLoading = "loading.."
	msgCardLoading = "loading"
	msgWrong       = "something went wrong"
	msgEmpty       = "no pokemon found"

	cardWidth    = 30
	defaultWidth = 96
)

var (
	colorMuted  = lipgloss.Color("241")
	colorAccent = lipgloss.Color("#ffcb05")
	colorError  = lipgloss.Color("#ff5f5f")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	statusStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	footerStyle   = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
	cardNameStyle = lipgloss.NewStyle().Bold(true)
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			Width(cardWidth)
	selectedCardStyle = cardStyle.BorderForeground(colorAccent)

	rarityColors = map[string]lipgloss.Color{
		"mythical":  lipgloss.Color("#c77dff"),
		"legendary": colorAccent,
		"baby":      lipgloss.Color("#ff9ecd"),
	}
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pokédex"))
	b.WriteString("\n\n")
	b.WriteString(m.listView())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.keys.helpLine()))
	return b.String()
}

// listView renders in isLoading, error, data priority.
func (m *Model) listView() string {
	s := m.listState
	switch {
	case s.IsLoading:
		return statusStyle.Render(msgListLoading)
	case s.Err != nil:
		return errorStyle.Render(msgWrong)
	case s.Data == nil || len(s.Data.Results) == 0:
		return statusStyle.Render(msgEmpty)
	}

	rendered := make([]string, len(m.cards))
	for i, c := range m.cards {
		rendered[i] = m.cardView(c, i == m.cursor)
	}
	return grid(rendered, m.columns())
}

func (m *Model) columns() int {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	cols := width / (cardWidth + 2)
	if cols < 1 {
		cols = 1
	}
	return cols
}

func (m *Model) cardView(c *card, selected bool) string {
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	return style.Render(c.body(m.opts.Language))
}

func (c *card) body(lang string) string {
	s := c.state
	switch {
	case c.err != nil:
		return errorStyle.Render(msgWrong)
	case s.IsLoading:
		return statusStyle.Render(msgCardLoading)
	case s.Err != nil:
		return errorStyle.Render(msgWrong)
	case s.Data == nil:
		return cardNameStyle.Render(c.name)
	}

	sp := s.Data
	lines := []string{
		cardNameStyle.Render(fmt.Sprintf("#%03d %s", sp.ID, sp.DisplayName(lang))),
	}
	if genus := sp.GenusText(lang); genus != "" {
		lines = append(lines, statusStyle.Render(genus))
	}

	meta := fmt.Sprintf("%s · %s", sp.Color.Name, sp.HabitatName())
	if rarity := sp.Rarity(); rarity != "" {
		meta += " · " + lipgloss.NewStyle().Foreground(rarityColors[rarity]).Render(rarity)
	}
	lines = append(lines, meta)

	if text := sp.FlavorTextFor(lang); text != "" {
		lines = append(lines, "", text)
	}
	return strings.Join(lines, "\n")
}

func grid(cells []string, cols int) string {
	var rows []string
	for i := 0; i < len(cells); i += cols {
		end := min(i+cols, len(cells))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
