package badge

import "github.com/charmbracelet/lipgloss"

var tierColors = map[Tier]lipgloss.Color{
	TierNone:   lipgloss.Color("7"),
	TierHigh:   lipgloss.Color("10"),
	TierMedium: lipgloss.Color("11"),
	TierLow:    lipgloss.Color("208"),
}

func sizeStyle(s Size) lipgloss.Style {
	switch s {
	case SizeSmall:
		return lipgloss.NewStyle()
	case SizeLarge:
		return lipgloss.NewStyle().Padding(0, 2).Bold(true)
	default:
		return lipgloss.NewStyle().Padding(0, 1)
	}
}

// Render draws the badge for a terminal in its tier color.
func (b Badge) Render() string {
	style := sizeStyle(b.size).
		Foreground(tierColors[b.Tier()]).
		Border(lipgloss.RoundedBorder(), false, true).
		BorderForeground(tierColors[b.Tier()])
	return style.Render(b.Text())
}
