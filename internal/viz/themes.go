package viz

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name   string
	Wood   lipgloss.Color
	Brass  lipgloss.Color
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Low    lipgloss.Color
	Mid    lipgloss.Color
	High   lipgloss.Color
}

var (
	ThemeWalnut = Theme{
		Name:   "walnut",
		Wood:   lipgloss.Color("#a0522d"),
		Brass:  lipgloss.Color("#d4a017"),
		Accent: lipgloss.Color("#e0607e"),
		Text:   lipgloss.Color("#f5e6c8"),
		Muted:  lipgloss.Color("#8b7d6b"),
		Low:    lipgloss.Color("#6b8e9f"),
		Mid:    lipgloss.Color("#d4a017"),
		High:   lipgloss.Color("#e0607e"),
	}

	ThemeNight = Theme{
		Name:   "night",
		Wood:   lipgloss.Color("#5c6bc0"),
		Brass:  lipgloss.Color("#c5cae9"),
		Accent: lipgloss.Color("#ff80ab"),
		Text:   lipgloss.Color("#eceff1"),
		Muted:  lipgloss.Color("#607d8b"),
		Low:    lipgloss.Color("#4fc3f7"),
		Mid:    lipgloss.Color("#b39ddb"),
		High:   lipgloss.Color("#ff80ab"),
	}

	ThemePaper = Theme{
		Name:   "paper",
		Wood:   lipgloss.Color("#3e2723"),
		Brass:  lipgloss.Color("#795548"),
		Accent: lipgloss.Color("#c62828"),
		Text:   lipgloss.Color("#212121"),
		Muted:  lipgloss.Color("#9e9e9e"),
		Low:    lipgloss.Color("#9e9e9e"),
		Mid:    lipgloss.Color("#795548"),
		High:   lipgloss.Color("#c62828"),
	}
)

var Themes = []Theme{ThemeWalnut, ThemeNight, ThemePaper}

// ThemeByName falls back to the first theme.
func ThemeByName(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func nextTheme(current Theme) Theme {
	for i, t := range Themes {
		if t.Name == current.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
