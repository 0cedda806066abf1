package viz

import "github.com/charmbracelet/lipgloss"

// Theme is a color scheme for the live view, plots and SVG output. U, Ux
// and Ut color the three curves of the string.
type Theme struct {
	Name  string
	Title lipgloss.Color
	Text  lipgloss.Color
	Muted lipgloss.Color
	Good  lipgloss.Color
	Warn  lipgloss.Color
	Bad   lipgloss.Color

	U  lipgloss.Color
	Ux lipgloss.Color
	Ut lipgloss.Color
}

var (
	ThemeNight = Theme{
		Name:  "night",
		Title: lipgloss.Color("#7dcfff"),
		Text:  lipgloss.Color("#c0caf5"),
		Muted: lipgloss.Color("#565f89"),
		Good:  lipgloss.Color("#9ece6a"),
		Warn:  lipgloss.Color("#e0af68"),
		Bad:   lipgloss.Color("#f7768e"),
		U:     lipgloss.Color("#e0af68"),
		Ux:    lipgloss.Color("#bb9af7"),
		Ut:    lipgloss.Color("#7dcfff"),
	}

	// ThemePhosphor mimics a green CRT: curves differ by brightness only.
	ThemePhosphor = Theme{
		Name:  "phosphor",
		Title: lipgloss.Color("#33ff33"),
		Text:  lipgloss.Color("#33ff33"),
		Muted: lipgloss.Color("#1a661a"),
		Good:  lipgloss.Color("#99ff99"),
		Warn:  lipgloss.Color("#ccff33"),
		Bad:   lipgloss.Color("#ff3333"),
		U:     lipgloss.Color("#ccffcc"),
		Ux:    lipgloss.Color("#33ff33"),
		Ut:    lipgloss.Color("#99ff99"),
	}

	ThemePaper = Theme{
		Name:  "paper",
		Title: lipgloss.Color("#1f4e79"),
		Text:  lipgloss.Color("#222222"),
		Muted: lipgloss.Color("#8a8a8a"),
		Good:  lipgloss.Color("#2e7d32"),
		Warn:  lipgloss.Color("#b26a00"),
		Bad:   lipgloss.Color("#c62828"),
		U:     lipgloss.Color("#222222"),
		Ux:    lipgloss.Color("#1565c0"),
		Ut:    lipgloss.Color("#c62828"),
	}

	ThemeEmber = Theme{
		Name:  "ember",
		Title: lipgloss.Color("#ff9e64"),
		Text:  lipgloss.Color("#f5e0dc"),
		Muted: lipgloss.Color("#7a5c58"),
		Good:  lipgloss.Color("#a6e3a1"),
		Warn:  lipgloss.Color("#f9e2af"),
		Bad:   lipgloss.Color("#ff5555"),
		U:     lipgloss.Color("#f5e0dc"),
		Ux:    lipgloss.Color("#ff9e64"),
		Ut:    lipgloss.Color("#f9e2af"),
	}

	CurrentTheme = ThemeNight

	Themes = []Theme{ThemeNight, ThemePhosphor, ThemePaper, ThemeEmber}
)

// LookupTheme finds a theme by name.
func LookupTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// SetTheme switches CurrentTheme. Unknown names leave it unchanged.
func SetTheme(name string) bool {
	t, ok := LookupTheme(name)
	if ok {
		CurrentTheme = t
	}
	return ok
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme returns the theme after the named one, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
