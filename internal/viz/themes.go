package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme of the live view.
type Theme struct {
	Name   string
	Water  lipgloss.Color
	Body   lipgloss.Color
	Wall   lipgloss.Color
	Piston lipgloss.Color
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Error  lipgloss.Color
}

var (
	ThemeOcean = Theme{
		Name:   "ocean",
		Water:  lipgloss.Color("#00a8cc"),
		Body:   lipgloss.Color("#ffd700"),
		Wall:   lipgloss.Color("#4488aa"),
		Piston: lipgloss.Color("#ff6b6b"),
		Accent: lipgloss.Color("#00ff88"),
		Text:   lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#4488aa"),
		Error:  lipgloss.Color("#ff4444"),
	}

	ThemeCyberpunk = Theme{
		Name:   "cyberpunk",
		Water:  lipgloss.Color("#00ffff"),
		Body:   lipgloss.Color("#ff00ff"),
		Wall:   lipgloss.Color("#666666"),
		Piston: lipgloss.Color("#ffff00"),
		Accent: lipgloss.Color("#ffff00"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#666666"),
		Error:  lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Water:  lipgloss.Color("#ffffff"),
		Body:   lipgloss.Color("#0088ff"),
		Wall:   lipgloss.Color("#888888"),
		Piston: lipgloss.Color("#ffaa00"),
		Accent: lipgloss.Color("#0088ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
		Error:  lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeOcean, ThemeCyberpunk, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// next returns the theme after name in Themes, wrapping around.
func next(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
