// Package ui is the bubbletea front end for menu-advisor.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Light mode
	LightForeground = lipgloss.Color("#2b2118")
	LightPrimary    = lipgloss.Color("#b5442a") // chile red
	LightAccent     = lipgloss.Color("#2e7d32")
	LightMuted      = lipgloss.Color("#8a817c")
	LightBorder     = lipgloss.Color("#d7ccc8")

	// Dark mode
	DarkForeground = lipgloss.Color("#f5efe6")
	DarkPrimary    = lipgloss.Color("#ff8a65")
	DarkAccent     = lipgloss.Color("#81c784")
	DarkMuted      = lipgloss.Color("#a1887f")
	DarkBorder     = lipgloss.Color("#4e342e")

	Destructive = lipgloss.Color("#e53935")
	Highlight   = lipgloss.Color("#ffc107")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
	}
}

func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// DetectTheme reads COLORFGBG ("fg;bg"); dark backgrounds are ANSI 0-6 and 8.
// MENU_ADVISOR_DARK_MODE=1 forces the dark theme.
func DetectTheme() Theme {
	if os.Getenv("MENU_ADVISOR_DARK_MODE") == "1" {
		return DarkTheme()
	}
	parts := strings.Split(os.Getenv("COLORFGBG"), ";")
	if len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	return LightTheme()
}

// Styles holds all the styled components.
type Styles struct {
	Theme Theme

	Header  lipgloss.Style
	Footer  lipgloss.Style
	Panel   lipgloss.Style
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Body    lipgloss.Style
	Checked lipgloss.Style

	Highlighted lipgloss.Style
	Price       lipgloss.Style

	Voice   lipgloss.Style
	Error   lipgloss.Style
	Spinner lipgloss.Style
	Prompt  lipgloss.Style
}

func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Primary).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Muted: lipgloss.NewStyle().Foreground(theme.Muted),
		Body:  lipgloss.NewStyle().Foreground(theme.Foreground),

		Checked: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Highlighted: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(Highlight).
			Bold(true),

		Price: lipgloss.NewStyle().Foreground(theme.Accent),

		Voice: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(theme.Accent).
			PaddingLeft(1),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Destructive).
			PaddingLeft(1),

		Spinner: lipgloss.NewStyle().Foreground(theme.Primary),
		Prompt:  lipgloss.NewStyle().Foreground(theme.Primary).Bold(true),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}
