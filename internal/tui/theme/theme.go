// Package theme defines the color themes for the sobres dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name         string
	Background   lipgloss.Color // Main app background
	Surface      lipgloss.Color // Card/panel backgrounds
	SurfaceHover lipgloss.Color // Selected row, active tab
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // Focused cards and overlays
	TextDim      lipgloss.Color // Hints, disabled
	TextMuted    lipgloss.Color // Labels, metadata
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color
	Income       lipgloss.Color
	Expense      lipgloss.Color
	Warning      lipgloss.Color
	Caution      lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Income:       lipgloss.Color("#879A39"),
	Expense:      lipgloss.Color("#D14D41"),
	Warning:      lipgloss.Color("#DA702C"),
	Caution:      lipgloss.Color("#D0A215"),
}

// CatppuccinMocha is a soft pastel theme.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	SurfaceHover: lipgloss.Color("#45475A"),
	Border:       lipgloss.Color("#585B70"),
	BorderAccent: lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	AccentBright: lipgloss.Color("#B4D0FB"),
	Income:       lipgloss.Color("#A6E3A1"),
	Expense:      lipgloss.Color("#F38BA8"),
	Warning:      lipgloss.Color("#FAB387"),
	Caution:      lipgloss.Color("#F9E2AF"),
}

// TokyoNight is a cool blue/purple theme.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	SurfaceHover: lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	Income:       lipgloss.Color("#9ECE6A"),
	Expense:      lipgloss.Color("#F7768E"),
	Warning:      lipgloss.Color("#FF9E64"),
	Caution:      lipgloss.Color("#E0AF68"),
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Income:       lipgloss.Color("2"),
	Expense:      lipgloss.Color("1"),
	Warning:      lipgloss.Color("3"),
	Caution:      lipgloss.Color("11"),
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// Names returns the names of all themes in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns the theme with the given name.
func ByName(name string) (Theme, bool) {
	for _, t := range All {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// SetActive selects a theme by name. Unknown names fall back to FlexokiDark
// and report false.
func SetActive(name string) bool {
	t, ok := ByName(name)
	if !ok {
		Active = FlexokiDark
		return false
	}
	Active = t
	return true
}
