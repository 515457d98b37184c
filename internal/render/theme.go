package render

import (
	"fmt"
	"log/slog"
	"strings"

	darkmode "github.com/thiagokokada/dark-mode-go"
)

type Theme int

const (
	ThemeAuto Theme = iota
	ThemeLight
	ThemeDark
)

func (t Theme) String() string {
	switch t {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "auto"
	}
}

func ParseTheme(raw string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", ThemeAuto.String():
		return ThemeAuto, nil
	case ThemeLight.String():
		return ThemeLight, nil
	case ThemeDark.String():
		return ThemeDark, nil
	default:
		return ThemeAuto, fmt.Errorf("unknown theme %q (want auto, light or dark)", raw)
	}
}

var detectDarkMode = darkmode.IsDarkMode

// isDark resolves ThemeAuto against the desktop setting, falling back to
// light when it cannot be read (e.g. over SSH).
func (t Theme) isDark() bool {
	switch t {
	case ThemeDark:
		return true
	case ThemeLight:
		return false
	}
	if detectDarkMode == nil {
		return false
	}
	dark, err := detectDarkMode()
	if err != nil {
		slog.Debug("detect dark mode", slog.Any("error", err))
		return false
	}
	return dark
}

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

func ParseColorMode(raw string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color mode %q (want auto, always or never)", raw)
	}
}
