package ui

import (
	_ "embed"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var embeddedStyles []byte

// ColorDef is an adaptive color definition
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef is a style definition referring to colors by name
type StyleDef struct {
	Bold         bool   `yaml:"bold,omitempty"`
	Italic       bool   `yaml:"italic,omitempty"`
	Underline    bool   `yaml:"underline,omitempty"`
	Foreground   string `yaml:"foreground,omitempty"`
	Background   string `yaml:"background,omitempty"`
	PaddingLeft  int    `yaml:"paddingLeft,omitempty"`
	PaddingRight int    `yaml:"paddingRight,omitempty"`
}

// StylesConfig is the YAML document a Theme is built from
type StylesConfig struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

// Theme maps semantic style names to lipgloss styles bound to one renderer
type Theme struct {
	renderer *lipgloss.Renderer
	styles   map[string]lipgloss.Style
}

// LoadTheme builds a theme for r from YAML style data
func LoadTheme(r *lipgloss.Renderer, data []byte) (*Theme, error) {
	var cfg StylesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse styles")
	}

	colors := make(map[string]lipgloss.AdaptiveColor, len(cfg.Colors))
	for name, def := range cfg.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	theme := &Theme{renderer: r, styles: make(map[string]lipgloss.Style, len(cfg.Styles))}
	for name, def := range cfg.Styles {
		theme.styles[name] = buildStyle(r, def, colors)
	}
	return theme, nil
}

// DefaultTheme builds the embedded theme. Unparseable style data yields
// unstyled output rather than an error.
func DefaultTheme(r *lipgloss.Renderer) *Theme {
	theme, err := LoadTheme(r, embeddedStyles)
	if err != nil {
		return &Theme{renderer: r, styles: map[string]lipgloss.Style{}}
	}
	return theme
}

// Style returns the named style, or a blank one
func (t *Theme) Style(name string) lipgloss.Style {
	if style, ok := t.styles[name]; ok {
		return style
	}
	return t.renderer.NewStyle()
}

// Render applies the named style to s
func (t *Theme) Render(name, s string) string {
	return t.Style(name).Render(s)
}

func buildStyle(r *lipgloss.Renderer, def StyleDef, colors map[string]lipgloss.AdaptiveColor) lipgloss.Style {
	style := r.NewStyle()

	if def.Bold {
		style = style.Bold(true)
	}
	if def.Italic {
		style = style.Italic(true)
	}
	if def.Underline {
		style = style.Underline(true)
	}

	if color, ok := colors[def.Foreground]; ok {
		style = style.Foreground(color)
	}
	if color, ok := colors[def.Background]; ok {
		style = style.Background(color)
	}

	if def.PaddingLeft > 0 || def.PaddingRight > 0 {
		style = style.Padding(0, def.PaddingRight, 0, def.PaddingLeft)
	}
	return style
}
