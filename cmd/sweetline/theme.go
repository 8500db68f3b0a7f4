package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

// themeFile is the on-disk TOML shape:
//
//	foreground = "#D4D4D4"
//	background = "#1E1E1E"
//
//	[styles]
//	kw  = "#C586C0"
//	num = "#B5CEA8"
type themeFile struct {
	Foreground string            `toml:"foreground"`
	Background string            `toml:"background"`
	Styles     map[string]string `toml:"styles"`
}

// Theme maps the engine's style ids to terminal colors.
type Theme struct {
	foreground colorful.Color
	background colorful.Color
	styleIDs   map[string]int
	colors     map[int]colorful.Color
}

// defaultThemeFile is used when no -theme flag is given. The names follow
// the conventional grammar vocabulary.
var defaultThemeFile = themeFile{
	Foreground: "#D4D4D4",
	Background: "#1E1E1E",
	Styles: map[string]string{
		"keyword":     "#C586C0",
		"kw":          "#C586C0",
		"string":      "#CE9178",
		"str":         "#CE9178",
		"number":      "#B5CEA8",
		"num":         "#B5CEA8",
		"comment":     "#6A9955",
		"cmt":         "#6A9955",
		"class":       "#4EC9B0",
		"method":      "#DCDCAA",
		"variable":    "#9CDCFE",
		"punctuation": "#D4D4D4",
		"annotation":  "#DCDCAA",
	},
}

// loadTheme reads a TOML theme, falling back to the built-in one. Style ids
// are allocated in sorted name order so runs are reproducible.
func loadTheme(path string) (*Theme, error) {
	file := defaultThemeFile
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		file = themeFile{}
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, err
		}
	}

	theme := &Theme{
		styleIDs: make(map[string]int, len(file.Styles)),
		colors:   make(map[int]colorful.Color, len(file.Styles)),
	}
	var err error
	if theme.foreground, err = parseHexColor(file.Foreground, "#D4D4D4"); err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}
	if theme.background, err = parseHexColor(file.Background, "#1E1E1E"); err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	names := make([]string, 0, len(file.Styles))
	for name := range file.Styles {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		id := i + 1
		color, err := colorful.Hex(file.Styles[name])
		if err != nil {
			return nil, fmt.Errorf("style %s: %w", name, err)
		}
		theme.styleIDs[name] = id
		theme.colors[id] = color
	}
	return theme, nil
}

func parseHexColor(hex, fallback string) (colorful.Color, error) {
	if hex == "" {
		hex = fallback
	}
	return colorful.Hex(hex)
}

// ColorForStyle returns the color bound to a style id; unthemed styles
// render in the default foreground.
func (t *Theme) ColorForStyle(id int) colorful.Color {
	if color, ok := t.colors[id]; ok {
		return color
	}
	return t.foreground
}
