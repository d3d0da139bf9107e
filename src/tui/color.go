package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/gdamore/tcell"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

var (
	colorMutex sync.Mutex
	colorCache = make(map[string]tcell.Color)
)

// ParseColor converts a color name into a tcell color. Accepted forms are
// W3C names ("white", "gray"), "#rrggbb", "#rgb", and the "0xAARRGGBB" or
// "0xRRGGBB" notation used by REXPaint exports. The alpha byte is ignored.
// An empty string is the terminal's default color.
func ParseColor(name string) (tcell.Color, error) {
	if name == "" {
		return tcell.ColorDefault, nil
	}
	colorMutex.Lock()
	defer colorMutex.Unlock()
	if c, ok := colorCache[name]; ok {
		return c, nil
	}
	c, err := parseColor(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return tcell.ColorDefault, err
	}
	colorCache[name] = c
	return c, nil
}

func parseColor(name string) (tcell.Color, error) {
	switch {
	case strings.HasPrefix(name, "0x"):
		v, err := strconv.ParseUint(name[2:], 16, 32)
		if err != nil || (len(name) != 8 && len(name) != 10) {
			return tcell.ColorDefault, errors.Errorf("invalid color: %s", name)
		}
		return tcell.NewHexColor(int32(v & 0xffffff)), nil
	case strings.HasPrefix(name, "#") && len(name) == 4:
		c, err := colorful.Hex(name)
		if err != nil {
			return tcell.ColorDefault, errors.Wrapf(err, "invalid color: %s", name)
		}
		r, g, b := c.RGB255()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b)), nil
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return c, errors.Errorf("unknown color: %s", name)
	}
	return c, nil
}

// HexColor formats 8-bit RGB components as "#rrggbb"
func HexColor(r, g, b uint8) string {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
}
