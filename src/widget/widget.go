package widget

import (
	"encoding/json"
	"strings"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
)

var (
	// ErrWidget is returned for invalid widget contents or arguments
	ErrWidget = errors.New("widget error")
	// ErrLayout is returned for invalid child placement
	ErrLayout = errors.New("layout error")
	// ErrSerialization is returned when a widget cannot be encoded or
	// decoded
	ErrSerialization = errors.New("serialization error")
)

// Widget is anything that can be drawn by a terminal or a layout and can
// listen to events.
//
// Types that embed Base get most of this for free, but they should call
// Bind with themselves, so that Base can pass the outer value to the
// terminal and to layouts.
type Widget interface {
	event.Listener
	tui.Drawable
	Size() (int, int)
	ZLevel() int
	SetZLevel(z int)
	Terminal() *tui.Terminal
	Parent() Widget
	SetParent(p Widget)
}

// Base is a static widget showing whatever chars and colors it was given
type Base struct {
	chars    [][]rune
	colors   [][]string
	z        int
	terminal *tui.Terminal
	parent   Widget
	self     Widget
}

// New returns a widget with the given chars and colors, which should have
// the same shape
func New(chars [][]rune, colors [][]string) (*Base, error) {
	w := &Base{}
	if err := w.init(chars, colors); err != nil {
		return nil, err
	}
	return w, nil
}

// FromImage returns a widget showing img
func FromImage(img tui.Image) (*Base, error) {
	return New(img.Chars, img.Colors)
}

func (w *Base) init(chars [][]rune, colors [][]string) error {
	img, err := tui.NewImage(chars, colors)
	if err != nil {
		return errors.Wrap(ErrWidget, err.Error())
	}
	w.chars, w.colors = img.Chars, img.Colors
	return nil
}

// Bind tells the widget which value embeds it
func (w *Base) Bind(outer Widget) {
	w.self = outer
}

// Self returns the value Base is embedded into, or Base itself
func (w *Base) Self() Widget {
	if w.self == nil {
		return w
	}
	return w.self
}

// Image returns the current chars and colors. The grids are shared with the
// widget and should not be modified.
func (w *Base) Image() tui.Image {
	return tui.Image{Chars: w.chars, Colors: w.colors}
}

// SetImage replaces chars and colors. The size may change, but a widget
// that is already placed somewhere may fail to be redrawn.
func (w *Base) SetImage(img tui.Image) error {
	if _, err := tui.NewImage(img.Chars, img.Colors); err != nil {
		return errors.Wrap(ErrWidget, err.Error())
	}
	w.chars, w.colors = img.Chars, img.Colors
	return nil
}

func (w *Base) setColors(colors [][]string) {
	w.colors = colors
}

// Size returns width and height
func (w *Base) Size() (int, int) {
	return w.Width(), w.Height()
}

// Width returns the number of columns
func (w *Base) Width() int {
	if len(w.chars) == 0 {
		return 0
	}
	return len(w.chars[0])
}

// Height returns the number of rows
func (w *Base) Height() int {
	return len(w.chars)
}

// ZLevel is used by layouts to pick which of the overlapping children is
// shown. Higher wins.
func (w *Base) ZLevel() int {
	return w.z
}

// SetZLevel changes the z-level
func (w *Base) SetZLevel(z int) {
	w.z = z
}

// Terminal returns the terminal the widget is shown on, if any
func (w *Base) Terminal() *tui.Terminal {
	return w.terminal
}

// SetTerminal is called by the terminal and by layouts
func (w *Base) SetTerminal(t *tui.Terminal) {
	w.terminal = t
}

// Parent returns the layout the widget is a child of
func (w *Base) Parent() Widget {
	return w.parent
}

// SetParent is called by layouts
func (w *Base) SetParent(p Widget) {
	w.parent = p
}

// OnEvent does nothing. Subscribing a plain widget is useless, but harmless.
func (w *Base) OnEvent(event.Event) []event.Event {
	return nil
}

// Flip mirrors the current chars and colors. See tui.Image.Flip. Anything
// that redraws the widget later undoes the flip.
func (w *Base) Flip(axis string) error {
	img, err := w.Image().Flip(axis)
	if err != nil {
		return errors.Wrap(ErrWidget, err.Error())
	}
	w.chars, w.colors = img.Chars, img.Colors
	return nil
}

// onTerminal returns true if the widget was added to its terminal directly
// rather than through a layout
func (w *Base) onTerminal() bool {
	if w.terminal == nil {
		return false
	}
	_, found := w.terminal.WidgetLocation(w.Self())
	return found
}

// Redraw updates the widget on the terminal if it was added there directly.
// Widgets inside layouts are redrawn by their layouts.
func (w *Base) Redraw() {
	if !w.onTerminal() {
		return
	}
	if err := w.terminal.UpdateWidget(w.Self()); err != nil {
		astilog.Errorf("Failed to update widget: %v", err)
	}
}

type imageJSON struct {
	Class  string   `json:"class"`
	Chars  []string `json:"chars"`
	Colors []string `json:"colors"`
}

func encodeImage(img tui.Image) ([]string, []string) {
	chars := make([]string, len(img.Chars))
	colors := make([]string, len(img.Colors))
	for y := range img.Chars {
		chars[y] = string(img.Chars[y])
		colors[y] = strings.Join(img.Colors[y], ",")
	}
	return chars, colors
}

func decodeImage(chars []string, colors []string) (tui.Image, error) {
	c := make([][]rune, len(chars))
	for y, row := range chars {
		c[y] = []rune(row)
	}
	co := make([][]string, len(colors))
	for y, row := range colors {
		co[y] = strings.Split(row, ",")
	}
	img, err := tui.NewImage(c, co)
	if err != nil {
		return tui.Image{}, errors.Wrap(ErrSerialization, err.Error())
	}
	return img, nil
}

func (w *Base) imageJSON(class string) imageJSON {
	chars, colors := encodeImage(w.Image())
	return imageJSON{Class: class, Chars: chars, Colors: colors}
}

// MarshalJSON encodes the widget as {"class", "chars", "colors"}, with
// every row of chars as a string and every row of colors comma-separated
func (w *Base) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.imageJSON("Widget"))
}

func noJSON(class string) ([]byte, error) {
	return nil, errors.Wrapf(ErrSerialization, "%s does not support serialization", class)
}

// GenerateBox returns a width x height frame of box-drawing characters.
// Style is "single" or "double". The inside is filled with spaces.
func GenerateBox(width, height int, style string) ([][]rune, error) {
	var ul, ur, ll, lr, h, v rune
	switch style {
	case "single":
		ul, ur, ll, lr, h, v = '┌', '┐', '└', '┘', '─', '│'
	case "double":
		ul, ur, ll, lr, h, v = '╔', '╗', '╚', '╝', '═', '║'
	default:
		return nil, errors.Wrapf(ErrWidget, "unknown box style: %s", style)
	}
	if width < 2 || height < 2 {
		return nil, errors.Wrapf(ErrWidget, "box should be at least 2x2, got %dx%d", width, height)
	}
	box := make([][]rune, height)
	for y := range box {
		box[y] = make([]rune, width)
		for x := range box[y] {
			switch {
			case y == 0 && x == 0:
				box[y][x] = ul
			case y == 0 && x == width-1:
				box[y][x] = ur
			case y == height-1 && x == 0:
				box[y][x] = ll
			case y == height-1 && x == width-1:
				box[y][x] = lr
			case y == 0 || y == height-1:
				box[y][x] = h
			case x == 0 || x == width-1:
				box[y][x] = v
			default:
				box[y][x] = ' '
			}
		}
	}
	return box, nil
}
