package widget

import (
	"math"
	"time"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
	"github.com/synedraacus/bearhug/src/util"
)

// Action is what a menu item does when activated
type Action func() []event.Event

// MenuItem is a button: a label in a single-line box. It does not handle
// input by itself, the menu containing it calls Activate.
type MenuItem struct {
	Layout
	box            *Base
	color          string
	highlightColor string
	action         Action
}

// NewMenuItem returns a button. Empty colors default to white and green.
func NewMenuItem(text string, action Action, color, highlightColor string) (*MenuItem, error) {
	if action == nil {
		return nil, errors.Wrap(ErrWidget, "action for a button should not be nil")
	}
	if color == "" {
		color = "white"
	}
	if highlightColor == "" {
		highlightColor = "green"
	}
	label, err := NewLabel(text, LabelOptions{Color: color})
	if err != nil {
		return nil, err
	}
	chars, err := GenerateBox(label.Width()+2, label.Height()+2, "single")
	if err != nil {
		return nil, err
	}
	m := &MenuItem{color: color, highlightColor: highlightColor, action: action}
	m.Bind(m)
	if err := m.initLayout(chars, util.CopyShape(chars, color)); err != nil {
		return nil, err
	}
	m.box = m.Background().(*Base)
	if err := m.AddChild(label, 1, 1); err != nil {
		return nil, err
	}
	m.Rebuild()
	return m, nil
}

// Highlight recolors the box to show the item is selected
func (m *MenuItem) Highlight() {
	m.box.setColors(util.CopyShape(m.box.colors, m.highlightColor))
	m.Rebuild()
}

// Unhighlight restores the box color
func (m *MenuItem) Unhighlight() {
	m.box.setColors(util.CopyShape(m.box.colors, m.color))
	m.Rebuild()
}

// Activate runs the action
func (m *MenuItem) Activate() []event.Event {
	return m.action()
}

// MenuOptions are the optional parameters of a menu
type MenuOptions struct {
	// Shown centered in the top border
	Header string
	// Frame and header color, white by default
	Color string
	// Position of the first item. Zero means 2.
	ItemsX int
	ItemsY int
	// Replaces the default double box. It should be at least as large as
	// the default one and subscribed by the caller if it needs events.
	Background Widget
}

const menuInputDelay = 200 * time.Millisecond

// MenuWidget is a vertical list of MenuItems. Up/W and Down/S move the
// highlight, Space and Enter activate the highlighted item. The mouse
// highlights items on hover and activates them on left click.
//
// Keys are ignored for a short while after every handled key, so that a
// held key doesn't scroll through the whole menu.
type MenuWidget struct {
	Layout
	items     []*MenuItem
	color     string
	highlight int
	delay     time.Duration
}

// NewMenuWidget returns a menu with the first item highlighted
func NewMenuWidget(items []*MenuItem, opts MenuOptions) (*MenuWidget, error) {
	if len(items) == 0 {
		return nil, errors.Wrap(ErrWidget, "menu needs at least one item")
	}
	if opts.Color == "" {
		opts.Color = "white"
	}
	if opts.ItemsX == 0 {
		opts.ItemsX = 2
	}
	if opts.ItemsY == 0 {
		opts.ItemsY = 2
	}
	width, height := 4, 3
	for _, item := range items {
		if item == nil {
			return nil, errors.Wrap(ErrWidget, "nil MenuItem")
		}
		w, h := item.Size()
		height += h + 1
		if w > width-4 {
			width = w + 4
		}
	}
	m := &MenuWidget{items: items, color: opts.Color, delay: menuInputDelay}
	m.Bind(m)
	if opts.Background == nil {
		chars, _ := GenerateBox(width, height, "double")
		colors := util.CopyShape(chars, opts.Color)
		for y := 1; y < height-1; y++ {
			for x := 1; x < width-1; x++ {
				chars[y][x] = '█'
				colors[y][x] = "black"
			}
		}
		if err := m.initLayout(chars, colors); err != nil {
			return nil, err
		}
	} else {
		bw, bh := opts.Background.Size()
		if bw < width || bh < height {
			return nil, errors.Wrap(ErrLayout, "background for MenuWidget is too small")
		}
		chars := make([][]rune, bh)
		for y := range chars {
			chars[y] = repeat(' ', bw)
		}
		if err := m.initLayout(chars, util.CopyShape(chars, "black")); err != nil {
			return nil, err
		}
		if err := m.SetBackground(opts.Background); err != nil {
			return nil, err
		}
	}
	if opts.Header != "" {
		header, err := NewLabel(opts.Header, LabelOptions{Color: opts.Color})
		if err != nil {
			return nil, err
		}
		if header.Width() > m.width-2 {
			return nil, errors.Wrap(ErrLayout, "MenuWidget header is too long")
		}
		x := int(math.RoundToEven(float64(m.width-header.Width()) / 2))
		if err := m.AddChild(header, x, 0); err != nil {
			return nil, err
		}
	}
	y := opts.ItemsY
	for _, item := range items {
		if err := m.AddChild(item, opts.ItemsX, y); err != nil {
			return nil, err
		}
		y += item.Height() + 1
	}
	items[0].Highlight()
	m.Rebuild()
	return m, nil
}

// Items returns the menu items
func (m *MenuWidget) Items() []*MenuItem {
	return m.items
}

// Highlighted returns the index of the highlighted item
func (m *MenuWidget) Highlighted() int {
	return m.highlight
}

// SetHighlighted highlights another item
func (m *MenuWidget) SetHighlighted(index int) error {
	if index < 0 || index >= len(m.items) {
		return errors.Wrapf(ErrWidget, "invalid menu item index %d", index)
	}
	m.items[m.highlight].Unhighlight()
	m.highlight = index
	m.items[m.highlight].Highlight()
	return nil
}

// itemUnderMouse returns the index of the item under the mouse cursor, or -1
func (m *MenuWidget) itemUnderMouse() int {
	if m.terminal == nil {
		return -1
	}
	mx, _ := m.terminal.CheckState(tui.MouseX)
	my, _ := m.terminal.CheckState(tui.MouseY)
	x, y, err := m.AbsolutePos(0, 0)
	if err != nil {
		astilog.Debugf("Menu ignores the mouse: %v", err)
		return -1
	}
	child := m.ChildAt(mx-x, my-y)
	for i, item := range m.items {
		if child == Widget(item) {
			return i
		}
	}
	return -1
}

// OnEvent handles input and redraws the menu after every tick
func (m *MenuWidget) OnEvent(e event.Event) []event.Event {
	var r []event.Event
	switch e.Type {
	case event.Tick:
		if m.delay <= menuInputDelay {
			elapsed, _ := e.Value.(time.Duration)
			m.delay += elapsed
		}
	case event.KeyDown:
		if m.delay < menuInputDelay {
			break
		}
		m.delay = 0
		code, _ := e.Value.(tui.Code)
		switch code {
		case tui.KeySpace, tui.KeyEnter:
			r = m.items[m.highlight].Activate()
		case tui.KeyUp, tui.KeyW:
			if m.highlight > 0 {
				m.SetHighlighted(m.highlight - 1)
			}
		case tui.KeyDown, tui.KeyS:
			if m.highlight < len(m.items)-1 {
				m.SetHighlighted(m.highlight + 1)
			}
		case tui.MouseLeft:
			if i := m.itemUnderMouse(); i >= 0 {
				m.SetHighlighted(i)
				r = m.items[i].Activate()
			}
		}
	case event.MiscInput:
		if e.Value == tui.MouseMove {
			if i := m.itemUnderMouse(); i >= 0 && i != m.highlight {
				m.SetHighlighted(i)
			}
		}
	}
	return append(r, m.Layout.OnEvent(e)...)
}
