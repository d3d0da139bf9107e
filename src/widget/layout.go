package widget

import (
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
)

type position struct {
	x int
	y int
}

// Layout is a widget that draws other widgets, its children, onto itself.
//
// The first child is the background: a plain widget made from the chars and
// colors the layout was created with. When children overlap, the one with
// the higher z-level is shown, and of those equally high the newest wins.
// A space never covers a non-space of a child below it.
//
// Children are not subscribed to anything by the layout. The layout itself
// should be subscribed to service events, so that it redraws after every
// tick.
type Layout struct {
	Base
	children  []Widget
	locations map[Widget]position
	// Every cell remembers all children covering it, oldest first
	pointers [][][]Widget
	width    int
	height   int
}

// NewLayout returns a layout with the given background
func NewLayout(chars [][]rune, colors [][]string) (*Layout, error) {
	l := &Layout{}
	l.Bind(l)
	if err := l.initLayout(chars, colors); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layout) initLayout(chars [][]rune, colors [][]string) error {
	if err := l.init(chars, colors); err != nil {
		return err
	}
	l.width, l.height = l.Base.Size()
	l.locations = make(map[Widget]position)
	l.pointers = make([][][]Widget, l.height)
	for y := range l.pointers {
		l.pointers[y] = make([][]Widget, l.width)
	}
	bg, err := New(chars, colors)
	if err != nil {
		return err
	}
	return l.addChild(bg, 0, 0, false)
}

// SetTerminal propagates the terminal to every child
func (l *Layout) SetTerminal(t *tui.Terminal) {
	l.Base.SetTerminal(t)
	for _, child := range l.children {
		child.SetTerminal(t)
	}
}

// AddChild places a widget at x, y in layout coordinates
func (l *Layout) AddChild(child Widget, x, y int) error {
	return l.addChild(child, x, y, false)
}

func (l *Layout) checkFit(child Widget, x, y int) error {
	w, h := child.Size()
	if w > l.width || h > l.height {
		return errors.Wrap(ErrLayout, "cannot add child that is bigger than a layout")
	}
	if x < 0 || y < 0 || x+w > l.width || y+h > l.height {
		return errors.Wrapf(ErrLayout, "child won't fit at %d,%d", x, y)
	}
	return nil
}

func (l *Layout) addChild(child Widget, x, y int, moving bool) error {
	if child == nil {
		return errors.Wrap(ErrLayout, "cannot add nil to a layout")
	}
	if child == l.Self() {
		return errors.Wrap(ErrLayout, "cannot add layout as its own child")
	}
	if _, found := l.locations[child]; found && !moving {
		return errors.Wrap(ErrLayout, "cannot add the same widget to a layout twice")
	}
	if err := l.checkFit(child, x, y); err != nil {
		return err
	}
	if !moving {
		l.children = append(l.children, child)
	}
	l.locations[child] = position{x, y}
	child.SetTerminal(l.terminal)
	child.SetParent(l.Self())
	w, h := child.Size()
	for cy := y; cy < y+h; cy++ {
		for cx := x; cx < x+w; cx++ {
			l.pointers[cy][cx] = append(l.pointers[cy][cx], child)
		}
	}
	return nil
}

// RemoveChild removes a child. The background cannot be removed, only
// replaced.
func (l *Layout) RemoveChild(child Widget) error {
	if _, found := l.locations[child]; !found {
		return errors.Wrap(ErrLayout, "layout can only remove its child")
	}
	if child == l.children[0] {
		return errors.Wrap(ErrLayout, "cannot remove layout background")
	}
	l.clearPointers(child)
	delete(l.locations, child)
	for i, c := range l.children {
		if c == child {
			l.children = append(l.children[:i], l.children[i+1:]...)
			break
		}
	}
	child.SetTerminal(nil)
	child.SetParent(nil)
	return nil
}

func (l *Layout) clearPointers(child Widget) {
	pos := l.locations[child]
	w, h := child.Size()
	for y := pos.y; y < pos.y+h && y < l.height; y++ {
		for x := pos.x; x < pos.x+w && x < l.width; x++ {
			cell := l.pointers[y][x]
			for i, c := range cell {
				if c == child {
					l.pointers[y][x] = append(cell[:i], cell[i+1:]...)
					break
				}
			}
		}
	}
}

// MoveChild moves a child to a new position. Unlike removing and adding it
// again, this keeps the order of children.
func (l *Layout) MoveChild(child Widget, x, y int) error {
	if _, found := l.locations[child]; !found {
		return errors.Wrap(ErrLayout, "layout can only move its child")
	}
	if err := l.checkFit(child, x, y); err != nil {
		return err
	}
	l.clearPointers(child)
	return l.addChild(child, x, y, true)
}

// Children returns every child, the background first
func (l *Layout) Children() []Widget {
	return append([]Widget(nil), l.children...)
}

// ChildLocation returns the position of a child in layout coordinates
func (l *Layout) ChildLocation(child Widget) (int, int, bool) {
	pos, found := l.locations[child]
	return pos.x, pos.y, found
}

// SurfaceSize returns the size of the area children are placed on
func (l *Layout) SurfaceSize() (int, int) {
	return l.width, l.height
}

// Background returns the first child
func (l *Layout) Background() Widget {
	return l.children[0]
}

// SetBackground replaces the first child. The new background should be the
// size of the layout.
func (l *Layout) SetBackground(bg Widget) error {
	if bg == nil {
		return errors.Wrap(ErrLayout, "only a widget can be added as background")
	}
	if w, h := bg.Size(); w != l.width || h != l.height {
		return errors.Wrapf(ErrLayout, "wrong layout background size %dx%d", w, h)
	}
	old := l.children[0]
	for y := range l.pointers {
		for x := range l.pointers[y] {
			l.pointers[y][x][0] = bg
		}
	}
	delete(l.locations, old)
	old.SetParent(nil)
	l.locations[bg] = position{0, 0}
	l.children[0] = bg
	bg.SetTerminal(l.terminal)
	bg.SetParent(l.Self())
	return nil
}

// Rebuild redraws the children onto the layout
func (l *Layout) Rebuild() {
	images := make(map[Widget]tui.Image, len(l.children))
	for _, child := range l.children {
		images[child] = child.Image()
	}
	chars := make([][]rune, l.height)
	colors := make([][]string, l.height)
	for y := 0; y < l.height; y++ {
		chars[y] = make([]rune, l.width)
		colors[y] = make([]string, l.width)
		for x := 0; x < l.width; x++ {
			highest := 0
			c := ' '
			color := ""
			for _, child := range l.pointers[y][x] {
				if child.ZLevel() < highest {
					continue
				}
				pos := l.locations[child]
				img := images[child]
				if y-pos.y >= img.Height() || x-pos.x >= img.Width() {
					continue
				}
				tmp := img.Chars[y-pos.y][x-pos.x]
				if c != ' ' && tmp == ' ' {
					continue
				}
				highest = child.ZLevel()
				c = tmp
				color = img.Colors[y-pos.y][x-pos.x]
			}
			chars[y][x] = c
			colors[y][x] = color
		}
	}
	l.chars, l.colors = chars, colors
}

// OnEvent redraws the layout once the tick is over. A layout added to the
// terminal directly also updates itself there.
func (l *Layout) OnEvent(e event.Event) []event.Event {
	if e.Is(event.Service, event.TickOver) {
		l.Rebuild()
		l.Redraw()
	}
	return nil
}

// AbsolutePos converts layout coordinates into terminal coordinates. The
// layout should be on a terminal, either directly or through other layouts.
func (l *Layout) AbsolutePos(x, y int) (int, int, error) {
	if l.terminal != nil {
		if loc, found := l.terminal.WidgetLocation(l.Self()); found {
			return loc.X + x, loc.Y + y, nil
		}
	}
	type nested interface {
		ChildLocation(Widget) (int, int, bool)
		AbsolutePos(x, y int) (int, int, error)
	}
	if parent, ok := l.parent.(nested); ok {
		if px, py, found := parent.ChildLocation(l.Self()); found {
			return parent.AbsolutePos(px+x, py+y)
		}
	}
	return 0, 0, errors.Wrap(ErrLayout, "layout is not on a terminal")
}

// ChildAt returns the newest child covering x, y, or nil if there is only
// the background
func (l *Layout) ChildAt(x, y int) Widget {
	if x < 0 || y < 0 || x >= l.width || y >= l.height {
		return nil
	}
	if cell := l.pointers[y][x]; len(cell) > 1 {
		return cell[len(cell)-1]
	}
	return nil
}

// ChildAtOrBackground is like ChildAt, but returns the background instead
// of nil
func (l *Layout) ChildAtOrBackground(x, y int) Widget {
	if child := l.ChildAt(x, y); child != nil {
		return child
	}
	return l.Background()
}

// MarshalJSON always fails
func (l *Layout) MarshalJSON() ([]byte, error) {
	return noJSON("Layout")
}
