package widget

import (
	"math"

	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
	"github.com/synedraacus/bearhug/src/util"
)

// ScrollBar shows which part of a ScrollableLayout is visible
type ScrollBar struct {
	Base
	vertical bool
	length   int
	bgColor  string
	barColor string
}

// NewScrollBar returns a bar of '#' chars. Orientation is "vertical" or
// "horizontal".
func NewScrollBar(orientation string, length int, bgColor, barColor string) (*ScrollBar, error) {
	if orientation != "vertical" && orientation != "horizontal" {
		return nil, errors.Wrap(ErrWidget, "orientation must be either vertical or horizontal")
	}
	if length <= 0 {
		return nil, errors.Wrapf(ErrWidget, "invalid scrollbar length %d", length)
	}
	s := &ScrollBar{
		vertical: orientation == "vertical",
		length:   length,
		bgColor:  bgColor,
		barColor: barColor}
	s.Bind(s)
	var chars [][]rune
	if s.vertical {
		chars = make([][]rune, length)
		for y := range chars {
			chars[y] = []rune{'#'}
		}
	} else {
		chars = [][]rune{repeat('#', length)}
	}
	if err := s.init(chars, util.CopyShape(chars, bgColor)); err != nil {
		return nil, err
	}
	return s, nil
}

func repeat[T any](v T, n int) []T {
	s := make([]T, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// ShowPos moves the bar. Position is where the bar starts and percentage is
// its length, both as fractions of the scrollbar length.
func (s *ScrollBar) ShowPos(position, percentage float64) {
	start := int(math.RoundToEven(float64(s.length) * position))
	width := int(math.RoundToEven(float64(s.length) * percentage))
	colors := util.CopyShape(s.chars, s.bgColor)
	for i := util.Constrain(start, 0, s.length); i < start+width && i < s.length; i++ {
		if s.vertical {
			colors[i][0] = s.barColor
		} else {
			colors[0][i] = s.barColor
		}
	}
	s.setColors(colors)
}

// MarshalJSON always fails
func (s *ScrollBar) MarshalJSON() ([]byte, error) {
	return noJSON("ScrollBar")
}

// ScrollableLayout is a layout that shows only a part of its surface.
// Chars and colors given on creation cover the entire surface, the visible
// part is set by the view position and size.
type ScrollableLayout struct {
	Layout
	viewX int
	viewY int
	viewW int
	viewH int
}

// NewScrollableLayout returns a layout showing viewW x viewH cells starting
// at viewX, viewY
func NewScrollableLayout(chars [][]rune, colors [][]string, viewX, viewY, viewW, viewH int) (*ScrollableLayout, error) {
	l := &ScrollableLayout{viewX: viewX, viewY: viewY, viewW: viewW, viewH: viewH}
	l.Bind(l)
	if err := l.initLayout(chars, colors); err != nil {
		return nil, err
	}
	if viewW <= 0 || viewW > l.width || viewH <= 0 || viewH > l.height {
		return nil, errors.Wrapf(ErrLayout, "invalid view size %dx%d", viewW, viewH)
	}
	if viewX < 0 || viewX > l.width-viewW || viewY < 0 || viewY > l.height-viewH {
		return nil, errors.Wrap(ErrLayout, "initial view position outside ScrollableLayout")
	}
	l.Rebuild()
	return l, nil
}

// Rebuild draws the visible part of the children. Newer children cover
// older ones wherever they have a non-space char.
func (l *ScrollableLayout) Rebuild() {
	images := make(map[Widget]tui.Image, len(l.children))
	for _, child := range l.children {
		images[child] = child.Image()
	}
	chars := make([][]rune, l.viewH)
	colors := make([][]string, l.viewH)
	for y := 0; y < l.viewH; y++ {
		chars[y] = make([]rune, l.viewW)
		colors[y] = make([]string, l.viewW)
		for x := 0; x < l.viewW; x++ {
			chars[y][x] = ' '
			cell := l.pointers[l.viewY+y][l.viewX+x]
			for i := len(cell) - 1; i >= 0; i-- {
				pos := l.locations[cell[i]]
				img := images[cell[i]]
				cy, cx := l.viewY+y-pos.y, l.viewX+x-pos.x
				if cy >= img.Height() || cx >= img.Width() {
					continue
				}
				// The color comes from whichever child the search stops at,
				// which is the background if every child has a space here
				colors[y][x] = img.Colors[cy][cx]
				if c := img.Chars[cy][cx]; c != ' ' {
					chars[y][x] = c
					break
				}
			}
		}
	}
	l.chars, l.colors = chars, colors
}

// OnEvent redraws the view once the tick is over
func (l *ScrollableLayout) OnEvent(e event.Event) []event.Event {
	if e.Is(event.Service, event.TickOver) {
		l.Rebuild()
		l.Redraw()
	}
	return nil
}

// ViewPos returns the top left corner of the view in layout coordinates
func (l *ScrollableLayout) ViewPos() (int, int) {
	return l.viewX, l.viewY
}

// ViewSize returns the size of the view
func (l *ScrollableLayout) ViewSize() (int, int) {
	return l.viewW, l.viewH
}

// ScrollTo moves the view so that its top left corner is at x, y
func (l *ScrollableLayout) ScrollTo(x, y int) error {
	if x < 0 || x > l.width-l.viewW || y < 0 || y > l.height-l.viewH {
		return errors.Wrapf(ErrLayout, "scrolling to invalid position %d,%d", x, y)
	}
	l.viewX, l.viewY = x, y
	return nil
}

// ScrollBy moves the view by dx to the right and by dy down
func (l *ScrollableLayout) ScrollBy(dx, dy int) error {
	return l.ScrollTo(l.viewX+dx, l.viewY+dy)
}

// AbsolutePos accounts for the view position
func (l *ScrollableLayout) AbsolutePos(x, y int) (int, int, error) {
	return l.Layout.AbsolutePos(x-l.viewX, y-l.viewY)
}

// MarshalJSON always fails
func (l *ScrollableLayout) MarshalJSON() ([]byte, error) {
	return noJSON("ScrollableLayout")
}

// InputScrollable wraps a ScrollableLayout, scrolls it with arrow keys and
// optionally shows scrollbars at the right and bottom edges. Those take an
// extra column or row on top of the view size.
//
// Children added to InputScrollable go to the scrollable surface. It should
// be subscribed to key_down and service events.
type InputScrollable struct {
	Layout
	scrollable *ScrollableLayout
	rightBar   *ScrollBar
	bottomBar  *ScrollBar
}

// NewInputScrollable accepts chars and colors the size of the entire
// surface
func NewInputScrollable(chars [][]rune, colors [][]string, viewX, viewY, viewW, viewH int, bottomBar, rightBar bool) (*InputScrollable, error) {
	scrollable, err := NewScrollableLayout(chars, colors, viewX, viewY, viewW, viewH)
	if err != nil {
		return nil, err
	}
	ch := util.SliceNested(chars, viewX, viewY, viewW, viewH)
	co := util.SliceNested(colors, viewX, viewY, viewW, viewH)
	if bottomBar {
		ch = append(ch, repeat(ch[0][0], viewW))
		co = append(co, repeat(co[0][0], viewW))
	}
	if rightBar {
		for y := range ch {
			ch[y] = append(ch[y], ' ')
			co[y] = append(co[y], "white")
		}
	}
	i := &InputScrollable{scrollable: scrollable}
	i.Bind(i)
	if err := i.initLayout(ch, co); err != nil {
		return nil, err
	}
	if err := i.Layout.AddChild(scrollable, 0, 0); err != nil {
		return nil, err
	}
	if rightBar {
		if i.rightBar, err = NewScrollBar("vertical", i.height, "gray", "white"); err != nil {
			return nil, err
		}
		if err := i.Layout.AddChild(i.rightBar, i.width-1, 0); err != nil {
			return nil, err
		}
	}
	if bottomBar {
		if i.bottomBar, err = NewScrollBar("horizontal", i.width, "gray", "white"); err != nil {
			return nil, err
		}
		if err := i.Layout.AddChild(i.bottomBar, 0, i.height-1); err != nil {
			return nil, err
		}
	}
	i.showBars()
	i.Rebuild()
	return i, nil
}

// Scrollable returns the wrapped layout
func (i *InputScrollable) Scrollable() *ScrollableLayout {
	return i.scrollable
}

// AddChild adds a child to the scrollable surface
func (i *InputScrollable) AddChild(child Widget, x, y int) error {
	return i.scrollable.AddChild(child, x, y)
}

// RemoveChild removes a child from the scrollable surface
func (i *InputScrollable) RemoveChild(child Widget) error {
	return i.scrollable.RemoveChild(child)
}

// MoveChild moves a child within the scrollable surface
func (i *InputScrollable) MoveChild(child Widget, x, y int) error {
	return i.scrollable.MoveChild(child, x, y)
}

func (i *InputScrollable) showBars() {
	s := i.scrollable
	if i.rightBar != nil {
		i.rightBar.ShowPos(float64(s.viewY)/float64(s.height), float64(s.viewH)/float64(s.height))
	}
	if i.bottomBar != nil {
		i.bottomBar.ShowPos(float64(s.viewX)/float64(s.width), float64(s.viewW)/float64(s.width))
	}
}

// OnEvent scrolls on arrow keys and returns to the origin on Space
func (i *InputScrollable) OnEvent(e event.Event) []event.Event {
	s := i.scrollable
	switch {
	case e.Type == event.KeyDown:
		code, _ := e.Value.(tui.Code)
		scrolled := true
		switch {
		case code == tui.KeyDown && s.viewY+s.viewH < s.height:
			s.ScrollBy(0, 1)
		case code == tui.KeyUp && s.viewY > 0:
			s.ScrollBy(0, -1)
		case code == tui.KeyRight && s.viewX+s.viewW < s.width:
			s.ScrollBy(1, 0)
		case code == tui.KeyLeft && s.viewX > 0:
			s.ScrollBy(-1, 0)
		case code == tui.KeySpace:
			s.ScrollTo(0, 0)
		default:
			scrolled = false
		}
		if scrolled {
			i.showBars()
		}
	case e.Is(event.Service, event.TickOver):
		s.Rebuild()
		i.Rebuild()
		i.Redraw()
	}
	return nil
}

// MarshalJSON always fails
func (i *InputScrollable) MarshalJSON() ([]byte, error) {
	return noJSON("InputScrollable")
}
