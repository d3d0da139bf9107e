package ecs

import (
	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
	"github.com/synedraacus/bearhug/src/widget"
)

// surface is the part of a layout the ecs events are applied to
type surface interface {
	AddChild(child widget.Widget, x, y int) error
	MoveChild(child widget.Widget, x, y int) error
	RemoveChild(child widget.Widget) error
	ChildLocation(child widget.Widget) (int, int, bool)
	SurfaceSize() (int, int)
}

// entityIndex maps entities registered with a layout to their widgets
type entityIndex struct {
	entities map[string]*Entity
	widgets  map[string]widget.Widget
	owners   map[widget.Widget]*Entity
}

func newEntityIndex() entityIndex {
	return entityIndex{
		entities: make(map[string]*Entity),
		widgets:  make(map[string]widget.Widget),
		owners:   make(map[widget.Widget]*Entity)}
}

// AddEntity registers an entity that has a widget. The widget is not shown
// until an ecs_add event with the entity ID arrives.
func (x *entityIndex) AddEntity(e *Entity) error {
	if e == nil || e.Widget() == nil {
		return errors.Wrap(ErrECS, "only an entity with a widget can be added to a layout")
	}
	w := e.Widget().Widget()
	x.entities[e.ID] = e
	x.widgets[e.ID] = w
	x.owners[w] = e
	return nil
}

// Entity returns a registered entity
func (x *entityIndex) Entity(id string) (*Entity, bool) {
	e, found := x.entities[id]
	return e, found
}

func (x *entityIndex) removeEntity(s surface, id string) error {
	if _, found := x.entities[id]; !found {
		return errors.Wrapf(ErrECS, "attempting to remove nonexistent entity %s from a layout", id)
	}
	w := x.widgets[id]
	if _, _, placed := s.ChildLocation(w); placed {
		if err := s.RemoveChild(w); err != nil {
			return err
		}
	}
	delete(x.entities, id)
	delete(x.widgets, id)
	delete(x.owners, w)
	return nil
}

// handle applies an ecs event to s. It returns the events to emit and
// whether the layout has to be redrawn.
func (x *entityIndex) handle(s surface, e event.Event) ([]event.Event, bool) {
	switch e.Type {
	case event.ECSMove:
		m, _ := e.Value.(Move)
		w, found := x.widgets[m.ID]
		if !found {
			// Entities may move while not being shown
			return nil, false
		}
		if _, _, placed := s.ChildLocation(w); !placed {
			return nil, false
		}
		width, height := w.Size()
		sw, sh := s.SurfaceSize()
		if m.X < 0 || m.Y < 0 || m.X+width > sw || m.Y+height > sh {
			return []event.Event{event.New(event.ECSCollision, Collision{Moved: m.ID})}, false
		}
		if err := s.MoveChild(w, m.X, m.Y); err != nil {
			astilog.Debugf("Cannot move %s: %v", m.ID, err)
			return nil, false
		}
		return nil, true
	case event.ECSCreate:
		entity, _ := e.Value.(*Entity)
		if err := x.AddEntity(entity); err != nil {
			astilog.Errorf("Layout: %v", err)
			return nil, false
		}
		return nil, true
	case event.ECSDestroy:
		id, _ := e.Value.(string)
		if err := x.removeEntity(s, id); err != nil {
			astilog.Errorf("Layout: %v", err)
		}
		return nil, true
	case event.ECSRemove:
		id, _ := e.Value.(string)
		w, found := x.widgets[id]
		if !found {
			astilog.Errorf("Layout cannot remove unknown entity %s", id)
			return nil, false
		}
		if err := s.RemoveChild(w); err != nil {
			astilog.Errorf("Layout cannot remove %s: %v", id, err)
		}
		return nil, true
	case event.ECSAdd:
		p, _ := e.Value.(Placement)
		w, found := x.widgets[p.ID]
		if !found {
			astilog.Errorf("Layout cannot add unknown entity %s", p.ID)
			return nil, false
		}
		if err := s.AddChild(w, p.X, p.Y); err != nil {
			astilog.Errorf("Layout cannot add %s: %v", p.ID, err)
		}
		return nil, true
	case event.ECSUpdate:
		return nil, true
	}
	return nil, false
}

// ECSLayout is a layout of entities, controlled entirely by events:
//
//	ecs_create   *Entity     registers the entity, does not show it
//	ecs_add      Placement   shows the entity widget at x, y
//	ecs_move     Move        moves the widget, or emits an edge collision
//	ecs_remove   entity ID   hides the widget, the entity stays registered
//	ecs_destroy  entity ID   hides the widget and forgets the entity
//	ecs_update   nil         redraws the layout even if nothing moved
//
// The layout redraws itself on tick_over if any of those arrived during
// the tick. Collisions between entities are not its business, see
// CollisionListener.
type ECSLayout struct {
	*widget.Layout
	entityIndex
	needRedraw bool
}

// NewECSLayout returns a layout with the given background
func NewECSLayout(chars [][]rune, colors [][]string) (*ECSLayout, error) {
	inner, err := widget.NewLayout(chars, colors)
	if err != nil {
		return nil, err
	}
	l := &ECSLayout{Layout: inner, entityIndex: newEntityIndex()}
	inner.Bind(l)
	inner.Background().SetParent(l)
	return l, nil
}

// RemoveEntity forgets an entity and hides its widget. The entity itself is
// not destroyed.
func (l *ECSLayout) RemoveEntity(id string) error {
	return l.removeEntity(l, id)
}

// OnEvent applies ecs events and redraws after the tick
func (l *ECSLayout) OnEvent(e event.Event) []event.Event {
	if e.Is(event.Service, event.TickOver) {
		if l.needRedraw {
			l.Rebuild()
			l.Redraw()
			l.needRedraw = false
		}
		return nil
	}
	r, redraw := l.handle(l, e)
	l.needRedraw = l.needRedraw || redraw
	return r
}

// MarshalJSON always fails
func (l *ECSLayout) MarshalJSON() ([]byte, error) {
	return nil, errors.Wrap(ErrECS, "ECSLayout is not meant to be serialized")
}

type layered struct {
	w widget.Widget
	z int
}

// ScrollableECSLayout is an ECSLayout that shows only a part of its
// surface, like widget.ScrollableLayout. It understands two more events:
//
//	ecs_scroll_to  Offset  moves the view to x, y
//	ecs_scroll_by  Offset  moves the view by x, y
//
// Scrolling outside the surface is ignored.
//
// Every cell keeps the children covering it ordered by z-level, so that
// entities drawn in perspective overlap correctly. For an entity with a
// collision face, the cells outside the face are pushed below it by their
// distance from the face.
type ScrollableECSLayout struct {
	*widget.Layout
	entityIndex
	cells      [][][]layered
	viewX      int
	viewY      int
	viewW      int
	viewH      int
	needRedraw bool
}

// NewScrollableECSLayout accepts chars and colors of the entire surface and
// shows viewW x viewH cells of it starting at viewX, viewY
func NewScrollableECSLayout(chars [][]rune, colors [][]string, viewX, viewY, viewW, viewH int) (*ScrollableECSLayout, error) {
	inner, err := widget.NewLayout(chars, colors)
	if err != nil {
		return nil, err
	}
	width, height := inner.SurfaceSize()
	if viewW <= 0 || viewW > width || viewH <= 0 || viewH > height {
		return nil, errors.Wrapf(widget.ErrLayout, "invalid view size %dx%d", viewW, viewH)
	}
	if viewX < 0 || viewX > width-viewW || viewY < 0 || viewY > height-viewH {
		return nil, errors.Wrap(widget.ErrLayout, "initial view position outside ScrollableECSLayout")
	}
	l := &ScrollableECSLayout{
		Layout:      inner,
		entityIndex: newEntityIndex(),
		viewX:       viewX,
		viewY:       viewY,
		viewW:       viewW,
		viewH:       viewH}
	inner.Bind(l)
	bg := inner.Background()
	bg.SetParent(l)
	l.cells = make([][][]layered, height)
	for y := range l.cells {
		l.cells[y] = make([][]layered, width)
		for x := range l.cells[y] {
			l.cells[y][x] = []layered{{w: bg}}
		}
	}
	l.Rebuild()
	return l, nil
}

// zCorrection returns how much lower than the widget z-level the cell x, y
// of the widget should be
func (l *ScrollableECSLayout) zCorrection(child widget.Widget, x, y int) int {
	owner, found := l.owners[child]
	if !found || owner.Collision() == nil {
		return 0
	}
	col := owner.Collision()
	fx, fy := col.FacePosition[0], col.FacePosition[1]
	fw, fh := col.FaceSize[0], col.FaceSize[1]
	if fw == 0 && fh == 0 {
		return 0
	}
	if fx <= x && x <= fx+fw && fy <= y && y <= fy+fh {
		return 0
	}
	yOffset := fy - y
	xOffset := x - fx - fw
	switch {
	case yOffset > 0 && xOffset <= 0:
		return yOffset
	case xOffset > 0 && yOffset <= 0:
		return xOffset
	case xOffset > yOffset:
		return xOffset
	}
	return yOffset
}

func (l *ScrollableECSLayout) place(child widget.Widget, x, y int) {
	w, h := child.Size()
	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			z := child.ZLevel() - l.zCorrection(child, cx, cy)
			cell := l.cells[y+cy][x+cx]
			// The background always stays at the bottom
			i := len(cell)
			for j := 1; j < len(cell); j++ {
				if cell[j].z > z {
					i = j
					break
				}
			}
			cell = append(cell, layered{})
			copy(cell[i+1:], cell[i:])
			cell[i] = layered{w: child, z: z}
			l.cells[y+cy][x+cx] = cell
		}
	}
}

func (l *ScrollableECSLayout) unplace(child widget.Widget, x, y int) {
	w, h := child.Size()
	for cy := y; cy < y+h && cy < len(l.cells); cy++ {
		for cx := x; cx < x+w && cx < len(l.cells[cy]); cx++ {
			cell := l.cells[cy][cx]
			for i := 1; i < len(cell); i++ {
				if cell[i].w == child {
					l.cells[cy][cx] = append(cell[:i], cell[i+1:]...)
					break
				}
			}
		}
	}
}

// AddChild places a widget at x, y in surface coordinates
func (l *ScrollableECSLayout) AddChild(child widget.Widget, x, y int) error {
	if err := l.Layout.AddChild(child, x, y); err != nil {
		return err
	}
	l.place(child, x, y)
	return nil
}

// RemoveChild removes a child
func (l *ScrollableECSLayout) RemoveChild(child widget.Widget) error {
	x, y, _ := l.ChildLocation(child)
	if err := l.Layout.RemoveChild(child); err != nil {
		return err
	}
	l.unplace(child, x, y)
	return nil
}

// MoveChild moves a child, recalculating its z-levels
func (l *ScrollableECSLayout) MoveChild(child widget.Widget, x, y int) error {
	ox, oy, _ := l.ChildLocation(child)
	if err := l.Layout.MoveChild(child, x, y); err != nil {
		return err
	}
	l.unplace(child, ox, oy)
	l.place(child, x, y)
	return nil
}

// RemoveEntity forgets an entity and hides its widget
func (l *ScrollableECSLayout) RemoveEntity(id string) error {
	return l.removeEntity(l, id)
}

// Rebuild draws the visible part, taking the topmost non-space char of
// every cell
func (l *ScrollableECSLayout) Rebuild() {
	images := make(map[widget.Widget]tui.Image)
	locations := make(map[widget.Widget][2]int)
	for _, child := range l.Children() {
		images[child] = child.Image()
		x, y, _ := l.ChildLocation(child)
		locations[child] = [2]int{x, y}
	}
	img := tui.BlankImage(l.viewW, l.viewH, ' ', "white")
	for y := 0; y < l.viewH; y++ {
		for x := 0; x < l.viewW; x++ {
			cell := l.cells[l.viewY+y][l.viewX+x]
			for i := len(cell) - 1; i >= 0; i-- {
				child := cell[i].w
				pos, ci := locations[child], images[child]
				cx, cy := l.viewX+x-pos[0], l.viewY+y-pos[1]
				if cy < 0 || cx < 0 || cy >= ci.Height() || cx >= ci.Width() {
					continue
				}
				if c := ci.Chars[cy][cx]; c != ' ' && c != 0 {
					img.Chars[y][x] = c
					img.Colors[y][x] = ci.Colors[cy][cx]
					break
				}
			}
		}
	}
	if err := l.SetImage(img); err != nil {
		astilog.Errorf("ScrollableECSLayout: %v", err)
	}
}

// ViewPos returns the top left corner of the view
func (l *ScrollableECSLayout) ViewPos() (int, int) {
	return l.viewX, l.viewY
}

// ViewSize returns the size of the view
func (l *ScrollableECSLayout) ViewSize() (int, int) {
	return l.viewW, l.viewH
}

// ScrollTo moves the view to x, y
func (l *ScrollableECSLayout) ScrollTo(x, y int) error {
	width, height := l.SurfaceSize()
	if x < 0 || x > width-l.viewW || y < 0 || y > height-l.viewH {
		return errors.Wrapf(widget.ErrLayout, "scrolling to invalid position %d,%d", x, y)
	}
	l.viewX, l.viewY = x, y
	return nil
}

// ScrollBy moves the view by dx, dy
func (l *ScrollableECSLayout) ScrollBy(dx, dy int) error {
	return l.ScrollTo(l.viewX+dx, l.viewY+dy)
}

// AbsolutePos accounts for the view position
func (l *ScrollableECSLayout) AbsolutePos(x, y int) (int, int, error) {
	return l.Layout.AbsolutePos(x-l.viewX, y-l.viewY)
}

// OnEvent applies ecs and scroll events and redraws after the tick
func (l *ScrollableECSLayout) OnEvent(e event.Event) []event.Event {
	switch {
	case e.Is(event.Service, event.TickOver):
		if l.needRedraw {
			l.Rebuild()
			l.Redraw()
			l.needRedraw = false
		}
		return nil
	case e.Type == event.ECSScrollTo || e.Type == event.ECSScrollBy:
		o, _ := e.Value.(Offset)
		var err error
		if e.Type == event.ECSScrollTo {
			err = l.ScrollTo(o.X, o.Y)
		} else {
			err = l.ScrollBy(o.X, o.Y)
		}
		if err != nil {
			astilog.Debugf("Scroll ignored: %v", err)
			return nil
		}
		l.needRedraw = true
		return nil
	}
	r, redraw := l.handle(l, e)
	l.needRedraw = l.needRedraw || redraw
	return r
}

// MarshalJSON always fails
func (l *ScrollableECSLayout) MarshalJSON() ([]byte, error) {
	return nil, errors.Wrap(ErrECS, "ScrollableECSLayout is not meant to be serialized")
}
