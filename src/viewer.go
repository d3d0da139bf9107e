package bearhug

import (
	"path/filepath"
	"unicode/utf8"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/resources"
	"github.com/synedraacus/bearhug/src/tui"
	"github.com/synedraacus/bearhug/src/util"
	"github.com/synedraacus/bearhug/src/widget"
)

// Collection is a set of named images the viewer can show.
// *resources.Atlas is a collection.
type Collection interface {
	Names() []string
	Element(name string) (tui.Image, error)
	Reload() error
	Paths() []string
}

// singleImage is a collection of one image named after its file
type singleImage struct {
	loader resources.Reloadable
}

func (s singleImage) Names() []string {
	return []string{filepath.Base(s.loader.Path())}
}

func (s singleImage) Element(name string) (tui.Image, error) {
	if name != filepath.Base(s.loader.Path()) {
		return tui.Image{}, errors.Wrapf(resources.ErrResource, "no element %s", name)
	}
	return s.loader.Image()
}

func (s singleImage) Reload() error {
	s.loader.Reset()
	return nil
}

func (s singleImage) Paths() []string {
	return []string{s.loader.Path()}
}

func openCollection(opts *Options) (Collection, error) {
	if opts.Image != "" {
		loader, err := resources.NewLoader(opts.Image, opts.Color)
		if err != nil {
			return nil, err
		}
		return singleImage{loader: loader}, nil
	}
	loader, err := resources.NewLoader(opts.AtlasImage, opts.Color)
	if err != nil {
		return nil, err
	}
	return resources.NewAtlas(loader, opts.AtlasIndex)
}

func box(width, height int) ([][]rune, [][]string) {
	chars := make([][]rune, height)
	for y := range chars {
		chars[y] = make([]rune, width)
		for x := range chars[y] {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				chars[y][x] = '#'
			} else {
				chars[y][x] = ' '
			}
		}
	}
	return chars, util.CopyShape(chars, boxColor)
}

// NewElementBox frames a widget with '#' and a row and column of space on
// every side. The name is written over the top border in green.
func NewElementBox(w widget.Widget, name string) (*widget.Layout, error) {
	innerW, innerH := w.Size()
	width := innerW + 4
	if nameWidth := utf8.RuneCountInString(name); nameWidth+2 > width {
		width = nameWidth + 2
	}
	l, err := widget.NewLayout(box(width, innerH+4))
	if err != nil {
		return nil, err
	}
	if err := l.AddChild(w, 2, 2); err != nil {
		return nil, err
	}
	if name != "" {
		title, err := widget.NewLabel(name, widget.LabelOptions{Color: titleColor})
		if err != nil {
			return nil, err
		}
		if err := l.AddChild(title, 1, 0); err != nil {
			return nil, err
		}
	}
	l.Rebuild()
	return l, nil
}

type placed struct {
	w    widget.Widget
	x, y int
}

// arrange puts the boxes in rows no wider than width, left to right. It
// returns the positions and the height of the surface.
func arrange(boxes []widget.Widget, width int) ([]placed, int) {
	r := make([]placed, 0, len(boxes))
	x, y, step := 1, 1, 0
	for _, b := range boxes {
		bw, bh := b.Size()
		if x+bw > width {
			y += step
			x, step = 1, 0
		}
		r = append(r, placed{w: b, x: x, y: y})
		x += bw + 1
		if bh+1 > step {
			step = bh + 1
		}
	}
	return r, y + step
}

// Viewer shows every element of a collection in a scrollable view, with an
// FPS counter right below it
type Viewer struct {
	collection Collection
	dispatcher *event.Dispatcher
	terminal   *tui.Terminal
	viewHeight int
	view       *widget.InputScrollable
	fps        *widget.FPSCounter
}

// NewViewer builds the view. Nothing is shown until Show.
func NewViewer(c Collection, d *event.Dispatcher, viewHeight int) (*Viewer, error) {
	if viewHeight < 1 {
		return nil, errors.Wrapf(widget.ErrLayout, "view height %d", viewHeight)
	}
	fps, err := widget.NewFPSCounter(widget.LabelOptions{})
	if err != nil {
		return nil, err
	}
	v := &Viewer{collection: c, dispatcher: d, viewHeight: viewHeight, fps: fps}
	if v.view, err = v.build(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Viewer) build() (*widget.InputScrollable, error) {
	var boxes []widget.Widget
	width := viewerWidth
	for _, name := range v.collection.Names() {
		img, err := v.collection.Element(name)
		if err != nil {
			return nil, err
		}
		w, err := widget.FromImage(img)
		if err != nil {
			return nil, err
		}
		b, err := NewElementBox(w, name)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		if b.Width()+1 > width {
			width = b.Width() + 1
		}
		boxes = append(boxes, b)
	}
	positions, height := arrange(boxes, width)
	if height < viewerHeight {
		height = viewerHeight
	}
	viewH := util.Constrain(viewerHeight, 1, v.viewHeight)
	surface := tui.BlankImage(width, height, ' ', defaultColor)
	view, err := widget.NewInputScrollable(surface.Chars, surface.Colors, 0, 0, viewerWidth, viewH, width > viewerWidth, true)
	if err != nil {
		return nil, err
	}
	for _, p := range positions {
		if err := view.AddChild(p.w, p.x, p.y); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// View returns the scrollable view
func (v *Viewer) View() *widget.InputScrollable {
	return v.view
}

// Show adds the view and the FPS counter to the terminal and subscribes
// them
func (v *Viewer) Show(t *tui.Terminal) error {
	v.terminal = t
	if err := t.AddWidget(v.view, 0, 0, 0); err != nil {
		return err
	}
	if err := t.AddWidget(v.fps, 0, v.view.Height(), 1); err != nil {
		return err
	}
	if err := v.dispatcher.RegisterListener(v.view, event.KeyDown, event.Service); err != nil {
		return err
	}
	return v.dispatcher.RegisterListener(v.fps, event.Tick)
}

// Reload rebuilds the view from the collection, which rereads its files. A
// broken collection leaves the old view in place.
func (v *Viewer) Reload() error {
	if err := v.collection.Reload(); err != nil {
		return err
	}
	view, err := v.build()
	if err != nil {
		return err
	}
	if v.terminal != nil {
		if err := v.detach(v.view); err != nil {
			return err
		}
		if err := v.attach(view); err != nil {
			if restored := v.attach(v.view); restored != nil {
				astilog.Errorf("Cannot restore the view: %v", restored)
			}
			return err
		}
	}
	v.view = view
	astilog.Infof("Reloaded %d elements", len(v.collection.Names()))
	return nil
}

func (v *Viewer) detach(view *widget.InputScrollable) error {
	if err := v.dispatcher.UnregisterListener(view); err != nil {
		return err
	}
	return v.terminal.RemoveWidget(view)
}

// attach puts view on the terminal with the FPS counter right below it
func (v *Viewer) attach(view *widget.InputScrollable) error {
	if err := v.terminal.AddWidget(view, 0, 0, 0); err != nil {
		return err
	}
	// A bottom bar may have come or gone
	if err := v.terminal.MoveWidget(v.fps, 0, view.Height()); err != nil {
		v.terminal.RemoveWidget(view)
		return err
	}
	return v.dispatcher.RegisterListener(view, event.KeyDown, event.Service)
}

// reloader drains asset changes from the event box once per tick, so that
// the view is only touched by the loop
type reloader struct {
	box    *util.EventBox
	viewer *Viewer
}

func (r *reloader) OnEvent(e event.Event) []event.Event {
	events := r.box.Take()
	if events == nil {
		return nil
	}
	if paths, found := events[resources.EvtAssetsChanged]; found {
		astilog.Debugf("Assets changed: %v", paths)
		if err := r.viewer.Reload(); err != nil {
			astilog.Errorf("Cannot reload assets: %v", err)
		}
	}
	return nil
}

// exitKeys turns Escape and Q into the window closing input, so that they
// go through the same shutdown as closing the window
type exitKeys struct{}

func (exitKeys) OnEvent(e event.Event) []event.Event {
	if code, ok := e.Value.(tui.Code); ok && (code == tui.KeyEscape || code == tui.KeyQ) {
		return []event.Event{event.New(event.MiscInput, tui.InputClose)}
	}
	return nil
}
