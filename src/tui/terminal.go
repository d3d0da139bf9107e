package tui

import (
	"sort"
	"sync"
	"time"

	"github.com/gdamore/tcell"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/util"
)

// LayerCount is the number of drawing layers. Higher layers are drawn over
// lower ones.
const LayerCount = 256

const evtInput util.EventType = iota

var (
	// ErrWidget is returned for invalid widget placement
	ErrWidget = errors.New("widget error")
	// ErrUnknownState is returned by CheckState for codes it cannot answer
	ErrUnknownState = errors.New("unknown state query")
)

// Drawable is anything the terminal can place on a layer. Implementations
// must be comparable, which in practice means pointers.
type Drawable interface {
	Image() Image
	SetTerminal(t *Terminal)
}

// TerminalOptions configures a Terminal
type TerminalOptions struct {
	// Size of the drawing area in cells. Zero means the screen size at Start.
	Width  int
	Height int
	// Color for cells that specify none
	DefaultColor string
	// How long a key stays pressed after its last press or repeat. Terminals
	// do not report key releases, so a key_up is sent once this passes.
	HoldTimeout time.Duration
}

// Location is where a drawable was placed
type Location struct {
	X      int
	Y      int
	Layer  int
	Width  int
	Height int
}

// layer grids are indexed [x][y]
type layer struct {
	widgets [][]Drawable
	chars   [][]rune
	colors  [][]tcell.Color
}

type heldKey struct {
	code Code
	seen time.Time
}

// Terminal owns the screen. It keeps track of which drawable occupies which
// cell of every layer, composites layers on Refresh and turns raw input into
// key_down, key_up and misc_input events.
type Terminal struct {
	renderer     Renderer
	opts         TerminalOptions
	width        int
	height       int
	defaultColor tcell.Color
	layers       [LayerCount]*layer
	usedLayers   []int
	locations    map[Drawable]Location

	box     *util.EventBox
	pump    sync.WaitGroup
	started bool
	closed  bool
	clock   func() time.Time

	pressed []heldKey
	buttons []Code
	mouseX  int
	mouseY  int
	wheel   int
	resized bool
	screenW int
	screenH int
}

// NewTerminal returns a terminal drawing onto the renderer. It is not
// visible until Start is called, but drawables can be added as soon as the
// size is known.
func NewTerminal(renderer Renderer, opts TerminalOptions) (*Terminal, error) {
	if opts.DefaultColor == "" {
		opts.DefaultColor = "white"
	}
	color, err := ParseColor(opts.DefaultColor)
	if err != nil {
		return nil, err
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, errors.Errorf("invalid terminal size %dx%d", opts.Width, opts.Height)
	}
	t := &Terminal{
		renderer:     renderer,
		opts:         opts,
		width:        opts.Width,
		height:       opts.Height,
		defaultColor: color,
		locations:    make(map[Drawable]Location),
		box:          util.NewEventBox(),
		clock:        time.Now}
	// Input is drained once per tick, nobody blocks on it
	t.box.Unwatch(evtInput)
	return t, nil
}

// Start opens the screen and begins collecting input
func (t *Terminal) Start() error {
	if t.started {
		return nil
	}
	if err := t.renderer.Init(); err != nil {
		return err
	}
	t.started = true
	t.screenW, t.screenH = t.renderer.Size()
	if t.width == 0 || t.height == 0 {
		t.width, t.height = t.screenW, t.screenH
	}
	t.pump.Add(1)
	go func() {
		defer t.pump.Done()
		for {
			in, ok := t.renderer.GetInput()
			if !ok {
				return
			}
			t.box.Append(evtInput, in)
		}
	}()
	t.Refresh()
	return nil
}

// Close shuts the screen down and waits for the input goroutine to finish.
// Drawables are not detached.
func (t *Terminal) Close() {
	if !t.started || t.closed {
		return
	}
	t.closed = true
	t.renderer.Close()
	t.pump.Wait()
}

// Size returns the size of the drawing area
func (t *Terminal) Size() (int, int) {
	return t.width, t.height
}

func (t *Terminal) layer(index int) *layer {
	if t.layers[index] == nil {
		l := &layer{
			widgets: make([][]Drawable, t.width),
			chars:   make([][]rune, t.width),
			colors:  make([][]tcell.Color, t.width)}
		for x := range l.widgets {
			l.widgets[x] = make([]Drawable, t.height)
			l.chars[x] = make([]rune, t.height)
			l.colors[x] = make([]tcell.Color, t.height)
		}
		t.layers[index] = l
		t.usedLayers = append(t.usedLayers, index)
		sort.Ints(t.usedLayers)
	}
	return t.layers[index]
}

func (t *Terminal) fits(loc Location, d Drawable) error {
	if loc.Layer < 0 || loc.Layer >= LayerCount {
		return errors.Wrapf(ErrWidget, "invalid layer %d", loc.Layer)
	}
	if loc.X < 0 || loc.Y < 0 || loc.X+loc.Width > t.width || loc.Y+loc.Height > t.height {
		return errors.Wrapf(ErrWidget, "%dx%d widget at %d,%d is outside the %dx%d terminal",
			loc.Width, loc.Height, loc.X, loc.Y, t.width, t.height)
	}
	l := t.layers[loc.Layer]
	if l == nil {
		return nil
	}
	for x := loc.X; x < loc.X+loc.Width; x++ {
		for y := loc.Y; y < loc.Y+loc.Height; y++ {
			if other := l.widgets[x][y]; other != nil && other != d {
				return errors.Wrapf(ErrWidget, "widgets cannot collide within a layer (%d,%d on layer %d)", x, y, loc.Layer)
			}
		}
	}
	return nil
}

func (t *Terminal) place(d Drawable, loc Location, img Image) error {
	if err := t.fits(loc, d); err != nil {
		return err
	}
	colors := make([][]tcell.Color, loc.Height)
	running := t.defaultColor
	for y := range colors {
		colors[y] = make([]tcell.Color, loc.Width)
		for x := range colors[y] {
			// Empty colors keep whatever the previous cell used
			if name := img.Colors[y][x]; name != "" {
				color, err := ParseColor(name)
				if err != nil {
					return errors.Wrap(ErrWidget, err.Error())
				}
				running = color
			}
			colors[y][x] = running
		}
	}
	l := t.layer(loc.Layer)
	for y := 0; y < loc.Height; y++ {
		for x := 0; x < loc.Width; x++ {
			l.widgets[loc.X+x][loc.Y+y] = d
			l.chars[loc.X+x][loc.Y+y] = img.Chars[y][x]
			l.colors[loc.X+x][loc.Y+y] = colors[y][x]
		}
	}
	t.locations[d] = loc
	return nil
}

func (t *Terminal) unplace(loc Location) {
	l := t.layers[loc.Layer]
	for x := loc.X; x < loc.X+loc.Width; x++ {
		for y := loc.Y; y < loc.Y+loc.Height; y++ {
			l.widgets[x][y] = nil
			l.chars[x][y] = 0
		}
	}
}

// AddWidget places d with its top left corner at x, y. No drawable can be
// added twice, and drawables cannot overlap within a layer.
func (t *Terminal) AddWidget(d Drawable, x, y, layer int) error {
	if _, found := t.locations[d]; found {
		return errors.Wrap(ErrWidget, "cannot add the same widget twice")
	}
	img := d.Image()
	loc := Location{X: x, Y: y, Layer: layer, Width: img.Width(), Height: img.Height()}
	if err := t.place(d, loc, img); err != nil {
		return err
	}
	d.SetTerminal(t)
	return nil
}

// RemoveWidget clears the cells occupied by d. The drawable itself is left
// intact and can be added again.
func (t *Terminal) RemoveWidget(d Drawable) error {
	loc, found := t.locations[d]
	if !found {
		return errors.Wrap(ErrWidget, "cannot remove a widget that was not added")
	}
	t.unplace(loc)
	delete(t.locations, d)
	d.SetTerminal(nil)
	return nil
}

// MoveWidget moves d within its layer
func (t *Terminal) MoveWidget(d Drawable, x, y int) error {
	loc, found := t.locations[d]
	if !found {
		return errors.Wrap(ErrWidget, "cannot move a widget that was not added")
	}
	img := d.Image()
	t.unplace(loc)
	moved := Location{X: x, Y: y, Layer: loc.Layer, Width: img.Width(), Height: img.Height()}
	if err := t.place(d, moved, img); err != nil {
		t.redraw(d, loc)
		return err
	}
	return nil
}

// UpdateWidget redraws d after its chars or colors have changed
func (t *Terminal) UpdateWidget(d Drawable) error {
	loc, found := t.locations[d]
	if !found {
		return errors.Wrap(ErrWidget, "cannot update a widget that was not added")
	}
	img := d.Image()
	t.unplace(loc)
	updated := loc
	updated.Width, updated.Height = img.Width(), img.Height()
	if err := t.place(d, updated, img); err != nil {
		t.redraw(d, loc)
		return err
	}
	return nil
}

// redraw puts d back at a location it occupied before a failed change.
// Chars are blanked if the current image cannot be drawn there.
func (t *Terminal) redraw(d Drawable, loc Location) {
	img := d.Image()
	if img.Width() == loc.Width && img.Height() == loc.Height {
		if t.place(d, loc, img) == nil {
			return
		}
	}
	t.place(d, loc, BlankImage(loc.Width, loc.Height, ' ', ""))
}

// WidgetLocation returns where d was placed
func (t *Terminal) WidgetLocation(d Drawable) (Location, bool) {
	loc, found := t.locations[d]
	return loc, found
}

// WidgetAt returns the drawable at x, y on the highest layer that has one
func (t *Terminal) WidgetAt(x, y int) Drawable {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return nil
	}
	for i := len(t.usedLayers) - 1; i >= 0; i-- {
		if d := t.layers[t.usedLayers[i]].widgets[x][y]; d != nil {
			return d
		}
	}
	return nil
}

// WidgetAtLayer returns the drawable at x, y on the given layer
func (t *Terminal) WidgetAtLayer(x, y, layer int) Drawable {
	if x < 0 || y < 0 || x >= t.width || y >= t.height || layer < 0 || layer >= LayerCount {
		return nil
	}
	if l := t.layers[layer]; l != nil {
		return l.widgets[x][y]
	}
	return nil
}

// Clear removes every drawable
func (t *Terminal) Clear() {
	drawables := make([]Drawable, 0, len(t.locations))
	for d := range t.locations {
		drawables = append(drawables, d)
	}
	for _, d := range drawables {
		t.RemoveWidget(d)
	}
	t.Refresh()
}

// Cell returns the visible char and color at x, y. The highest layer with
// a non-space char wins.
func (t *Terminal) Cell(x, y int) (rune, tcell.Color) {
	for i := len(t.usedLayers) - 1; i >= 0; i-- {
		l := t.layers[t.usedLayers[i]]
		if ch := l.chars[x][y]; ch != 0 && ch != ' ' {
			return ch, l.colors[x][y]
		}
	}
	return ' ', t.defaultColor
}

// Refresh composites the layers and shows the result
func (t *Terminal) Refresh() {
	if !t.started || t.closed {
		return
	}
	if t.resized {
		t.renderer.Clear()
		t.resized = false
	}
	for x := 0; x < t.width && x < t.screenW; x++ {
		for y := 0; y < t.height && y < t.screenH; y++ {
			ch, color := t.Cell(x, y)
			if runewidth.RuneWidth(ch) != 1 {
				ch = ' '
			}
			t.renderer.SetCell(x, y, ch, color)
		}
	}
	t.renderer.Show()
}

// Feed queues a synthetic input as if it came from the screen
func (t *Terminal) Feed(in Input) {
	t.box.Append(evtInput, in)
}

func (t *Terminal) press(code Code, now time.Time) {
	for i := range t.pressed {
		if t.pressed[i].code == code {
			t.pressed[i].seen = now
			return
		}
	}
	t.pressed = append(t.pressed, heldKey{code: code, seen: now})
}

func misc(code Code) event.Event {
	return event.New(event.MiscInput, code)
}

func (t *Terminal) handle(in Input, now time.Time) []event.Event {
	var events []event.Event
	switch in.Type {
	case KeyInput:
		for _, code := range in.Codes {
			t.press(code, now)
		}
	case MouseInput:
		if in.X != t.mouseX || in.Y != t.mouseY {
			t.mouseX, t.mouseY = in.X, in.Y
			events = append(events, misc(MouseMove))
		}
		held := t.buttons[:0]
		for _, b := range t.buttons {
			if containsCode(in.Buttons, b) {
				held = append(held, b)
			} else {
				events = append(events, event.New(event.KeyUp, b))
			}
		}
		t.buttons = held
		for _, b := range in.Buttons {
			if !containsCode(t.buttons, b) {
				t.buttons = append(t.buttons, b)
			}
		}
		if in.Wheel != 0 {
			t.wheel = in.Wheel
			events = append(events, misc(MouseScroll))
		}
	case ResizeInput:
		t.screenW, t.screenH = in.Width, in.Height
		t.resized = true
		events = append(events, misc(InputResized))
	case CloseInput:
		events = append(events, misc(InputClose))
	}
	return events
}

func containsCode(codes []Code, code Code) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// CheckInput processes the input collected since the previous call. It
// returns misc_input and key_up events in arrival order, followed by a
// key_down for every key and mouse button that is still held, in the order
// they were pressed.
func (t *Terminal) CheckInput() []event.Event {
	var events []event.Event
	now := t.clock()
	if pending := t.box.Take(); pending != nil {
		inputs, _ := pending[evtInput].([]interface{})
		for _, in := range inputs {
			events = append(events, t.handle(in.(Input), now)...)
		}
	}
	held := t.pressed[:0]
	for _, k := range t.pressed {
		if now.Sub(k.seen) > t.opts.HoldTimeout {
			events = append(events, event.New(event.KeyUp, k.code))
		} else {
			held = append(held, k)
		}
	}
	t.pressed = held
	for _, k := range t.pressed {
		events = append(events, event.New(event.KeyDown, k.code))
	}
	for _, b := range t.buttons {
		events = append(events, event.New(event.KeyDown, b))
	}
	return events
}

// CheckState answers queries about the terminal and input state. Key and
// mouse button codes return 1 while held.
func (t *Terminal) CheckState(code Code) (int, error) {
	switch code {
	case MouseX, MousePixelX:
		return t.mouseX, nil
	case MouseY, MousePixelY:
		return t.mouseY, nil
	case MouseWheel:
		return t.wheel, nil
	case StateWidth:
		return t.width, nil
	case StateHeight:
		return t.height, nil
	case StateCellWidth, StateCellHeight, StateFullscreen:
		return 1, nil
	}
	if code.IsMouseButton() {
		if containsCode(t.buttons, code) {
			return 1, nil
		}
		return 0, nil
	}
	if _, known := codeNames[code]; known && code < MouseLeft {
		for _, k := range t.pressed {
			if k.code == code {
				return 1, nil
			}
		}
		return 0, nil
	}
	return 0, errors.Wrapf(ErrUnknownState, "%v", code)
}
