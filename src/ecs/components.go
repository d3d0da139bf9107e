package ecs

import (
	"encoding/json"
	"math"
	"time"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/widget"
)

// WidgetComponent draws the entity. It passes every event it gets to the
// widget, so animations keep running; it subscribes to tick.
type WidgetComponent struct {
	BaseComponent
	widget widget.Widget
}

// NewWidgetComponent wraps w. With a nil dispatcher nothing is subscribed.
func NewWidgetComponent(d *event.Dispatcher, w widget.Widget) (*WidgetComponent, error) {
	c := &WidgetComponent{}
	if err := c.initWidget(c, d, w); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *WidgetComponent) initWidget(self Component, d *event.Dispatcher, w widget.Widget) error {
	if w == nil {
		return errors.Wrap(ErrECS, "WidgetComponent needs a widget")
	}
	c.widget = w
	if err := c.Init(self, d, "widget"); err != nil {
		return err
	}
	if d != nil {
		return c.Subscribe(event.Tick)
	}
	return nil
}

func (c *WidgetComponent) widgetComponent() *WidgetComponent {
	return c
}

// Widget returns the wrapped widget
func (c *WidgetComponent) Widget() widget.Widget {
	return c.widget
}

// OnEvent forwards the event to the widget
func (c *WidgetComponent) OnEvent(e event.Event) []event.Event {
	return c.widget.OnEvent(e)
}

// Size returns the widget size
func (c *WidgetComponent) Size() (int, int) {
	return c.widget.Size()
}

// Width returns the widget width
func (c *WidgetComponent) Width() int {
	w, _ := c.widget.Size()
	return w
}

// Height returns the widget height
func (c *WidgetComponent) Height() int {
	_, h := c.widget.Size()
	return h
}

// ZLevel returns the widget z-level
func (c *WidgetComponent) ZLevel() int {
	return c.widget.ZLevel()
}

// SetZLevel changes the widget z-level
func (c *WidgetComponent) SetZLevel(z int) {
	c.widget.SetZLevel(z)
}

func (c *WidgetComponent) marshal(class string) ([]byte, error) {
	w, err := json.Marshal(c.widget)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Class  string          `json:"class"`
		Widget json.RawMessage `json:"widget"`
	}{class, w})
}

// MarshalJSON stores the widget
func (c *WidgetComponent) MarshalJSON() ([]byte, error) {
	return c.marshal("WidgetComponent")
}

// SwitchWidgetComponent is a widget component for a SwitchingWidget, so that
// other components can switch images without touching the widget
type SwitchWidgetComponent struct {
	WidgetComponent
	switching *widget.SwitchingWidget
}

// NewSwitchWidgetComponent wraps w
func NewSwitchWidgetComponent(d *event.Dispatcher, w *widget.SwitchingWidget) (*SwitchWidgetComponent, error) {
	if w == nil {
		return nil, errors.Wrap(ErrECS, "SwitchWidgetComponent can only be used with SwitchingWidget")
	}
	c := &SwitchWidgetComponent{switching: w}
	if err := c.initWidget(c, d, w); err != nil {
		return nil, err
	}
	return c, nil
}

// SwitchToImage shows another image of the widget
func (c *SwitchWidgetComponent) SwitchToImage(id string) error {
	return c.switching.SwitchToImage(id)
}

// ValidateImage returns true if the widget has an image with this ID
func (c *SwitchWidgetComponent) ValidateImage(id string) bool {
	return c.switching.HasImage(id)
}

// MarshalJSON stores the widget
func (c *SwitchWidgetComponent) MarshalJSON() ([]byte, error) {
	return c.marshal("SwitchWidgetComponent")
}

// PositionComponent places the entity on an ECS layout. Coordinates are in
// cells, velocities in cells per second.
//
// Every move emits ecs_move and, with AffectZ, sets the widget z-level to
// y + height, so that entities lower on the screen are drawn in front.
type PositionComponent struct {
	BaseComponent
	x        int
	y        int
	vx       float64
	vy       float64
	xDelay   float64
	yDelay   float64
	xWaited  float64
	yWaited  float64
	LastMove [2]int
	AffectZ  bool
}

// NewPositionComponent returns a motionless position at x, y. It subscribes
// to tick.
func NewPositionComponent(d *event.Dispatcher, x, y int) (*PositionComponent, error) {
	c := &PositionComponent{x: x, y: y, LastMove: [2]int{1, 0}, AffectZ: true}
	if err := c.Init(c, d, "position"); err != nil {
		return nil, err
	}
	if d != nil {
		if err := c.Subscribe(event.Tick); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Pos returns x and y
func (c *PositionComponent) Pos() (int, int) {
	return c.x, c.y
}

// X returns the column of the top left corner
func (c *PositionComponent) X() int {
	return c.x
}

// Y returns the row of the top left corner
func (c *PositionComponent) Y() int {
	return c.y
}

// Velocity returns vx and vy
func (c *PositionComponent) Velocity() (float64, float64) {
	return c.vx, c.vy
}

func delay(v float64) float64 {
	if v == 0 {
		return 0
	}
	return math.Abs(1 / v)
}

// SetVelocity changes the speed. Zero stops the movement along that axis.
func (c *PositionComponent) SetVelocity(vx, vy float64) {
	c.vx, c.vy = vx, vy
	c.xDelay, c.yDelay = delay(vx), delay(vy)
}

// Move puts the entity at x, y and remembers the step in LastMove, so that
// it can be undone. Emit is false when the entity is not on a layout yet.
func (c *PositionComponent) Move(x, y int, emit bool) {
	c.LastMove = [2]int{x - c.x, y - c.y}
	c.x, c.y = x, y
	if c.owner == nil {
		if emit {
			astilog.Errorf("Cannot move a position without an owner")
		}
		return
	}
	if w := c.owner.Widget(); c.AffectZ && w != nil {
		w.SetZLevel(y + w.Height())
	}
	if emit {
		c.emit(event.New(event.ECSMove, Move{ID: c.owner.ID, X: x, Y: y}))
	}
}

// RelativeMove moves the entity by dx, dy
func (c *PositionComponent) RelativeMove(dx, dy int, emit bool) {
	c.Move(c.x+dx, c.y+dy, emit)
}

func step(v, waited, delay float64) int {
	n := int(math.RoundToEven(waited / delay))
	if v < 0 {
		return -n
	}
	return n
}

// OnEvent moves the entity according to its velocity
func (c *PositionComponent) OnEvent(e event.Event) []event.Event {
	if e.Type != event.Tick || (c.vx == 0 && c.vy == 0) {
		return nil
	}
	elapsed, _ := e.Value.(time.Duration)
	c.xWaited += elapsed.Seconds()
	c.yWaited += elapsed.Seconds()
	x, y := c.x, c.y
	if c.xDelay > 0 && c.xWaited > c.xDelay {
		x += step(c.vx, c.xWaited, c.xDelay)
		c.xWaited = 0
	}
	if c.yDelay > 0 && c.yWaited > c.yDelay {
		y += step(c.vy, c.yWaited, c.yDelay)
		c.yWaited = 0
	}
	if x != c.x || y != c.y {
		c.Move(x, y, true)
	}
	return nil
}

type positionJSON struct {
	Class    string  `json:"class"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	LastMove *[2]int `json:"last_move,omitempty"`
	AffectZ  *bool   `json:"affect_z,omitempty"`
}

// MarshalJSON stores position, velocity and the last move
func (c *PositionComponent) MarshalJSON() ([]byte, error) {
	affectZ, lastMove := c.AffectZ, c.LastMove
	return json.Marshal(positionJSON{
		Class:    "PositionComponent",
		X:        c.x,
		Y:        c.y,
		VX:       c.vx,
		VY:       c.vy,
		LastMove: &lastMove,
		AffectZ:  &affectZ})
}

// DestructorComponent removes its entity cleanly. Destroy emits ecs_destroy
// and unsubscribes every other component right away, so that no new events
// involving the entity are produced. The components are removed when the
// tick is over, after the events already queued have been handled.
type DestructorComponent struct {
	BaseComponent
	destroying bool
}

// NewDestructorComponent returns a destructor subscribed to service events
func NewDestructorComponent(d *event.Dispatcher) (*DestructorComponent, error) {
	c := &DestructorComponent{}
	if err := c.Init(c, d, "destructor"); err != nil {
		return nil, err
	}
	if err := c.Subscribe(event.Service); err != nil {
		return nil, err
	}
	return c, nil
}

// Destroying returns true once Destroy was called
func (c *DestructorComponent) Destroying() bool {
	return c.destroying
}

// Destroy starts the destruction of the owner. Calling it again does
// nothing.
func (c *DestructorComponent) Destroy() {
	if c.destroying {
		return
	}
	if c.owner == nil {
		astilog.Error("Destructor has nothing to destroy")
		return
	}
	c.destroying = true
	c.emit(event.New(event.ECSDestroy, c.owner.ID))
	for _, name := range c.owner.Components() {
		if name != c.name {
			c.owner.components[name].Unsubscribe()
		}
	}
}

// OnEvent removes every component once the tick is over
func (c *DestructorComponent) OnEvent(e event.Event) []event.Event {
	if !c.destroying || !e.Is(event.Service, event.TickOver) || c.owner == nil {
		return nil
	}
	owner := c.owner
	for _, name := range owner.Components() {
		if name == c.name {
			continue
		}
		owner.components[name].Unsubscribe()
		owner.RemoveComponent(name)
	}
	c.Unsubscribe()
	owner.RemoveComponent(c.name)
	return nil
}

// MarshalJSON stores whether the entity is being destroyed
func (c *DestructorComponent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Class      string `json:"class"`
		Destroying bool   `json:"is_destroying"`
	}{"DestructorComponent", c.destroying})
}

// Collider handles collisions reported to a CollisionComponent. The IDs
// are those of the other entity; an empty ID means a layout edge.
type Collider interface {
	CollidedInto(other string)
	CollidedBy(other string)
}

// CollisionOptions describe the hitbox of an entity
type CollisionOptions struct {
	// Number of extra z-levels below its own the entity collides on
	Depth int
	// Offset of every next z-level from the previous one
	ZShift [2]int
	// Upper left corner of the collidable part on the top z-level
	FacePosition [2]int
	// Size of the collidable part. Zero means the whole widget.
	FaceSize [2]int
	// Whether other entities may move through this one. The base component
	// does nothing with it.
	Passable bool
}

// CollisionComponent receives ecs_collision events involving its owner and
// passes them to its Collider. By itself the component is the Collider and
// ignores collisions; types embedding it replace the Collider with Bind.
type CollisionComponent struct {
	BaseComponent
	CollisionOptions
	collider Collider
}

// NewCollisionComponent returns a component subscribed to ecs_collision
func NewCollisionComponent(d *event.Dispatcher, opts CollisionOptions) (*CollisionComponent, error) {
	c := &CollisionComponent{}
	if err := c.initCollision(c, c, d, opts); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CollisionComponent) initCollision(self Component, collider Collider, d *event.Dispatcher, opts CollisionOptions) error {
	if opts.Depth < 0 || opts.FaceSize[0] < 0 || opts.FaceSize[1] < 0 {
		return errors.Wrap(ErrECS, "invalid collision depth or face size")
	}
	c.CollisionOptions = opts
	c.Bind(collider)
	if err := c.Init(self, d, "collision"); err != nil {
		return err
	}
	return c.Subscribe(event.ECSCollision)
}

// Bind sets what handles the collisions
func (c *CollisionComponent) Bind(collider Collider) {
	c.collider = collider
}

func (c *CollisionComponent) collisionComponent() *CollisionComponent {
	return c
}

// OnEvent calls the Collider if the owner is involved
func (c *CollisionComponent) OnEvent(e event.Event) []event.Event {
	col, ok := e.Value.(Collision)
	if e.Type != event.ECSCollision || !ok || c.owner == nil {
		return nil
	}
	switch c.owner.ID {
	case col.Moved:
		c.collider.CollidedInto(col.Other)
	case col.Other:
		c.collider.CollidedBy(col.Moved)
	}
	return nil
}

// CollidedInto does nothing
func (c *CollisionComponent) CollidedInto(string) {}

// CollidedBy does nothing
func (c *CollisionComponent) CollidedBy(string) {}

type collisionJSON struct {
	Class        string `json:"class"`
	Depth        int    `json:"depth"`
	ZShift       [2]int `json:"z_shift"`
	FacePosition [2]int `json:"face_position"`
	FaceSize     [2]int `json:"face_size"`
	Passable     bool   `json:"passable"`
}

func (c *CollisionComponent) marshal(class string) ([]byte, error) {
	return json.Marshal(collisionJSON{
		Class:        class,
		Depth:        c.Depth,
		ZShift:       c.ZShift,
		FacePosition: c.FacePosition,
		FaceSize:     c.FaceSize,
		Passable:     c.Passable})
}

// MarshalJSON stores the hitbox
func (c *CollisionComponent) MarshalJSON() ([]byte, error) {
	return c.marshal("CollisionComponent")
}

// WalkerCollisionComponent moves its entity back when it walks into
// something impassable or a layout edge. The step is undone at most once per
// tick and LastMove is kept, as if the step never happened.
type WalkerCollisionComponent struct {
	CollisionComponent
	// Used to look up the entities collided into
	Tracker  *EntityTracker
	collided bool
}

// NewWalkerCollisionComponent returns a component subscribed to
// ecs_collision and tick
func NewWalkerCollisionComponent(d *event.Dispatcher, opts CollisionOptions) (*WalkerCollisionComponent, error) {
	c := &WalkerCollisionComponent{Tracker: DefaultTracker()}
	if err := c.initCollision(c, c, d, opts); err != nil {
		return nil, err
	}
	if err := c.Subscribe(event.Tick); err != nil {
		return nil, err
	}
	return c, nil
}

// OnEvent resets the collision flag on every tick
func (c *WalkerCollisionComponent) OnEvent(e event.Event) []event.Event {
	if e.Type == event.Tick {
		c.collided = false
		return nil
	}
	return c.CollisionComponent.OnEvent(e)
}

// CollidedInto steps back from edges and impassable entities
func (c *WalkerCollisionComponent) CollidedInto(other string) {
	if c.collided || c.owner == nil {
		return
	}
	if other != "" {
		entity, found := c.Tracker.Entity(other)
		if !found {
			return
		}
		if col := entity.Collision(); col == nil || col.Passable {
			return
		}
	}
	pos := c.owner.Position()
	if pos == nil {
		astilog.Errorf("Walker %s has no position", c.owner.ID)
		return
	}
	last := pos.LastMove
	pos.RelativeMove(-last[0], -last[1], true)
	pos.LastMove = last
	c.collided = true
}

// MarshalJSON stores the hitbox
func (c *WalkerCollisionComponent) MarshalJSON() ([]byte, error) {
	return c.marshal("WalkerCollisionComponent")
}

// Conditions for DecayComponent
const (
	DecayOnKeypress = "keypress"
	DecayOnTimeout  = "timeout"
)

// DecayComponent destroys its entity when any key is pressed or when its
// lifetime is over. The owner needs a DestructorComponent.
type DecayComponent struct {
	BaseComponent
	condition string
	Lifetime  time.Duration
	Age       time.Duration
}

// NewDecayComponent returns a component subscribed to key_down or tick,
// depending on the condition. Lifetime matters only for timeouts.
func NewDecayComponent(d *event.Dispatcher, condition string, lifetime time.Duration) (*DecayComponent, error) {
	c := &DecayComponent{condition: condition, Lifetime: lifetime}
	if err := c.Init(c, d, "decay"); err != nil {
		return nil, err
	}
	switch condition {
	case DecayOnKeypress:
		return c, c.Subscribe(event.KeyDown)
	case DecayOnTimeout:
		return c, c.Subscribe(event.Tick)
	}
	return nil, errors.Wrapf(ErrECS, "destroy condition should be either keypress or timeout, got %q", condition)
}

// Condition returns what triggers the decay
func (c *DecayComponent) Condition() string {
	return c.condition
}

func (c *DecayComponent) destroy() {
	if c.owner == nil || c.owner.Destructor() == nil {
		astilog.Error("DecayComponent owner has no destructor")
		return
	}
	c.owner.Destructor().Destroy()
}

// OnEvent ages the entity or reacts to key presses
func (c *DecayComponent) OnEvent(e event.Event) []event.Event {
	switch {
	case c.condition == DecayOnKeypress && e.Type == event.KeyDown:
		c.destroy()
	case c.condition == DecayOnTimeout && e.Type == event.Tick:
		elapsed, _ := e.Value.(time.Duration)
		c.Age += elapsed
		if c.Age >= c.Lifetime {
			c.destroy()
		}
	}
	return nil
}

type decayJSON struct {
	Class     string  `json:"class"`
	Condition string  `json:"destroy_condition"`
	Lifetime  float64 `json:"lifetime"`
	Age       float64 `json:"age"`
}

// MarshalJSON stores the condition, lifetime and age in seconds
func (c *DecayComponent) MarshalJSON() ([]byte, error) {
	return json.Marshal(decayJSON{
		Class:     "DecayComponent",
		Condition: c.condition,
		Lifetime:  c.Lifetime.Seconds(),
		Age:       c.Age.Seconds()})
}
