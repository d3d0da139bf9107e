package event

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Type names a kind of event. Listeners subscribe to types, and only
// registered types can be queued.
type Type string

// Built-in event types
const (
	Tick       Type = "tick"         // time since the previous tick
	KeyDown    Type = "key_down"     // key or mouse button pressed
	KeyUp      Type = "key_up"       // key or mouse button released
	MiscInput  Type = "misc_input"   // mouse movement, window closing, etc.
	TextInput  Type = "text_input"   // an input field returns its text
	PlaySound  Type = "play_sound"   // sound ID to play
	SetBgSound Type = "set_bg_sound" // sound ID to loop, empty to stop
	Service    Type = "service"      // queue and loop status

	ECSCreate    Type = "ecs_create"
	ECSMove      Type = "ecs_move"
	ECSCollision Type = "ecs_collision"
	ECSAdd       Type = "ecs_add"
	ECSDestroy   Type = "ecs_destroy"
	ECSRemove    Type = "ecs_remove"
	ECSScrollBy  Type = "ecs_scroll_by"
	ECSScrollTo  Type = "ecs_scroll_to"
	ECSUpdate    Type = "ecs_update"

	// All selects every registered type when subscribing
	All Type = "all"
)

// Values of Service events
const (
	QueueStarted  = "Queue started"
	TickOver      = "tick_over"
	ShutdownReady = "shutdown_ready"
	Shutdown      = "shutdown"
)

var builtinTypes = []Type{
	Tick, KeyDown, KeyUp, MiscInput, TextInput, PlaySound, SetBgSound, Service,
	ECSCreate, ECSMove, ECSCollision, ECSAdd, ECSDestroy, ECSRemove,
	ECSScrollBy, ECSScrollTo, ECSUpdate}

// ErrUnknownEventType is returned for operations on unregistered types
var ErrUnknownEventType = errors.New("unknown event type")

// Event is a single queued event. Values are not validated.
type Event struct {
	Type  Type
	Value interface{}
}

// New returns an event of the given type
func New(t Type, value interface{}) Event {
	return Event{Type: t, Value: value}
}

// Is returns true if e is of type t and carries the given value
func (e Event) Is(t Type, value interface{}) bool {
	return e.Type == t && e.Value == value
}

// Listener receives dispatched events. Whatever it returns is appended to
// the queue in order.
type Listener interface {
	OnEvent(Event) []Event
}

type subscription struct {
	listener Listener
	active   bool
}

// Dispatcher queues events and hands them to subscribed listeners in FIFO
// order
type Dispatcher struct {
	listeners map[Type][]*subscription
	queue     []Event
}

// NewDispatcher returns a dispatcher with the built-in event types
// registered
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{listeners: make(map[Type][]*subscription)}
	for _, t := range builtinTypes {
		d.listeners[t] = nil
	}
	return d
}

// RegisterEventType makes t available for queueing and subscription.
// Listeners registered earlier with All or a mask are not subscribed to it.
func (d *Dispatcher) RegisterEventType(t Type) error {
	if t == "" || t == All || strings.HasPrefix(string(t), "*") {
		return errors.Errorf("invalid event type %q", t)
	}
	if _, found := d.listeners[t]; !found {
		d.listeners[t] = nil
	}
	return nil
}

// EventTypes returns the registered types in lexical order
func (d *Dispatcher) EventTypes() []Type {
	types := make([]Type, 0, len(d.listeners))
	for t := range d.listeners {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Registered returns true if t can be queued
func (d *Dispatcher) Registered(t Type) bool {
	_, found := d.listeners[t]
	return found
}

func (d *Dispatcher) expand(selectors []Type) ([]Type, error) {
	if len(selectors) == 0 {
		return d.EventTypes(), nil
	}
	var types []Type
	for _, sel := range selectors {
		switch {
		case sel == All:
			types = append(types, d.EventTypes()...)
		case strings.HasPrefix(string(sel), "*"):
			mask := string(sel[1:])
			for _, t := range d.EventTypes() {
				if strings.Contains(string(t), mask) {
					types = append(types, t)
				}
			}
		default:
			if !d.Registered(sel) {
				return nil, errors.Wrapf(ErrUnknownEventType, "%q", sel)
			}
			types = append(types, sel)
		}
	}
	return types, nil
}

// RegisterListener subscribes l to the selected event types. A selector is
// either a type name, All, or "*mask" for every registered type containing
// mask. No selectors means All. The listener is subscribed to nothing if any
// selector names an unregistered type.
func (d *Dispatcher) RegisterListener(l Listener, selectors ...Type) error {
	types, err := d.expand(selectors)
	if err != nil {
		return err
	}
	for _, t := range types {
		if d.subscribed(l, t) {
			continue
		}
		d.listeners[t] = append(d.listeners[t], &subscription{listener: l, active: true})
	}
	return nil
}

func (d *Dispatcher) subscribed(l Listener, t Type) bool {
	for _, s := range d.listeners[t] {
		if s.listener == l {
			return true
		}
	}
	return false
}

// Subscribed returns true if l receives events of type t
func (d *Dispatcher) Subscribed(l Listener, t Type) bool {
	return d.subscribed(l, t)
}

// UnregisterListener unsubscribes l from the given types, or from all of
// them if none are given. Types l is not subscribed to are ignored.
func (d *Dispatcher) UnregisterListener(l Listener, types ...Type) error {
	if len(types) == 0 || (len(types) == 1 && types[0] == All) {
		types = d.EventTypes()
	}
	for _, t := range types {
		subs, found := d.listeners[t]
		if !found {
			return errors.Wrapf(ErrUnknownEventType, "cannot unsubscribe from %q", t)
		}
		for i, s := range subs {
			if s.listener == l {
				s.active = false
				d.listeners[t] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
	return nil
}

// AddEvent appends e to the queue
func (d *Dispatcher) AddEvent(e Event) error {
	if !d.Registered(e.Type) {
		return errors.Wrapf(ErrUnknownEventType, "%q", e.Type)
	}
	d.queue = append(d.queue, e)
	return nil
}

// AddEvents appends every event to the queue, stopping at the first error
func (d *Dispatcher) AddEvents(events []Event) error {
	for _, e := range events {
		if err := d.AddEvent(e); err != nil {
			return err
		}
	}
	return nil
}

// StartQueue queues the service event announcing that the queue started
func (d *Dispatcher) StartQueue() {
	d.queue = append(d.queue, Event{Type: Service, Value: QueueStarted})
}

// Pending returns the number of queued events
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// DispatchEvents hands every queued event to its listeners until the queue
// is empty, including the events listeners return along the way.
func (d *Dispatcher) DispatchEvents() error {
	for len(d.queue) > 0 {
		e := d.queue[0]
		d.queue[0] = Event{}
		d.queue = d.queue[1:]
		// Listeners may (un)subscribe while handling e
		subs := append([]*subscription(nil), d.listeners[e.Type]...)
		for _, s := range subs {
			if !s.active {
				continue
			}
			if err := d.AddEvents(s.listener.OnEvent(e)); err != nil {
				return errors.Wrapf(err, "listener %T returned an invalid event", s.listener)
			}
		}
	}
	return nil
}
