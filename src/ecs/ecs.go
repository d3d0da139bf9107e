// Package ecs is a small entity-component system on top of the event queue.
//
// Entities are just an ID and a set of named components. Components are
// listeners: they subscribe to whatever events they need and talk to each
// other through their owner, e.g. a walker looks up owner.Position().
//
// The creation of an entity is announced with an ecs_create event carrying
// the *Entity itself. Every other ecs_* event carries IDs, never objects.
package ecs

import (
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/asticode/go-astilog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
)

// ErrECS is returned for invalid entities, components and ecs events
var ErrECS = errors.New("ecs error")

// Move is the value of ecs_move events
type Move struct {
	ID string
	X  int
	Y  int
}

// Placement is the value of ecs_add events
type Placement struct {
	ID string
	X  int
	Y  int
}

// Collision is the value of ecs_collision events. An empty Other means the
// moved entity hit the edge of a layout.
type Collision struct {
	Moved string
	Other string
}

// Offset is the value of ecs_scroll_to and ecs_scroll_by events
type Offset struct {
	X int
	Y int
}

// Component is a part of an entity. Every implementation embeds
// BaseComponent.
type Component interface {
	event.Listener
	json.Marshaler
	Name() string
	Owner() *Entity
	Dispatcher() *event.Dispatcher
	Unsubscribe()
	base() *BaseComponent
}

// BaseComponent implements the bookkeeping every component needs
type BaseComponent struct {
	name       string
	owner      *Entity
	dispatcher *event.Dispatcher
	self       Component
	subscribed bool
}

// Init sets up the component. Self is the value that embeds BaseComponent,
// it is what gets subscribed. The dispatcher may be nil for components that
// are never subscribed to anything.
func (c *BaseComponent) Init(self Component, d *event.Dispatcher, name string) error {
	if name == "" {
		return errors.Wrap(ErrECS, "cannot create a component without a name")
	}
	c.self, c.dispatcher, c.name = self, d, name
	return nil
}

func (c *BaseComponent) base() *BaseComponent {
	return c
}

// Name returns the name the component is stored under
func (c *BaseComponent) Name() string {
	return c.name
}

// Owner returns the entity the component belongs to, or nil
func (c *BaseComponent) Owner() *Entity {
	return c.owner
}

// Dispatcher returns the queue the component is subscribed to
func (c *BaseComponent) Dispatcher() *event.Dispatcher {
	return c.dispatcher
}

// Subscribe registers the component for the given event types
func (c *BaseComponent) Subscribe(types ...event.Type) error {
	if c.dispatcher == nil {
		return errors.Wrapf(ErrECS, "component %s has no dispatcher", c.name)
	}
	if err := c.dispatcher.RegisterListener(c.self, types...); err != nil {
		return err
	}
	c.subscribed = true
	return nil
}

// Subscribed returns true if the component was subscribed and not
// unsubscribed since
func (c *BaseComponent) Subscribed() bool {
	return c.subscribed
}

// Unsubscribe drops every subscription made with Subscribe
func (c *BaseComponent) Unsubscribe() {
	if c.dispatcher == nil || !c.subscribed {
		return
	}
	if err := c.dispatcher.UnregisterListener(c.self); err != nil {
		astilog.Errorf("Failed to unsubscribe %s: %v", c.name, err)
	}
	c.subscribed = false
}

// OnEvent does nothing
func (c *BaseComponent) OnEvent(event.Event) []event.Event {
	return nil
}

// emit queues an event, logging the failure
func (c *BaseComponent) emit(e event.Event) {
	if c.dispatcher == nil {
		astilog.Errorf("Component %s cannot emit %s without a dispatcher", c.name, e.Type)
		return
	}
	if err := c.dispatcher.AddEvent(e); err != nil {
		astilog.Errorf("Component %s: %v", c.name, err)
	}
}

func (c *BaseComponent) className() string {
	t := reflect.TypeOf(c.self)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "BaseComponent"
	}
	return t.Name()
}

// MarshalJSON stores only the class of the component. Components with state
// override it.
func (c *BaseComponent) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"class": c.className()})
}

// Entity is an ID and a set of components, one per name
type Entity struct {
	ID         string
	components map[string]Component
	order      []string
}

// NewEntity returns an entity with the given components. An empty ID is
// replaced with a random UUID. Uniqueness is not checked.
func NewEntity(id string, components ...Component) (*Entity, error) {
	if id == "" {
		id = uuid.NewString()
	}
	e := &Entity{ID: id, components: make(map[string]Component)}
	for _, c := range components {
		if err := e.AddComponent(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// AddComponent attaches c under its name, replacing the component that had
// the same name
func (e *Entity) AddComponent(c Component) error {
	if c == nil {
		return errors.Wrap(ErrECS, "only a Component can be added to an entity")
	}
	name := c.Name()
	if name == "id" || name == "components" {
		return errors.Wrapf(ErrECS, "cannot add component %s that shadows entity data", name)
	}
	if _, found := e.components[name]; !found {
		e.order = append(e.order, name)
	}
	e.components[name] = c
	c.base().owner = e
	return nil
}

// RemoveComponent detaches the component with the given name
func (e *Entity) RemoveComponent(name string) error {
	c, found := e.components[name]
	if !found {
		return errors.Wrapf(ErrECS, "cannot remove component %s that entity %s doesn't have", name, e.ID)
	}
	delete(e.components, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	c.base().owner = nil
	return nil
}

// Component returns the component with the given name
func (e *Entity) Component(name string) (Component, bool) {
	c, found := e.components[name]
	return c, found
}

// Components returns component names in the order they were added
func (e *Entity) Components() []string {
	return append([]string(nil), e.order...)
}

// Widget returns the widget component, or nil
func (e *Entity) Widget() *WidgetComponent {
	if c, ok := e.components["widget"].(interface{ widgetComponent() *WidgetComponent }); ok {
		return c.widgetComponent()
	}
	return nil
}

// Position returns the position component, or nil
func (e *Entity) Position() *PositionComponent {
	c, _ := e.components["position"].(*PositionComponent)
	return c
}

// Collision returns the collision component, or nil
func (e *Entity) Collision() *CollisionComponent {
	if c, ok := e.components["collision"].(interface{ collisionComponent() *CollisionComponent }); ok {
		return c.collisionComponent()
	}
	return nil
}

// Destructor returns the destructor component, or nil
func (e *Entity) Destructor() *DestructorComponent {
	c, _ := e.components["destructor"].(*DestructorComponent)
	return c
}

type entityJSON struct {
	ID         string                     `json:"id"`
	Components map[string]json.RawMessage `json:"components"`
}

// MarshalJSON stores the ID and every component
func (e *Entity) MarshalJSON() ([]byte, error) {
	d := entityJSON{ID: e.ID, Components: make(map[string]json.RawMessage, len(e.components))}
	for name, c := range e.components {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, errors.Wrapf(err, "component %s of %s", name, e.ID)
		}
		d.Components[name] = data
	}
	return json.Marshal(d)
}

// EntityTracker knows every entity that exists. It should be subscribed to
// ecs_create and ecs_destroy.
type EntityTracker struct {
	mutex    sync.RWMutex
	entities map[string]*Entity
}

var (
	defaultTracker *EntityTracker
	trackerOnce    sync.Once
)

// DefaultTracker returns the tracker shared by the whole process
func DefaultTracker() *EntityTracker {
	trackerOnce.Do(func() {
		defaultTracker = NewEntityTracker()
	})
	return defaultTracker
}

// NewEntityTracker returns an empty tracker
func NewEntityTracker() *EntityTracker {
	return &EntityTracker{entities: make(map[string]*Entity)}
}

// OnEvent registers created entities and forgets destroyed ones
func (t *EntityTracker) OnEvent(e event.Event) []event.Event {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	switch e.Type {
	case event.ECSCreate:
		if entity, ok := e.Value.(*Entity); ok {
			t.entities[entity.ID] = entity
		}
	case event.ECSDestroy:
		if id, ok := e.Value.(string); ok {
			delete(t.entities, id)
		}
	}
	return nil
}

// Entity returns the entity with the given ID
func (t *EntityTracker) Entity(id string) (*Entity, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	e, found := t.entities[id]
	return e, found
}

// FilterEntities returns every entity for which pred is true, sorted by ID
func (t *EntityTracker) FilterEntities(pred func(*Entity) bool) []*Entity {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	var r []*Entity
	for _, e := range t.entities {
		if pred == nil || pred(e) {
			r = append(r, e)
		}
	}
	sort.Slice(r, func(i, j int) bool { return r[i].ID < r[j].ID })
	return r
}
