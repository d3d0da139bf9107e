package ecs

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/widget"
)

// DecodeContext is what component decoders get besides the JSON
type DecodeContext struct {
	Dispatcher *event.Dispatcher
	// Resolves atlas-backed widget images. May be nil.
	Elements widget.ElementSource
}

// Widget decodes a widget stored in component JSON
func (ctx DecodeContext) Widget(data json.RawMessage) (widget.Widget, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrECS, "no widget in component JSON")
	}
	return widget.Deserialize(data, ctx.Elements)
}

// ComponentDecoder creates a component from its JSON
type ComponentDecoder func(data []byte, ctx DecodeContext) (Component, error)

var (
	componentMutex   sync.RWMutex
	componentClasses = map[string]ComponentDecoder{
		"BaseComponent":            decodeBaseComponent,
		"WidgetComponent":          decodeWidgetComponent,
		"SwitchWidgetComponent":    decodeSwitchWidgetComponent,
		"PositionComponent":        decodePositionComponent,
		"DestructorComponent":      decodeDestructorComponent,
		"CollisionComponent":       decodeCollisionComponent,
		"WalkerCollisionComponent": decodeWalkerCollisionComponent,
		"DecayComponent":           decodeDecayComponent,
	}
)

// RegisterComponent makes a custom component class available to
// DeserializeComponent. The class name is the "class" value its JSON
// carries.
func RegisterComponent(class string, decoder ComponentDecoder) error {
	if class == "" || decoder == nil {
		return errors.Wrap(ErrECS, "component class needs a name and a decoder")
	}
	componentMutex.Lock()
	defer componentMutex.Unlock()
	if _, found := componentClasses[class]; found {
		return errors.Wrapf(ErrECS, "component class %s is already registered", class)
	}
	componentClasses[class] = decoder
	return nil
}

// DeserializeComponent creates a component from its JSON. The component
// subscribes itself to d, but is not attached to any entity. Elements may be
// nil if no widget in the JSON refers to an atlas.
func DeserializeComponent(data []byte, d *event.Dispatcher, elements widget.ElementSource) (Component, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(widget.ErrSerialization, err.Error())
	}
	for _, key := range []string{"name", "owner", "dispatcher"} {
		if _, found := fields[key]; found {
			return nil, errors.Wrapf(widget.ErrSerialization, "forbidden key %s in component JSON", key)
		}
	}
	var class string
	if err := json.Unmarshal(fields["class"], &class); err != nil || class == "" {
		return nil, errors.Wrap(widget.ErrSerialization, "no class provided in component JSON")
	}
	componentMutex.RLock()
	decoder, found := componentClasses[class]
	componentMutex.RUnlock()
	if !found {
		return nil, errors.Wrapf(widget.ErrSerialization, "unknown component class %s", class)
	}
	for key := range fields {
		if strings.HasSuffix(key, "_type") {
			delete(fields, key)
		}
	}
	clean, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.Wrap(widget.ErrSerialization, err.Error())
	}
	return decoder(clean, DecodeContext{Dispatcher: d, Elements: elements})
}

// DeserializeEntity creates an entity with all its components. Nothing is
// emitted; the caller should announce the entity with ecs_create.
func DeserializeEntity(data []byte, d *event.Dispatcher, elements widget.ElementSource) (*Entity, error) {
	var e entityJSON
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(widget.ErrSerialization, err.Error())
	}
	if e.ID == "" {
		return nil, errors.Wrap(widget.ErrSerialization, "no id in entity JSON")
	}
	names := make([]string, 0, len(e.Components))
	for name := range e.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	components := make([]Component, 0, len(names))
	for _, name := range names {
		c, err := DeserializeComponent(e.Components[name], d, elements)
		if err != nil {
			return nil, errors.Wrapf(err, "component %s of %s", name, e.ID)
		}
		components = append(components, c)
	}
	return NewEntity(e.ID, components...)
}

// SaveEntities writes entities to path as a JSON list. The file is replaced
// atomically, so a crash never leaves a half-written save.
func SaveEntities(path string, entities []*Entity) error {
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0o644)
}

// LoadEntities reads entities written by SaveEntities
func LoadEntities(path string, d *event.Dispatcher, elements widget.ElementSource) ([]*Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrapf(widget.ErrSerialization, "%s: %v", path, err)
	}
	entities := make([]*Entity, 0, len(list))
	for _, item := range list {
		e, err := DeserializeEntity(item, d, elements)
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(widget.ErrSerialization, err.Error())
	}
	return nil
}

func decodeBaseComponent(data []byte, ctx DecodeContext) (Component, error) {
	c := &BaseComponent{}
	if err := c.Init(c, ctx.Dispatcher, "base"); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeWidgetComponent(data []byte, ctx DecodeContext) (Component, error) {
	var d struct {
		Widget json.RawMessage `json:"widget"`
	}
	if err := unmarshal(data, &d); err != nil {
		return nil, err
	}
	w, err := ctx.Widget(d.Widget)
	if err != nil {
		return nil, err
	}
	return NewWidgetComponent(ctx.Dispatcher, w)
}

func decodeSwitchWidgetComponent(data []byte, ctx DecodeContext) (Component, error) {
	var d struct {
		Widget json.RawMessage `json:"widget"`
	}
	if err := unmarshal(data, &d); err != nil {
		return nil, err
	}
	w, err := ctx.Widget(d.Widget)
	if err != nil {
		return nil, err
	}
	s, ok := w.(*widget.SwitchingWidget)
	if !ok {
		return nil, errors.Wrapf(ErrECS, "SwitchWidgetComponent got %T", w)
	}
	return NewSwitchWidgetComponent(ctx.Dispatcher, s)
}

func decodePositionComponent(data []byte, ctx DecodeContext) (Component, error) {
	var d positionJSON
	if err := unmarshal(data, &d); err != nil {
		return nil, err
	}
	c, err := NewPositionComponent(ctx.Dispatcher, d.X, d.Y)
	if err != nil {
		return nil, err
	}
	c.SetVelocity(d.VX, d.VY)
	if d.LastMove != nil {
		c.LastMove = *d.LastMove
	}
	if d.AffectZ != nil {
		c.AffectZ = *d.AffectZ
	}
	return c, nil
}

func decodeDestructorComponent(data []byte, ctx DecodeContext) (Component, error) {
	var d struct {
		Destroying bool `json:"is_destroying"`
	}
	if err := unmarshal(data, &d); err != nil {
		return nil, err
	}
	c, err := NewDestructorComponent(ctx.Dispatcher)
	if err != nil {
		return nil, err
	}
	c.destroying = d.Destroying
	return c, nil
}

func (d collisionJSON) options() CollisionOptions {
	return CollisionOptions{
		Depth:        d.Depth,
		ZShift:       d.ZShift,
		FacePosition: d.FacePosition,
		FaceSize:     d.FaceSize,
		Passable:     d.Passable}
}

func decodeCollisionComponent(data []byte, ctx DecodeContext) (Component, error) {
	var d collisionJSON
	if err := unmarshal(data, &d); err != nil {
		return nil, err
	}
	return NewCollisionComponent(ctx.Dispatcher, d.options())
}

func decodeWalkerCollisionComponent(data []byte, ctx DecodeContext) (Component, error) {
	var d collisionJSON
	if err := unmarshal(data, &d); err != nil {
		return nil, err
	}
	return NewWalkerCollisionComponent(ctx.Dispatcher, d.options())
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func decodeDecayComponent(data []byte, ctx DecodeContext) (Component, error) {
	d := decayJSON{Condition: DecayOnKeypress, Lifetime: 1}
	if err := unmarshal(data, &d); err != nil {
		return nil, err
	}
	c, err := NewDecayComponent(ctx.Dispatcher, d.Condition, seconds(d.Lifetime))
	if err != nil {
		return nil, err
	}
	c.Age = seconds(d.Age)
	return c, nil
}
