package widget

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
)

// Animation is a sequence of equally sized frames shown at a given rate.
//
// If FrameIDs are set, the animation is serialized as a list of atlas
// element names instead of frame dumps. Whether the names are valid is not
// checked until deserialization.
type Animation struct {
	Frames   []tui.Image
	FPS      float64
	FrameIDs []string
}

// NewAnimation validates the frames. FPS higher than the loop FPS is
// effectively capped by the latter.
func NewAnimation(frames []tui.Image, fps float64, frameIDs []string) (*Animation, error) {
	if len(frames) == 0 {
		return nil, errors.Wrap(ErrWidget, "animation needs at least one frame")
	}
	if fps <= 0 {
		return nil, errors.Wrapf(ErrWidget, "invalid animation fps: %v", fps)
	}
	width, height := frames[0].Size()
	for i, frame := range frames {
		if _, err := tui.NewImage(frame.Chars, frame.Colors); err != nil {
			return nil, errors.Wrapf(ErrWidget, "frame %d: %v", i, err)
		}
		if w, h := frame.Size(); w != width || h != height {
			return nil, errors.Wrap(ErrWidget, "frames should be equal size")
		}
	}
	if frameIDs != nil && len(frameIDs) != len(frames) {
		return nil, errors.Wrap(ErrSerialization, "incorrect frame IDs length during Animation creation")
	}
	return &Animation{Frames: frames, FPS: fps, FrameIDs: frameIDs}, nil
}

// Len returns the number of frames
func (a *Animation) Len() int {
	return len(a.Frames)
}

// FrameTime returns how long every frame is shown
func (a *Animation) FrameTime() time.Duration {
	return time.Duration(float64(time.Second) / a.FPS)
}

type animationJSON struct {
	FPS         float64       `json:"fps"`
	StorageType string        `json:"storage_type"`
	FrameIDs    []string      `json:"frame_ids,omitempty"`
	Frames      [][2][]string `json:"frames,omitempty"`
}

// MarshalJSON stores frame IDs if there are any, or the frames themselves
func (a *Animation) MarshalJSON() ([]byte, error) {
	d := animationJSON{FPS: a.FPS}
	if a.FrameIDs != nil {
		d.StorageType = "atlas"
		d.FrameIDs = a.FrameIDs
	} else {
		d.StorageType = "dump"
		for _, frame := range a.Frames {
			chars, colors := encodeImage(frame)
			d.Frames = append(d.Frames, [2][]string{chars, colors})
		}
	}
	return json.Marshal(d)
}

// DecodeAnimation restores an animation. Animations stored as frame IDs
// need a source to look the frames up in.
func DecodeAnimation(data []byte, source ElementSource) (*Animation, error) {
	var d animationJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	var frames []tui.Image
	switch d.StorageType {
	case "atlas":
		if source == nil {
			return nil, errors.Wrap(ErrSerialization, "animation storage type set to atlas, but atlas was not supplied")
		}
		for _, id := range d.FrameIDs {
			img, err := source.Element(id)
			if err != nil {
				return nil, errors.Wrap(ErrSerialization, err.Error())
			}
			frames = append(frames, img)
		}
		return NewAnimation(frames, d.FPS, d.FrameIDs)
	case "dump":
		for _, dump := range d.Frames {
			img, err := decodeImage(dump[0], dump[1])
			if err != nil {
				return nil, err
			}
			frames = append(frames, img)
		}
		return NewAnimation(frames, d.FPS, nil)
	}
	return nil, errors.Wrapf(ErrSerialization, "incorrect Animation storage_type: %s", d.StorageType)
}

// animator keeps track of the running frame
type animator struct {
	index  int
	waited time.Duration
}

// advance returns true if it's time to show the next frame
func (a *animator) advance(e event.Event, frameTime time.Duration) bool {
	elapsed, _ := e.Value.(time.Duration)
	a.waited += elapsed
	if a.waited < frameTime {
		return false
	}
	a.waited = 0
	return true
}

func ecsUpdate() []event.Event {
	return []event.Event{event.New(event.ECSUpdate, nil)}
}

// SimpleAnimationWidget cycles through the frames of an animation
type SimpleAnimationWidget struct {
	Base
	animator
	animation *Animation
	// Emit ecs_update on every frame. Widgets on an ECS layout are not
	// redrawn unless something emits it.
	EmitECS bool
}

// NewSimpleAnimationWidget starts from the first frame
func NewSimpleAnimationWidget(animation *Animation, emitECS bool) (*SimpleAnimationWidget, error) {
	if animation == nil {
		return nil, errors.Wrap(ErrWidget, "SimpleAnimationWidget needs an animation")
	}
	w := &SimpleAnimationWidget{animation: animation, EmitECS: emitECS}
	w.Bind(w)
	if err := w.init(animation.Frames[0].Chars, animation.Frames[0].Colors); err != nil {
		return nil, err
	}
	return w, nil
}

// Animation returns the animation being played
func (w *SimpleAnimationWidget) Animation() *Animation {
	return w.animation
}

// OnEvent switches frames on tick
func (w *SimpleAnimationWidget) OnEvent(e event.Event) []event.Event {
	switch {
	case e.Type == event.Tick:
		if w.advance(e, w.animation.FrameTime()) {
			w.index = (w.index + 1) % w.animation.Len()
			frame := w.animation.Frames[w.index]
			w.chars, w.colors = frame.Chars, frame.Colors
			if w.EmitECS {
				return ecsUpdate()
			}
		}
	case e.Is(event.Service, event.TickOver):
		w.Redraw()
	}
	return nil
}

type simpleAnimationJSON struct {
	Class     string          `json:"class"`
	Animation json.RawMessage `json:"animation"`
	EmitECS   bool            `json:"emit_ecs"`
}

// MarshalJSON stores the animation
func (w *SimpleAnimationWidget) MarshalJSON() ([]byte, error) {
	anim, err := json.Marshal(w.animation)
	if err != nil {
		return nil, err
	}
	return json.Marshal(simpleAnimationJSON{
		Class:     "SimpleAnimationWidget",
		Animation: anim,
		EmitECS:   w.EmitECS})
}

func decodeSimpleAnimationWidget(data []byte, source ElementSource) (Widget, error) {
	var d simpleAnimationJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	anim, err := DecodeAnimation(d.Animation, source)
	if err != nil {
		return nil, err
	}
	return NewSimpleAnimationWidget(anim, d.EmitECS)
}

// MultipleAnimationWidget plays one of several named animations. Unless it
// is set to cycle, an animation stops at its last frame.
type MultipleAnimationWidget struct {
	Base
	animator
	animations map[string]*Animation
	current    string
	cycle      bool
	running    bool
	// See SimpleAnimationWidget.EmitECS
	EmitECS bool
}

// NewMultipleAnimationWidget starts playing the initial animation
func NewMultipleAnimationWidget(animations map[string]*Animation, initial string, emitECS, cycle bool) (*MultipleAnimationWidget, error) {
	if initial == "" {
		return nil, errors.Wrap(ErrWidget, "initial animation ID should be provided")
	}
	for id, anim := range animations {
		if anim == nil {
			return nil, errors.Wrapf(ErrWidget, "animation %s is nil", id)
		}
	}
	first, found := animations[initial]
	if !found {
		return nil, errors.Wrapf(ErrWidget, "incorrect initial animation ID %s", initial)
	}
	w := &MultipleAnimationWidget{
		animations: animations,
		current:    initial,
		cycle:      cycle,
		running:    true,
		EmitECS:    emitECS}
	w.Bind(w)
	if err := w.init(first.Frames[0].Chars, first.Frames[0].Colors); err != nil {
		return nil, err
	}
	return w, nil
}

// Animation returns the animation being played
func (w *MultipleAnimationWidget) Animation() *Animation {
	return w.animations[w.current]
}

// CurrentAnimation returns the ID of the animation being played
func (w *MultipleAnimationWidget) CurrentAnimation() string {
	return w.current
}

// Running returns false once a non-cycling animation has reached its end
func (w *MultipleAnimationWidget) Running() bool {
	return w.running
}

// SetAnimation starts playing another animation from its first frame
func (w *MultipleAnimationWidget) SetAnimation(id string, cycle bool) error {
	anim, found := w.animations[id]
	if !found {
		return errors.Wrapf(ErrWidget, "incorrect animation ID %s", id)
	}
	w.current = id
	w.cycle = cycle
	w.running = true
	w.animator = animator{}
	w.chars, w.colors = anim.Frames[0].Chars, anim.Frames[0].Colors
	return nil
}

// OnEvent switches frames on tick
func (w *MultipleAnimationWidget) OnEvent(e event.Event) []event.Event {
	switch {
	case e.Type == event.Tick && w.running:
		anim := w.Animation()
		if w.advance(e, anim.FrameTime()) {
			w.index++
			if w.index >= anim.Len() {
				if w.cycle {
					w.index = 0
				} else {
					w.index = anim.Len() - 1
					w.running = false
				}
			}
			frame := anim.Frames[w.index]
			w.chars, w.colors = frame.Chars, frame.Colors
			if w.EmitECS {
				return ecsUpdate()
			}
		}
	case e.Is(event.Service, event.TickOver):
		w.Redraw()
	}
	return nil
}

type multipleAnimationJSON struct {
	Class            string                     `json:"class"`
	Animations       map[string]json.RawMessage `json:"animations"`
	InitialAnimation string                     `json:"initial_animation"`
	EmitECS          bool                       `json:"emit_ecs"`
	Cycle            bool                       `json:"cycle"`
}

// MarshalJSON stores every animation and the current animation ID
func (w *MultipleAnimationWidget) MarshalJSON() ([]byte, error) {
	d := multipleAnimationJSON{
		Class:            "MultipleAnimationWidget",
		Animations:       make(map[string]json.RawMessage),
		InitialAnimation: w.current,
		EmitECS:          w.EmitECS,
		Cycle:            w.cycle}
	ids := make([]string, 0, len(w.animations))
	for id := range w.animations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		anim, err := json.Marshal(w.animations[id])
		if err != nil {
			return nil, err
		}
		d.Animations[id] = anim
	}
	return json.Marshal(d)
}

func decodeMultipleAnimationWidget(data []byte, source ElementSource) (Widget, error) {
	var d multipleAnimationJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	animations := make(map[string]*Animation)
	for id, raw := range d.Animations {
		anim, err := DecodeAnimation(raw, source)
		if err != nil {
			return nil, errors.Wrapf(err, "animation %s", id)
		}
		animations[id] = anim
	}
	return NewMultipleAnimationWidget(animations, d.InitialAnimation, d.EmitECS, d.Cycle)
}
