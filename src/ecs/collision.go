package ecs

import (
	"sort"

	"github.com/asticode/go-astilog"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/util"
)

// CollisionListener detects collisions between entities. It only tracks
// entities that are on a layout and have both position and collision
// components; collisions with layout edges are reported by the layouts.
//
// Subscribe it to ecs_create, ecs_destroy, ecs_add, ecs_remove and
// ecs_move.
type CollisionListener struct {
	entities map[string]*Entity
	tracked  map[string]bool
}

// NewCollisionListener returns a listener that knows no entities
func NewCollisionListener() *CollisionListener {
	return &CollisionListener{entities: make(map[string]*Entity), tracked: make(map[string]bool)}
}

// Tracked returns the IDs of entities checked for collisions, sorted
func (l *CollisionListener) Tracked() []string {
	ids := make([]string, 0, len(l.tracked))
	for id := range l.tracked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OnEvent keeps track of entities and emits ecs_collision for every entity
// the moved one collides with
func (l *CollisionListener) OnEvent(e event.Event) []event.Event {
	switch e.Type {
	case event.ECSCreate:
		if entity, ok := e.Value.(*Entity); ok {
			l.entities[entity.ID] = entity
		}
	case event.ECSDestroy:
		id, _ := e.Value.(string)
		delete(l.entities, id)
		delete(l.tracked, id)
	case event.ECSRemove:
		id, _ := e.Value.(string)
		delete(l.tracked, id)
	case event.ECSAdd:
		p, _ := e.Value.(Placement)
		entity, found := l.entities[p.ID]
		if !found {
			astilog.Debugf("Collision listener got ecs_add for unknown entity %s", p.ID)
			return nil
		}
		if entity.Collision() != nil {
			l.tracked[p.ID] = true
		}
	case event.ECSMove:
		if m, ok := e.Value.(Move); ok && l.tracked[m.ID] {
			return l.collide(m)
		}
	}
	return nil
}

type hitbox struct {
	x, y   int
	w, h   int
	z      int
	depth  int
	shiftX int
	shiftY int
}

// hitboxAt returns the hitbox of an entity at x, y, or false if it lacks
// the components needed to collide
func hitboxAt(e *Entity, x, y int) (hitbox, bool) {
	w, col := e.Widget(), e.Collision()
	if w == nil || col == nil {
		return hitbox{}, false
	}
	b := hitbox{
		x:      x + col.FacePosition[0],
		y:      y + col.FacePosition[1],
		w:      col.FaceSize[0],
		h:      col.FaceSize[1],
		z:      w.ZLevel(),
		depth:  col.Depth,
		shiftX: col.ZShift[0],
		shiftY: col.ZShift[1]}
	if b.w == 0 && b.h == 0 {
		b.w, b.h = w.Size()
	}
	return b, true
}

func (b hitbox) collides(o hitbox) bool {
	// Z-ranges should overlap
	if b.z-b.depth > o.z || o.z-o.depth > b.z {
		return false
	}
	low, high := b.z-b.depth, b.z
	if o.z-o.depth > low {
		low = o.z - o.depth
	}
	if o.z < high {
		high = o.z
	}
	for z := low; z <= high; z++ {
		bx, by := b.x+b.shiftX*(b.z-z), b.y+b.shiftY*(b.z-z)
		ox, oy := o.x+o.shiftX*(o.z-z), o.y+o.shiftY*(o.z-z)
		if util.RectanglesCollide(bx, by, b.w, b.h, ox, oy, o.w, o.h) {
			return true
		}
	}
	return false
}

func (l *CollisionListener) collide(m Move) []event.Event {
	moved, ok := hitboxAt(l.entities[m.ID], m.X, m.Y)
	if !ok {
		return nil
	}
	var r []event.Event
	for _, id := range l.Tracked() {
		if id == m.ID {
			continue
		}
		other := l.entities[id]
		pos := other.Position()
		if pos == nil {
			continue
		}
		box, ok := hitboxAt(other, pos.X(), pos.Y())
		if ok && moved.collides(box) {
			r = append(r, event.New(event.ECSCollision, Collision{Moved: m.ID, Other: id}))
		}
	}
	return r
}
