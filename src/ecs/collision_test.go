package ecs

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/synedraacus/bearhug/src/event"
)

func collider(t *testing.T, d *event.Dispatcher, id string, x, y int, opts CollisionOptions) *Entity {
	t.Helper()
	e := newEntity(t, d, id, x, y, "##")
	col, err := NewCollisionComponent(d, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.AddComponent(col); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestCollisionListener(t *testing.T) {
	Convey("Given two colliding entities on a layout", t, func() {
		d := event.NewDispatcher()
		l := NewCollisionListener()
		a := collider(t, d, "a", 0, 0, CollisionOptions{})
		b := collider(t, d, "b", 5, 0, CollisionOptions{})
		ghost := newEntity(t, d, "ghost", 3, 0, "##")
		for _, e := range []*Entity{a, b, ghost} {
			l.OnEvent(event.New(event.ECSCreate, e))
			x, y := e.Position().Pos()
			l.OnEvent(event.New(event.ECSAdd, Placement{ID: e.ID, X: x, Y: y}))
		}
		move := func(id string, x, y int) []event.Event {
			return l.OnEvent(event.New(event.ECSMove, Move{ID: id, X: x, Y: y}))
		}

		Convey("only entities with collision components are tracked", func() {
			So(l.Tracked(), ShouldResemble, []string{"a", "b"})
		})

		Convey("overlapping hitboxes collide once", func() {
			events := move("a", 4, 0)
			So(events, ShouldResemble, []event.Event{event.New(event.ECSCollision, Collision{Moved: "a", Other: "b"})})
		})

		Convey("hitboxes that only touch don't collide", func() {
			So(move("a", 3, 0), ShouldBeEmpty)
			So(move("a", 4, 1), ShouldBeEmpty)
		})

		Convey("entities on different z-levels don't collide", func() {
			a.Widget().SetZLevel(5)
			So(move("a", 5, 0), ShouldBeEmpty)

			Convey("unless the depth covers the other one", func() {
				a.Collision().Depth = 4
				So(move("a", 5, 0), ShouldHaveLength, 1)
			})
		})

		Convey("z-shift offsets the lower levels", func() {
			a.Widget().SetZLevel(2)
			a.Collision().Depth = 1
			a.Collision().ZShift = [2]int{1, 0}
			// On b's level a is shifted one cell to the right
			So(move("a", 2, 0), ShouldBeEmpty)
			So(move("a", 3, 0), ShouldHaveLength, 1)
		})

		Convey("faces narrow the hitbox", func() {
			b.Collision().FacePosition = [2]int{1, 0}
			b.Collision().FaceSize = [2]int{1, 1}
			So(move("a", 4, 0), ShouldBeEmpty)
			So(move("a", 5, 0), ShouldHaveLength, 1)
		})

		Convey("removed and destroyed entities are not tracked", func() {
			l.OnEvent(event.New(event.ECSRemove, "b"))
			So(move("a", 4, 0), ShouldBeEmpty)
			l.OnEvent(event.New(event.ECSDestroy, "a"))
			So(l.Tracked(), ShouldBeEmpty)
		})
	})
}

func TestWalkerCollisionComponent(t *testing.T) {
	Convey("Given a walker next to a wall", t, func() {
		d := event.NewDispatcher()
		tracker := NewEntityTracker()
		wall := collider(t, d, "wall", 4, 0, CollisionOptions{})
		puddle := collider(t, d, "puddle", 0, 3, CollisionOptions{Passable: true})
		walker := newEntity(t, d, "walker", 2, 0, "@")
		col, err := NewWalkerCollisionComponent(d, CollisionOptions{})
		So(err, ShouldBeNil)
		col.Tracker = tracker
		So(walker.AddComponent(col), ShouldBeNil)
		for _, e := range []*Entity{wall, puddle, walker} {
			tracker.OnEvent(event.New(event.ECSCreate, e))
		}
		pos := walker.Position()
		pos.Move(3, 0, false)
		collide := func(other string) {
			col.OnEvent(event.New(event.ECSCollision, Collision{Moved: "walker", Other: other}))
		}

		Convey("it steps back from impassable entities", func() {
			collide("wall")
			So(pos.X(), ShouldEqual, 2)
			So(pos.LastMove, ShouldResemble, [2]int{1, 0})

			Convey("once per tick", func() {
				collide("wall")
				So(pos.X(), ShouldEqual, 2)
				col.OnEvent(event.New(event.Tick, nil))
				collide("")
				So(pos.X(), ShouldEqual, 1)
			})
		})

		Convey("it walks through passable entities", func() {
			collide("puddle")
			So(pos.X(), ShouldEqual, 3)
		})

		Convey("collisions into unknown entities are ignored", func() {
			collide("nobody")
			So(pos.X(), ShouldEqual, 3)
		})

		Convey("being collided into does nothing", func() {
			col.OnEvent(event.New(event.ECSCollision, Collision{Moved: "wall", Other: "walker"}))
			So(pos.X(), ShouldEqual, 3)
		})
	})
}
