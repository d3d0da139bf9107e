package ecs

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
	"github.com/synedraacus/bearhug/src/widget"
)

type recorder struct {
	events []event.Event
}

func (r *recorder) OnEvent(e event.Event) []event.Event {
	r.events = append(r.events, e)
	return nil
}

func static(t *testing.T, color string, rows ...string) *widget.Base {
	t.Helper()
	img, err := tui.ImageFromStrings(rows, color)
	if err != nil {
		t.Fatal(err)
	}
	w, err := widget.FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func rows(w widget.Widget) []string {
	var r []string
	for _, row := range w.Image().Chars {
		r = append(r, string(row))
	}
	return r
}

// newEntity returns an entity with widget, position and destructor
// components, placed at x, y without emitting anything
func newEntity(t *testing.T, d *event.Dispatcher, id string, x, y int, rows ...string) *Entity {
	t.Helper()
	wc, err := NewWidgetComponent(d, static(t, "white", rows...))
	if err != nil {
		t.Fatal(err)
	}
	pos, err := NewPositionComponent(d, x, y)
	if err != nil {
		t.Fatal(err)
	}
	destructor, err := NewDestructorComponent(d)
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEntity(id, wc, pos, destructor)
	if err != nil {
		t.Fatal(err)
	}
	pos.Move(x, y, false)
	return e
}

type named struct {
	BaseComponent
}

func newNamed(t *testing.T, name string) *named {
	c := &named{}
	if err := c.Init(c, nil, name); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestEntity(t *testing.T) {
	Convey("Given an entity", t, func() {
		d := event.NewDispatcher()
		e := newEntity(t, d, "", 1, 2, "ab")

		Convey("an empty ID is replaced with a UUID", func() {
			So(e.ID, ShouldHaveLength, 36)
		})

		Convey("components are accessible by name", func() {
			So(e.Components(), ShouldResemble, []string{"widget", "position", "destructor"})
			So(e.Widget().Width(), ShouldEqual, 2)
			So(e.Position().X(), ShouldEqual, 1)
			So(e.Destructor(), ShouldNotBeNil)
			So(e.Collision(), ShouldBeNil)
			So(e.Position().Owner(), ShouldEqual, e)
		})

		Convey("adding a component with the same name replaces it", func() {
			other := newNamed(t, "position")
			So(e.AddComponent(other), ShouldBeNil)
			c, _ := e.Component("position")
			So(c, ShouldEqual, other)
			So(e.Position(), ShouldBeNil)
			So(e.Components(), ShouldHaveLength, 3)
		})

		Convey("entity data cannot be shadowed", func() {
			So(errors.Is(e.AddComponent(newNamed(t, "id")), ErrECS), ShouldBeTrue)
			So(errors.Is(e.AddComponent(newNamed(t, "components")), ErrECS), ShouldBeTrue)
		})

		Convey("components can be removed", func() {
			pos := e.Position()
			So(e.RemoveComponent("position"), ShouldBeNil)
			So(pos.Owner(), ShouldBeNil)
			So(errors.Is(e.RemoveComponent("position"), ErrECS), ShouldBeTrue)
			So(e.Components(), ShouldResemble, []string{"widget", "destructor"})
		})

		Convey("components without names are rejected", func() {
			So(errors.Is(new(named).Init(nil, nil, ""), ErrECS), ShouldBeTrue)
		})
	})
}

func TestEntityTracker(t *testing.T) {
	Convey("Given a tracker", t, func() {
		d := event.NewDispatcher()
		tracker := NewEntityTracker()
		a := newEntity(t, d, "a", 0, 0, "a")
		b := newEntity(t, d, "b", 0, 0, "b")
		tracker.OnEvent(event.New(event.ECSCreate, b))
		tracker.OnEvent(event.New(event.ECSCreate, a))

		Convey("it knows created entities", func() {
			found, ok := tracker.Entity("a")
			So(ok, ShouldBeTrue)
			So(found, ShouldEqual, a)
			So(tracker.FilterEntities(nil), ShouldResemble, []*Entity{a, b})
			So(tracker.FilterEntities(func(e *Entity) bool { return e.ID == "b" }), ShouldResemble, []*Entity{b})
		})

		Convey("it forgets destroyed entities", func() {
			tracker.OnEvent(event.New(event.ECSDestroy, "a"))
			_, ok := tracker.Entity("a")
			So(ok, ShouldBeFalse)
		})

		Convey("the default tracker is shared", func() {
			So(DefaultTracker(), ShouldEqual, DefaultTracker())
		})
	})
}

func TestPositionComponent(t *testing.T) {
	Convey("Given a positioned entity", t, func() {
		d := event.NewDispatcher()
		rec := &recorder{}
		So(d.RegisterListener(rec, event.ECSMove), ShouldBeNil)
		e := newEntity(t, d, "walker", 1, 1, "ab", "cd")
		pos := e.Position()

		Convey("moving emits ecs_move and sets the z-level", func() {
			pos.Move(3, 4, true)
			So(d.DispatchEvents(), ShouldBeNil)
			So(rec.events, ShouldResemble, []event.Event{event.New(event.ECSMove, Move{ID: "walker", X: 3, Y: 4})})
			So(pos.LastMove, ShouldResemble, [2]int{2, 3})
			So(e.Widget().ZLevel(), ShouldEqual, 6)
		})

		Convey("z-level can be left alone", func() {
			pos.AffectZ = false
			pos.RelativeMove(0, 5, false)
			So(e.Widget().ZLevel(), ShouldEqual, 3)
			So(d.Pending(), ShouldEqual, 0)
		})

		Convey("velocity moves the entity after enough ticks", func() {
			pos.SetVelocity(2, 0)
			pos.OnEvent(event.New(event.Tick, 300*time.Millisecond))
			So(pos.X(), ShouldEqual, 1)
			pos.OnEvent(event.New(event.Tick, 300*time.Millisecond))
			So(pos.X(), ShouldEqual, 2)
			So(pos.LastMove, ShouldResemble, [2]int{1, 0})
		})

		Convey("negative velocity moves backwards by whole steps", func() {
			pos.SetVelocity(0, -10)
			pos.OnEvent(event.New(event.Tick, 250*time.Millisecond))
			So(pos.Y(), ShouldEqual, -1)
		})
	})
}

func TestDestructorComponent(t *testing.T) {
	Convey("Given an entity with a destructor", t, func() {
		d := event.NewDispatcher()
		rec := &recorder{}
		So(d.RegisterListener(rec, event.ECSDestroy), ShouldBeNil)
		e := newEntity(t, d, "victim", 0, 0, "x")
		wc := e.Widget()
		destructor := e.Destructor()

		Convey("destroying unsubscribes the other components", func() {
			destructor.Destroy()
			destructor.Destroy()
			So(d.DispatchEvents(), ShouldBeNil)
			So(rec.events, ShouldResemble, []event.Event{event.New(event.ECSDestroy, "victim")})
			So(d.Subscribed(wc, event.Tick), ShouldBeFalse)
			So(destructor.Destroying(), ShouldBeTrue)
			So(e.Components(), ShouldHaveLength, 3)

			Convey("and removes them once the tick is over", func() {
				destructor.OnEvent(event.New(event.Service, event.TickOver))
				So(e.Components(), ShouldBeEmpty)
				So(d.Subscribed(destructor, event.Service), ShouldBeFalse)
			})
		})

		Convey("nothing happens without Destroy", func() {
			destructor.OnEvent(event.New(event.Service, event.TickOver))
			So(e.Components(), ShouldHaveLength, 3)
		})
	})
}

func TestDecayComponent(t *testing.T) {
	Convey("Given decaying entities", t, func() {
		d := event.NewDispatcher()
		e := newEntity(t, d, "spark", 0, 0, "*")

		Convey("a timeout destroys the entity after its lifetime", func() {
			decay, err := NewDecayComponent(d, DecayOnTimeout, time.Second)
			So(err, ShouldBeNil)
			So(e.AddComponent(decay), ShouldBeNil)
			So(d.Subscribed(decay, event.Tick), ShouldBeTrue)
			decay.OnEvent(event.New(event.Tick, 600*time.Millisecond))
			So(e.Destructor().Destroying(), ShouldBeFalse)
			decay.OnEvent(event.New(event.Tick, 400*time.Millisecond))
			So(e.Destructor().Destroying(), ShouldBeTrue)
		})

		Convey("a key press destroys the entity", func() {
			decay, err := NewDecayComponent(d, DecayOnKeypress, 0)
			So(err, ShouldBeNil)
			So(e.AddComponent(decay), ShouldBeNil)
			decay.OnEvent(event.New(event.KeyDown, tui.KeySpace))
			So(e.Destructor().Destroying(), ShouldBeTrue)
		})

		Convey("unknown conditions are rejected", func() {
			_, err := NewDecayComponent(d, "never", time.Second)
			So(errors.Is(err, ErrECS), ShouldBeTrue)
		})
	})
}

func TestSwitchWidgetComponent(t *testing.T) {
	img := func(s string) tui.Image {
		i, _ := tui.ImageFromStrings([]string{s}, "white")
		return i
	}
	w, err := widget.NewSwitchingWidget(map[string]tui.Image{"open": img("|"), "closed": img("-")}, "closed")
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewSwitchWidgetComponent(nil, w)
	if err != nil {
		t.Fatal(err)
	}
	if !c.ValidateImage("open") || c.ValidateImage("ajar") {
		t.Error("image validation")
	}
	if err := c.SwitchToImage("open"); err != nil || rows(w)[0] != "|" {
		t.Errorf("switch failed: %v", err)
	}
	e, _ := NewEntity("door", c)
	if e.Widget() != &c.WidgetComponent {
		t.Error("switching component is the entity widget")
	}
	if _, err := NewSwitchWidgetComponent(nil, nil); !errors.Is(err, ErrECS) {
		t.Error("widget is required")
	}
}
