package ecs

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/widget"
)

type counter struct {
	BaseComponent
	Count int
}

func (c *counter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{"class": "TestCounter", "count": c.Count})
}

func decodeCounter(data []byte, ctx DecodeContext) (Component, error) {
	c := &counter{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if err := c.Init(c, ctx.Dispatcher, "counter"); err != nil {
		return nil, err
	}
	return c, nil
}

func TestEntitySerialization(t *testing.T) {
	Convey("Given a complete entity", t, func() {
		d := event.NewDispatcher()
		e := newEntity(t, d, "golem", 2, 3, "@@", "@@")
		e.Position().SetVelocity(0.5, -2)
		col, err := NewCollisionComponent(d, CollisionOptions{Depth: 2, ZShift: [2]int{1, 0}})
		So(err, ShouldBeNil)
		So(e.AddComponent(col), ShouldBeNil)
		data, err := json.Marshal(e)
		So(err, ShouldBeNil)

		Convey("it survives a round trip", func() {
			loaded, err := DeserializeEntity(data, d, nil)
			So(err, ShouldBeNil)
			So(loaded.ID, ShouldEqual, "golem")
			So(loaded.Components(), ShouldResemble, []string{"collision", "destructor", "position", "widget"})
			So(loaded.Position().X(), ShouldEqual, 2)
			vx, vy := loaded.Position().Velocity()
			So([]float64{vx, vy}, ShouldResemble, []float64{0.5, -2})
			So(loaded.Collision().Depth, ShouldEqual, 2)
			So(loaded.Collision().ZShift, ShouldResemble, [2]int{1, 0})
			So(rows(loaded.Widget().Widget()), ShouldResemble, []string{"@@", "@@"})
			So(loaded.Position().Owner(), ShouldEqual, loaded)
			So(d.Subscribed(loaded.Position(), event.Tick), ShouldBeTrue)

			again, err := json.Marshal(loaded)
			So(err, ShouldBeNil)
			So(string(again), ShouldEqual, string(data))
		})

		Convey("entities can be saved and loaded", func() {
			path := filepath.Join(t.TempDir(), "save.json")
			So(SaveEntities(path, []*Entity{e}), ShouldBeNil)
			entities, err := LoadEntities(path, d, nil)
			So(err, ShouldBeNil)
			So(entities, ShouldHaveLength, 1)
			So(entities[0].ID, ShouldEqual, "golem")

			_, err = LoadEntities(filepath.Join(t.TempDir(), "missing.json"), d, nil)
			So(err, ShouldNotBeNil)
		})

		Convey("entities need an ID", func() {
			_, err := DeserializeEntity([]byte(`{"components": {}}`), d, nil)
			So(errors.Is(err, widget.ErrSerialization), ShouldBeTrue)
		})
	})
}

func TestComponentDeserialization(t *testing.T) {
	d := event.NewDispatcher()
	for _, bad := range []string{
		`{"class": "PositionComponent", "owner": "x"}`,
		`{"class": "PositionComponent", "name": "position"}`,
		`{"class": "PositionComponent", "dispatcher": null}`,
		`{"class": "NoSuchComponent"}`,
		`{"x": 1}`,
		`[]`,
	} {
		if _, err := DeserializeComponent([]byte(bad), d, nil); !errors.Is(err, widget.ErrSerialization) {
			t.Errorf("%s: expected a serialization error, got %v", bad, err)
		}
	}

	c, err := DeserializeComponent([]byte(`{"class": "DecayComponent", "destroy_condition": "timeout", "lifetime": 2, "age": 0.5, "lifetime_type": "float"}`), d, nil)
	if err != nil {
		t.Fatal(err)
	}
	decay := c.(*DecayComponent)
	if decay.Lifetime.Seconds() != 2 || decay.Age.Seconds() != 0.5 {
		t.Errorf("wrong decay timing: %v %v", decay.Lifetime, decay.Age)
	}

	c, err = DeserializeComponent([]byte(`{"class": "PositionComponent", "x": 1, "y": 1}`), d, nil)
	if err != nil {
		t.Fatal(err)
	}
	if pos := c.(*PositionComponent); pos.LastMove != [2]int{1, 0} || !pos.AffectZ {
		t.Errorf("defaults not applied: %v %v", pos.LastMove, pos.AffectZ)
	}

	// A saved zero move is not the same as a missing one
	c, err = DeserializeComponent([]byte(`{"class": "PositionComponent", "x": 1, "y": 1, "last_move": [0, 0]}`), d, nil)
	if err != nil {
		t.Fatal(err)
	}
	if pos := c.(*PositionComponent); pos.LastMove != [2]int{} {
		t.Errorf("zero last move lost: %v", pos.LastMove)
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"last_move":[0,0]`) {
		t.Errorf("zero last move not saved: %s", data)
	}
}

func TestRegisterComponent(t *testing.T) {
	if err := RegisterComponent("TestCounter", decodeCounter); err != nil {
		t.Fatal(err)
	}
	if err := RegisterComponent("TestCounter", decodeCounter); !errors.Is(err, ErrECS) {
		t.Error("classes cannot be registered twice")
	}
	if err := RegisterComponent("", decodeCounter); !errors.Is(err, ErrECS) {
		t.Error("classes need a name")
	}
	c, err := DeserializeComponent([]byte(`{"class": "TestCounter", "count": 3}`), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name() != "counter" || c.(*counter).Count != 3 {
		t.Errorf("wrong component: %v", c)
	}
}
