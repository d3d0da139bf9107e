package event

import (
	"testing"

	"github.com/pkg/errors"
)

type recorder struct {
	got    []Event
	output func(Event) []Event
}

func (r *recorder) OnEvent(e Event) []Event {
	r.got = append(r.got, e)
	if r.output != nil {
		return r.output(e)
	}
	return nil
}

func TestRegisterListener(t *testing.T) {
	d := NewDispatcher()
	all, ecs, single, list := &recorder{}, &recorder{}, &recorder{}, &recorder{}
	for _, err := range []error{
		d.RegisterListener(all),
		d.RegisterListener(ecs, "*ecs"),
		d.RegisterListener(single, Tick),
		d.RegisterListener(list, KeyDown, KeyUp),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}
	if !d.Subscribed(all, ECSUpdate) || !d.Subscribed(all, Service) {
		t.Error("all should subscribe to every type")
	}
	if !d.Subscribed(ecs, ECSMove) || d.Subscribed(ecs, Tick) {
		t.Error("*ecs should only select ECS types")
	}
	if !d.Subscribed(single, Tick) || d.Subscribed(single, KeyDown) {
		t.Error("single type subscription")
	}
	if !d.Subscribed(list, KeyUp) || d.Subscribed(list, MiscInput) {
		t.Error("list subscription")
	}

	err := d.RegisterListener(&recorder{}, Tick, "no_such_type")
	if !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestMaskSelectsSubstring(t *testing.T) {
	d := NewDispatcher()
	r := &recorder{}
	if err := d.RegisterListener(r, "*move"); err != nil {
		t.Fatal(err)
	}
	for _, typ := range d.EventTypes() {
		want := typ == ECSMove || typ == ECSRemove
		if d.Subscribed(r, typ) != want {
			t.Errorf("*move subscription to %s = %v", typ, !want)
		}
	}
}

func TestRegisterEventType(t *testing.T) {
	d := NewDispatcher()
	r := &recorder{}
	d.RegisterListener(r)
	if err := d.AddEvent(New("custom", 1)); !errors.Is(err, ErrUnknownEventType) {
		t.Error("unregistered type was queued")
	}
	if err := d.RegisterEventType("custom"); err != nil {
		t.Fatal(err)
	}
	if d.Subscribed(r, "custom") {
		t.Error("existing all-listeners must not be subscribed to new types")
	}
	if err := d.RegisterEventType("*bad"); err == nil {
		t.Error("mask is not a valid type name")
	}
	if err := d.AddEvent(New("custom", 1)); err != nil {
		t.Error(err)
	}
}

func TestDispatchOrder(t *testing.T) {
	d := NewDispatcher()
	d.RegisterEventType("echo")
	first := &recorder{output: func(e Event) []Event {
		if e.Type == Tick {
			return []Event{New("echo", 1), New("echo", 2)}
		}
		return nil
	}}
	second := &recorder{}
	d.RegisterListener(first, Tick)
	d.RegisterListener(second, Tick, "echo")

	d.StartQueue()
	d.AddEvent(New(Tick, 10))
	d.AddEvent(New(KeyDown, 4))
	if err := d.DispatchEvents(); err != nil {
		t.Fatal(err)
	}
	if d.Pending() != 0 {
		t.Error("queue should be empty")
	}
	want := []Event{New(Tick, 10), New("echo", 1), New("echo", 2)}
	if len(second.got) != len(want) {
		t.Fatalf("got %v, want %v", second.got, want)
	}
	for i := range want {
		if second.got[i] != want[i] {
			t.Errorf("event %d: got %v, want %v", i, second.got[i], want[i])
		}
	}
}

func TestDispatchInvalidReturn(t *testing.T) {
	d := NewDispatcher()
	d.RegisterListener(&recorder{output: func(Event) []Event {
		return []Event{New("bogus", nil)}
	}}, Tick)
	d.AddEvent(New(Tick, 0))
	if err := d.DispatchEvents(); !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestStartQueue(t *testing.T) {
	d := NewDispatcher()
	r := &recorder{}
	d.RegisterListener(r, Service)
	d.StartQueue()
	d.DispatchEvents()
	if len(r.got) != 1 || !r.got[0].Is(Service, QueueStarted) {
		t.Errorf("got %v", r.got)
	}
}

func TestUnregisterDuringDispatch(t *testing.T) {
	d := NewDispatcher()
	var second, third *recorder
	first := &recorder{}
	first.output = func(Event) []Event {
		d.UnregisterListener(second)
		return nil
	}
	second, third = &recorder{}, &recorder{}
	d.RegisterListener(first, Tick)
	d.RegisterListener(second, Tick)
	d.RegisterListener(third, Tick)

	d.AddEvent(New(Tick, 0))
	d.DispatchEvents()
	if len(second.got) != 0 {
		t.Error("unsubscribed listener got the event")
	}
	if len(third.got) != 1 {
		t.Error("listener after the removed one must still get the event")
	}

	if err := d.UnregisterListener(third, Tick, KeyDown); err != nil {
		t.Error(err)
	}
	if d.Subscribed(third, Tick) {
		t.Error("unregister failed")
	}
	if err := d.UnregisterListener(third, "nope"); !errors.Is(err, ErrUnknownEventType) {
		t.Error("unknown type should fail")
	}
}
