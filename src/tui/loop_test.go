package tui

import (
	"testing"
	"time"

	"github.com/synedraacus/bearhug/src/event"
	"go.uber.org/goleak"
)

type fakeFrontend struct {
	inputs    [][]event.Event
	refreshed int
	closed    bool
}

func (f *fakeFrontend) CheckInput() []event.Event {
	if len(f.inputs) == 0 {
		return nil
	}
	in := f.inputs[0]
	f.inputs = f.inputs[1:]
	return in
}

func (f *fakeFrontend) Refresh() { f.refreshed++ }
func (f *fakeFrontend) Close()   { f.closed = true }

type tickRecorder struct {
	events     []event.Event
	shutdownAt int
	ticks      int
}

func (r *tickRecorder) OnEvent(e event.Event) []event.Event {
	r.events = append(r.events, e)
	if e.Type == event.Tick {
		r.ticks++
		if r.ticks == r.shutdownAt {
			return []event.Event{event.New(event.Service, event.Shutdown)}
		}
	}
	return nil
}

func TestRunIteration(t *testing.T) {
	d := event.NewDispatcher()
	f := &fakeFrontend{inputs: [][]event.Event{{event.New(event.KeyDown, KeyA)}}}
	loop, err := NewLoop(f, d, 30)
	if err != nil {
		t.Fatal(err)
	}
	r := &tickRecorder{}
	d.RegisterListener(r, event.Tick, event.KeyDown, event.Service)

	if err := loop.RunIteration(20 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	want := []event.Event{
		event.New(event.KeyDown, KeyA),
		event.New(event.Tick, 20*time.Millisecond),
		event.New(event.Service, event.TickOver)}
	if len(r.events) != len(want) {
		t.Fatalf("got %v, want %v", r.events, want)
	}
	for i := range want {
		if r.events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, r.events[i], want[i])
		}
	}
	if f.refreshed != 1 {
		t.Error("frontend should be refreshed once per iteration")
	}
}

func TestLoopRunsUntilShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)
	d := event.NewDispatcher()
	f := &fakeFrontend{}
	loop, _ := NewLoop(f, d, 200)
	r := &tickRecorder{shutdownAt: 3}
	d.RegisterListener(r, event.Tick, event.Service)

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
	if r.ticks != 3 {
		t.Errorf("expected 3 ticks, got %d", r.ticks)
	}
	if !r.events[0].Is(event.Service, event.QueueStarted) {
		t.Errorf("the queue start comes first, got %v", r.events[0])
	}
	first, _ := r.events[1].Value.(time.Duration)
	if first < loop.frameTime {
		t.Errorf("first tick should report at least a frame, got %v", first)
	}
	if !f.closed {
		t.Error("frontend should be closed")
	}
}

func TestSetFPS(t *testing.T) {
	loop, err := NewLoop(&fakeFrontend{}, event.NewDispatcher(), 30)
	if err != nil {
		t.Fatal(err)
	}
	if err := loop.SetFPS(0); err == nil {
		t.Error("zero fps")
	}
	loop.SetFPS(50)
	if loop.FPS() != 50 || loop.frameTime != 20*time.Millisecond {
		t.Errorf("fps %d, frame time %v", loop.FPS(), loop.frameTime)
	}
	if _, err := NewLoop(&fakeFrontend{}, event.NewDispatcher(), -1); err == nil {
		t.Error("negative fps")
	}
}

func TestLoopStop(t *testing.T) {
	d := event.NewDispatcher()
	loop, _ := NewLoop(&fakeFrontend{}, d, 100)
	var stopper event.Listener = stopAfter{loop}
	d.RegisterListener(stopper, event.Tick)
	done := make(chan error)
	go func() { done <- loop.Run() }()
	select {
	case err := <-done:
		if err != nil {
			t.Error(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

type stopAfter struct{ loop *Loop }

func (s stopAfter) OnEvent(event.Event) []event.Event {
	s.loop.Stop()
	return nil
}
