package widget

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
)

func TestFPSCounter(t *testing.T) {
	f, err := NewFPSCounter(LabelOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if f.Text() != "030" {
		t.Errorf("got %q", f.Text())
	}
	for i := 0; i < 10; i++ {
		f.OnEvent(tick(20 * time.Millisecond))
	}
	if f.Text() != "050" || f.FPS() != 50 {
		t.Errorf("got %q", f.Text())
	}
	for i := 0; i < 200; i++ {
		f.OnEvent(tick(10 * time.Millisecond))
	}
	if f.Text() != "100" {
		t.Errorf("only the last samples count, got %q", f.Text())
	}
	for i := 0; i < 100; i++ {
		f.OnEvent(tick(time.Microsecond))
	}
	if f.Text() != "999" {
		t.Errorf("got %q", f.Text())
	}
	if _, err := f.MarshalJSON(); err == nil {
		t.Error("FPS counter is not serializable")
	}
}

func TestMousePosWidget(t *testing.T) {
	m, err := NewMousePosWidget(LabelOptions{})
	if err != nil {
		t.Fatal(err)
	}
	move := event.New(event.MiscInput, tui.MouseMove)
	m.OnEvent(move)
	if m.Text() != "000x000" {
		t.Errorf("got %q", m.Text())
	}

	term := newTerminal(t, 20, 5)
	if err := term.AddWidget(m, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	term.Feed(tui.Input{Type: tui.MouseInput, X: 12, Y: 5})
	for _, e := range term.CheckInput() {
		m.OnEvent(e)
	}
	if m.Text() != "012x005" {
		t.Errorf("got %q", m.Text())
	}
	if ch, _ := term.Cell(1, 0); ch != '1' {
		t.Errorf("terminal shows %q", ch)
	}
}

func TestClosingListener(t *testing.T) {
	c := NewClosingListener()
	tickEvent := event.New(event.Tick, time.Millisecond)
	if events := c.OnEvent(tickEvent); events != nil {
		t.Errorf("got %v", events)
	}
	events := c.OnEvent(event.New(event.MiscInput, tui.InputClose))
	if diff := cmp.Diff([]event.Event{event.New(event.Service, event.ShutdownReady)}, events); diff != "" {
		t.Error(diff)
	}
	if events := c.OnEvent(event.New(event.MiscInput, tui.InputClose)); events != nil {
		t.Error("repeated close input should be ignored")
	}
	if events := c.OnEvent(tickEvent); events != nil {
		t.Errorf("shutdown too early: %v", events)
	}
	events = c.OnEvent(tickEvent)
	if diff := cmp.Diff([]event.Event{event.New(event.Service, event.Shutdown)}, events); diff != "" {
		t.Error(diff)
	}
	if events := c.OnEvent(tickEvent); events != nil {
		t.Error("shutdown is emitted once")
	}
}

func TestLoggingListener(t *testing.T) {
	if _, err := NewLoggingListener(nil); err == nil {
		t.Error("writer is required")
	}
	var buf bytes.Buffer
	l, _ := NewLoggingListener(&buf)
	l.clock = func() time.Time { return time.Unix(1500000000, 5e8) }
	if events := l.OnEvent(event.New(event.Tick, time.Second)); events != nil {
		t.Errorf("got %v", events)
	}
	l.OnEvent(event.New(event.KeyDown, tui.KeyA))
	want := "1500000000.5: type tick, value 1s\n1500000000.5: type key_down, value TK_A\n"
	if buf.String() != want {
		t.Errorf("got %q", buf.String())
	}
}
