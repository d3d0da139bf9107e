package widget

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
)

const fpsSamples = 100

// FPSCounter shows the average FPS over the last 100 ticks
type FPSCounter struct {
	Label
	samples []time.Duration
	next    int
	sum     time.Duration
}

// NewFPSCounter returns a three digit counter
func NewFPSCounter(opts LabelOptions) (*FPSCounter, error) {
	f := &FPSCounter{samples: make([]time.Duration, 0, fpsSamples)}
	f.Bind(f)
	if err := f.initLabel("030", opts); err != nil {
		return nil, err
	}
	return f, nil
}

// FPS returns the current estimate
func (f *FPSCounter) FPS() int {
	if f.sum <= 0 {
		return 0
	}
	return int(float64(len(f.samples))/f.sum.Seconds() + 0.5)
}

// OnEvent takes a sample on every tick
func (f *FPSCounter) OnEvent(e event.Event) []event.Event {
	if e.Type != event.Tick {
		return nil
	}
	elapsed, _ := e.Value.(time.Duration)
	if len(f.samples) < fpsSamples {
		f.samples = append(f.samples, elapsed)
	} else {
		f.sum -= f.samples[f.next]
		f.samples[f.next] = elapsed
		f.next = (f.next + 1) % fpsSamples
	}
	f.sum += elapsed
	fps := f.FPS()
	if fps > 999 {
		fps = 999
	}
	if err := f.SetText(fmt.Sprintf("%03d", fps)); err != nil {
		astilog.Errorf("FPS counter: %v", err)
	}
	return nil
}

// MarshalJSON always fails
func (f *FPSCounter) MarshalJSON() ([]byte, error) {
	return noJSON("FPSCounter")
}

// MousePosWidget shows the mouse position as XXXxYYY. It needs a terminal,
// so it should be added to one, directly or through a layout. The position
// is updated when the mouse moves.
type MousePosWidget struct {
	Label
}

// NewMousePosWidget returns a widget showing 000x000
func NewMousePosWidget(opts LabelOptions) (*MousePosWidget, error) {
	m := &MousePosWidget{}
	m.Bind(m)
	if err := m.initLabel("000x000", opts); err != nil {
		return nil, err
	}
	return m, nil
}

// OnEvent updates the text on mouse movement
func (m *MousePosWidget) OnEvent(e event.Event) []event.Event {
	if e.Type != event.MiscInput || e.Value != tui.MouseMove {
		return nil
	}
	if m.terminal == nil {
		astilog.Error("MousePosWidget is not connected to a terminal")
		return nil
	}
	x, _ := m.terminal.CheckState(tui.MouseX)
	y, _ := m.terminal.CheckState(tui.MouseY)
	if err := m.SetText(fmt.Sprintf("%03dx%03d", x, y)); err != nil {
		astilog.Errorf("MousePosWidget: %v", err)
	}
	return nil
}

// MarshalJSON always fails
func (m *MousePosWidget) MarshalJSON() ([]byte, error) {
	return noJSON("MousePosWidget")
}

// ClosingListener turns the window closing input into a shutdown. It emits
// shutdown_ready first, so that everyone can save their state, and
// shutdown two ticks later. Subscribe it to misc_input and tick.
type ClosingListener struct {
	countdown int
	counting  bool
}

// NewClosingListener returns a listener waiting for TK_CLOSE
func NewClosingListener() *ClosingListener {
	return &ClosingListener{countdown: 2}
}

// OnEvent counts down after the close input
func (c *ClosingListener) OnEvent(e event.Event) []event.Event {
	if e.Is(event.MiscInput, tui.InputClose) && !c.counting {
		c.counting = true
		return []event.Event{event.New(event.Service, event.ShutdownReady)}
	}
	if e.Type == event.Tick && c.counting {
		c.countdown--
		if c.countdown == 0 {
			c.counting = false
			return []event.Event{event.New(event.Service, event.Shutdown)}
		}
	}
	return nil
}

// LoggingListener writes every event it gets, one per line, as
// "<unix time>: type <type>, value <value>"
type LoggingListener struct {
	w     io.Writer
	clock func() time.Time
}

// NewLoggingListener returns a listener writing to w
func NewLoggingListener(w io.Writer) (*LoggingListener, error) {
	if w == nil {
		return nil, errors.Wrap(ErrWidget, "the LoggingListener needs a writer")
	}
	return &LoggingListener{w: w, clock: time.Now}, nil
}

// OnEvent logs the event
func (l *LoggingListener) OnEvent(e event.Event) []event.Event {
	now := float64(l.clock().UnixNano()) / float64(time.Second)
	fmt.Fprintf(l.w, "%s: type %s, value %v\n", strconv.FormatFloat(now, 'f', -1, 64), e.Type, e.Value)
	return nil
}
