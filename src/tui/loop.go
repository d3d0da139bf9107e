package tui

import (
	"time"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/util"
)

// Frontend is the part of the terminal the loop drives
type Frontend interface {
	CheckInput() []event.Event
	Refresh()
	Close()
}

// Loop passes events around every 1/fps seconds.
//
// Every iteration queues the input events and a tick event whose value is
// the time.Duration since the previous tick, then dispatches the queue.
// After that a service event with the value event.TickOver is dispatched,
// so that layouts can redraw once per tick, and the frontend is refreshed.
// The loop stops on a service event with the value event.Shutdown and
// closes the frontend.
type Loop struct {
	frontend   Frontend
	dispatcher *event.Dispatcher
	frameTime  time.Duration
	fps        int
	stopped    *util.AtomicBool
	lastTime   time.Time
}

// NewLoop returns a loop that subscribes itself to service events
func NewLoop(frontend Frontend, dispatcher *event.Dispatcher, fps int) (*Loop, error) {
	l := &Loop{
		frontend:   frontend,
		dispatcher: dispatcher,
		stopped:    util.NewAtomicBool(false)}
	if err := l.SetFPS(fps); err != nil {
		return nil, err
	}
	if err := dispatcher.RegisterListener(l, event.Service); err != nil {
		return nil, err
	}
	return l, nil
}

// FPS returns the number of iterations per second
func (l *Loop) FPS() int {
	return l.fps
}

// SetFPS changes the number of iterations per second
func (l *Loop) SetFPS(fps int) error {
	if fps <= 0 {
		return errors.Errorf("invalid fps: %d", fps)
	}
	l.fps = fps
	l.frameTime = time.Second / time.Duration(fps)
	return nil
}

// Run iterates until the loop is stopped. The frontend is closed before
// Run returns.
func (l *Loop) Run() error {
	defer l.frontend.Close()
	l.dispatcher.StartQueue()
	// The first tick pretends that a whole frame has passed
	l.lastTime = time.Now().Add(-l.frameTime)
	for !l.stopped.Get() {
		now := time.Now()
		elapsed := now.Sub(l.lastTime)
		l.lastTime = now
		if err := l.RunIteration(elapsed); err != nil {
			return err
		}
		// Don't bother sleeping for the last few percent of a frame
		if wait := l.frameTime - time.Since(now); wait > l.frameTime/20 {
			time.Sleep(wait)
		}
	}
	astilog.Debug("Loop stopped")
	return nil
}

// RunIteration runs a single tick
func (l *Loop) RunIteration(elapsed time.Duration) error {
	if err := l.dispatcher.AddEvents(l.frontend.CheckInput()); err != nil {
		return err
	}
	if err := l.dispatcher.AddEvent(event.New(event.Tick, elapsed)); err != nil {
		return err
	}
	if err := l.dispatcher.DispatchEvents(); err != nil {
		return err
	}
	if err := l.dispatcher.AddEvent(event.New(event.Service, event.TickOver)); err != nil {
		return err
	}
	if err := l.dispatcher.DispatchEvents(); err != nil {
		return err
	}
	l.frontend.Refresh()
	return nil
}

// Stop makes Run return after the current iteration
func (l *Loop) Stop() {
	if l.stopped.Flip(true) {
		astilog.Debug("Stopping the loop")
	}
}

// OnEvent stops the loop on shutdown
func (l *Loop) OnEvent(e event.Event) []event.Event {
	if e.Is(event.Service, event.Shutdown) {
		l.Stop()
	}
	return nil
}
