// Package bearhug implements the bearhug asset viewer on top of the engine
// packages.
package bearhug

import (
	"context"
	"fmt"
	"os"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/resources"
	"github.com/synedraacus/bearhug/src/sound"
	"github.com/synedraacus/bearhug/src/tui"
	"github.com/synedraacus/bearhug/src/util"
	"github.com/synedraacus/bearhug/src/widget"
	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sync/errgroup"
)

/*
Terminal -> key_down, misc_input -> InputScrollable (scroll), exitKeys
exitKeys -> misc_input:TK_CLOSE  -> ClosingListener
ClosingListener -> service:shutdown -> Loop (stop)
Watcher  -> EvtAssetsChanged     -> reloader (on tick) -> Viewer.Reload
*/

func setupLogging(opts *Options) {
	filename := opts.LogFile
	if filename == "" {
		// The terminal owns stdout and stderr
		filename = os.DevNull
	}
	astilog.SetLogger(astilog.New(astilog.Configuration{
		AppName:  "bearhug",
		Filename: filename,
		Out:      "file",
		Verbose:  opts.Verbose}))
}

func terminalSize(opts *Options) (int, int, error) {
	if !opts.AutoSize {
		return opts.Width, opts.Height, nil
	}
	width, height, err := terminal.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0, errors.Wrap(err, "cannot detect the terminal size")
	}
	return width, height, nil
}

// app is everything Run wires together
type app struct {
	dispatcher *event.Dispatcher
	terminal   *tui.Terminal
	loop       *tui.Loop
	viewer     *Viewer
	sounds     *sound.Listener
	box        *util.EventBox
}

func newApp(opts *Options, renderer tui.Renderer, backend sound.Backend) (*app, error) {
	width, height, err := terminalSize(opts)
	if err != nil {
		return nil, err
	}
	a := &app{dispatcher: event.NewDispatcher(), box: util.NewEventBox()}
	a.terminal, err = tui.NewTerminal(renderer, tui.TerminalOptions{
		Width:        width,
		Height:       height,
		DefaultColor: opts.Color,
		HoldTimeout:  opts.Hold})
	if err != nil {
		return nil, err
	}
	if a.loop, err = tui.NewLoop(a.terminal, a.dispatcher, opts.FPS); err != nil {
		return nil, err
	}

	collection, err := openCollection(opts)
	if err != nil {
		return nil, err
	}
	// Room for the FPS counter and the bottom scroll bar
	if a.viewer, err = NewViewer(collection, a.dispatcher, height-2); err != nil {
		return nil, err
	}
	if err := a.viewer.Show(a.terminal); err != nil {
		return nil, err
	}

	listeners := []struct {
		listener event.Listener
		types    []event.Type
	}{
		{widget.NewClosingListener(), []event.Type{event.MiscInput, event.Tick}},
		{exitKeys{}, []event.Type{event.KeyDown}},
		{&reloader{box: a.box, viewer: a.viewer}, []event.Type{event.Tick}},
	}
	for _, l := range listeners {
		if err := a.dispatcher.RegisterListener(l.listener, l.types...); err != nil {
			return nil, err
		}
	}

	if opts.BgSound != "" {
		a.sounds, err = sound.NewListener(backend, map[string]string{backgroundSound: opts.BgSound})
		if err != nil {
			return nil, err
		}
		if err := a.dispatcher.RegisterListener(a.sounds, event.PlaySound, event.SetBgSound, event.Tick); err != nil {
			return nil, err
		}
		if err := a.dispatcher.AddEvent(event.New(event.SetBgSound, backgroundSound)); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// run starts the terminal and blocks until the loop stops
func (a *app) run(ctx context.Context, watch bool) error {
	if err := a.terminal.Start(); err != nil {
		return err
	}
	util.AtExit(a.terminal.Close)
	if a.sounds != nil {
		defer a.sounds.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	if watch {
		watcher, err := resources.NewWatcher(a.box, a.viewer.collection.Paths()...)
		if err != nil {
			a.terminal.Close()
			return err
		}
		defer watcher.Close()
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}
	g.Go(func() error {
		defer cancel()
		return a.loop.Run()
	})
	return g.Wait()
}

// Run shows the assets named in the options until the user quits
func Run(opts *Options, version string, revision string) {
	if opts.Version {
		if len(revision) > 0 {
			fmt.Printf("%s (%s)\n", version, revision)
		} else {
			fmt.Println(version)
		}
		util.Exit(exitOk)
	}

	setupLogging(opts)
	if !util.ToTty() {
		errorExit("stdout is not a terminal")
	}

	var backend sound.Backend = sound.SilentBackend{}
	if opts.Sound {
		backend = sound.DefaultBackend()
	}
	a, err := newApp(opts, tui.NewTcellRenderer(nil, opts.Mouse), backend)
	if err != nil {
		errorExit(err.Error())
	}
	astilog.Infof("bearhug %s started", version)
	if err := a.run(context.Background(), opts.Watch); err != nil {
		astilog.Errorf("bearhug: %v", err)
		util.Exit(exitError)
	}
	util.Exit(exitOk)
}
