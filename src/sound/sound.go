// Package sound plays sounds requested through events
package sound

import (
	"os"
	"sync"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/util"
)

// ErrSound is wrapped by every error of this package
var ErrSound = errors.New("sound error")

// Backend loads sounds from files
type Backend interface {
	Load(path string) (Sound, error)
	Close() error
}

// Sound is a loaded sound that can be played any number of times, also
// simultaneously
type Sound interface {
	Play() (Playback, error)
}

// Playback is a sound being played
type Playback interface {
	Stop()
	Playing() bool
}

// SilentBackend plays nothing. Its playbacks last until stopped.
type SilentBackend struct{}

// SilentSound counts how many times it was played
type SilentSound struct {
	Path  string
	mutex sync.Mutex
	plays int
}

// SilentPlayback is playing until Stop is called
type SilentPlayback struct {
	playing *util.AtomicBool
}

// Load checks that the file exists
func (SilentBackend) Load(path string) (Sound, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(ErrSound, err.Error())
	}
	return &SilentSound{Path: path}, nil
}

// Close does nothing
func (SilentBackend) Close() error {
	return nil
}

// Play starts a silent playback
func (s *SilentSound) Play() (Playback, error) {
	s.mutex.Lock()
	s.plays++
	s.mutex.Unlock()
	return &SilentPlayback{playing: util.NewAtomicBool(true)}, nil
}

// Plays returns how many times the sound was played
func (s *SilentSound) Plays() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.plays
}

// Stop ends the playback
func (p *SilentPlayback) Stop() {
	p.playing.Set(false)
}

// Playing is true until Stop
func (p *SilentPlayback) Playing() bool {
	return p.playing.Get()
}

// Listener plays sounds on events:
//
//	play_sound    sound name  plays the sound once
//	set_bg_sound  sound name  loops the sound, stopping the previous one;
//	                          an empty name only stops
//	tick                      restarts the background sound if it ended
//
// Unknown names are logged and ignored.
type Listener struct {
	backend Backend
	sounds  map[string]Sound
	bgName  string
	bg      Playback
}

// NewListener loads every sound in the name to path map
func NewListener(backend Backend, sounds map[string]string) (*Listener, error) {
	if backend == nil {
		return nil, errors.Wrap(ErrSound, "sound listener needs a backend")
	}
	l := &Listener{backend: backend, sounds: make(map[string]Sound)}
	for name, path := range sounds {
		if err := l.RegisterSound(name, path); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// AddSound makes an already loaded sound available under name
func (l *Listener) AddSound(name string, s Sound) error {
	if name == "" || s == nil {
		return errors.Wrap(ErrSound, "sound needs a name")
	}
	if _, found := l.sounds[name]; found {
		return errors.Wrapf(ErrSound, "duplicate sound name %s", name)
	}
	l.sounds[name] = s
	return nil
}

// RegisterSound loads a file and makes it available under name
func (l *Listener) RegisterSound(name, path string) error {
	if _, found := l.sounds[name]; found {
		return errors.Wrapf(ErrSound, "duplicate sound name %s", name)
	}
	s, err := l.backend.Load(path)
	if err != nil {
		return errors.Wrapf(err, "sound %s", name)
	}
	return l.AddSound(name, s)
}

// Play starts playing a sound outside of the event system
func (l *Listener) Play(name string) (Playback, error) {
	s, found := l.sounds[name]
	if !found {
		return nil, errors.Wrapf(ErrSound, "nonexistent sound %s requested", name)
	}
	return s.Play()
}

// Background returns the name of the looped sound
func (l *Listener) Background() string {
	return l.bgName
}

func (l *Listener) setBackground(name string) {
	if l.bg != nil {
		l.bg.Stop()
	}
	l.bg, l.bgName = nil, ""
	if name == "" {
		return
	}
	p, err := l.Play(name)
	if err != nil {
		astilog.Errorf("Cannot set background sound: %v", err)
		return
	}
	l.bg, l.bgName = p, name
}

// OnEvent plays sounds
func (l *Listener) OnEvent(e event.Event) []event.Event {
	switch e.Type {
	case event.PlaySound:
		name, _ := e.Value.(string)
		if _, err := l.Play(name); err != nil {
			astilog.Errorf("Cannot play sound: %v", err)
		}
	case event.SetBgSound:
		name, _ := e.Value.(string)
		l.setBackground(name)
	case event.Tick:
		if l.bg != nil && !l.bg.Playing() {
			p, err := l.Play(l.bgName)
			if err != nil {
				astilog.Errorf("Cannot restart background sound: %v", err)
				return nil
			}
			l.bg = p
		}
	}
	return nil
}

// Close stops the background sound and releases the backend
func (l *Listener) Close() error {
	l.setBackground("")
	return l.backend.Close()
}
