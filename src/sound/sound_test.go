package sound

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
)

func newTestListener(t *testing.T, names ...string) (*Listener, map[string]*SilentSound) {
	t.Helper()
	dir := t.TempDir()
	paths := make(map[string]string)
	for _, name := range names {
		path := filepath.Join(dir, name+".wav")
		if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths[name] = path
	}
	l, err := NewListener(SilentBackend{}, paths)
	if err != nil {
		t.Fatal(err)
	}
	sounds := make(map[string]*SilentSound)
	for name, s := range l.sounds {
		sounds[name] = s.(*SilentSound)
	}
	return l, sounds
}

func TestPlaySound(t *testing.T) {
	l, sounds := newTestListener(t, "step", "music")
	l.OnEvent(event.New(event.PlaySound, "step"))
	l.OnEvent(event.New(event.PlaySound, "step"))
	l.OnEvent(event.New(event.PlaySound, "nonexistent"))
	if n := sounds["step"].Plays(); n != 2 {
		t.Errorf("step played %d times", n)
	}
	if _, err := l.Play("nonexistent"); !errors.Is(err, ErrSound) {
		t.Errorf("unknown sound played: %v", err)
	}
}

func TestBackgroundSound(t *testing.T) {
	l, sounds := newTestListener(t, "music", "rain")
	l.OnEvent(event.New(event.SetBgSound, "music"))
	first := l.bg
	if l.Background() != "music" || !first.Playing() {
		t.Fatal("background not started")
	}

	// Still playing, nothing happens on tick
	l.OnEvent(event.New(event.Tick, nil))
	if sounds["music"].Plays() != 1 {
		t.Error("background restarted while playing")
	}

	first.Stop()
	l.OnEvent(event.New(event.Tick, nil))
	if sounds["music"].Plays() != 2 || !l.bg.Playing() {
		t.Error("background not restarted after it ended")
	}

	second := l.bg
	l.OnEvent(event.New(event.SetBgSound, "rain"))
	if second.Playing() || l.Background() != "rain" {
		t.Error("old background not replaced")
	}

	rain := l.bg
	l.OnEvent(event.New(event.SetBgSound, ""))
	if rain.Playing() || l.Background() != "" {
		t.Error("background not stopped")
	}
	l.OnEvent(event.New(event.Tick, nil))
	if sounds["rain"].Plays() != 1 {
		t.Error("stopped background restarted")
	}
}

func TestRegisterSound(t *testing.T) {
	l, sounds := newTestListener(t, "step")
	if err := l.AddSound("step", sounds["step"]); !errors.Is(err, ErrSound) {
		t.Error("duplicate name accepted")
	}
	if err := l.RegisterSound("boom", filepath.Join(t.TempDir(), "boom.wav")); !errors.Is(err, ErrSound) {
		t.Error("nonexistent file accepted")
	}
	if err := l.AddSound("", sounds["step"]); !errors.Is(err, ErrSound) {
		t.Error("empty name accepted")
	}
	if err := l.AddSound("again", sounds["step"]); err != nil {
		t.Error(err)
	}
	if _, err := NewListener(nil, nil); !errors.Is(err, ErrSound) {
		t.Error("listener without backend")
	}
	if err := l.Close(); err != nil {
		t.Error(err)
	}
}
