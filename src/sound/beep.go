//go:build !nosound

package sound

import (
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/util"
)

const sampleRate beep.SampleRate = 44100

// BeepBackend decodes WAV files into memory and mixes them through the
// system speaker. The speaker is opened on the first playback.
type BeepBackend struct {
	once    sync.Once
	initErr error
	started bool
}

// DefaultBackend returns the backend sounds are played with
func DefaultBackend() Backend {
	return &BeepBackend{}
}

// Load decodes a WAV file
func (b *BeepBackend) Load(path string) (Sound, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(ErrSound, err.Error())
	}
	stream, format, err := wav.Decode(file)
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(ErrSound, "%s: %v", path, err)
	}
	defer stream.Close()
	buffer := beep.NewBuffer(format)
	buffer.Append(stream)
	if err := stream.Err(); err != nil {
		return nil, errors.Wrapf(ErrSound, "%s: %v", path, err)
	}
	return &beepSound{backend: b, buffer: buffer, rate: format.SampleRate}, nil
}

func (b *BeepBackend) init() error {
	b.once.Do(func() {
		b.initErr = speaker.Init(sampleRate, sampleRate.N(time.Second/10))
		b.started = b.initErr == nil
	})
	if b.initErr != nil {
		return errors.Wrap(ErrSound, b.initErr.Error())
	}
	return nil
}

// Close stops every sound and closes the speaker
func (b *BeepBackend) Close() error {
	if b.started {
		speaker.Clear()
		speaker.Close()
	}
	return nil
}

type beepSound struct {
	backend *BeepBackend
	buffer  *beep.Buffer
	rate    beep.SampleRate
}

func (s *beepSound) Play() (Playback, error) {
	if err := s.backend.init(); err != nil {
		return nil, err
	}
	var stream beep.Streamer = s.buffer.Streamer(0, s.buffer.Len())
	if s.rate != sampleRate {
		stream = beep.Resample(4, s.rate, sampleRate, stream)
	}
	p := &beepPlayback{ctrl: &beep.Ctrl{Streamer: stream}, playing: util.NewAtomicBool(true)}
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		p.playing.Set(false)
	})))
	return p, nil
}

type beepPlayback struct {
	ctrl    *beep.Ctrl
	playing *util.AtomicBool
}

func (p *beepPlayback) Stop() {
	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()
	p.playing.Set(false)
}

func (p *beepPlayback) Playing() bool {
	return p.playing.Get()
}
