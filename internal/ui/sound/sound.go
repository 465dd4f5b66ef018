// Package sound plays short notification tones through the system speaker.
package sound

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"bqclient/internal/client"
)

const sampleRate = beep.SampleRate(44100)

// note is one segment of a chime.
type note struct {
	freq   float64
	dur    time.Duration
	square bool
}

var chimes = map[client.NoticeKind][]note{
	client.NoticeLucky:  {{freq: 880, dur: 90 * time.Millisecond}, {freq: 1320, dur: 160 * time.Millisecond}},
	client.NoticeDamage: {{freq: 140, dur: 180 * time.Millisecond, square: true}},
	client.NoticeChat:   {{freq: 660, dur: 80 * time.Millisecond}},
}

// tone is a sine or square oscillator with a short linear fade at both
// ends to avoid clicks.
type tone struct {
	freq   float64
	square bool
	phase  float64
	pos    int
	total  int
	fade   int
	rate   beep.SampleRate
	volume float64
}

func newTone(n note, rate beep.SampleRate) *tone {
	total := rate.N(n.dur)
	fade := rate.N(5 * time.Millisecond)
	if fade*2 > total {
		fade = total / 2
	}
	return &tone{freq: n.freq, square: n.square, total: total, fade: fade, rate: rate, volume: 0.25}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.pos >= t.total {
			return i, i > 0
		}
		var v float64
		if t.square {
			v = 1
			if t.phase >= 0.5 {
				v = -1
			}
		} else {
			v = math.Sin(2 * math.Pi * t.phase)
		}
		env := 1.0
		if t.fade > 0 {
			if t.pos < t.fade {
				env = float64(t.pos) / float64(t.fade)
			} else if rem := t.total - t.pos; rem < t.fade {
				env = float64(rem) / float64(t.fade)
			}
		}
		v *= env * t.volume
		samples[i][0] = v
		samples[i][1] = v

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// chime builds the streamer for kind, or nil for an unknown kind.
func chime(kind client.NoticeKind, rate beep.SampleRate) beep.Streamer {
	notes, ok := chimes[kind]
	if !ok {
		return nil
	}
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		parts = append(parts, newTone(n, rate))
	}
	return beep.Seq(parts...)
}

// Player implements client.Notifier. Until Init succeeds it is silent.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

func NewPlayer() *Player {
	return &Player{mixer: &beep.Mixer{}}
}

// Init opens the speaker. Callers treat failure as non-fatal: a client on
// a machine without audio keeps running silently.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

func (p *Player) Notify(kind client.NoticeKind, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	s := chime(kind, sampleRate)
	if s == nil {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.initialized = false
}
