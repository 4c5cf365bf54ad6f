// Package sound plays the utility's feedback tones through the system mixer.
// Playback is asynchronous and best effort: a broken audio stack downgrades
// every tone to a debug log line.
package sound

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog"
)

const sampleRate = beep.SampleRate(44100)

// The speaker is process-global in beep; initialize it once no matter how
// many players are constructed.
var (
	speakerOnce sync.Once
	speakerErr  error
)

type note struct {
	freq     int // 0 means a rest
	duration time.Duration
}

// Player produces the three tone sequences the engine uses for feedback.
type Player struct {
	log         zerolog.Logger
	mu          sync.Mutex
	infoVolume  float64
	errorVolume float64
	enabled     bool
}

func NewPlayer(enabled bool, infoVolume, errorVolume float64, logger zerolog.Logger) *Player {
	p := &Player{
		log:         logger,
		enabled:     enabled,
		infoVolume:  infoVolume,
		errorVolume: errorVolume,
	}
	if enabled && !initSpeaker() {
		p.log.Warn().Err(speakerErr).Msg("Audio unavailable, sounds disabled.")
		p.enabled = false
	}
	return p
}

func initSpeaker() bool {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	})
	return speakerErr == nil
}

// Configure re-applies sound settings after a config reload.
func (p *Player) Configure(enabled bool, infoVolume, errorVolume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.infoVolume = infoVolume
	p.errorVolume = errorVolume
	p.enabled = enabled && initSpeaker()
}

// PlaySuccess plays the short tone confirming an automatic save copy.
func (p *Player) PlaySuccess() {
	p.play("success", p.infoVol(), note{440, 50 * time.Millisecond})
}

// PlayNotification plays the two-tone chime for a player-initiated copy.
func (p *Player) PlayNotification() {
	p.play("notification", p.infoVol(),
		note{400, 100 * time.Millisecond},
		note{800, 100 * time.Millisecond},
	)
}

// PlayError plays the alternating low alarm for a failed copy.
func (p *Player) PlayError() {
	p.play("error", p.errVol(),
		note{500, 200 * time.Millisecond},
		note{0, 100 * time.Millisecond},
		note{300, 300 * time.Millisecond},
		note{0, 200 * time.Millisecond},
		note{500, 200 * time.Millisecond},
		note{0, 100 * time.Millisecond},
		note{300, 300 * time.Millisecond},
	)
}

func (p *Player) infoVol() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.infoVolume
}

func (p *Player) errVol() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errorVolume
}

func (p *Player) play(name string, volume float64, notes ...note) {
	p.mu.Lock()
	enabled := p.enabled
	p.mu.Unlock()
	if !enabled {
		return
	}
	p.log.Debug().Msgf("Playing %s sound.", name)

	streamers := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		samples := sampleRate.N(n.duration)
		if n.freq == 0 {
			streamers = append(streamers, beep.Silence(samples))
			continue
		}
		tone, err := generators.SineTone(sampleRate, float64(n.freq))
		if err != nil {
			p.log.Debug().Err(err).Msg("Failed to generate tone.")
			return
		}
		streamers = append(streamers, beep.Take(samples, tone))
	}

	speaker.Play(&effects.Volume{
		Streamer: beep.Seq(streamers...),
		Base:     2,
		Volume:   volumeGain(volume),
		Silent:   volume <= 0,
	})
}

// volumeGain maps a 0..1 linear volume onto beep's exponential scale.
func volumeGain(volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	return math.Log2(volume)
}
