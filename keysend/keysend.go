// Package keysend injects the in-game quicksave keystroke (F5). The send is
// fire and forget: nothing confirms the game acted on it, the save directory
// watcher does.
package keysend

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// keyHoldDuration is how long F5 stays pressed between down and up; the game
// drops instantaneous presses.
const keyHoldDuration = 200 * time.Millisecond

type Sender struct {
	clock clockwork.Clock
	log   zerolog.Logger
}

// New creates a Sender. A nil clock means the real clock.
func New(clock clockwork.Clock, logger zerolog.Logger) *Sender {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sender{clock: clock, log: logger}
}

// PressQuicksaveKey sends F5 to the focused window.
func (s *Sender) PressQuicksaveKey() error {
	s.log.Debug().Msg("Sending quicksave key.")
	return s.pressF5()
}
