package saver

import (
	"time"

	"github.com/dannystewart/starfieldsaver/config"
)

// maybeTriggerQuicksave fires the quicksave key if enough time has elapsed
// since the last known quicksave, and reports whether it did. The decision is
// based on the last-fired time rather than a tick grid, so a late tick never
// double-fires. A failed key send still counts as a schedule: there is no way
// to confirm the keystroke reached the game, and the filesystem event is the
// real confirmation either way.
func (c *Coordinator) maybeTriggerQuicksave(now time.Time, cfg config.Config) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastQuicksave.IsZero() && now.Sub(c.lastQuicksave) < cfg.QuicksaveIntervalDuration() {
		return false
	}

	c.scheduledSavePending = true
	if err := c.keys.PressQuicksaveKey(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to send quicksave key.")
	} else {
		c.log.Info().Msg("Quicksaved on schedule.")
	}
	c.lastQuicksave = now
	return true
}
