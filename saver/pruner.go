package saver

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dannystewart/starfieldsaver/config"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const cleanupEvery = 24 * time.Hour

// Pruner thins out old numbered saves, keeping one per calendar day once they
// are older than the configured threshold. It runs at startup, after config
// reloads, and at most once per day from the tick loop.
type Pruner struct {
	clock       clockwork.Clock
	log         zerolog.Logger
	mu          sync.Mutex
	lastCleanup time.Time
}

func newPruner(clock clockwork.Clock, logger zerolog.Logger) *Pruner {
	return &Pruner{clock: clock, log: logger}
}

// MaybeCleanup runs a cleanup pass if one hasn't run in the last day.
func (p *Pruner) MaybeCleanup(cfg config.Config) {
	p.mu.Lock()
	due := p.lastCleanup.IsZero() || p.clock.Now().Sub(p.lastCleanup) >= cleanupEvery
	p.mu.Unlock()
	if due {
		p.Cleanup(cfg)
	}
}

// Cleanup scans the numbered saves and removes all but the newest save of each
// calendar day older than the threshold. With the dry-run flag set it only
// logs what it would remove.
func (p *Pruner) Cleanup(cfg config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastCleanup = p.clock.Now()

	if cfg.DaysBeforePruningSaves <= 0 {
		return
	}

	files, err := listSaveFiles(cfg.SaveDirectory)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to list saves for cleanup.")
		return
	}

	cutoff := p.clock.Now().AddDate(0, 0, -cfg.DaysBeforePruningSaves)

	type save struct {
		modTime time.Time
		path    string
	}
	byDay := make(map[string][]save)
	for _, f := range files {
		if !saveIDPattern.MatchString(filepath.Base(f)) {
			continue
		}
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		day := info.ModTime().Format("2006-01-02")
		byDay[day] = append(byDay[day], save{path: f, modTime: info.ModTime()})
	}

	removed := 0
	for _, saves := range byDay {
		if len(saves) < 2 {
			continue
		}
		sort.Slice(saves, func(i, j int) bool {
			return saves[i].modTime.After(saves[j].modTime)
		})
		// Keep the newest save of the day, drop the rest.
		for _, s := range saves[1:] {
			if cfg.SaveCleanupDryRun {
				p.log.Info().Msgf("Dry run: would remove old save %s.", filepath.Base(s.path))
				continue
			}
			if err := os.Remove(s.path); err != nil {
				p.log.Warn().Err(err).Msgf("Failed to remove old save %s.", filepath.Base(s.path))
				continue
			}
			p.log.Debug().Msgf("Removed old save %s.", filepath.Base(s.path))
			removed++
		}
	}

	if removed > 0 {
		p.log.Info().Msgf("Pruned %d old saves to one per day.", removed)
	}
}
