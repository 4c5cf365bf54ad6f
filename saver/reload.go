package saver

import (
	"path/filepath"

	"github.com/rs/zerolog"
)

// soundConfigurer is implemented by notifiers whose volume and enable settings
// can be re-applied after a config reload.
type soundConfigurer interface {
	Configure(enabled bool, infoVolume, errorVolume float64)
}

// pumpConfigEvents watches the config file's directory and triggers a reload
// when the file itself changes. Reloads run inline on this goroutine: they are
// bounded (a few reads plus a pruning pass) and must not overlap each other,
// since a reload may swap the save directory watcher.
func (c *Coordinator) pumpConfigEvents(w *dirWatcher) {
	defer c.wg.Done()

	c.log.Debug().Msg("Config file watcher started.")
	defer c.log.Debug().Msg("Config file watcher stopped.")

	cfgName := filepath.Base(c.store.Path())

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-w.events:
			if !ok {
				return
			}
			if ev.IsDir || filepath.Base(ev.Path) != cfgName {
				continue
			}
			switch ev.Kind {
			case EventCreated, EventModified, EventRenamed:
				c.guard("config reload", c.onConfigFileChanged)
			default:
			}
		case err, ok := <-w.errors:
			if !ok {
				return
			}
			c.log.Error().Err(err).Msg("Config file watcher error.")
		}
	}
}

// onConfigFileChanged reloads the configuration and re-points whatever the
// change affects: log verbosity, the save directory watch, sound settings and
// the pruning schedule. A reload failure keeps the previous configuration
// untouched and only logs a warning.
func (c *Coordinator) onConfigFileChanged() {
	newCfg, err := c.store.Load()
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to reload config. Continuing with previous config.")
		return
	}

	c.mu.Lock()
	oldCfg := c.cfg
	c.cfg = newCfg
	c.mu.Unlock()

	c.log.Info().Msg("Reloaded config due to modification on disk.")

	if oldCfg.DebugLog != newCfg.DebugLog {
		applyLogLevel(newCfg.DebugLog)
		level := "info"
		if newCfg.DebugLog {
			level = "debug"
		}
		c.log.Info().Msgf("Logger level updated to %s.", level)
	}

	if oldCfg.SaveDirectory != newCfg.SaveDirectory {
		c.rebindSaveWatcher(newCfg.SaveDirectory)
	}

	if sc, ok := c.sounds.(soundConfigurer); ok {
		sc.Configure(newCfg.EnableSounds, newCfg.InfoVolume, newCfg.ErrorVolume)
	}

	c.logConfigSummary(newCfg)
	c.pruner.Cleanup(newCfg)
}

// rebindSaveWatcher closes the current save directory watch and arms a new one
// against dir. The old pump goroutine exits when its events channel closes.
func (c *Coordinator) rebindSaveWatcher(dir string) {
	c.mu.Lock()
	if c.saveWatch != nil {
		c.saveWatch.close()
		c.saveWatch = nil
	}
	c.mu.Unlock()

	w, err := newDirWatcher(dir)
	if err != nil {
		c.log.Error().Err(err).Msgf("Failed to watch new save directory: %s", dir)
		return
	}

	c.mu.Lock()
	c.saveWatch = w
	c.mu.Unlock()

	c.wg.Add(1)
	go c.pumpSaveEvents(w)
	c.log.Info().Msgf("Watching new save directory: %s", dir)
}

// applyLogLevel maps the debug toggle onto the global zerolog level. Package
// loggers carry no level of their own, so the global level is the gate.
func applyLogLevel(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
