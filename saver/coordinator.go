package saver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dannystewart/starfieldsaver/config"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

/*
The Coordinator is the top level of the save synchronization engine. It owns
the shared mutable state (last quicksave time, de-duplication key, scheduled
save flag) and serializes the three event sources that converge on it: the
periodic tick, save directory notifications and config file notifications.
Background routines only start when Start() is called; Shutdown() cancels the
context, closes both watchers and joins every goroutine before returning.
*/

// Coordinator correlates the interval timer, filesystem events and game
// process state into copy decisions. One instance per process run.
type Coordinator struct {
	clock   clockwork.Clock
	store   *config.Store
	keys    KeyPresser
	sounds  Notifier
	monitor *ActivityMonitor
	pruner  *Pruner
	cancel  context.CancelFunc
	ctx     context.Context

	saveWatch *dirWatcher
	cfgWatch  *dirWatcher

	// State below is guarded by mu. lastQuicksave is zero until the first
	// quicksave is confirmed; lastCopiedSource is the de-duplication key.
	mu                   sync.Mutex
	cfg                  config.Config
	lastQuicksave        time.Time
	lastCopiedSource     string
	scheduledSavePending bool

	log zerolog.Logger
	wg  sync.WaitGroup
}

// New creates a Coordinator. A nil clock means the real clock.
func New(
	store *config.Store,
	cfg config.Config,
	keys KeyPresser,
	sounds Notifier,
	procs ProcessQuery,
	clock clockwork.Clock,
	logger zerolog.Logger,
) *Coordinator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	id := uuid.New()
	logger = logger.With().Str("sync", "SV"+id.String()[:6]).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		clock:   clock,
		store:   store,
		keys:    keys,
		sounds:  sounds,
		monitor: newActivityMonitor(procs, logger),
		pruner:  newPruner(clock, logger),
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		log:     logger,
	}
}

// Start arms both watchers and begins the tick loop. It blocks until the save
// directory exists, since the game creates it lazily on the first save.
func (c *Coordinator) Start() error {
	cfg := c.snapshotConfig()

	if err := c.waitForSaveDir(cfg.SaveDirectory); err != nil {
		return err
	}

	saveWatch, err := newDirWatcher(cfg.SaveDirectory)
	if err != nil {
		return fmt.Errorf("failed to watch save directory: %w", err)
	}
	cfgWatch, err := newDirWatcher(filepath.Dir(c.store.Path()))
	if err != nil {
		saveWatch.close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	c.mu.Lock()
	c.saveWatch = saveWatch
	c.cfgWatch = cfgWatch
	c.mu.Unlock()

	c.wg.Add(3)
	go c.pumpSaveEvents(saveWatch)
	go c.pumpConfigEvents(cfgWatch)
	go c.run()

	c.log.Info().Msgf("Started quicksave utility for %s.exe.", cfg.ProcessName)
	c.logConfigSummary(cfg)
	c.pruner.Cleanup(cfg)

	return nil
}

// Shutdown stops the tick loop and both watchers and waits for all background
// work to finish. A copy in flight completes or fails before this returns.
func (c *Coordinator) Shutdown() {
	c.log.Info().Msg("Exiting quicksave utility.")
	c.cancel()

	c.mu.Lock()
	if c.saveWatch != nil {
		c.saveWatch.close()
		c.saveWatch = nil
	}
	if c.cfgWatch != nil {
		c.cfgWatch.close()
		c.cfgWatch = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.log.Debug().Msg("All background tasks stopped.")
}

// waitForSaveDir polls until the configured save directory exists.
func (c *Coordinator) waitForSaveDir(dir string) error {
	for {
		stat, err := os.Stat(dir)
		if err == nil {
			if !stat.IsDir() {
				return fmt.Errorf("save path %s is not a directory", dir)
			}
			return nil
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("error checking save directory %s: %w", dir, err)
		}

		c.log.Info().Msgf("Waiting for save folder %s to be created by the game...", dir)
		select {
		case <-c.ctx.Done():
			return fmt.Errorf("stopped while waiting for save directory: %w", c.ctx.Err())
		case <-c.clock.After(dirPollInterval):
		}
	}
}

// run is the periodic tick loop. The sleep interval is re-read every cycle so
// a config reload takes effect on the next tick.
func (c *Coordinator) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			c.log.Debug().Msg("Tick loop stopped due to context cancellation.")
			return
		case <-c.clock.After(c.snapshotConfig().CheckIntervalDuration()):
			c.guard("tick", func() {
				c.onTick(c.clock.Now())
			})
		}
	}
}

// onTick runs one scheduling cycle: refresh the process/focus memo, update the
// waiting reminder, and trigger a quicksave or pruning pass when due.
func (c *Coordinator) onTick(now time.Time) {
	cfg := c.snapshotConfig()

	running := c.monitor.IsGameRunning(cfg.ProcessName)
	foreground := running && c.monitor.IsGameInForeground(cfg.ProcessName)
	c.monitor.UpdateReminder(now, cfg.ProcessName)

	if !running || !foreground {
		return
	}

	if cfg.QuicksaveSave {
		c.maybeTriggerQuicksave(now, cfg)
	}
	c.pruner.MaybeCleanup(cfg)
}

// pumpSaveEvents forwards save directory notifications to the reconciler. It
// never blocks on a copy: each qualifying event is handled on its own tracked
// goroutine, which then queues on the coordinator lock.
func (c *Coordinator) pumpSaveEvents(w *dirWatcher) {
	defer c.wg.Done()

	c.log.Debug().Msg("Save directory watcher started.")
	defer c.log.Debug().Msg("Save directory watcher stopped.")

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-w.events:
			if !ok {
				return
			}
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				c.guard("save event", func() {
					c.OnSaveDirEvent(ev)
				})
			}()
		case err, ok := <-w.errors:
			if !ok {
				return
			}
			c.log.Error().Err(err).Msg("Save directory watcher error.")
		}
	}
}

// OnSaveDirEvent handles one filesystem notification from the save directory.
func (c *Coordinator) OnSaveDirEvent(ev FileEvent) {
	if ev.IsDir {
		return
	}
	switch ev.Kind {
	case EventCreated, EventModified, EventRenamed:
	default:
		return
	}

	path := ev.Path
	if ev.DestPath != "" {
		path = ev.DestPath
	}
	if !strings.EqualFold(filepath.Ext(path), SaveFileExt) {
		c.log.Debug().Msgf("Changed file is not a game save, ignoring: %s", filepath.Base(path))
		return
	}

	cfg := c.snapshotConfig()
	if !cfg.QuicksaveCopy {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// The file may already be gone again (the game writes via temp files).
		c.log.Debug().Err(err).Msgf("Could not stat save file: %s", filepath.Base(path))
		return
	}

	rec := SaveRecord{
		Path:    path,
		Kind:    ClassifySave(path),
		ModTime: info.ModTime(),
	}
	c.reconcile(rec, cfg)
}

// guard is the handler-boundary recovery: one bad tick or event must never
// take the engine down.
func (c *Coordinator) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msgf("An error occurred during %s handling.", name)
			c.sounds.PlayError()
			c.clock.Sleep(errorCooldown)
		}
	}()
	fn()
}

func (c *Coordinator) snapshotConfig() config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func (c *Coordinator) logConfigSummary(cfg config.Config) {
	saving := "save disabled"
	if cfg.QuicksaveSave {
		saving = fmt.Sprintf("save every %.0fs", cfg.QuicksaveInterval)
	}
	copying := ""
	if !cfg.QuicksaveCopy {
		copying = ", copy disabled"
	}
	sounds := "disabled"
	if cfg.EnableSounds {
		sounds = "enabled"
	}
	c.log.Debug().Msgf("Loaded config: check every %.0fs, %s%s, sounds %s",
		cfg.CheckInterval, saving, copying, sounds)
}
