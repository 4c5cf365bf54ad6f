package saver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dannystewart/starfieldsaver/config"
)

// reconcile decides whether an observed save file should be copied into a
// numbered slot and performs the copy. It is the single consumer of the
// scheduled-save flag and the de-duplication state, so the whole decision runs
// under the coordinator lock; concurrent events queue on the lock rather than
// interleaving a partial update.
func (c *Coordinator) reconcile(rec SaveRecord, cfg config.Config) CopyResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	base := filepath.Base(rec.Path)
	c.log.Debug().Msgf("New save detected: %s", base)

	if rec.Path == c.lastCopiedSource {
		c.log.Debug().Msgf("Skipping save already copied: %s", base)
		return CopySkipped
	}

	if rec.Kind == SaveManual {
		// Already in a numbered slot, created by the player directly.
		c.log.Debug().Msgf("Skipping manual save: %s", base)
		return CopySkipped
	}

	if c.scheduledSavePending {
		// Presumed to be the result of our own key press, regardless of kind:
		// the scheduler already owns this event, so no timestamp comparison.
		c.log.Info().Msgf("Copying new scheduled %s to regular save: %s", rec.Kind, base)
		res := c.copySave(rec, cfg, true, true)
		c.scheduledSavePending = false
		return res
	}

	if !c.lastQuicksave.IsZero() && !rec.ModTime.After(c.lastQuicksave) {
		// Stale event or a file we already know about.
		c.log.Debug().Msgf("Skipping save not newer than last quicksave: %s", base)
		return CopySkipped
	}

	if rec.Kind == SaveAutosave {
		c.log.Debug().Msgf("New autosave: %s", base)
		return c.copySave(rec, cfg, true, false)
	}
	return c.copySave(rec, cfg, false, false)
}

// copySave allocates the next slot ID, copies the source there and updates the
// de-duplication state. Caller holds the coordinator lock. Tones and logs are
// side channels only and never change the result.
func (c *Coordinator) copySave(rec SaveRecord, cfg config.Config, auto, scheduled bool) CopyResult {
	files, err := listSaveFiles(cfg.SaveDirectory)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to list save directory.")
		c.sounds.PlayError()
		return CopyFailed
	}

	highest, next := nextSaveID(files, c.log)
	c.log.Debug().Msgf("Found %d saves. Highest ID is %d. Next ID is %d.", len(files), highest, next)

	newName := sourcePrefixPattern.ReplaceAllString(filepath.Base(rec.Path), fmt.Sprintf("Save%d", next))
	destination := filepath.Join(cfg.SaveDirectory, newName)

	if err := c.copyFileRetry(rec.Path, destination); err != nil {
		c.log.Error().Err(err).Msgf("Failed to copy %s.", filepath.Base(rec.Path))
		c.sounds.PlayError()
		return CopyFailed
	}

	prefix := ""
	if scheduled {
		prefix = "scheduled "
	}
	c.log.Info().Msgf("Copied most recent %s%s to %s.", prefix, rec.Kind, newName)

	if auto {
		c.sounds.PlaySuccess()
	} else {
		c.sounds.PlayNotification()
	}

	c.lastCopiedSource = rec.Path
	if rec.Kind == SaveQuicksave {
		// A player quicksave re-arms the interval clock; autosaves don't.
		c.lastQuicksave = rec.ModTime
		c.log.Debug().Msgf("Reset interval timer due to quicksave: %s", filepath.Base(rec.Path))
	}
	return CopyCopied
}

// copyFileRetry copies with a small bounded retry. Transient failures are
// expected here: the copy races the game's own write of the source file.
func (c *Coordinator) copyFileRetry(src, dst string) error {
	var lastErr error
	for attempt := 1; attempt <= copyMaxAttempts; attempt++ {
		if attempt > 1 {
			c.clock.Sleep(copyRetryDelay)
		}
		if err := copyFile(src, dst); err != nil {
			lastErr = err
			c.log.Debug().Err(err).Int("attempt", attempt).Msg("copy attempt failed")
			continue
		}
		return nil
	}
	return lastErr
}

// copyFile copies bytes and file mode, preserves the source modification time
// and makes sure the destination is flushed and closed before returning.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy data: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to sync destination: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close destination: %w", err)
	}

	_ = os.Chtimes(dst, time.Now(), info.ModTime())
	return nil
}

// listSaveFiles returns the full paths of all save files in dir.
func listSaveFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read save directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), SaveFileExt) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
