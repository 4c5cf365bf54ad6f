package saver

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ActivityMonitor tracks whether the game process is running and focused, and
// owns the backoff for "still waiting" log reminders while it isn't. All of
// its state is touched only from the coordinator's tick handler.
type ActivityMonitor struct {
	lastReminder     time.Time
	procs            ProcessQuery
	log              zerolog.Logger
	lastForeground   string
	reminderInterval time.Duration
	gameRunning      bool
	gameInForeground bool
	waiting          bool
}

func newActivityMonitor(procs ProcessQuery, logger zerolog.Logger) *ActivityMonitor {
	return &ActivityMonitor{
		procs:            procs,
		log:              logger,
		gameRunning:      true,
		gameInForeground: true,
		reminderInterval: reminderDefault,
	}
}

// IsGameRunning reports whether a process with the configured name is live.
// The comparison is case-insensitive and tolerates an ".exe" suffix. Query
// failures degrade to "not running" rather than erroring.
func (m *ActivityMonitor) IsGameRunning(processName string) bool {
	names, err := m.procs.ListRunningProcessNames()
	if err != nil {
		m.log.Debug().Err(err).Msg("failed to list processes")
		m.gameRunning = false
		return false
	}

	target := strings.ToLower(processName)
	_, running := names[target]
	if !running {
		_, running = names[target+".exe"]
	}

	if !running {
		if m.gameRunning {
			m.log.Info().Msgf("Skipping checks while %s.exe is not running.", processName)
		}
		m.gameRunning = false
	} else {
		m.gameRunning = true
	}
	return running
}

// IsGameInForeground reports whether the focused window belongs to the game,
// matching the focused executable name as a case-insensitive prefix of the
// configured process name.
func (m *ActivityMonitor) IsGameInForeground(processName string) bool {
	foreground, err := m.procs.ForegroundProcessExecutableName()
	if err != nil {
		m.log.Debug().Err(err).Msg("failed to query foreground window")
		m.gameInForeground = false
		return false
	}

	active := strings.HasPrefix(strings.ToLower(foreground), strings.ToLower(processName))
	if !active {
		if m.gameInForeground || foreground != m.lastForeground {
			m.log.Info().Msgf("Skipping checks while %s is in focus.", foreground)
		}
		m.gameInForeground = false
		m.lastForeground = foreground
	} else {
		m.gameInForeground = true
	}
	return active
}

// UpdateReminder runs once per tick, after the running/foreground checks have
// refreshed the memo for this tick's state. While the game is absent it emits
// at most one "still waiting" line per current reminder interval, growing the
// interval up to a hard ceiling; the interval resets the moment the game is
// running and focused again.
func (m *ActivityMonitor) UpdateReminder(now time.Time, processName string) {
	if m.gameRunning && m.gameInForeground {
		m.waiting = false
		m.reminderInterval = reminderDefault
		return
	}

	if !m.waiting {
		m.waiting = true
		m.lastReminder = now
		m.growReminder()
		return
	}

	if now.Sub(m.lastReminder) > m.reminderInterval {
		m.log.Info().Msgf("Still waiting for %s.exe.", processName)
		m.lastReminder = now
		m.growReminder()
	}
}

func (m *ActivityMonitor) growReminder() {
	if m.reminderInterval < reminderCeiling {
		m.reminderInterval += reminderStep
		m.log.Debug().Msgf("Next inactivity reminder in %s.", formatDuration(m.reminderInterval))
	}
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case seconds == 0:
		return fmt.Sprintf("%dm", minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
