package saver

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(procs *fakeProcs) *ActivityMonitor {
	return newActivityMonitor(procs, zerolog.Nop())
}

func TestIsGameRunning(t *testing.T) {
	t.Parallel()

	t.Run("matches case-insensitively with exe suffix", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{}
		procs.set([]string{"starfield.exe", "explorer.exe"}, "")
		m := newTestMonitor(procs)

		assert.True(t, m.IsGameRunning("Starfield"))
	})

	t.Run("matches bare process name", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{}
		procs.set([]string{"starfield"}, "")
		m := newTestMonitor(procs)

		assert.True(t, m.IsGameRunning("Starfield"))
	})

	t.Run("absent process", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{}
		procs.set([]string{"explorer.exe"}, "")
		m := newTestMonitor(procs)

		assert.False(t, m.IsGameRunning("Starfield"))
		assert.False(t, m.gameRunning)
	})

	t.Run("query failure degrades to not running", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{namesErr: errors.New("permission denied")}
		m := newTestMonitor(procs)

		assert.False(t, m.IsGameRunning("Starfield"))
	})
}

func TestIsGameInForeground(t *testing.T) {
	t.Parallel()

	t.Run("prefix match tolerates exe suffix", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{}
		procs.set(nil, "Starfield.exe")
		m := newTestMonitor(procs)

		assert.True(t, m.IsGameInForeground("Starfield"))
	})

	t.Run("different focused process", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{}
		procs.set(nil, "chrome.exe")
		m := newTestMonitor(procs)

		assert.False(t, m.IsGameInForeground("Starfield"))
		assert.Equal(t, "chrome.exe", m.lastForeground)
	})

	t.Run("query failure degrades to not focused", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{fgErr: errors.New("no window")}
		m := newTestMonitor(procs)

		assert.False(t, m.IsGameInForeground("Starfield"))
	})
}

func TestReminderBackoff(t *testing.T) {
	t.Parallel()

	t.Run("grows while absent and caps at ceiling", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{}
		procs.set(nil, "chrome.exe")
		m := newTestMonitor(procs)

		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		require.False(t, m.IsGameRunning("Starfield"))
		m.UpdateReminder(now, "Starfield")
		require.True(t, m.waiting)

		for i := 0; i < 40; i++ {
			now = now.Add(m.reminderInterval + time.Second)
			m.UpdateReminder(now, "Starfield")
			assert.LessOrEqual(t, m.reminderInterval, reminderCeiling)
		}
		assert.Equal(t, reminderCeiling, m.reminderInterval)
	})

	t.Run("no reminder before the current interval elapses", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{}
		procs.set(nil, "chrome.exe")
		m := newTestMonitor(procs)

		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		require.False(t, m.IsGameRunning("Starfield"))
		m.UpdateReminder(now, "Starfield")
		marked := m.lastReminder
		interval := m.reminderInterval

		m.UpdateReminder(now.Add(interval/2), "Starfield")
		assert.Equal(t, marked, m.lastReminder, "reminder fired too early")

		m.UpdateReminder(now.Add(interval+time.Second), "Starfield")
		assert.NotEqual(t, marked, m.lastReminder, "reminder did not fire after interval")
	})

	t.Run("resets to default when game becomes active again", func(t *testing.T) {
		t.Parallel()
		procs := &fakeProcs{}
		procs.set(nil, "chrome.exe")
		m := newTestMonitor(procs)

		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		require.False(t, m.IsGameRunning("Starfield"))
		for i := 0; i < 5; i++ {
			m.UpdateReminder(now, "Starfield")
			now = now.Add(m.reminderInterval + time.Second)
		}
		require.Greater(t, m.reminderInterval, reminderDefault)

		procs.set([]string{"starfield.exe"}, "Starfield.exe")
		require.True(t, m.IsGameRunning("Starfield"))
		require.True(t, m.IsGameInForeground("Starfield"))
		m.UpdateReminder(now, "Starfield")

		assert.False(t, m.waiting)
		assert.Equal(t, reminderDefault, m.reminderInterval)
	})
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want string
		d    time.Duration
	}{
		{"45s", 45 * time.Second},
		{"2m", 2 * time.Minute},
		{"2m 30s", 150 * time.Second},
		{"1h 5m", 65 * time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}
