package saver

import (
	"regexp"
	"time"
)

const (
	// SaveFileExt is the extension the game uses for all save files.
	SaveFileExt = ".sfs"

	quicksaveSlotPrefix = "Quicksave0"

	copyMaxAttempts = 3
	copyRetryDelay  = 500 * time.Millisecond

	dirPollInterval = 2500 * time.Millisecond
	errorCooldown   = 2 * time.Second

	reminderDefault = time.Minute
	reminderStep    = time.Minute
	reminderCeiling = 30 * time.Minute
)

var (
	// saveIDPattern matches a permanently numbered save slot, e.g. "Save42_0A1B2C3D...".
	saveIDPattern = regexp.MustCompile(`^Save(\d+)_[A-F0-9]{8}`)

	// autosavePattern matches the game's rotating autosave slots.
	autosavePattern = regexp.MustCompile(`^Autosave\d+`)

	// sourcePrefixPattern is the part of a source filename replaced by the
	// numbered slot prefix when computing the copy destination.
	sourcePrefixPattern = regexp.MustCompile(`^(Quicksave0|Autosave\d+)`)
)

// SaveKind identifies how a save file was produced.
type SaveKind int

const (
	SaveQuicksave SaveKind = iota
	SaveAutosave
	SaveManual
)

func (k SaveKind) String() string {
	switch k {
	case SaveQuicksave:
		return "quicksave"
	case SaveAutosave:
		return "autosave"
	default:
		return "manual save"
	}
}

// SaveRecord describes one observed save file. Records are derived from
// filesystem state on each observation and discarded once acted on.
type SaveRecord struct {
	ModTime time.Time
	Path    string
	Kind    SaveKind
}

// CopyResult is the outcome of reconciling an observed save.
type CopyResult int

const (
	CopySkipped CopyResult = iota
	CopyCopied
	CopyFailed
)

// KeyPresser sends the in-game quicksave keystroke. Fire and forget: there is
// no confirmation the game received it.
type KeyPresser interface {
	PressQuicksaveKey() error
}

// Notifier plays feedback tones. Best effort, failures are swallowed.
type Notifier interface {
	PlaySuccess()
	PlayNotification()
	PlayError()
}

// ProcessQuery answers questions about live processes and window focus.
type ProcessQuery interface {
	ListRunningProcessNames() (map[string]struct{}, error)
	ForegroundProcessExecutableName() (string, error)
}
