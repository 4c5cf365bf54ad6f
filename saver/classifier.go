package saver

import (
	"path/filepath"
	"strings"
)

// ClassifySave maps a save filename to its kind based on the game's naming
// scheme: the fixed quicksave slot, a rotating autosave slot, or a numbered
// save the player created directly.
func ClassifySave(path string) SaveKind {
	name := filepath.Base(path)
	if strings.HasPrefix(name, quicksaveSlotPrefix) {
		return SaveQuicksave
	}
	if autosavePattern.MatchString(name) {
		return SaveAutosave
	}
	return SaveManual
}
