// Package gameproc answers the two process questions the synchronization
// engine asks: which processes are alive, and which one owns the focused
// window.
package gameproc

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

type Query struct{}

func New() *Query {
	return &Query{}
}

// ListRunningProcessNames returns the lowercased executable names of all live
// processes. Processes that disappear mid-scan are skipped.
func (q *Query) ListRunningProcessNames() (map[string]struct{}, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	names := make(map[string]struct{}, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		names[strings.ToLower(name)] = struct{}{}
	}
	return names, nil
}
