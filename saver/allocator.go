package saver

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// nextSaveID scans existing save filenames and returns the highest numbered
// slot ID found along with the next ID to allocate. Unparseable entries are
// skipped, never aborting the scan.
//
// The next ID is normally highest+1, with one guard: the digit count the IDs
// "should" have is derived from how many numbered saves actually exist, and if
// the next ID would exceed it while the highest ID isn't sitting at the top of
// its band (all nines), the jump is treated as corruption or manual deletion
// and the next ID snaps to the start of the next digit band instead.
func nextSaveID(files []string, logger zerolog.Logger) (highest, next int) {
	var ids []int
	for _, f := range files {
		m := saveIDPattern.FindStringSubmatch(filepath.Base(f))
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			logger.Error().Msgf("Failed to parse save ID for file: %s", f)
			continue
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		logger.Warn().Msg("No valid save IDs found, starting from 1.")
		return 0, 1
	}

	highest = ids[0]
	for _, id := range ids[1:] {
		if id > highest {
			highest = id
		}
	}
	next = highest + 1

	expectedDigits := len(strconv.Itoa(len(ids)))
	bandTop := strings.Repeat("9", expectedDigits)
	if len(strconv.Itoa(next)) > expectedDigits && strconv.Itoa(highest) != bandTop {
		adjusted := int(math.Pow10(expectedDigits))
		logger.Warn().Msgf(
			"Unexpected digit increase: highest ID %d across %d saves. Adjusting next ID to %d.",
			highest, len(ids), adjusted,
		)
		next = adjusted
	}

	// Never hand out a slot that already exists on disk: after a band snap the
	// target ID may collide with a survivor of earlier pruning, and reusing it
	// would overwrite that backup and stall allocation on the same number.
	taken := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		taken[id] = struct{}{}
	}
	for {
		if _, used := taken[next]; !used {
			break
		}
		next++
	}

	return highest, next
}
