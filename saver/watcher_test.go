package saver

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDirWatcherCloseUnblocksTranslate floods the event buffer with no consumer
// attached and verifies close() still lets the translate goroutine exit, which
// it signals by closing the events channel.
func TestDirWatcherCloseUnblocksTranslate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := newDirWatcher(dir)
	require.NoError(t, err)

	// Well past the buffer size, so translate ends up blocked on a send.
	for i := 0; i < 40; i++ {
		writeSave(t, dir, fmt.Sprintf("Save%d_AABBCCDD.sfs", i+1), time.Now())
	}

	w.close()

	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-w.events:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, 5*time.Second, 50*time.Millisecond)
}

func TestDirWatcherCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	w, err := newDirWatcher(t.TempDir())
	require.NoError(t, err)
	w.close()
	w.close()
}
