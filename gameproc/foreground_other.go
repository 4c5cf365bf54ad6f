//go:build !windows

package gameproc

// ForegroundProcessExecutableName has no meaningful answer without a Win32
// window manager; it reports an empty name, which the monitor treats as "game
// not focused".
func (q *Query) ForegroundProcessExecutableName() (string, error) {
	return "", nil
}
