//go:build !windows

package keysend

import "errors"

func (s *Sender) pressF5() error {
	return errors.New("quicksave key injection is only supported on Windows")
}
