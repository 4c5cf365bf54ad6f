//go:build windows

package keysend

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard  = 1
	keyEventFKeyUp = 0x0002
	vkF5           = 0x74
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// input mirrors the Win32 INPUT struct: a 4-byte type, padding to pointer
// alignment, then a union sized for MOUSEINPUT (largest member).
type input struct {
	inputType uint32
	_         uint32
	ki        keyboardInput
	_         [8]byte
}

func (s *Sender) pressF5() error {
	down := input{inputType: inputKeyboard, ki: keyboardInput{wVk: vkF5}}
	if err := sendInput(&down); err != nil {
		return fmt.Errorf("failed to press quicksave key: %w", err)
	}

	s.clock.Sleep(keyHoldDuration)

	up := input{inputType: inputKeyboard, ki: keyboardInput{wVk: vkF5, dwFlags: keyEventFKeyUp}}
	if err := sendInput(&up); err != nil {
		return fmt.Errorf("failed to release quicksave key: %w", err)
	}
	return nil
}

func sendInput(in *input) error {
	n, _, callErr := procSendInput.Call(1, uintptr(unsafe.Pointer(in)), unsafe.Sizeof(*in))
	if n != 1 {
		return fmt.Errorf("SendInput rejected the event: %w", callErr)
	}
	return nil
}
