//go:build windows

package transport

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// setReuse sets SO_REUSEADDR. Windows has no SO_REUSEPORT.
func setReuse(fd uintptr) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("SO_REUSEADDR: %w", err)
	}
	return nil
}
