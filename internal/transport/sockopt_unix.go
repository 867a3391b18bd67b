//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package transport

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// setReuse lets several mDNS responders on one host share port 5353.
func setReuse(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("SO_REUSEADDR: %w", err)
	}
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil && !unsupported(err) {
		return fmt.Errorf("SO_REUSEPORT: %w", err)
	}
	return nil
}

// unsupported reports a kernel that does not know the option.
func unsupported(err error) bool {
	return errors.Is(err, unix.ENOPROTOOPT)
}
