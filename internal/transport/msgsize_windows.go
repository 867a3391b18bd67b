//go:build windows

package transport

import (
	"errors"

	"golang.org/x/sys/windows"
)

// isMsgSize reports a read that failed because the datagram did not fit.
// Windows fails the read where other systems truncate silently.
func isMsgSize(err error) bool {
	return errors.Is(err, windows.WSAEMSGSIZE)
}
