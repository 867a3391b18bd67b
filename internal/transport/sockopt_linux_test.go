//go:build linux

package transport

import (
	"context"
	"net"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"
)

func TestReuseControl(t *testing.T) {
	lc := net.ListenConfig{Control: reuseControl}
	c, err := lc.ListenPacket(context.Background(), "udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v, want nil", err)
	}
	defer func() { _ = c.Close() }()

	raw, err := c.(syscall.Conn).SyscallConn()
	if err != nil {
		t.Fatalf("SyscallConn() error = %v, want nil", err)
	}

	opts := []struct {
		name string
		opt  int
	}{
		{name: "SO_REUSEADDR", opt: unix.SO_REUSEADDR},
		{name: "SO_REUSEPORT", opt: unix.SO_REUSEPORT},
	}
	for _, o := range opts {
		t.Run(o.name, func(t *testing.T) {
			var (
				v      int
				getErr error
			)
			if err := raw.Control(func(fd uintptr) {
				v, getErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, o.opt)
			}); err != nil {
				t.Fatalf("Control() error = %v, want nil", err)
			}
			if getErr != nil {
				t.Fatalf("GetsockoptInt() error = %v, want nil", getErr)
			}
			if v == 0 {
				t.Errorf("%s = 0, want enabled", o.name)
			}
		})
	}
}

func TestReuseAllowsSharedBind(t *testing.T) {
	lc := net.ListenConfig{Control: reuseControl}
	first, err := lc.ListenPacket(context.Background(), "udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v, want nil", err)
	}
	defer func() { _ = first.Close() }()

	second, err := lc.ListenPacket(context.Background(), "udp4", first.LocalAddr().String())
	if err != nil {
		t.Fatalf("second ListenPacket(%s) error = %v, want nil", first.LocalAddr(), err)
	}
	_ = second.Close()
}

func TestSetReuse_IgnoresUnsupportedReusePort(t *testing.T) {
	if !unsupported(unix.ENOPROTOOPT) {
		t.Error("unsupported(ENOPROTOOPT) = false, want true")
	}
	if unsupported(unix.EBADF) {
		t.Error("unsupported(EBADF) = true, want false")
	}
}
