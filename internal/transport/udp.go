package transport

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"syscall"

	"golang.org/x/net/ipv4"
)

// UDPv4 is a UDP socket bound to the mDNS port that has joined 224.0.0.251.
// Reads and writes may happen from different goroutines.
type UDPv4 struct {
	conn *net.UDPConn
	pc   *ipv4.PacketConn
}

// ListenUDPv4 binds, configures and joins the mDNS group. On error nothing is
// left open.
func ListenUDPv4(ctx context.Context, cfg Config) (*UDPv4, error) {
	lc := net.ListenConfig{Control: reuseControl}
	c, err := lc.ListenPacket(ctx, "udp4", cfg.bindAddr())
	if err != nil {
		return nil, &Error{Op: "bind", Err: err}
	}
	conn, ok := c.(*net.UDPConn)
	if !ok {
		_ = c.Close()
		return nil, &Error{Op: "bind", Err: errors.New("not a UDP socket")}
	}

	t := &UDPv4{conn: conn, pc: ipv4.NewPacketConn(conn)}
	if err := t.configure(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return t, nil
}

func (t *UDPv4) configure() error {
	if err := joinGroup(t.pc, &net.UDPAddr{IP: IPv4Group.AsSlice()}); err != nil {
		return &Error{Op: "join group", Err: err}
	}
	if err := t.pc.SetTTL(TTL); err != nil {
		return &Error{Op: "set unicast ttl", Err: err}
	}
	if err := t.pc.SetMulticastTTL(TTL); err != nil {
		return &Error{Op: "set multicast ttl", Err: err}
	}
	// Lets other responders and resolvers on this host see our announcements.
	if err := t.pc.SetMulticastLoopback(true); err != nil {
		return &Error{Op: "set multicast loopback", Err: err}
	}
	return nil
}

// joinGroup joins group on every interface that is up and multicast capable.
// When none accepts the membership it falls back to the system default.
func joinGroup(pc *ipv4.PacketConn, group net.Addr) error {
	joined := 0
	if ifaces, err := net.Interfaces(); err == nil {
		for i := range ifaces {
			ifi := &ifaces[i]
			if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
				continue
			}
			if err := pc.JoinGroup(ifi, group); err != nil {
				continue
			}
			joined++
		}
	}
	if joined > 0 {
		return nil
	}
	return pc.JoinGroup(nil, group)
}

// ReadFrom blocks until a datagram arrives or the socket is closed. A
// datagram longer than b is returned truncated, on every platform.
func (t *UDPv4) ReadFrom(b []byte) (int, netip.AddrPort, error) {
	n, from, err := t.conn.ReadFromUDPAddrPort(b)
	if err != nil {
		if !isMsgSize(err) {
			return 0, netip.AddrPort{}, err
		}
		n = min(n, len(b))
	}
	return n, unmap(from), nil
}

// WriteTo sends b as one datagram to to.
func (t *UDPv4) WriteTo(b []byte, to netip.AddrPort) (int, error) {
	return t.conn.WriteToUDPAddrPort(b, unmap(to))
}

// Close leaves the socket closed; a pending ReadFrom returns net.ErrClosed.
func (t *UDPv4) Close() error {
	if err := t.conn.Close(); err != nil {
		return &Error{Op: "close", Err: err}
	}
	return nil
}

func unmap(ap netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

func reuseControl(_, _ string, c syscall.RawConn) error {
	var opErr error
	if err := c.Control(func(fd uintptr) {
		opErr = setReuse(fd)
	}); err != nil {
		return err
	}
	return opErr
}
