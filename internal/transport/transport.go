// Package transport opens the IPv4 multicast socket the responder listens and
// answers on.
package transport

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

const (
	// Port is the mDNS port number.
	Port = 5353

	// TTL is the IP time-to-live put on every datagram, unicast or multicast.
	TTL = 255
)

var (
	// IPv4Group is the multicast group used for mDNS over IPv4.
	IPv4Group = netip.MustParseAddr("224.0.0.251")

	// IPv4Address is where unsolicited announcements are sent.
	IPv4Address = netip.AddrPortFrom(IPv4Group, Port)
)

// Error reports which step of socket setup or I/O failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds the socket parameters. The zero value binds the mDNS port.
type Config struct {
	// Port to bind on all local addresses. Zero means Port.
	Port int
}

func (c Config) bindAddr() string {
	port := c.Port
	if port == 0 {
		port = Port
	}
	return net.JoinHostPort(net.IPv4zero.String(), strconv.Itoa(port))
}
