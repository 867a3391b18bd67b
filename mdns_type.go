package hostmdns

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"sync"
)

var (
	// ErrInvalidRecord is returned by AddRecord for a host or address that
	// cannot be advertised.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrUnknownHost is returned by RemoveRecord for a host that was never added.
	ErrUnknownHost = errors.New("unknown host")

	// ErrAlreadyStarted is returned by Start on a running responder.
	ErrAlreadyStarted = errors.New("mDNS responder already started")
)

// Record is one advertised hostname. IPv6 is optional; the zero netip.Addr
// means no AAAA record is sent.
type Record struct {
	Host string
	TTL  uint32
	IPv4 netip.Addr
	IPv6 netip.Addr
}

// PacketConn is the datagram socket the responder runs over. ReadFrom blocks
// until a datagram arrives; Close must unblock it.
type PacketConn interface {
	ReadFrom(b []byte) (int, netip.AddrPort, error)
	WriteTo(b []byte, to netip.AddrPort) (int, error)
	Close() error
}

// FaultHandler is called once when the listener goroutine dies for any reason
// other than Stop. The responder has already been stopped when it runs.
type FaultHandler func(err error)

// Responder answers A/AAAA queries for the hostnames it was given.
type Responder struct {
	store *recordStore

	mu      sync.Mutex // guards conn, done and unwatch
	conn    PacketConn
	done    chan struct{} // closed when the listener returns
	unwatch func() bool

	open    func(ctx context.Context) (PacketConn, error)
	logger  *slog.Logger
	onFault FaultHandler
}
