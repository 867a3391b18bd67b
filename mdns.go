// Package hostmdns is a minimal multicast DNS responder. It advertises a set
// of hostnames with their IPv4 (and optionally IPv6) addresses and answers
// queries for them on 224.0.0.251:5353.
package hostmdns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"

	"github.com/maeshinshin/hostmdns/internal/transport"
)

// maxDatagram is the most read from the socket per datagram; anything longer
// is truncated and fails to decode.
const maxDatagram = 1024

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

// New returns a stopped responder with an empty record store.
func New(opts ...Option) (*Responder, error) {
	r := &Responder{
		store:  newRecordStore(),
		open:   listenUDPv4,
		logger: logger,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if r.onFault == nil {
		r.onFault = exitOnFault(r.logger)
	}
	return r, nil
}

func listenUDPv4(ctx context.Context) (PacketConn, error) {
	t, err := transport.ListenUDPv4(ctx, transport.Config{})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func exitOnFault(l *slog.Logger) FaultHandler {
	return func(err error) {
		l.Error("mDNS listener failed, exiting", "error", err)
		os.Exit(1)
	}
}

// AddRecord stores the record for host, replacing any earlier one, and
// announces it to the multicast group. A zero ipv6 advertises IPv4 only.
// While stopped the record is only stored.
func (r *Responder) AddRecord(host string, ttl uint32, ipv4, ipv6 netip.Addr) error {
	rec := Record{Host: host, TTL: ttl, IPv4: ipv4, IPv6: ipv6}
	if err := rec.validate(); err != nil {
		return err
	}
	r.store.put(rec)
	r.logger.Info("Added record", "host", rec.Host, "ttl", rec.TTL, "ipv4", rec.IPv4, "ipv6", rec.IPv6)

	if err := r.respond(rec, nil, transport.IPv4Address); err != nil {
		return fmt.Errorf("failed to announce %s: %w", rec.Host, err)
	}
	return nil
}

// RemoveRecord forgets host and, while running, sends a goodbye (TTL 0) so
// peers drop it from their caches.
func (r *Responder) RemoveRecord(host string) error {
	rec, ok := r.store.remove(host)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHost, host)
	}
	r.logger.Info("Removed record", "host", rec.Host)

	rec.TTL = 0
	if err := r.respond(rec, nil, transport.IPv4Address); err != nil {
		return fmt.Errorf("failed to send goodbye for %s: %w", rec.Host, err)
	}
	return nil
}

// Hosts returns the advertised hostnames, sorted.
func (r *Responder) Hosts() []string {
	return r.store.hosts()
}

// Records returns a snapshot of the advertised records, sorted by host.
func (r *Responder) Records() []Record {
	return r.store.all()
}

// Start opens the socket, starts answering queries and announces every stored
// record once before returning. Cancelling ctx stops the responder.
//
// On error nothing is left running.
func (r *Responder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.conn != nil {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	conn, err := r.open(ctx)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to start mDNS responder: %w", err)
	}
	done := make(chan struct{})
	r.conn, r.done = conn, done
	r.unwatch = context.AfterFunc(ctx, func() {
		_ = r.stop(conn)
	})
	go r.listen(conn, done)
	r.mu.Unlock()

	recs := r.store.all()
	r.logger.Info("Started mDNS responder", "address", transport.IPv4Address.String(), "records", len(recs))
	for _, rec := range recs {
		if err := r.respond(rec, nil, transport.IPv4Address); err != nil {
			_ = r.stop(conn)
			return fmt.Errorf("failed to announce %s: %w", rec.Host, err)
		}
	}
	return nil
}

// Stop closes the socket and waits for the listener to exit. Stopping a
// stopped responder does nothing.
func (r *Responder) Stop() error {
	return r.stop(nil)
}

// Reset forgets every record and stops. Start must be called again to resume.
func (r *Responder) Reset() error {
	r.store.reset()
	return r.Stop()
}

// stop tears down the running socket. A non-nil only restricts it to that
// socket, so a late context or fault cannot stop a later run.
func (r *Responder) stop(only PacketConn) error {
	r.mu.Lock()
	conn, done, unwatch := r.conn, r.done, r.unwatch
	if conn == nil || (only != nil && conn != only) {
		r.mu.Unlock()
		return nil
	}
	r.conn, r.done, r.unwatch = nil, nil, nil
	r.mu.Unlock()

	unwatch()
	err := conn.Close()
	<-done

	r.logger.Info("Stopped mDNS responder")
	if err != nil {
		return fmt.Errorf("failed to close mDNS socket: %w", err)
	}
	return nil
}

func (r *Responder) running(conn PacketConn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn == conn
}

func (r *Responder) listen(conn PacketConn, done chan struct{}) {
	var fault error
	defer func() {
		close(done)
		if fault != nil {
			_ = r.stop(conn)
			r.onFault(fault)
		}
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if !r.running(conn) {
				return
			}
			fault = fmt.Errorf("failed to read from mDNS socket: %w", err)
			return
		}
		r.handlePacket(buf[:n], from)
	}
}

func (r *Responder) handlePacket(packet []byte, from netip.AddrPort) {
	q, err := decodeQuery(packet)
	if err != nil {
		if errors.Is(err, errNotDNS) || errors.Is(err, errMalformed) {
			r.logger.Debug("Discarding datagram", "from", from.String(), "error", err)
		} else {
			r.logger.Error("Failed to decode datagram", "from", from.String(), "error", err)
		}
		return
	}
	if q.header.Response {
		return
	}

	for _, rec := range r.store.match(q.names()) {
		if err := r.respond(rec, q, from); err != nil {
			r.logger.Warn("Failed to send DNS response", "host", rec.Host, "to", from.String(), "error", err)
		}
	}
}

// respond sends the response for rec to to. q is the query being answered, or
// nil for an announcement. Without an open socket it does nothing.
func (r *Responder) respond(rec Record, q *query, to netip.AddrPort) error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return nil
	}

	packed, err := buildResponse(rec, q)
	if err != nil {
		return err
	}
	if _, err := conn.WriteTo(packed, to); err != nil {
		if !r.running(conn) {
			return nil
		}
		return fmt.Errorf("failed to send to %s: %w", to, err)
	}
	r.logger.Debug("Sent DNS response", "host", rec.Host, "ttl", rec.TTL, "to", to.String(), "solicited", q != nil)
	return nil
}
