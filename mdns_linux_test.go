//go:build linux

package hostmdns

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/maeshinshin/hostmdns/internal/transport"
)

func TestResponder_LoopbackQuery(t *testing.T) {
	spare, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v, want nil", err)
	}
	port := spare.LocalAddr().(*net.UDPAddr).Port
	_ = spare.Close()

	open := func(ctx context.Context) (PacketConn, error) {
		u, err := transport.ListenUDPv4(ctx, transport.Config{Port: port})
		if err != nil {
			return nil, err
		}
		return u, nil
	}
	r := newTestResponder(t, nil, WithTransport(open))
	addRecord(t, r, "loop.local", 120, "192.168.1.5", "fe80::1")

	if err := r.Start(context.Background()); err != nil {
		var terr *transport.Error
		if errors.As(err, &terr) && terr.Op == "join group" {
			t.Skipf("no multicast on this host: %v", err)
		}
		// The startup announcement needs a multicast route.
		t.Skipf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Stop() })

	peer, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v, want nil", err)
	}
	defer func() { _ = peer.Close() }()

	to := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), uint16(port))
	if _, err := peer.WriteToUDPAddrPort(packQuery(t, 0x4242, dns.TypeA, "LOOP.local"), to); err != nil {
		t.Fatalf("WriteToUDPAddrPort() error = %v, want nil", err)
	}

	if err := peer.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v, want nil", err)
	}
	buf := make([]byte, 1500)
	n, from, err := peer.ReadFromUDPAddrPort(buf)
	if err != nil {
		t.Fatalf("ReadFromUDPAddrPort() error = %v, want a reply", err)
	}
	if from.Port() != uint16(port) {
		t.Errorf("reply from %s, want port %d", from, port)
	}

	m := unpack(t, buf[:n])
	if m.Id != 0x4242 || !m.Response || !m.Authoritative {
		t.Errorf("header id=%#x qr=%v aa=%v, want 0x4242 true true", m.Id, m.Response, m.Authoritative)
	}
	if len(m.Answer) != 1 {
		t.Fatalf("len(Answer) = %d, want 1", len(m.Answer))
	}
	if a, ok := m.Answer[0].(*dns.A); !ok || a.A.String() != "192.168.1.5" {
		t.Errorf("Answer[0] = %v, want A 192.168.1.5", m.Answer[0])
	}
	if len(m.Extra) != 1 {
		t.Fatalf("len(Extra) = %d, want 1", len(m.Extra))
	}
	if aaaa, ok := m.Extra[0].(*dns.AAAA); !ok || aaaa.AAAA.String() != "fe80::1" {
		t.Errorf("Extra[0] = %v, want AAAA fe80::1", m.Extra[0])
	}
}
