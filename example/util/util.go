package util

import (
	"errors"
	"net"
	"net/netip"
)

// GetOutboundIP returns the IPv4 address the host would use to reach the
// internet. No packet is sent.
func GetOutboundIP() (netip.Addr, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:53")
	if err != nil {
		return netip.Addr{}, err
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, errors.New("unexpected local address type")
	}
	return addr.AddrPort().Addr().Unmap(), nil
}

// LinkLocalIPv6 returns the first IPv6 link-local unicast address of an up,
// non-loopback interface, or the zero Addr if there is none.
func LinkLocalIPv6() netip.Addr {
	ifaces, err := net.Interfaces()
	if err != nil {
		return netip.Addr{}
	}
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip, ok := netip.AddrFromSlice(ipnet.IP)
			if ok && ip.Is6() && !ip.Is4In6() && ip.IsLinkLocalUnicast() {
				return ip
			}
		}
	}
	return netip.Addr{}
}
