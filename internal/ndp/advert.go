// Package ndp extracts role-indicating fields from IPv6 Router Advertisement
// messages observed incidentally during local discovery: a host that sends
// one is a gateway, and the DNS servers it advertises via RDNSS are DNS
// servers whether or not they ever answer an ARP or SYN probe themselves.
package ndp

import (
	"encoding/binary"
	"net"
	"net/netip"
	"time"
)

// RouterAdvertisement holds the fields of an ICMPv6 Router Advertisement
// relevant to role inference. Unparsed or irrelevant fields are dropped.
type RouterAdvertisement struct {
	Lifetime time.Duration
	RDNSS    []netip.Addr
}

// ParseRouterAdvertisement reads the RA fields and walks its option chain
// for an RDNSS (RFC 6106) option. buf is the ICMPv6 message body starting at
// the type byte (134). Returns ok=false if buf is too short to be a valid RA.
func ParseRouterAdvertisement(buf []byte) (RouterAdvertisement, bool) {
	const minRA = 16 // 4-byte ICMPv6 header + 12 bytes of RA fields
	if len(buf) < minRA {
		return RouterAdvertisement{}, false
	}

	ra := RouterAdvertisement{
		Lifetime: time.Duration(binary.BigEndian.Uint16(buf[6:8])) * time.Second,
	}

	offset := minRA
	for offset+2 <= len(buf) {
		optType := buf[offset]
		optLen := int(buf[offset+1]) * 8 // option length is in 8-byte units
		if optLen == 0 || offset+optLen > len(buf) {
			break
		}
		if optType == 25 && optLen >= 24 { // RDNSS, RFC 6106
			ra.RDNSS = append(ra.RDNSS, parseRDNSS(buf[offset:offset+optLen])...)
		}
		offset += optLen
	}

	return ra, true
}

func parseRDNSS(opt []byte) []netip.Addr {
	var addrs []netip.Addr
	for off := 8; off+16 <= len(opt); off += 16 {
		ip := net.IP(opt[off : off+16])
		if addr, ok := netip.AddrFromSlice(ip); ok {
			addrs = append(addrs, addr.Unmap())
		}
	}
	return addrs
}
