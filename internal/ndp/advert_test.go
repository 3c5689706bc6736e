package ndp

import (
	"encoding/binary"
	"net/netip"
	"testing"
)

func buildRA(lifetimeSeconds uint16, rdnss []netip.Addr) []byte {
	buf := make([]byte, 16)
	buf[0] = 134 // Router Advertisement
	binary.BigEndian.PutUint16(buf[6:8], lifetimeSeconds)

	if len(rdnss) > 0 {
		opt := make([]byte, 8+16*len(rdnss))
		opt[0] = 25                       // RDNSS
		opt[1] = byte(len(opt) / 8)        // length in 8-byte units
		for i, addr := range rdnss {
			a16 := addr.As16()
			copy(opt[8+i*16:8+i*16+16], a16[:])
		}
		buf = append(buf, opt...)
	}
	return buf
}

func TestParseRouterAdvertisementReadsLifetime(t *testing.T) {
	buf := buildRA(1800, nil)
	ra, ok := ParseRouterAdvertisement(buf)
	if !ok {
		t.Fatal("expected ok")
	}
	if ra.Lifetime.Seconds() != 1800 {
		t.Fatalf("expected 1800s lifetime, got %v", ra.Lifetime)
	}
}

func TestParseRouterAdvertisementExtractsRDNSS(t *testing.T) {
	dns1 := netip.MustParseAddr("2001:db8::53")
	dns2 := netip.MustParseAddr("2001:db8::153")
	buf := buildRA(600, []netip.Addr{dns1, dns2})

	ra, ok := ParseRouterAdvertisement(buf)
	if !ok {
		t.Fatal("expected ok")
	}
	if len(ra.RDNSS) != 2 || ra.RDNSS[0] != dns1 || ra.RDNSS[1] != dns2 {
		t.Fatalf("unexpected RDNSS set: %v", ra.RDNSS)
	}
}

func TestParseRouterAdvertisementRejectsTruncated(t *testing.T) {
	if _, ok := ParseRouterAdvertisement([]byte{134, 0, 0, 0}); ok {
		t.Fatal("expected truncated RA to be rejected")
	}
}
