package ipset

import (
	"net/netip"
	"testing"
)

func mustAddr(t *testing.T, s string) netip.Addr {
	t.Helper()
	a, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return a
}

func TestNewIpv4RangeReversesOutOfOrderEndpoints(t *testing.T) {
	a := mustAddr(t, "192.168.1.20")
	b := mustAddr(t, "192.168.1.10")
	r := NewIpv4Range(a, b)
	if r.Start != b || r.End != a {
		t.Fatalf("expected range to be reversed, got start=%v end=%v", r.Start, r.End)
	}
}

func TestIpv4RangeLen(t *testing.T) {
	r := NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.3"))
	if got := r.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}
}

func TestIpv4RangeContains(t *testing.T) {
	r := NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.3"))
	if !r.Contains(mustAddr(t, "10.0.0.2")) {
		t.Fatalf("expected range to contain 10.0.0.2")
	}
	if r.Contains(mustAddr(t, "10.0.0.4")) {
		t.Fatalf("expected range to exclude 10.0.0.4")
	}
}

func TestIpv4RangeForEach(t *testing.T) {
	r := NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.3"))
	var seen []netip.Addr
	r.ForEach(func(ip netip.Addr) bool {
		seen = append(seen, ip)
		return true
	})
	if len(seen) != 4 {
		t.Fatalf("expected 4 addresses, got %d", len(seen))
	}
	if seen[0] != r.Start || seen[len(seen)-1] != r.End {
		t.Fatalf("expected iteration to span [%v, %v], got %v", r.Start, r.End, seen)
	}
}

func TestIpv4RangeForEachStopsEarly(t *testing.T) {
	r := NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.10"))
	count := 0
	r.ForEach(func(netip.Addr) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Fatalf("expected early stop after 3 calls, got %d", count)
	}
}
