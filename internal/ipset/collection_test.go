package ipset

import (
	"net/netip"
	"testing"
)

func TestIpCollectionCompactMergesOverlappingRanges(t *testing.T) {
	c := NewIpCollection()
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.5")))
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.0.4"), mustAddr(t, "10.0.0.10")))
	c.Compact()

	ranges := c.Ranges()
	if len(ranges) != 1 {
		t.Fatalf("expected overlapping ranges to merge into 1, got %d: %v", len(ranges), ranges)
	}
	if ranges[0].Start != mustAddr(t, "10.0.0.0") || ranges[0].End != mustAddr(t, "10.0.0.10") {
		t.Fatalf("unexpected merged range: %+v", ranges[0])
	}
}

func TestIpCollectionCompactMergesTouchingRanges(t *testing.T) {
	c := NewIpCollection()
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.5")))
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.0.6"), mustAddr(t, "10.0.0.10")))
	c.Compact()

	ranges := c.Ranges()
	if len(ranges) != 1 {
		t.Fatalf("expected touching ranges to merge into 1, got %d", len(ranges))
	}
}

func TestIpCollectionCompactKeepsDisjointRangesSeparate(t *testing.T) {
	c := NewIpCollection()
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.5")))
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.1.0"), mustAddr(t, "10.0.1.5")))
	c.Compact()

	if len(c.Ranges()) != 2 {
		t.Fatalf("expected disjoint ranges to stay separate, got %d", len(c.Ranges()))
	}
}

func TestIpCollectionCompactFoldsV4SinglesIntoRanges(t *testing.T) {
	c := NewIpCollection()
	c.AddSingle(mustAddr(t, "10.0.0.6"))
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.5")))
	c.Compact()

	if len(c.Ranges()) != 1 {
		t.Fatalf("expected single to fold into adjacent range, got %d ranges", len(c.Ranges()))
	}
	if len(c.Singles()) != 0 {
		t.Fatalf("expected no v4 singles left after compact, got %d", len(c.Singles()))
	}
}

func TestIpCollectionCompactKeepsV6Singles(t *testing.T) {
	c := NewIpCollection()
	c.AddSingle(mustAddr(t, "fe80::1"))
	c.Compact()

	if len(c.Singles()) != 1 {
		t.Fatalf("expected v6 single to survive compact, got %d", len(c.Singles()))
	}
}

func TestIpCollectionContains(t *testing.T) {
	c := NewIpCollection()
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.5")))
	c.AddSingle(mustAddr(t, "fe80::1"))
	c.Compact()

	if !c.Contains(mustAddr(t, "10.0.0.3")) {
		t.Fatalf("expected collection to contain 10.0.0.3")
	}
	if !c.Contains(mustAddr(t, "fe80::1")) {
		t.Fatalf("expected collection to contain fe80::1")
	}
	if c.Contains(mustAddr(t, "10.0.0.99")) {
		t.Fatalf("expected collection to exclude 10.0.0.99")
	}
}

func TestIpCollectionLenSumsRangesAndSingles(t *testing.T) {
	c := NewIpCollection()
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.3")))
	c.AddSingle(mustAddr(t, "fe80::1"))
	if got := c.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}
}

func TestIpCollectionIterVisitsEveryAddressOnce(t *testing.T) {
	c := NewIpCollection()
	c.AddRange(NewIpv4Range(mustAddr(t, "10.0.0.0"), mustAddr(t, "10.0.0.3")))
	c.AddSingle(mustAddr(t, "10.0.0.2")) // already covered by the range
	c.AddSingle(mustAddr(t, "fe80::1"))
	c.Compact()

	seen := make(map[netip.Addr]int)
	c.Iter(func(ip netip.Addr) bool {
		seen[ip]++
		return true
	})

	if len(seen) != 5 {
		t.Fatalf("expected 5 distinct addresses, got %d: %v", len(seen), seen)
	}
	for ip, n := range seen {
		if n != 1 {
			t.Fatalf("address %v visited %d times, want 1", ip, n)
		}
	}
}
