package probe

import (
	"net/netip"
	"testing"
)

func TestBuildAndParseTCPSynRoundTrips(t *testing.T) {
	src := netip.MustParseAddr("10.0.0.1")
	dst := netip.MustParseAddr("10.0.0.2")

	segment, err := BuildTCPSyn(src, dst, 52345, 443, 0xDEADBEEF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	srcPort, dstPort, ack, rst, synack, err := ParseTCP(segment)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if srcPort != 52345 || dstPort != 443 {
		t.Fatalf("ports = (%d, %d), want (52345, 443)", srcPort, dstPort)
	}
	if ack != 0 {
		t.Fatalf("expected ack 0 on a SYN, got %d", ack)
	}
	if rst || synack {
		t.Fatalf("expected a plain SYN, got rst=%v synack=%v", rst, synack)
	}
}

func TestParseTCPRejectsTruncatedSegment(t *testing.T) {
	_, _, _, _, _, err := ParseTCP([]byte{1, 2, 3})
	if err == nil {
		t.Fatalf("expected an error for a truncated segment")
	}
}
