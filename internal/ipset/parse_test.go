package ipset

import (
	"errors"
	"testing"

	"hostprowl/internal/scanerr"
)

func TestParseTargetsSimpleHost(t *testing.T) {
	c, err := ParseTargets([]string{"192.168.1.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Contains(mustAddr(t, "192.168.1.1")) {
		t.Fatalf("expected collection to contain the single host")
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestParseTargetsExplicitRange(t *testing.T) {
	c, err := ParseTargets([]string{"192.168.1.10-192.168.1.20"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 11 {
		t.Fatalf("Len() = %d, want 11", c.Len())
	}
	if !c.Contains(mustAddr(t, "192.168.1.15")) {
		t.Fatalf("expected range to contain 192.168.1.15")
	}
}

func TestParseTargetsShortRange(t *testing.T) {
	c, err := ParseTargets([]string{"192.168.1.10-20"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 11 {
		t.Fatalf("Len() = %d, want 11", c.Len())
	}
	if !c.Contains(mustAddr(t, "192.168.1.20")) {
		t.Fatalf("expected short-form range end to resolve against the start octets")
	}
}

func TestParseTargetsCIDR(t *testing.T) {
	c, err := ParseTargets([]string{"192.168.1.0/30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}
}

func TestParseTargetsMixedInputs(t *testing.T) {
	c, err := ParseTargets([]string{"192.168.1.1", "10.0.0.0/30", "fe80::1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Contains(mustAddr(t, "192.168.1.1")) || !c.Contains(mustAddr(t, "10.0.0.1")) || !c.Contains(mustAddr(t, "fe80::1")) {
		t.Fatalf("expected all mixed inputs to be present: %+v", c)
	}
}

func TestParseTargetsCommaSplitting(t *testing.T) {
	c, err := ParseTargets([]string{"192.168.1.1,192.168.1.2, 192.168.1.3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
}

func TestParseTargetsRejectsInvalidFormat(t *testing.T) {
	_, err := ParseTargets([]string{"not-an-ip-or-range!!"})
	if !errors.Is(err, scanerr.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestParseTargetsRejectsEmptyInput(t *testing.T) {
	_, err := ParseTargets([]string{"   "})
	if !errors.Is(err, scanerr.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for all-whitespace input, got %v", err)
	}
}

func TestParseTargetsRejectsVPNKeyword(t *testing.T) {
	_, err := ParseTargets([]string{"vpn"})
	if !errors.Is(err, scanerr.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for reserved vpn keyword, got %v", err)
	}
}
