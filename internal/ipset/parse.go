// Package ipset models and parses the discovery engine's target set: single
// hosts, explicit and short-form IPv4 ranges, CIDR blocks, and the "lan"
// keyword shortcut.
package ipset

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"hostprowl/internal/iface"
	"hostprowl/internal/scanerr"
	"hostprowl/internal/scanstate"
)

// ParseTargets turns the CLI's raw target strings into a normalized,
// compacted IpCollection. Each input may itself be a comma-separated list of
// tokens; the resulting collection is never empty on success.
func ParseTargets(inputs []string) (*IpCollection, error) {
	collection := NewIpCollection()
	for _, input := range inputs {
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		tokens := []string{trimmed}
		if strings.Contains(trimmed, ",") {
			tokens = strings.Split(trimmed, ",")
		}
		for _, tok := range tokens {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if err := parseSingleInto(collection, tok); err != nil {
				return nil, err
			}
		}
	}
	if collection.IsEmpty() {
		return nil, fmt.Errorf("%w: no targets parsed", scanerr.ErrInvalidTarget)
	}
	collection.Compact()
	return collection, nil
}

func parseSingleInto(c *IpCollection, tok string) error {
	switch strings.ToLower(tok) {
	case "lan":
		return resolveLAN(c)
	case "vpn":
		return fmt.Errorf("%w: \"vpn\" targets are reserved and not yet implemented", scanerr.ErrInvalidTarget)
	}
	return parseAsTarget(c, tok)
}

func resolveLAN(c *IpCollection) error {
	network, err := iface.GetLANNetwork()
	if err != nil {
		return fmt.Errorf("%w: %v", scanerr.ErrNoViableInterface, err)
	}
	start := addrToU32(network.Addr()) + 1
	end := broadcastU32(network) - 1
	if start <= end {
		scanstate.SetLANScan(true)
		c.AddRange(Ipv4Range{Start: u32ToAddr(start), End: u32ToAddr(end)})
		return nil
	}
	// Network too small to carve a usable host range; fall back to scanning
	// the whole block including network/broadcast addresses.
	c.AddRange(Ipv4Range{Start: network.Addr(), End: u32ToAddr(broadcastU32(network))})
	return nil
}

func broadcastU32(p netip.Prefix) uint32 {
	base := addrToU32(p.Addr())
	hostBits := 32 - p.Bits()
	if hostBits <= 0 {
		return base
	}
	mask := uint32(1)<<uint(hostBits) - 1
	return base | mask
}

func parseAsTarget(c *IpCollection, tok string) error {
	if ip, err := netip.ParseAddr(tok); err == nil {
		c.AddSingle(ip)
		return nil
	}
	if strings.Contains(tok, "-") {
		r, err := parseIPRange(tok)
		if err == nil {
			c.AddRange(r)
			return nil
		}
		return fmt.Errorf("%w: %v", scanerr.ErrInvalidTarget, err)
	}
	if strings.Contains(tok, "/") {
		r, err := parseCIDRRange(tok)
		if err == nil {
			c.AddRange(r)
			return nil
		}
		return fmt.Errorf("%w: %v", scanerr.ErrInvalidTarget, err)
	}
	return fmt.Errorf("%w: %q", scanerr.ErrInvalidTarget, tok)
}

// parseIPRange parses "A-B" where B may be a full address or a right-aligned
// partial octet list ("192.168.1.10-20" or "...-1.20").
func parseIPRange(s string) (Ipv4Range, error) {
	idx := strings.IndexByte(s, '-')
	if idx < 0 {
		return Ipv4Range{}, fmt.Errorf("not a range: %q", s)
	}
	startStr, endStr := s[:idx], s[idx+1:]
	start, err := netip.ParseAddr(startStr)
	if err != nil || !start.Is4() {
		return Ipv4Range{}, fmt.Errorf("invalid range start %q", startStr)
	}
	end, err := parseRangeEndAddr(start, endStr)
	if err != nil {
		return Ipv4Range{}, err
	}
	return NewIpv4Range(start, end), nil
}

func parseRangeEndAddr(start netip.Addr, endStr string) (netip.Addr, error) {
	if full, err := netip.ParseAddr(endStr); err == nil && full.Is4() {
		return full, nil
	}
	parts := strings.Split(endStr, ".")
	if len(parts) == 0 || len(parts) > 4 {
		return netip.Addr{}, fmt.Errorf("invalid range end %q", endStr)
	}
	octets := start.As4()
	startIndex := 4 - len(parts)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 255 {
			return netip.Addr{}, fmt.Errorf("invalid range end octet %q", p)
		}
		octets[startIndex+i] = byte(v)
	}
	return netip.AddrFrom4(octets), nil
}

func parseCIDRRange(s string) (Ipv4Range, error) {
	prefix, err := netip.ParsePrefix(s)
	if err != nil || !prefix.Addr().Is4() {
		return Ipv4Range{}, fmt.Errorf("invalid CIDR %q", s)
	}
	return CIDRRange(prefix), nil
}

// CIDRRange returns the full address range a CIDR prefix spans (network
// through broadcast, inclusive).
func CIDRRange(p netip.Prefix) Ipv4Range {
	masked := p.Masked()
	return Ipv4Range{Start: masked.Addr(), End: u32ToAddr(broadcastU32(masked))}
}
