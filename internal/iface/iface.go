// Package iface selects which network interface to scan: the best LAN
// interface for a "lan" target, and the prioritized interface list the
// "info" command prints.
package iface

import (
	"fmt"
	"net"
	"net/netip"
	"sort"

	gw "github.com/jackpal/gateway"
)

// ViabilityError explains why an interface was rejected as a LAN candidate.
type ViabilityError struct {
	Name   string
	Reason string
}

func (e *ViabilityError) Error() string {
	return fmt.Sprintf("interface %s: %s", e.Name, e.Reason)
}

// Candidate is a network interface together with the prefixes bound to it.
type Candidate struct {
	Name  string
	MAC   net.HardwareAddr
	Flags net.Flags
	Addrs []netip.Prefix
}

func (c Candidate) isUp() bool            { return c.Flags&net.FlagUp != 0 }
func (c Candidate) isLoopback() bool      { return c.Flags&net.FlagLoopback != 0 }
func (c Candidate) isBroadcast() bool     { return c.Flags&net.FlagBroadcast != 0 }
func (c Candidate) isPointToPoint() bool  { return c.Flags&net.FlagPointToPoint != 0 }
func (c Candidate) hasMAC() bool          { return len(c.MAC) > 0 }

// listCandidates enumerates system interfaces and their bound prefixes.
func listCandidates() ([]Candidate, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	out := make([]Candidate, 0, len(ifaces))
	for _, i := range ifaces {
		addrs, err := i.Addrs()
		if err != nil {
			continue
		}
		var prefixes []netip.Prefix
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			addr, ok := netip.AddrFromSlice(ipNet.IP)
			if !ok {
				continue
			}
			addr = addr.Unmap()
			ones, _ := ipNet.Mask.Size()
			prefix := netip.PrefixFrom(addr, ones)
			prefixes = append(prefixes, prefix)
		}
		out = append(out, Candidate{
			Name:  i.Name,
			MAC:   i.HardwareAddr,
			Flags: i.Flags,
			Addrs: prefixes,
		})
	}
	return out, nil
}

func isPrivateV4(a netip.Addr) bool {
	return a.Is4() && a.IsPrivate()
}

func hasValidLANAddr(c Candidate) bool {
	for _, p := range c.Addrs {
		a := p.Addr()
		if isPrivateV4(a) {
			return true
		}
		if a.Is6() && a.IsLinkLocalUnicast() {
			return true
		}
	}
	return false
}

func isViableLANInterface(c Candidate) error {
	if !c.isUp() {
		return &ViabilityError{c.Name, "is down"}
	}
	if !isPhysical(c.Name) {
		return &ViabilityError{c.Name, "not physical"}
	}
	if c.isLoopback() {
		return &ViabilityError{c.Name, "is loopback"}
	}
	if !c.hasMAC() {
		return &ViabilityError{c.Name, "no MAC address"}
	}
	if !c.isBroadcast() {
		return &ViabilityError{c.Name, "does not support broadcast"}
	}
	if c.isPointToPoint() {
		return &ViabilityError{c.Name, "is point-to-point"}
	}
	if !hasValidLANAddr(c) {
		return &ViabilityError{c.Name, "no valid LAN address"}
	}
	return nil
}

func isWired(name string) bool {
	return isPhysical(name) && !isWireless(name)
}

func selectBestLANInterface(candidates []Candidate) *Candidate {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		c := candidates[0]
		return &c
	}
	for _, c := range candidates {
		if isWired(c.Name) {
			cc := c
			return &cc
		}
	}
	c := candidates[0]
	return &c
}

// GetLANNetwork picks the best LAN interface on the system and returns its
// private IPv4 network.
func GetLANNetwork() (netip.Prefix, error) {
	all, err := listCandidates()
	if err != nil {
		return netip.Prefix{}, err
	}

	var viable []Candidate
	for _, c := range all {
		if isViableLANInterface(c) == nil {
			viable = append(viable, c)
		}
	}

	best := selectBestLANInterface(viable)
	if best == nil {
		return netip.Prefix{}, fmt.Errorf("no interfaces available for LAN discovery")
	}

	for _, p := range best.Addrs {
		if isPrivateV4(p.Addr()) {
			return p.Masked(), nil
		}
	}
	return netip.Prefix{}, fmt.Errorf("interface %s has no private IPv4 network", best.Name)
}

// GetPrioritizedInterfaces returns up to limit interfaces, up and non-loopback
// with at least one address, wired/ethernet-named ones first.
func GetPrioritizedInterfaces(limit int) ([]Candidate, error) {
	all, err := listCandidates()
	if err != nil {
		return nil, err
	}
	var usable []Candidate
	for _, c := range all {
		if c.isUp() && !c.isLoopback() && len(c.Addrs) > 0 {
			usable = append(usable, c)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		iWired := len(usable[i].Name) > 0 && usable[i].Name[0] == 'e'
		jWired := len(usable[j].Name) > 0 && usable[j].Name[0] == 'e'
		if iWired != jWired {
			return iWired
		}
		return false
	})
	if limit >= 0 && len(usable) > limit {
		usable = usable[:limit]
	}
	return usable, nil
}

// IsLayer2Capable reports whether a frame-level scanner can use this
// interface: not point-to-point, not loopback, has a MAC.
func IsLayer2Capable(c Candidate) bool {
	return !c.isPointToPoint() && !c.isLoopback() && c.hasMAC()
}

// DefaultGateway returns the system's default IPv4 gateway, discovered via
// the platform routing table rather than by waiting for a Router
// Advertisement. Hosts that never send an RA (most consumer IPv4-only
// routers) are still correctly tagged as gateways.
func DefaultGateway() (netip.Addr, bool) {
	ip, err := gw.DiscoverGateway()
	if err != nil {
		return netip.Addr{}, false
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
