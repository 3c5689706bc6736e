// Package probe builds the link-layer and IP-layer discovery packets the
// Local and Routed scanners send, and the lazy sequence that drives the
// Local Scanner's emission side.
package probe

import (
	"net"
	"net/netip"
)

// PacketType is a kind of discovery packet the Local Scanner may emit.
type PacketType int

const (
	PacketARP PacketType = iota
	PacketICMPv6
)

// SenderConfig is the per-interface probe context: local identity, the
// networks bound to the interface (for subnet-membership checks), the
// target set partitioned by family, and which packet types are active.
type SenderConfig struct {
	LocalMAC    net.HardwareAddr
	IPv4Nets    []netip.Prefix
	IPv6Nets    []netip.Prefix
	targetsV4   map[netip.Addr]struct{}
	targetsV6   map[netip.Addr]struct{}
	packetTypes map[PacketType]struct{}
}

// NewSenderConfig builds a config from an interface's identity and bound
// prefixes; it is read-only once handed to a scanner.
func NewSenderConfig(mac net.HardwareAddr, addrs []netip.Prefix) *SenderConfig {
	c := &SenderConfig{
		LocalMAC:    mac,
		targetsV4:   make(map[netip.Addr]struct{}),
		targetsV6:   make(map[netip.Addr]struct{}),
		packetTypes: make(map[PacketType]struct{}),
	}
	for _, p := range addrs {
		if p.Addr().Is4() {
			c.IPv4Nets = append(c.IPv4Nets, p)
		} else {
			c.IPv6Nets = append(c.IPv6Nets, p)
		}
	}
	return c
}

// IPv4Net returns the interface's first IPv4 network, if any.
func (c *SenderConfig) IPv4Net() (netip.Prefix, bool) {
	if len(c.IPv4Nets) == 0 {
		return netip.Prefix{}, false
	}
	return c.IPv4Nets[0], true
}

// LinkLocal returns the interface's unicast link-local IPv6 address, if any.
func (c *SenderConfig) LinkLocal() (netip.Addr, bool) {
	for _, p := range c.IPv6Nets {
		if p.Addr().IsLinkLocalUnicast() {
			return p.Addr(), true
		}
	}
	return netip.Addr{}, false
}

// AddTarget adds one target address to the appropriate family set.
func (c *SenderConfig) AddTarget(ip netip.Addr) {
	if ip.Is4() {
		c.targetsV4[ip] = struct{}{}
	} else {
		c.targetsV6[ip] = struct{}{}
	}
}

// AddTargets adds every address in ips.
func (c *SenderConfig) AddTargets(ips []netip.Addr) {
	for _, ip := range ips {
		c.AddTarget(ip)
	}
}

// TargetsV4 returns the IPv4 target set.
func (c *SenderConfig) TargetsV4() map[netip.Addr]struct{} { return c.targetsV4 }

// Len returns the total number of targets across both families.
func (c *SenderConfig) Len() int {
	return len(c.targetsV4) + len(c.targetsV6)
}

// HasAddr reports whether ip is a configured target.
func (c *SenderConfig) HasAddr(ip netip.Addr) bool {
	if ip.Is4() {
		_, ok := c.targetsV4[ip]
		return ok
	}
	_, ok := c.targetsV6[ip]
	return ok
}

// IsAddrInSubnet reports whether ip falls within one of the interface's
// bound networks.
func (c *SenderConfig) IsAddrInSubnet(ip netip.Addr) bool {
	nets := c.IPv4Nets
	if ip.Is6() {
		nets = c.IPv6Nets
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// AddPacketType enables a packet type for this sender.
func (c *SenderConfig) AddPacketType(t PacketType) {
	c.packetTypes[t] = struct{}{}
}

// HasPacketType reports whether a packet type is enabled.
func (c *SenderConfig) HasPacketType(t PacketType) bool {
	_, ok := c.packetTypes[t]
	return ok
}
