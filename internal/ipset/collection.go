package ipset

import (
	"net/netip"
	"sort"
)

// IpCollection is the normalized target set: a list of disjoint, merged IPv4
// ranges plus a set of single addresses (v4 or v6) not absorbed into a range.
type IpCollection struct {
	ranges  []Ipv4Range
	singles map[netip.Addr]struct{}
}

// NewIpCollection returns an empty collection ready for AddSingle/AddRange.
func NewIpCollection() *IpCollection {
	return &IpCollection{singles: make(map[netip.Addr]struct{})}
}

// AddSingle adds one address outside of any range.
func (c *IpCollection) AddSingle(ip netip.Addr) {
	c.singles[ip] = struct{}{}
}

// AddRange adds an IPv4 range.
func (c *IpCollection) AddRange(r Ipv4Range) {
	c.ranges = append(c.ranges, r)
}

// Extend merges another collection's ranges and singles into this one.
func (c *IpCollection) Extend(other *IpCollection) {
	c.ranges = append(c.ranges, other.ranges...)
	for ip := range other.singles {
		c.singles[ip] = struct{}{}
	}
}

// Len returns the total address count: sum of range lengths plus the number
// of singles. A single already covered by a range is counted twice until
// Compact is called.
func (c *IpCollection) Len() int {
	n := len(c.singles)
	for _, r := range c.ranges {
		n += r.Len()
	}
	return n
}

// IsEmpty reports whether the collection holds no addresses at all.
func (c *IpCollection) IsEmpty() bool {
	return len(c.ranges) == 0 && len(c.singles) == 0
}

// Compact folds v4 singles into ranges-of-one, sorts ranges by start address,
// and merges any that overlap or touch. It mutates the collection in place.
func (c *IpCollection) Compact() {
	var v4Singles []netip.Addr
	remaining := make(map[netip.Addr]struct{})
	for ip := range c.singles {
		if ip.Is4() {
			v4Singles = append(v4Singles, ip)
		} else {
			remaining[ip] = struct{}{}
		}
	}
	c.singles = remaining

	ranges := make([]Ipv4Range, len(c.ranges))
	copy(ranges, c.ranges)
	for _, ip := range v4Singles {
		ranges = append(ranges, Ipv4Range{Start: ip, End: ip})
	}
	if len(ranges) == 0 {
		c.ranges = nil
		return
	}

	sort.Slice(ranges, func(i, j int) bool {
		return addrToU32(ranges[i].Start) < addrToU32(ranges[j].Start)
	})

	merged := []Ipv4Range{ranges[0]}
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		nextStart := addrToU32(r.Start)
		currEnd := addrToU32(last.End)
		if nextStart <= currEnd+1 {
			if addrToU32(r.End) > currEnd {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	c.ranges = merged
}

// Contains reports whether ip is covered by a single entry or, for IPv4, by
// any range.
func (c *IpCollection) Contains(ip netip.Addr) bool {
	if _, ok := c.singles[ip]; ok {
		return true
	}
	if !ip.Is4() {
		return false
	}
	for _, r := range c.ranges {
		if r.Contains(ip) {
			return true
		}
	}
	return false
}

// Iter calls fn for every address in the collection: ranges first, then
// singles not already covered by a range. Iteration stops early if fn
// returns false.
func (c *IpCollection) Iter(fn func(netip.Addr) bool) {
	stopped := false
	for _, r := range c.ranges {
		if stopped {
			return
		}
		r.ForEach(func(ip netip.Addr) bool {
			if !fn(ip) {
				stopped = true
				return false
			}
			return true
		})
	}
	if stopped {
		return
	}
	for ip := range c.singles {
		if ip.Is4() {
			covered := false
			for _, r := range c.ranges {
				if r.Contains(ip) {
					covered = true
					break
				}
			}
			if covered {
				continue
			}
		}
		if !fn(ip) {
			return
		}
	}
}

// Ranges exposes the collection's merged ranges, for callers (the interface
// router) that need whole-range containment checks rather than per-IP ones.
func (c *IpCollection) Ranges() []Ipv4Range {
	return c.ranges
}

// Singles exposes the collection's single addresses.
func (c *IpCollection) Singles() map[netip.Addr]struct{} {
	return c.singles
}
