// Package router splits a parsed target collection across the system's
// interfaces, deciding for each address whether the Local (link-layer) or
// Routed (IP-layer) scanner should own it.
package router

import (
	"net"
	"net/netip"
	"sync"

	"hostprowl/internal/ipset"
)

// Interface identifies one of the machine's network interfaces and the
// prefixes bound to it, the unit routing decisions are grouped by.
type Interface struct {
	Name  string
	MAC   net.HardwareAddr
	Addrs []netip.Prefix
}

// Bucket is the local/routed split of targets assigned to one interface.
type Bucket struct {
	Local  *ipset.IpCollection
	Routed *ipset.IpCollection
}

// Route is the result of splitting a target collection: one bucket per
// interface that owns at least one address, plus the addresses no interface
// could reach at all.
type Route struct {
	ByInterface map[string]*ifaceRoute
	Unmapped    *ipset.IpCollection
}

type ifaceRoute struct {
	iface  Interface
	bucket *Bucket
}

// InterfaceBucket pairs an interface with the targets routed to it.
type InterfaceBucket struct {
	Interface Interface
	Bucket    *Bucket
}

// Interfaces returns one entry per interface that owns at least one target.
// Interface has slice fields, so it can't be a map key; this flattens
// ByInterface into a slice for iteration.
func (r *Route) Interfaces() []InterfaceBucket {
	out := make([]InterfaceBucket, 0, len(r.ByInterface))
	for _, ir := range r.ByInterface {
		out = append(out, InterfaceBucket{Interface: ir.iface, Bucket: ir.bucket})
	}
	return out
}

func listInterfaces() ([]Interface, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []Interface
	for _, i := range ifs {
		if i.Flags&net.FlagUp == 0 || i.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := i.Addrs()
		if err != nil || len(addrs) == 0 {
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
			ones, _ := ipNet.Mask.Size()
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), ones))
		}
		if len(prefixes) == 0 {
			continue
		}
		out = append(out, Interface{Name: i.Name, MAC: i.HardwareAddr, Addrs: prefixes})
	}
	return out, nil
}

func findLocalIndex(interfaces []Interface, target netip.Addr) int {
	for idx, i := range interfaces {
		for _, p := range i.Addrs {
			if p.Addr().Is4() != target.Is4() {
				continue
			}
			if p.Contains(target) {
				return idx
			}
		}
	}
	return -1
}

// resolveRouteSourceIP uses the kernel's routing table via a connected UDP
// socket: no packets are sent, but the OS picks the source address it would
// use to reach target, which tells us which local interface is on-path.
func resolveRouteSourceIP(target netip.Addr, v4Conn, v6Conn **net.UDPConn) (netip.Addr, bool) {
	connPtr := v4Conn
	bindAddr := "0.0.0.0:0"
	if target.Is6() {
		connPtr = v6Conn
		bindAddr = "[::]:0"
	}
	if *connPtr == nil {
		laddr, err := net.ResolveUDPAddr("udp", bindAddr)
		if err != nil {
			return netip.Addr{}, false
		}
		conn, err := net.ListenUDP("udp", laddr)
		if err != nil {
			return netip.Addr{}, false
		}
		*connPtr = conn
	}
	conn := *connPtr
	if err := conn.Connect(&net.UDPAddr{IP: net.IP(target.AsSlice()), Port: 53}); err != nil {
		return netip.Addr{}, false
	}
	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, false
	}
	addr, ok := netip.AddrFromSlice(local.IP)
	if !ok {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// Route splits collection across the system's interfaces. Whole IPv4 ranges
// that fall entirely within one interface's subnet are kept intact and
// routed locally; ranges that don't are exploded into singles and resolved
// individually, in parallel, via the kernel routing table.
func Route(collection *ipset.IpCollection) (*Route, error) {
	interfaces, err := listInterfaces()
	if err != nil {
		return nil, err
	}

	ipToIdx := make(map[netip.Addr]int)
	for idx, i := range interfaces {
		for _, p := range i.Addrs {
			ipToIdx[p.Addr()] = idx
		}
	}

	buckets := make(map[int]*Bucket)
	bucketFor := func(idx int) *Bucket {
		b, ok := buckets[idx]
		if !ok {
			b = &Bucket{Local: ipset.NewIpCollection(), Routed: ipset.NewIpCollection()}
			buckets[idx] = b
		}
		return b
	}

	unmapped := ipset.NewIpCollection()
	leftoverSingles := ipset.NewIpCollection()

	for _, r := range collection.Ranges() {
		owner := -1
		for idx, i := range interfaces {
			for _, p := range i.Addrs {
				if p.Addr().Is4() && p.Contains(r.Start) && p.Contains(r.End) {
					owner = idx
					break
				}
			}
			if owner >= 0 {
				break
			}
		}
		if owner >= 0 {
			bucketFor(owner).Local.AddRange(r)
			continue
		}
		r.ForEach(func(ip netip.Addr) bool {
			leftoverSingles.AddSingle(ip)
			return true
		})
	}

	singles := make([]netip.Addr, 0, len(collection.Singles())+len(leftoverSingles.Singles()))
	for ip := range collection.Singles() {
		singles = append(singles, ip)
	}
	for ip := range leftoverSingles.Singles() {
		singles = append(singles, ip)
	}

	type placement struct {
		ip     netip.Addr
		idx    int
		routed bool
	}
	results := make([]placement, len(singles))

	var wg sync.WaitGroup
	workers := 8
	if len(singles) < workers {
		workers = len(singles)
	}
	ch := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var v4Conn, v6Conn *net.UDPConn
			defer func() {
				if v4Conn != nil {
					v4Conn.Close()
				}
				if v6Conn != nil {
					v6Conn.Close()
				}
			}()
			for i := range ch {
				ip := singles[i]
				if idx := findLocalIndex(interfaces, ip); idx >= 0 {
					results[i] = placement{ip: ip, idx: idx, routed: false}
					continue
				}
				if src, ok := resolveRouteSourceIP(ip, &v4Conn, &v6Conn); ok {
					if idx, ok := ipToIdx[src]; ok {
						results[i] = placement{ip: ip, idx: idx, routed: true}
						continue
					}
				}
				results[i] = placement{ip: ip, idx: -1}
			}
		}()
	}
	for i := range singles {
		ch <- i
	}
	close(ch)
	wg.Wait()

	for _, p := range results {
		switch {
		case p.idx < 0:
			unmapped.AddSingle(p.ip)
		case p.routed:
			bucketFor(p.idx).Routed.AddSingle(p.ip)
		default:
			bucketFor(p.idx).Local.AddSingle(p.ip)
		}
	}

	byInterface := make(map[string]*ifaceRoute, len(buckets))
	for idx, b := range buckets {
		b.Local.Compact()
		b.Routed.Compact()
		byInterface[interfaces[idx].Name] = &ifaceRoute{iface: interfaces[idx], bucket: b}
	}
	unmapped.Compact()

	return &Route{ByInterface: byInterface, Unmapped: unmapped}, nil
}
