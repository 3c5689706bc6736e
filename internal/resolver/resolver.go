// Package resolver opportunistically attaches hostnames to discovered hosts:
// actively via DNS PTR queries, passively by absorbing mDNS traffic the
// network is already generating.
package resolver

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"

	"hostprowl/internal/host"
)

const (
	dnsPort      = 53
	mdnsPort     = 5353
	mdnsV4Group  = "224.0.0.251"
	drainTimeout = 250 * time.Millisecond
)

// MdnsRecord is the hostname and IP set extracted from one mDNS message.
type MdnsRecord struct {
	Hostname string
	IPs      map[netip.Addr]struct{}
}

// Resolver runs the DNS PTR query/response cycle and the mDNS absorber
// concurrently, then joins whatever it learned back onto a host list.
type Resolver struct {
	log *slog.Logger

	dnsConn   *net.UDPConn
	mdnsConn  *net.UDPConn
	dnsServer string
	idCounter atomic.Uint32

	mu          sync.Mutex
	dnsMap      map[uint16]netip.Addr
	hostnameMap map[netip.Addr]string
	mdnsCache   map[netip.Addr]MdnsRecord
}

// New opens the sockets the resolver needs. DNS queries go out unicast to
// the system's configured resolver (falling back to 1.1.1.1 if none can be
// read); mDNS is absorbed passively by joining the IPv4 multicast group.
func New(log *slog.Logger) (*Resolver, error) {
	dnsConn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		log:         log,
		dnsConn:     dnsConn,
		dnsServer:   systemResolverAddr(),
		dnsMap:      make(map[uint16]netip.Addr),
		hostnameMap: make(map[netip.Addr]string),
		mdnsCache:   make(map[netip.Addr]MdnsRecord),
	}

	mdnsConn, err := net.ListenMulticastUDP("udp4", nil, &net.UDPAddr{IP: net.ParseIP(mdnsV4Group), Port: mdnsPort})
	if err != nil {
		log.Warn("mdns absorber disabled: failed to join multicast group", "err", err)
	} else {
		r.mdnsConn = mdnsConn
	}

	return r, nil
}

// systemResolverAddr reads the first nameserver from /etc/resolv.conf,
// falling back to a well-known public resolver if that fails.
func systemResolverAddr() string {
	f, err := os.Open("/etc/resolv.conf")
	if err != nil {
		return "1.1.1.1:53"
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && fields[0] == "nameserver" {
			if ip := net.ParseIP(fields[1]); ip != nil {
				return net.JoinHostPort(fields[1], "53")
			}
		}
	}
	return "1.1.1.1:53"
}

// IsQueryable reports whether ip is worth sending a PTR query for: IPv4
// addresses always are, IPv6 addresses only if globally routable.
func IsQueryable(ip netip.Addr) bool {
	if ip.Is4() {
		return true
	}
	return ip.IsGlobalUnicast() && !ip.IsPrivate()
}

// Run drains targetCh, sending a PTR query for each queryable address, and
// dispatches inbound UDP datagrams to the DNS or mDNS handler by source
// port. Once targetCh is closed (or ctx is done) it keeps dispatching
// replies for drainTimeout if any queries are still outstanding, then
// returns.
func (r *Resolver) Run(ctx context.Context, targetCh <-chan netip.Addr) {
	inbound := make(chan udpDatagram, 256)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		readLoop(ctx, r.dnsConn, inbound)
	}()
	if r.mdnsConn != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			readLoop(ctx, r.mdnsConn, inbound)
		}()
	}

	targetsOpen := true
	for targetsOpen {
		select {
		case <-ctx.Done():
			targetsOpen = false
		case ip, ok := <-targetCh:
			if !ok {
				targetsOpen = false
				break
			}
			r.sendQuery(ip)
		case dgram := <-inbound:
			r.dispatch(dgram)
		}
	}

	if r.pendingQueries() > 0 {
		deadline := time.After(drainTimeout)
	drain:
		for {
			select {
			case dgram := <-inbound:
				r.dispatch(dgram)
			case <-deadline:
				break drain
			}
		}
	}

	r.dnsConn.Close()
	if r.mdnsConn != nil {
		r.mdnsConn.Close()
	}
	wg.Wait()
}

func (r *Resolver) pendingQueries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dnsMap)
}

type udpDatagram struct {
	payload []byte
	srcPort int
}

func readLoop(ctx context.Context, conn *net.UDPConn, out chan<- udpDatagram) {
	buf := make([]byte, 65536)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		select {
		case out <- udpDatagram{payload: payload, srcPort: addr.Port}:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Resolver) sendQuery(ip netip.Addr) {
	if !IsQueryable(ip) {
		return
	}
	ptrName, err := dns.ReverseAddr(ip.String())
	if err != nil {
		r.log.Warn("failed to build reverse name", "ip", ip, "err", err)
		return
	}

	id := uint16(r.idCounter.Add(1))
	msg := new(dns.Msg)
	msg.Id = id
	msg.SetQuestion(ptrName, dns.TypePTR)
	msg.RecursionDesired = true

	packed, err := msg.Pack()
	if err != nil {
		r.log.Warn("failed to pack dns query", "ip", ip, "err", err)
		return
	}

	server, err := net.ResolveUDPAddr("udp", r.dnsServer)
	if err != nil {
		r.log.Warn("failed to resolve dns server address", "server", r.dnsServer, "err", err)
		return
	}

	r.mu.Lock()
	r.dnsMap[id] = ip
	r.mu.Unlock()

	if _, err := r.dnsConn.WriteToUDP(packed, server); err != nil {
		r.log.Debug("failed to send dns query", "ip", ip, "err", err)
	}
}

func (r *Resolver) dispatch(d udpDatagram) {
	switch d.srcPort {
	case dnsPort:
		r.processDNS(d.payload)
	case mdnsPort:
		r.processMDNS(d.payload)
	}
}

func (r *Resolver) processDNS(payload []byte) {
	msg := new(dns.Msg)
	if err := msg.Unpack(payload); err != nil {
		return
	}
	var hostname string
	for _, rr := range msg.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			hostname = strings.TrimSuffix(ptr.Ptr, ".")
			break
		}
	}
	if hostname == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ip, ok := r.dnsMap[msg.Id]; ok {
		delete(r.dnsMap, msg.Id)
		r.hostnameMap[ip] = hostname
	}
}

func (r *Resolver) processMDNS(payload []byte) {
	msg := new(dns.Msg)
	if err := msg.Unpack(payload); err != nil {
		return
	}
	record := extractResource(msg)
	if record.Hostname == "" && len(record.IPs) == 0 {
		return
	}

	preferred, ok := preferredAddr(record.IPs)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mdnsCache[preferred] = record
}

// extractResource walks a message's answer and additional records, keeping
// the first non-".arpa" PTR name seen as the hostname and collecting every
// A/AAAA address.
func extractResource(msg *dns.Msg) MdnsRecord {
	record := MdnsRecord{IPs: make(map[netip.Addr]struct{})}
	records := append(append([]dns.RR{}, msg.Answer...), msg.Extra...)
	for _, rr := range records {
		switch v := rr.(type) {
		case *dns.PTR:
			name := strings.TrimSuffix(v.Ptr, ".")
			if record.Hostname == "" && !strings.HasSuffix(name, ".arpa") {
				record.Hostname = name
			}
		case *dns.A:
			if addr, ok := netip.AddrFromSlice(v.A.To4()); ok {
				record.IPs[addr] = struct{}{}
			}
		case *dns.AAAA:
			if addr, ok := netip.AddrFromSlice(v.AAAA.To16()); ok {
				record.IPs[addr] = struct{}{}
			}
		}
	}
	return record
}

// preferredAddr picks the representative address to cache a record under:
// an IPv4 address if the set has one, else a unicast link-local IPv6
// address, else any address in the set. The set is unordered, so which
// one is picked among several of the same kind is not defined.
func preferredAddr(ips map[netip.Addr]struct{}) (netip.Addr, bool) {
	var fallback, linkLocal netip.Addr
	haveFallback, haveLinkLocal := false, false
	for ip := range ips {
		if ip.Is4() {
			return ip, true
		}
		if !haveLinkLocal && ip.IsLinkLocalUnicast() {
			linkLocal, haveLinkLocal = ip, true
		}
		if !haveFallback {
			fallback, haveFallback = ip, true
		}
	}
	if haveLinkLocal {
		return linkLocal, true
	}
	return fallback, haveFallback
}

// ResolveHosts joins resolved hostnames and mDNS-discovered addresses back
// onto hosts. For each host, if it has no hostname yet, a DNS PTR or mDNS
// result for any of its IPs fills it in; an mDNS record for any of its IPs
// also extends the host's IP set unconditionally.
func (r *Resolver) ResolveHosts(hosts []*host.Host) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range hosts {
		ips := append([]netip.Addr{}, h.IPs...)
		for _, ip := range ips {
			if h.Hostname == "" {
				if name, ok := r.hostnameMap[ip]; ok {
					h.Hostname = name
					delete(r.hostnameMap, ip)
				}
			}
			if record, ok := r.mdnsCache[ip]; ok {
				if h.Hostname == "" && record.Hostname != "" {
					h.Hostname = record.Hostname
				}
				for extra := range record.IPs {
					h.AddIP(extra)
				}
				delete(r.mdnsCache, ip)
			}
		}
	}
}
