package scanner

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"hostprowl/internal/host"
	"hostprowl/internal/ndp"
	"hostprowl/internal/probe"
	"hostprowl/internal/router"
	"hostprowl/internal/scanstate"
	"hostprowl/internal/transport"
)

const (
	localMaxChannelTime = 7500 * time.Millisecond
	localMinChannelTime = 2500 * time.Millisecond
	localMaxSilence     = 500 * time.Millisecond
	localSendInterval   = time.Millisecond
)

// LocalScanner discovers hosts on an interface's own broadcast domain by
// sending ARP requests (and, on a LAN scan, one ICMPv6 all-nodes echo) and
// correlating replies by source MAC.
type LocalScanner struct {
	log     *slog.Logger
	iface   router.Interface
	sender  *probe.SenderConfig
	eth     *transport.EthernetHandle
	timer   *Timer
	dnsTx   chan<- netip.Addr
	hosts   map[string]*host.Host
	rttMap  map[netip.Addr]time.Time
}

// NewLocalScanner opens a capture handle on iface and builds the sender
// config for bucket's local targets.
func NewLocalScanner(log *slog.Logger, iface router.Interface, bucket *router.Bucket, dnsTx chan<- netip.Addr) (*LocalScanner, error) {
	sender := probe.NewSenderConfig(iface.MAC, iface.Addrs)
	sender.AddPacketType(probe.PacketARP)
	if scanstate.IsLANScan() {
		sender.AddPacketType(probe.PacketICMPv6)
	}
	bucket.Local.Iter(func(ip netip.Addr) bool {
		sender.AddTarget(ip)
		return true
	})

	eth, err := transport.OpenEthernet(iface.Name, "arp or icmp6")
	if err != nil {
		return nil, fmt.Errorf("open ethernet handle on %s: %w", iface.Name, err)
	}

	return &LocalScanner{
		log:    log,
		iface:  iface,
		sender: sender,
		eth:    eth,
		timer:  NewTimer(localMaxChannelTime, localMinChannelTime, localMaxSilence),
		dnsTx:  dnsTx,
		hosts:  make(map[string]*host.Host),
		rttMap: make(map[netip.Addr]time.Time),
	}, nil
}

// DiscoverHosts runs the send/receive loop until the target set is
// exhausted and the timer expires, the timer's hard deadline passes, the
// stop signal fires, or every target has answered.
func (s *LocalScanner) DiscoverHosts() []*host.Host {
	defer s.eth.Close()

	source := probe.NewSource(s.sender)
	sendTicker := time.NewTicker(localSendInterval)
	defer sendTicker.Stop()
	sendingFinished := s.sender.Len() == 0

	silenceTimer := time.NewTimer(s.timer.NextWait())
	defer silenceTimer.Stop()

	shouldContinue := func() bool {
		return !scanstate.Stopped() && !s.timer.IsExpired() && s.sender.Len() > len(s.hosts)
	}

	for {
		if scanstate.Stopped() {
			break
		}
		if sendingFinished && !shouldContinue() {
			break
		}

		select {
		case frame, ok := <-s.eth.Frames:
			if !ok {
				sendingFinished = true
				continue
			}
			s.processFrame(frame.Data, frame.At)

		case <-sendTicker.C:
			if sendingFinished {
				continue
			}
			p, ok, err := source.Next()
			if err != nil {
				s.log.Warn("failed to build probe packet", "iface", s.iface.Name, "err", err)
				continue
			}
			if !ok {
				sendingFinished = true
				continue
			}
			rttKey := p.Target
			if p.Target.IsMulticast() {
				// Replies to the all-nodes echo come back addressed to this
				// interface's link-local source, so key its send time there.
				if ll, ok := s.sender.LinkLocal(); ok {
					rttKey = ll
				}
			}
			s.rttMap[rttKey] = time.Now()
			if err := s.eth.Send(p.Frame); err != nil {
				s.log.Warn("failed to send probe frame", "iface", s.iface.Name, "target", p.Target, "err", err)
			}

		case <-silenceTimer.C:
			if time.Now().After(s.timer.HardDeadline()) || (sendingFinished && s.timer.IsExpired()) {
				return s.collect()
			}
			silenceTimer.Reset(s.timer.NextWait())
		}
	}
	return s.collect()
}

func (s *LocalScanner) collect() []*host.Host {
	out := make([]*host.Host, 0, len(s.hosts))
	for _, h := range s.hosts {
		out = append(out, h)
	}
	return out
}

func (s *LocalScanner) processFrame(data []byte, at time.Time) {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.NoCopy)
	ethLayer := packet.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return
	}
	eth := ethLayer.(*layers.Ethernet)
	if eth.SrcMAC.String() == s.iface.MAC.String() {
		return // self-echo
	}

	sourceAddr, rtt, ok := s.extractSourceAndRTT(packet, eth, at)
	if !ok {
		return
	}
	if !s.sender.IsAddrInSubnet(sourceAddr) {
		return
	}
	if sourceAddr.Is6() {
		if _, known := s.hosts[eth.SrcMAC.String()]; !known && !scanstate.IsLANScan() {
			return
		}
	}

	key := eth.SrcMAC.String()
	h, existing := s.hosts[key]
	isNewHost := !existing
	if isNewHost {
		h = host.New(sourceAddr).WithMAC(append(net.HardwareAddr(nil), eth.SrcMAC...))
		s.hosts[key] = h
		s.timer.MarkSeen()
		scanstate.IncrementHostCount()
	}
	if rtt != nil {
		h.AddRTT(*rtt)
	}
	isNewIP := h.AddIP(sourceAddr)
	if sourceAddr.Is4() && h.PrimaryIP.Is6() {
		h.PrimaryIP = sourceAddr
	}

	if (isNewHost || isNewIP) && s.dnsTx != nil {
		select {
		case s.dnsTx <- sourceAddr:
		default:
		}
	}

	s.inferRoles(packet, h)
}

// inferRoles reads an incidentally-captured Router Advertisement to tag the
// sender as a gateway and any address it lists in an RDNSS option as a DNS
// server, independent of whether that server ever answers a probe itself.
func (s *LocalScanner) inferRoles(packet gopacket.Packet, sender *host.Host) {
	raLayer := packet.Layer(layers.LayerTypeICMPv6RouterAdvertisement)
	icmp6Layer := packet.Layer(layers.LayerTypeICMPv6)
	if raLayer == nil || icmp6Layer == nil {
		return
	}
	// The ICMPv6 layer holds the 4-byte type/code/checksum header; the RA
	// layer holds the fixed RA fields and options that follow it. Rejoining
	// them reconstructs the wire layout ndp.ParseRouterAdvertisement expects.
	buf := append(append([]byte(nil), icmp6Layer.LayerContents()...), raLayer.LayerContents()...)

	ra, ok := ndp.ParseRouterAdvertisement(buf)
	if !ok {
		return
	}
	sender.NetworkRoles[host.RoleGateway] = struct{}{}

	for _, dns := range ra.RDNSS {
		if dnsHost := s.findByIP(dns); dnsHost != nil {
			dnsHost.NetworkRoles[host.RoleDNS] = struct{}{}
		}
	}
}

func (s *LocalScanner) findByIP(ip netip.Addr) *host.Host {
	for _, h := range s.hosts {
		for _, known := range h.IPs {
			if known == ip {
				return h
			}
		}
	}
	return nil
}

func (s *LocalScanner) extractSourceAndRTT(packet gopacket.Packet, _ *layers.Ethernet, at time.Time) (netip.Addr, *time.Duration, bool) {
	if arpLayer := packet.Layer(layers.LayerTypeARP); arpLayer != nil {
		arp := arpLayer.(*layers.ARP)
		if arp.Operation != layers.ARPReply {
			return netip.Addr{}, nil, false
		}
		sender, ok := netip.AddrFromSlice(arp.SourceProtAddress)
		if !ok {
			return netip.Addr{}, nil, false
		}
		sender = sender.Unmap()
		var rtt *time.Duration
		if sent, had := s.rttMap[sender]; had {
			d := at.Sub(sent)
			rtt = &d
			delete(s.rttMap, sender)
		}
		return sender, rtt, true
	}

	if ip6Layer := packet.Layer(layers.LayerTypeIPv6); ip6Layer != nil {
		ip6 := ip6Layer.(*layers.IPv6)
		src, ok := netip.AddrFromSlice(ip6.SrcIP)
		if !ok {
			return netip.Addr{}, nil, false
		}
		src = src.Unmap()
		dst, ok := netip.AddrFromSlice(ip6.DstIP)
		var rtt *time.Duration
		if ok {
			dst = dst.Unmap()
			if dst.IsLinkLocalUnicast() {
				if sent, had := s.rttMap[dst]; had {
					d := at.Sub(sent)
					rtt = &d
				}
			}
		}
		return src, rtt, true
	}

	if ip4Layer := packet.Layer(layers.LayerTypeIPv4); ip4Layer != nil {
		ip4 := ip4Layer.(*layers.IPv4)
		src, ok := netip.AddrFromSlice(ip4.SrcIP)
		if !ok {
			return netip.Addr{}, nil, false
		}
		return src.Unmap(), nil, true
	}

	return netip.Addr{}, nil, false
}
