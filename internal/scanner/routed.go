package scanner

import (
	"log/slog"
	"math/rand"
	"net/netip"
	"time"

	"hostprowl/internal/host"
	"hostprowl/internal/ipset"
	"hostprowl/internal/probe"
	"hostprowl/internal/scanstate"
	"hostprowl/internal/transport"
)

const (
	routedMinScanDuration = 200 * time.Millisecond
	routedMaxScanDuration = 3000 * time.Millisecond
	routedMsPerIP         = 0.5
	routedDstPort         = 443
)

type seqKey struct {
	ip  netip.Addr
	seq uint32
}

// RoutedScanner discovers hosts beyond the local broadcast domain by sending
// a TCP SYN to each target and correlating any reply (SYN-ACK, RST, or a
// retransmit) back to the sequence number it was sent with.
type RoutedScanner struct {
	log    *slog.Logger
	ips    *ipset.IpCollection
	raw    *transport.RawIPHandle
	dnsTx  chan<- netip.Addr
	rttMap map[seqKey]time.Time
	hosts  map[netip.Addr]*host.Host
	srcV4  netip.Addr
	srcV6  netip.Addr
}

// NewRoutedScanner opens raw IP sockets and prepares to scan targets drawn
// from bucket.Routed, sourced from srcV4/srcV6 (the interface's own
// addresses).
func NewRoutedScanner(log *slog.Logger, targets *ipset.IpCollection, srcV4, srcV6 netip.Addr, dnsTx chan<- netip.Addr) (*RoutedScanner, error) {
	raw, err := transport.OpenRawIP()
	if err != nil {
		return nil, err
	}
	return &RoutedScanner{
		log:    log,
		ips:    targets,
		raw:    raw,
		dnsTx:  dnsTx,
		rttMap: make(map[seqKey]time.Time),
		hosts:  make(map[netip.Addr]*host.Host),
		srcV4:  srcV4,
		srcV6:  srcV6,
	}, nil
}

// DiscoverHosts sends one SYN per target, then listens for responses until
// every target has answered, the stop signal fires, or the scaled deadline
// passes.
func (s *RoutedScanner) DiscoverHosts() []*host.Host {
	defer s.raw.Close()

	s.sendDiscoveryPackets()

	deadline := calculateDeadline(s.ips.Len())
	deadlineTimer := time.NewTimer(time.Until(deadline))
	defer deadlineTimer.Stop()

	for {
		if scanstate.Stopped() || s.ips.Len() == len(s.hosts) {
			break
		}
		select {
		case pkt, ok := <-s.raw.Recv:
			if !ok {
				return s.collect()
			}
			s.processSegment(pkt)
		case <-deadlineTimer.C:
			return s.collect()
		}
	}
	return s.collect()
}

func calculateDeadline(targetCount int) time.Time {
	d := routedMinScanDuration + time.Duration(float64(targetCount)*routedMsPerIP*float64(time.Millisecond))
	if d < routedMinScanDuration {
		d = routedMinScanDuration
	}
	if d > routedMaxScanDuration {
		d = routedMaxScanDuration
	}
	return time.Now().Add(d)
}

func (s *RoutedScanner) sendDiscoveryPackets() {
	srcPort := uint16(50000 + rand.Intn(15535))
	s.ips.Iter(func(target netip.Addr) bool {
		src := s.srcV4
		if target.Is6() {
			src = s.srcV6
		}
		if !src.IsValid() {
			s.log.Warn("no source address for target family, skipping", "target", target)
			return true
		}
		seq := rand.Uint32()
		segment, err := probe.BuildTCPSyn(src, target, srcPort, routedDstPort, seq)
		if err != nil {
			s.log.Warn("failed to build syn segment", "target", target, "err", err)
			return true
		}
		if err := s.raw.SendTo(target, segment); err != nil {
			s.log.Warn("failed to send syn segment", "target", target, "err", err)
			return true
		}
		s.rttMap[seqKey{ip: target, seq: seq}] = time.Now()
		return true
	})
}

func (s *RoutedScanner) processSegment(pkt transport.RawIPPacket) {
	if !s.ips.Contains(pkt.Src) {
		return
	}
	_, _, ack, _, _, err := probe.ParseTCP(pkt.Payload)
	if err != nil {
		s.log.Debug("dropping undecodable segment", "src", pkt.Src, "err", err)
		return
	}

	h, existing := s.hosts[pkt.Src]
	if !existing {
		h = host.New(pkt.Src)
		s.hosts[pkt.Src] = h
		scanstate.IncrementHostCount()
		if s.dnsTx != nil {
			select {
			case s.dnsTx <- pkt.Src:
			default:
			}
		}
	}

	originalSeq := ack - 1
	key := seqKey{ip: pkt.Src, seq: originalSeq}
	if sentAt, ok := s.rttMap[key]; ok {
		h.AddRTT(pkt.At.Sub(sentAt))
		delete(s.rttMap, key)
	}
	h.SetObservedTTL(pkt.HopLimit)
}

func (s *RoutedScanner) collect() []*host.Host {
	out := make([]*host.Host, 0, len(s.hosts))
	for _, h := range s.hosts {
		out = append(out, h)
	}
	return out
}
