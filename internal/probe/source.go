package probe

import "net/netip"

// Probe is one frame ready to send, together with the address it targets
// (used by the Local Scanner to key its RTT map).
type Probe struct {
	Frame  []byte
	Target netip.Addr
}

// Source is a single-pass lazy sequence of Probes built from a SenderConfig:
// one ARP request per IPv4 target when PacketARP is enabled, followed by one
// ICMPv6 all-nodes echo when PacketICMPv6 is enabled. Not restartable.
type Source struct {
	cfg       *SenderConfig
	v4        []netip.Addr
	idx       int
	sentEcho  bool
	localIPv4 netip.Addr
	localIPv6 netip.Addr
	haveEcho  bool
}

// NewSource builds the iterator. It precomputes what it can so that Next
// never needs to return an error for "no local address" mid-scan — if the
// interface has no usable source address for a packet type, that type is
// simply skipped.
func NewSource(cfg *SenderConfig) *Source {
	s := &Source{cfg: cfg}
	if net4, ok := cfg.IPv4Net(); ok {
		s.localIPv4 = net4.Addr()
	}
	for ip := range cfg.TargetsV4() {
		s.v4 = append(s.v4, ip)
	}
	if ll, ok := cfg.LinkLocal(); ok {
		s.localIPv6 = ll
		s.haveEcho = true
	}
	return s
}

// Next returns the next probe to send, or ok=false when the sequence is
// exhausted.
func (s *Source) Next() (Probe, bool, error) {
	if s.cfg.HasPacketType(PacketARP) && s.localIPv4.IsValid() {
		for s.idx < len(s.v4) {
			target := s.v4[s.idx]
			s.idx++
			frame, err := BuildARPRequest(s.cfg.LocalMAC, s.localIPv4, target)
			if err != nil {
				return Probe{}, false, err
			}
			return Probe{Frame: frame, Target: target}, true, nil
		}
	}
	if s.cfg.HasPacketType(PacketICMPv6) && s.haveEcho && !s.sentEcho {
		s.sentEcho = true
		frame, err := BuildICMPv6EchoAllNodes(s.cfg.LocalMAC, s.localIPv6)
		if err != nil {
			return Probe{}, false, err
		}
		return Probe{Frame: frame, Target: allNodesAddr}, true, nil
	}
	return Probe{}, false, nil
}
