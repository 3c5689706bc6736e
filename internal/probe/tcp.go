package probe

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// BuildTCPSyn builds a bare TCP SYN segment (no IP header — the raw ip4:tcp
// / ip6:tcp socket supplies that) with checksum computed over the
// appropriate pseudo-header.
func BuildTCPSyn(srcIP, dstIP netip.Addr, srcPort, dstPort uint16, seq uint32) ([]byte, error) {
	tcp := layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     seq,
		SYN:     true,
		Window:  1024,
		Options: []layers.TCPOption{
			{
				OptionType:   layers.TCPOptionKindMSS,
				OptionLength: 4,
				OptionData:   []byte{0x05, 0x8c}, // 1420
			},
		},
	}

	var network gopacket.NetworkLayer
	if srcIP.Is4() {
		network = &layers.IPv4{
			SrcIP:    net.IP(srcIP.AsSlice()),
			DstIP:    net.IP(dstIP.AsSlice()),
			Protocol: layers.IPProtocolTCP,
		}
	} else {
		network = &layers.IPv6{
			SrcIP:      net.IP(srcIP.AsSlice()),
			DstIP:      net.IP(dstIP.AsSlice()),
			NextHeader: layers.IPProtocolTCP,
		}
	}
	if err := tcp.SetNetworkLayerForChecksum(network); err != nil {
		return nil, fmt.Errorf("set tcp checksum network layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, &tcp); err != nil {
		return nil, fmt.Errorf("serialize tcp syn: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseTCP extracts the TCP header fields the Routed Scanner needs from a
// raw segment received on an ip4:tcp/ip6:tcp socket.
func ParseTCP(payload []byte) (srcPort, dstPort uint16, ack uint32, rst, synack bool, err error) {
	packet := gopacket.NewPacket(payload, layers.LayerTypeTCP, gopacket.NoCopy)
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return 0, 0, 0, false, false, fmt.Errorf("truncated or invalid TCP segment (len %d)", len(payload))
	}
	tcp, _ := tcpLayer.(*layers.TCP)
	return uint16(tcp.SrcPort), uint16(tcp.DstPort), tcp.Ack, tcp.RST, tcp.SYN && tcp.ACK, nil
}
