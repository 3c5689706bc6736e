package probe

import (
	"fmt"
	"math/rand"
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
var allNodesMAC = net.HardwareAddr{0x33, 0x33, 0x00, 0x00, 0x00, 0x01}
var allNodesAddr = netip.MustParseAddr("ff02::1")

const minEthernetFrame = 60

// BuildARPRequest constructs an Ethernet/ARP request frame, padded to the
// 60-byte minimum Ethernet frame size.
func BuildARPRequest(srcMAC net.HardwareAddr, srcIP, dstIP netip.Addr) ([]byte, error) {
	eth := layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       broadcastMAC,
		EthernetType: layers.EthernetTypeARP,
	}
	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(srcMAC),
		SourceProtAddress: srcIP.AsSlice(),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    dstIP.AsSlice(),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return nil, fmt.Errorf("serialize arp request: %w", err)
	}
	frame := buf.Bytes()
	if len(frame) < minEthernetFrame {
		padded := make([]byte, minEthernetFrame)
		copy(padded, frame)
		frame = padded
	}
	return frame, nil
}

// BuildICMPv6EchoAllNodes constructs an Ethernet/IPv6/ICMPv6 Echo Request to
// the all-nodes multicast group, hop limit 1, so only on-link neighbors
// answer.
func BuildICMPv6EchoAllNodes(srcMAC net.HardwareAddr, srcIP netip.Addr) ([]byte, error) {
	eth := layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       allNodesMAC,
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip6 := layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolICMPv6,
		HopLimit:   1,
		SrcIP:      net.IP(srcIP.AsSlice()),
		DstIP:      net.IP(allNodesAddr.AsSlice()),
	}
	echo := layers.ICMPv6Echo{
		Identifier: uint16(rand.Intn(65536)),
		SeqNumber:  0,
	}
	icmp6 := layers.ICMPv6{
		TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoRequest, 0),
	}
	if err := icmp6.SetNetworkLayerForChecksum(&ip6); err != nil {
		return nil, fmt.Errorf("set icmpv6 checksum network layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &ip6, &icmp6, &echo); err != nil {
		return nil, fmt.Errorf("serialize icmpv6 echo: %w", err)
	}
	return buf.Bytes(), nil
}
