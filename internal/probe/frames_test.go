package probe

import (
	"net"
	"net/netip"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func TestBuildARPRequestPadsToMinimumFrame(t *testing.T) {
	mac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	src := netip.MustParseAddr("192.168.1.1")
	dst := netip.MustParseAddr("192.168.1.50")

	frame, err := BuildARPRequest(mac, src, dst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame) < minEthernetFrame {
		t.Fatalf("frame length = %d, want >= %d", len(frame), minEthernetFrame)
	}

	packet := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.NoCopy)
	arpLayer := packet.Layer(layers.LayerTypeARP)
	if arpLayer == nil {
		t.Fatalf("expected an ARP layer in the built frame")
	}
	arp := arpLayer.(*layers.ARP)
	if arp.Operation != layers.ARPRequest {
		t.Fatalf("expected ARPRequest operation, got %v", arp.Operation)
	}
	if !net.IP(arp.DstProtAddress).Equal(net.IP(dst.AsSlice())) {
		t.Fatalf("expected target proto address %v, got %v", dst, net.IP(arp.DstProtAddress))
	}
}

func TestBuildICMPv6EchoAllNodesTargetsAllNodesGroup(t *testing.T) {
	mac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	src := netip.MustParseAddr("fe80::1")

	frame, err := BuildICMPv6EchoAllNodes(mac, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	packet := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.NoCopy)
	ip6Layer := packet.Layer(layers.LayerTypeIPv6)
	if ip6Layer == nil {
		t.Fatalf("expected an IPv6 layer")
	}
	ip6 := ip6Layer.(*layers.IPv6)
	if ip6.HopLimit != 1 {
		t.Fatalf("expected hop limit 1, got %d", ip6.HopLimit)
	}
	if !net.IP(ip6.DstIP).Equal(net.IP(allNodesAddr.AsSlice())) {
		t.Fatalf("expected destination ff02::1, got %v", ip6.DstIP)
	}
}

func TestSourceYieldsOneARPPerIPv4Target(t *testing.T) {
	mac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	cfg := NewSenderConfig(mac, []netip.Prefix{netip.MustParsePrefix("192.168.1.10/24")})
	cfg.AddPacketType(PacketARP)
	cfg.AddTarget(netip.MustParseAddr("192.168.1.20"))
	cfg.AddTarget(netip.MustParseAddr("192.168.1.21"))

	src := NewSource(cfg)
	count := 0
	for {
		_, ok, err := src.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 ARP probes, got %d", count)
	}
}

func TestSourceYieldsSingleICMPv6Echo(t *testing.T) {
	mac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	cfg := NewSenderConfig(mac, []netip.Prefix{netip.MustParsePrefix("fe80::1/64")})
	cfg.AddPacketType(PacketICMPv6)

	src := NewSource(cfg)
	probe, ok, err := src.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected one echo probe")
	}
	if probe.Target != allNodesAddr {
		t.Fatalf("expected target ff02::1, got %v", probe.Target)
	}
	if _, ok, _ := src.Next(); ok {
		t.Fatalf("expected source to be exhausted after one echo")
	}
}
