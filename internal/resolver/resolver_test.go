package resolver

import (
	"net"
	"net/netip"
	"testing"

	"github.com/miekg/dns"

	"hostprowl/internal/host"
)

func TestIsQueryableAllowsAnyIPv4(t *testing.T) {
	if !IsQueryable(netip.MustParseAddr("192.168.1.1")) {
		t.Fatalf("expected all IPv4 addresses to be queryable")
	}
}

func TestIsQueryableRejectsLinkLocalIPv6(t *testing.T) {
	if IsQueryable(netip.MustParseAddr("fe80::1")) {
		t.Fatalf("expected link-local IPv6 to be rejected")
	}
}

func TestIsQueryableAllowsGlobalIPv6(t *testing.T) {
	if !IsQueryable(netip.MustParseAddr("2001:4860:4860::8888")) {
		t.Fatalf("expected a global unicast IPv6 address to be queryable")
	}
}

func TestExtractResourceKeepsFirstNonArpaPTR(t *testing.T) {
	msg := new(dns.Msg)
	msg.Answer = []dns.RR{
		&dns.PTR{Hdr: dns.RR_Header{Name: "1.0.0.10.in-addr.arpa."}, Ptr: "10.0.0.1.in-addr.arpa."},
		&dns.PTR{Hdr: dns.RR_Header{Name: "printer.local."}, Ptr: "printer.local."},
		&dns.PTR{Hdr: dns.RR_Header{Name: "printer.local."}, Ptr: "second-name.local."},
		&dns.A{Hdr: dns.RR_Header{Name: "printer.local."}, A: net.ParseIP("10.0.0.5")},
	}

	record := extractResource(msg)
	if record.Hostname != "printer.local" {
		t.Fatalf("Hostname = %q, want %q (first non-.arpa PTR)", record.Hostname, "printer.local")
	}
	if _, ok := record.IPs[netip.MustParseAddr("10.0.0.5")]; !ok {
		t.Fatalf("expected the A record's address to be collected")
	}
}

func TestPreferredAddrPrefersIPv4(t *testing.T) {
	ips := map[netip.Addr]struct{}{
		netip.MustParseAddr("fe80::1"):   {},
		netip.MustParseAddr("10.0.0.5"):  {},
	}
	got, ok := preferredAddr(ips)
	if !ok || !got.Is4() {
		t.Fatalf("expected an IPv4 address to be preferred, got %v", got)
	}
}

func TestPreferredAddrFallsBackToLinkLocal(t *testing.T) {
	ips := map[netip.Addr]struct{}{
		netip.MustParseAddr("fe80::1"): {},
	}
	got, ok := preferredAddr(ips)
	if !ok || got != netip.MustParseAddr("fe80::1") {
		t.Fatalf("expected the link-local address, got %v ok=%v", got, ok)
	}
}

func TestResolveHostsFillsHostnameFromCacheAndExtendsIPs(t *testing.T) {
	r := &Resolver{
		hostnameMap: map[netip.Addr]string{},
		mdnsCache: map[netip.Addr]MdnsRecord{
			netip.MustParseAddr("10.0.0.5"): {
				Hostname: "printer.local",
				IPs: map[netip.Addr]struct{}{
					netip.MustParseAddr("fe80::5"): {},
				},
			},
		},
	}

	h := host.New(netip.MustParseAddr("10.0.0.5"))
	r.ResolveHosts([]*host.Host{h})

	if h.Hostname != "printer.local" {
		t.Fatalf("Hostname = %q, want printer.local", h.Hostname)
	}
	found := false
	for _, ip := range h.IPs {
		if ip == netip.MustParseAddr("fe80::5") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected mDNS record's extra IP to be merged into host.IPs: %v", h.IPs)
	}
}
