// Package display renders scan results: a live progress TUI while a scan
// runs, and a final plain fixed-width host table.
package display

import (
	"fmt"
	"io"
	"net/netip"
	"sort"
	"strings"
	"time"

	"hostprowl/internal/host"
)

const tableWidth = 120

// RenderTable writes a fixed-width table of discovered hosts to w, sorted by
// primary IP. When redact is set, MAC addresses and hostnames are masked.
func RenderTable(w io.Writer, hosts []*host.Host, redact bool) {
	sorted := make([]*host.Host, len(hosts))
	copy(sorted, hosts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PrimaryIP.Compare(sorted[j].PrimaryIP) < 0
	})

	fmt.Fprintf(w, "Discovered %d host(s)\n", len(sorted))
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	fmt.Fprintf(w, "%-16s %-18s %-24s %-18s %5s %8s %8s %8s\n",
		"IP", "MAC", "Hostname", "Vendor", "Hops", "Min RTT", "Max RTT", "Avg RTT")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, h := range sorted {
		mac := "-"
		if h.MAC != nil {
			mac = h.MAC.String()
			if redact {
				mac = redactMAC(mac)
			}
		}
		hostname := h.Hostname
		if hostname == "" {
			hostname = "-"
		} else if redact {
			hostname = redactHostname(hostname)
		}
		vendor := h.Vendor
		if vendor == "" {
			vendor = "-"
		}
		hops := "-"
		if h.HopDistance > 0 {
			hops = fmt.Sprintf("%d", h.HopDistance)
		}

		fmt.Fprintf(w, "%-16s %-18s %-24s %-18s %5s %8s %8s %8s\n",
			formatAddr(h.PrimaryIP, redact), mac, hostname, vendor, hops,
			formatRTT(h.MinRTT()), formatRTT(h.MaxRTT()), formatRTT(h.AverageRTT()))
	}
}

func formatAddr(ip netip.Addr, redact bool) string {
	if !redact || ip.Is4() {
		return ip.String()
	}
	return redactIPv6(ip)
}

func formatRTT(d time.Duration, ok bool) string {
	if !ok {
		return "-"
	}
	return d.Round(time.Microsecond).String()
}

func redactMAC(mac string) string {
	parts := strings.Split(mac, ":")
	if len(parts) < 6 {
		return "**:**:**:**:**:**"
	}
	return strings.Join(parts[:3], ":") + ":**:**:**"
}

func redactHostname(name string) string {
	if idx := strings.IndexByte(name, '.'); idx > 0 {
		return "***" + name[idx:]
	}
	return "***"
}

func redactIPv6(ip netip.Addr) string {
	s := ip.String()
	if idx := strings.LastIndexByte(s, ':'); idx >= 0 {
		return s[:idx] + ":****"
	}
	return s
}
