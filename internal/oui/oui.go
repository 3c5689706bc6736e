// Package oui resolves the first three octets of a MAC address to a vendor
// name. The real ecosystem tools shell out to a multi-megabyte IEEE registry
// snapshot; this package embeds a small, well-known-vendor subset instead,
// enough to label common lab/home gear without shipping a database.
package oui

import (
	"net"
	"strings"
)

var table = map[string]string{
	"00:1A:2B": "Cisco Systems",
	"3C:5A:B4": "Google",
	"B8:27:EB": "Raspberry Pi Foundation",
	"DC:A6:32": "Raspberry Pi Trading",
	"F0:18:98": "Apple",
	"AC:DE:48": "Apple",
	"00:50:56": "VMware",
	"08:00:27": "Oracle VirtualBox",
	"00:0C:29": "VMware",
	"52:54:00": "QEMU/KVM",
	"00:1B:63": "Apple",
	"A4:5E:60": "Apple",
	"FC:FC:48": "Apple",
	"00:16:3E": "Xen",
	"00:15:5D": "Microsoft Hyper-V",
	"DC:A6:33": "Raspberry Pi Trading",
	"E4:5F:01": "Raspberry Pi Trading",
	"00:11:32": "Synology",
	"90:09:D0": "Synology",
	"B0:4E:26": "TP-Link",
	"C4:6E:1F": "TP-Link",
	"14:CC:20": "TP-Link",
	"00:1D:D8": "Ubiquiti Networks",
	"24:A4:3C": "Ubiquiti Networks",
	"F4:92:BF": "Ubiquiti Networks",
}

// Lookup returns the vendor for a MAC's OUI prefix, or "" if unknown.
func Lookup(mac net.HardwareAddr) string {
	if len(mac) < 3 {
		return ""
	}
	prefix := strings.ToUpper(net.HardwareAddr(mac[:3]).String())
	return table[prefix]
}
