//go:build linux

package iface

import (
	"fmt"
	"os"
)

// isPhysical reports whether the interface has a backing device node, the
// same check the kernel's own network stack uses to distinguish real NICs
// from virtual ones (bridges, tunnels, veth pairs).
func isPhysical(name string) bool {
	_, err := os.Stat(fmt.Sprintf("/sys/class/net/%s/device", name))
	return err == nil
}

// isWireless reports whether the interface exposes the wireless extensions
// directory.
func isWireless(name string) bool {
	_, err := os.Stat(fmt.Sprintf("/sys/class/net/%s/wireless", name))
	return err == nil
}
