//go:build !linux && !darwin

package iface

// isPhysical and isWireless have no reliable detection on this platform;
// every interface is treated as virtual, which excludes it from LAN
// candidacy rather than risk misclassifying a VPN or bridge as physical.
func isPhysical(name string) bool { return false }

func isWireless(name string) bool { return false }
