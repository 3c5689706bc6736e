//go:build darwin

package iface

import (
	"os/exec"
	"strings"
	"sync"
)

type hardwareInfo struct {
	physical map[string]struct{}
	wireless map[string]struct{}
}

var (
	hwOnce sync.Once
	hw     hardwareInfo
)

func getHardwareInfo() hardwareInfo {
	hwOnce.Do(func() {
		hw = hardwareInfo{
			physical: make(map[string]struct{}),
			wireless: make(map[string]struct{}),
		}
		out, err := exec.Command("networksetup", "-listallhardwareports").Output()
		if err != nil {
			return
		}
		for _, line := range strings.Split(string(out), "\n") {
			if device, ok := strings.CutPrefix(line, "Device: "); ok {
				hw.physical[strings.TrimSpace(device)] = struct{}{}
			}
		}
		for device := range hw.physical {
			cmd := exec.Command("networksetup", "-getairportnetwork", device)
			if cmd.Run() == nil {
				hw.wireless[device] = struct{}{}
			}
		}
	})
	return hw
}

func isPhysical(name string) bool {
	_, ok := getHardwareInfo().physical[name]
	return ok
}

func isWireless(name string) bool {
	_, ok := getHardwareInfo().wireless[name]
	return ok
}
