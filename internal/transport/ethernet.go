// Package transport owns the raw sockets the scanners send and receive on:
// an Ethernet capture/inject handle for the Local Scanner, and raw IP
// conns for the Routed Scanner.
package transport

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// EthernetFrame is one captured link-layer frame together with when it
// arrived.
type EthernetFrame struct {
	Data []byte
	At   time.Time
}

// EthernetHandle wraps a live pcap capture/injection handle for one
// interface, delivering captured frames on a channel so callers can select
// over it alongside timers and send ticks.
type EthernetHandle struct {
	handle *pcap.Handle
	Frames <-chan EthernetFrame
	done   chan struct{}
}

// OpenEthernet opens interfaceName in promiscuous mode with the given BPF
// filter (e.g. "arp or icmp6") and starts a background reader goroutine.
func OpenEthernet(interfaceName, bpfFilter string) (*EthernetHandle, error) {
	handle, err := pcap.OpenLive(interfaceName, 65536, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("open live capture on %s: %w", interfaceName, err)
	}
	if bpfFilter != "" {
		if err := handle.SetBPFFilter(bpfFilter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("set bpf filter %q: %w", bpfFilter, err)
		}
	}

	frames := make(chan EthernetFrame, 4096)
	done := make(chan struct{})
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	go func() {
		defer close(frames)
		for {
			select {
			case <-done:
				return
			case packet, ok := <-source.Packets():
				if !ok {
					return
				}
				select {
				case frames <- EthernetFrame{Data: packet.Data(), At: time.Now()}:
				case <-done:
					return
				}
			}
		}
	}()

	return &EthernetHandle{handle: handle, Frames: frames, done: done}, nil
}

// Send transmits a raw frame as-is.
func (h *EthernetHandle) Send(frame []byte) error {
	if err := h.handle.WritePacketData(frame); err != nil {
		return fmt.Errorf("write packet data: %w", err)
	}
	return nil
}

// Close stops the reader goroutine and releases the pcap handle.
func (h *EthernetHandle) Close() {
	close(h.done)
	h.handle.Close()
}
