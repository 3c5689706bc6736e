package transport

import (
	"fmt"
	"net"
	"net/netip"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// RawIPPacket is one received raw-IP datagram (for IPv4, the IP header is
// stripped by the OS before delivery; for IPv6 it never includes one).
type RawIPPacket struct {
	Payload []byte
	Src     netip.Addr
	At      time.Time
	// HopLimit is the packet's TTL (IPv4) or Hop Limit (IPv6) as reported by
	// the kernel's control message, or 0 if the platform didn't supply one.
	HopLimit int
}

// RawIPHandle is a raw IP-protocol socket pair (v4 and v6) used to send
// hand-built TCP segments and receive whatever the kernel hands back for
// that protocol number, without going through the normal TCP stack.
type RawIPHandle struct {
	v4   net.PacketConn
	v6   net.PacketConn
	p4   *ipv4.PacketConn
	p6   *ipv6.PacketConn
	Recv <-chan RawIPPacket
	done chan struct{}
}

// defaultTTL is the outbound TTL/hop limit set on every probe this handle
// sends, so a reply's own TTL is comparable across targets.
const defaultTTL = 64

// OpenRawIP opens "ip4:tcp" and "ip6:tcp" sockets and starts background
// readers feeding Recv. Either family may fail to open (e.g. a v6-only or
// v4-only host) without failing the whole handle; callers should check
// HasV4/HasV6 before sending on an unavailable family.
func OpenRawIP() (*RawIPHandle, error) {
	h := &RawIPHandle{done: make(chan struct{})}
	recv := make(chan RawIPPacket, 4096)
	h.Recv = recv

	var openErr error
	if conn, err := net.ListenPacket("ip4:tcp", "0.0.0.0"); err == nil {
		h.v4 = conn
		h.p4 = ipv4.NewPacketConn(conn)
		h.p4.SetTTL(defaultTTL)
		h.p4.SetControlMessage(ipv4.FlagTTL, true)
		go h.readLoopV4(recv)
	} else {
		openErr = fmt.Errorf("open ip4:tcp: %w", err)
	}

	if conn, err := net.ListenPacket("ip6:tcp", "::"); err == nil {
		h.v6 = conn
		h.p6 = ipv6.NewPacketConn(conn)
		h.p6.SetHopLimit(defaultTTL)
		h.p6.SetControlMessage(ipv6.FlagHopLimit, true)
		go h.readLoopV6(recv)
	} else if openErr != nil {
		return nil, fmt.Errorf("%v; open ip6:tcp: %w", openErr, err)
	}

	if h.v4 == nil && h.v6 == nil {
		return nil, openErr
	}
	return h, nil
}

// readLoopV4 reads through the ipv4.PacketConn wrapper so each datagram's
// control message yields its received TTL alongside the payload.
func (h *RawIPHandle) readLoopV4(recv chan<- RawIPPacket) {
	buf := make([]byte, 65536)
	for {
		select {
		case <-h.done:
			return
		default:
		}
		_ = h.v4.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, cm, addr, err := h.p4.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		src, ok := parseHostPort(addr)
		if !ok {
			continue
		}
		pkt := RawIPPacket{Payload: append([]byte(nil), buf[:n]...), Src: src, At: time.Now()}
		if cm != nil {
			pkt.HopLimit = cm.TTL
		}
		select {
		case recv <- pkt:
		case <-h.done:
			return
		}
	}
}

// readLoopV6 is readLoopV4's IPv6 counterpart: ipv6 control messages report
// HopLimit instead of TTL, but the field means the same thing on the wire.
func (h *RawIPHandle) readLoopV6(recv chan<- RawIPPacket) {
	buf := make([]byte, 65536)
	for {
		select {
		case <-h.done:
			return
		default:
		}
		_ = h.v6.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, cm, addr, err := h.p6.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		src, ok := parseHostPort(addr)
		if !ok {
			continue
		}
		pkt := RawIPPacket{Payload: append([]byte(nil), buf[:n]...), Src: src, At: time.Now()}
		if cm != nil {
			pkt.HopLimit = cm.HopLimit
		}
		select {
		case recv <- pkt:
		case <-h.done:
			return
		}
	}
}

func parseHostPort(addr net.Addr) (netip.Addr, bool) {
	ipAddr, ok := addr.(*net.IPAddr)
	if !ok {
		return netip.Addr{}, false
	}
	a, ok := netip.AddrFromSlice(ipAddr.IP)
	if !ok {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}

// HasV4 reports whether the IPv4 raw socket opened successfully.
func (h *RawIPHandle) HasV4() bool { return h.v4 != nil }

// HasV6 reports whether the IPv6 raw socket opened successfully.
func (h *RawIPHandle) HasV6() bool { return h.v6 != nil }

// SendTo writes a pre-built TCP segment to dst over the matching raw socket.
func (h *RawIPHandle) SendTo(dst netip.Addr, segment []byte) error {
	if dst.Is4() {
		if h.v4 == nil {
			return fmt.Errorf("no ipv4 raw socket open")
		}
		_, err := h.v4.WriteTo(segment, &net.IPAddr{IP: net.IP(dst.AsSlice())})
		return err
	}
	if h.v6 == nil {
		return fmt.Errorf("no ipv6 raw socket open")
	}
	_, err := h.v6.WriteTo(segment, &net.IPAddr{IP: net.IP(dst.AsSlice())})
	return err
}

// Close stops the reader goroutines and releases both sockets.
func (h *RawIPHandle) Close() {
	close(h.done)
	if h.v4 != nil {
		h.v4.Close()
	}
	if h.v6 != nil {
		h.v6.Close()
	}
}
