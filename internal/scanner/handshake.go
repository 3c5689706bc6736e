package scanner

import (
	"context"
	"net"
	"net/netip"
	"time"

	"hostprowl/internal/host"
	"hostprowl/internal/scanstate"
)

const handshakeTimeout = 100 * time.Millisecond

// ProbeHandshake attempts a TCP connect to ip:443 and reports a host if the
// connection attempt resolves at all — connected or actively refused both
// count as "alive"; only a timeout means nothing answered.
func ProbeHandshake(ctx context.Context, ip netip.Addr) *host.Host {
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	start := time.Now()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(ip.String(), "443"))
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil // timed out: nobody answered
		}
		// Any non-timeout outcome (refused, reset, unreachable) counts as a
		// response; only a timeout means nothing answered.
		scanstate.IncrementHostCount()
		return host.New(ip).WithRTT(elapsed)
	}
	conn.Close()
	scanstate.IncrementHostCount()
	return host.New(ip).WithRTT(elapsed)
}

// RangeDiscovery probes every target in sequence, stopping early if the
// stop signal fires. Used as the unprivileged fallback when the process
// cannot open raw sockets.
func RangeDiscovery(ctx context.Context, targets []netip.Addr) []*host.Host {
	var hosts []*host.Host
	for _, ip := range targets {
		if scanstate.Stopped() {
			break
		}
		if h := ProbeHandshake(ctx, ip); h != nil {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
