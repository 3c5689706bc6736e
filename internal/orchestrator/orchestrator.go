// Package orchestrator ties the other packages into one discover run: parse
// targets, check privileges, fan out scanner tasks, and join the resolver's
// results back onto the discovered hosts.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"sync"

	"hostprowl/internal/config"
	"hostprowl/internal/host"
	"hostprowl/internal/iface"
	"hostprowl/internal/ipset"
	"hostprowl/internal/resolver"
	"hostprowl/internal/router"
	"hostprowl/internal/scanerr"
	"hostprowl/internal/scanner"
	"hostprowl/internal/scanstate"
)

// Discover parses targets, routes them, runs the appropriate scanners, and
// returns every host found with hostnames resolved as far as possible.
func Discover(ctx context.Context, log *slog.Logger, rawTargets []string, cfg config.Config) ([]*host.Host, error) {
	scanstate.ResetHostCount()
	scanstate.ResetStop()

	collection, err := ipset.ParseTargets(rawTargets)
	if err != nil {
		return nil, err
	}

	go stopOnCancel(ctx)

	if os.Geteuid() != 0 {
		log.Warn("not running as root; falling back to unprivileged TCP connect probing")
		var targets []netip.Addr
		collection.Iter(func(ip netip.Addr) bool {
			targets = append(targets, ip)
			return true
		})
		return scanner.RangeDiscovery(ctx, targets), nil
	}

	var res *resolver.Resolver
	var dnsTx chan netip.Addr
	var resolverWg sync.WaitGroup
	if !cfg.NoDNS {
		res, err = resolver.New(log)
		if err != nil {
			log.Warn("hostname resolver disabled: failed to start", "err", err)
			res = nil
		} else {
			dnsTx = make(chan netip.Addr, 4096)
			resolverWg.Add(1)
			go func() {
				defer resolverWg.Done()
				res.Run(ctx, dnsTx)
			}()
		}
	}

	route, err := router.Route(collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scanerr.ErrNoViableInterface, err)
	}

	var (
		mu    sync.Mutex
		hosts []*host.Host
		wg    sync.WaitGroup
	)
	appendHosts := func(found []*host.Host) {
		mu.Lock()
		hosts = append(hosts, found...)
		mu.Unlock()
	}

	for _, ib := range route.Interfaces() {
		ib := ib
		if !ib.Bucket.Local.IsEmpty() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				local, err := scanner.NewLocalScanner(log, ib.Interface, ib.Bucket, dnsTx)
				if err != nil {
					log.Warn("local scanner failed to start", "iface", ib.Interface.Name, "err", err)
					return
				}
				appendHosts(local.DiscoverHosts())
			}()
		}
		if !ib.Bucket.Routed.IsEmpty() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				srcV4, srcV6 := firstByFamily(ib.Interface.Addrs)
				routed, err := scanner.NewRoutedScanner(log, ib.Bucket.Routed, srcV4, srcV6, dnsTx)
				if err != nil {
					log.Warn("routed scanner failed to start", "iface", ib.Interface.Name, "err", err)
					return
				}
				appendHosts(routed.DiscoverHosts())
			}()
		}
	}

	if !route.Unmapped.IsEmpty() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var targets []netip.Addr
			route.Unmapped.Iter(func(ip netip.Addr) bool {
				targets = append(targets, ip)
				return true
			})
			appendHosts(scanner.RangeDiscovery(ctx, targets))
		}()
	}

	wg.Wait()

	if dnsTx != nil {
		close(dnsTx)
	}
	resolverWg.Wait()
	if res != nil {
		res.ResolveHosts(hosts)
	}

	tagGateway(hosts)

	return hosts, nil
}

// tagGateway marks whichever discovered host owns the system's default
// route as RoleGateway, independent of scanner.local's Router Advertisement
// based inference (most IPv4-only routers never send one).
func tagGateway(hosts []*host.Host) {
	gwAddr, ok := iface.DefaultGateway()
	if !ok {
		return
	}
	for _, h := range hosts {
		for _, ip := range h.IPs {
			if ip == gwAddr {
				h.NetworkRoles[host.RoleGateway] = struct{}{}
				return
			}
		}
	}
}

func firstByFamily(addrs []netip.Prefix) (v4, v6 netip.Addr) {
	for _, p := range addrs {
		if p.Addr().Is4() && !v4.IsValid() {
			v4 = p.Addr()
		}
		if p.Addr().Is6() && !v6.IsValid() {
			v6 = p.Addr()
		}
	}
	return v4, v6
}

// stopOnCancel translates context cancellation (Ctrl+C, a TUI keypress, or a
// caller-supplied deadline) into the cooperative stop signal every scanner
// loop polls between iterations.
func stopOnCancel(ctx context.Context) {
	<-ctx.Done()
	scanstate.Stop()
}
