// Command hostprowl discovers hosts on the local network and beyond: ARP
// and ICMPv6 neighbor discovery on-link, TCP SYN probing off-link, with
// opportunistic DNS and mDNS hostname resolution.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"hostprowl/internal/config"
	"hostprowl/internal/display"
	"hostprowl/internal/iface"
	"hostprowl/internal/logging"
	"hostprowl/internal/orchestrator"
)

const banner = `
 _               _
| |__   ___  ___| |_ _ __  _ __ _____      _| |
| '_ \ / _ \/ __| __| '_ \| '__/ _ \ \ /\ / / |
| | | | (_) \__ \ |_| |_) | | | (_) \ V  V /|_|
|_| |_|\___/|___/\__| .__/|_|  \___/ \_/\_/ (_)
                    |_|
`

func main() {
	os.Exit(run(os.Args[1:]))
}

// repeatFlag implements flag.Value for a boolean switch that can be passed
// more than once (-q -q) to escalate a level, capped at 2.
type repeatFlag int

func (r *repeatFlag) String() string {
	if r == nil {
		return "0"
	}
	return fmt.Sprintf("%d", *r)
}
func (r *repeatFlag) Set(string) error {
	if *r < 2 {
		*r++
	}
	return nil
}
func (r *repeatFlag) IsBoolFlag() bool { return true }

func run(args []string) int {
	fs := flag.NewFlagSet("hostprowl", flag.ContinueOnError)
	noBanner := fs.Bool("no-banner", false, "suppress the startup banner")
	redact := fs.Bool("redact", false, "mask MACs, IPv6 suffixes, and hostnames in output")

	var noDNS boolAlias
	fs.Var(&noDNS, "no-dns", "disable hostname resolution")
	fs.Var(&noDNS, "n", "shorthand for --no-dns")

	var quiet repeatFlag
	fs.Var(&quiet, "quiet", "reduce visual density (repeatable, max 2)")
	fs.Var(&quiet, "q", "shorthand for --quiet")

	var verbose repeatFlag
	fs.Var(&verbose, "verbose", "increase log verbosity (repeatable, max 2)")
	fs.Var(&verbose, "v", "shorthand for --verbose")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "usage: hostprowl <info|listen|discover|scan> [targets...]")
		return 1
	}
	command, rest := rest[0], rest[1:]

	cfg := config.Config{
		NoBanner:     *noBanner,
		NoDNS:        bool(noDNS),
		Redact:       *redact,
		Quiet:        int(quiet),
		DisableInput: false,
	}

	log, closeLog, err := logging.New("hostprowl.log", int(verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		return 1
	}
	defer closeLog()

	if !cfg.NoBanner {
		fmt.Println(strings.TrimLeft(banner, "\n"))
	}

	switch command {
	case "info", "i":
		return runInfo()
	case "listen", "l":
		fmt.Println("listen: reserved, not implemented")
		return 0
	case "discover", "d":
		return runDiscover(log, rest, cfg)
	case "scan", "s":
		fmt.Println("scan: reserved, not implemented")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		return 1
	}
}

// boolAlias lets --no-dns and its short form -n share one backing value.
type boolAlias bool

func (b *boolAlias) String() string {
	if b == nil {
		return "false"
	}
	return fmt.Sprintf("%t", *b)
}
func (b *boolAlias) Set(v string) error {
	*b = true
	return nil
}
func (b *boolAlias) IsBoolFlag() bool { return true }

func runInfo() int {
	candidates, err := iface.GetPrioritizedInterfaces(16)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list interfaces: %v\n", err)
		return 1
	}
	display.RenderInterfaces(os.Stdout, candidates)
	return 0
}

func runDiscover(log *slog.Logger, targets []string, cfg config.Config) int {
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "discover: at least one target is required")
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	quiet := cfg.Quiet >= 1
	var program *tea.Program
	if !quiet && !cfg.DisableInput {
		m := display.NewModel(strings.Join(targets, ", "), cancel)
		program = tea.NewProgram(m, tea.WithAltScreen())
		go func() {
			if _, err := program.Run(); err != nil {
				log.Warn("tui exited with error", "err", err)
			}
		}()
	}

	hosts, err := orchestrator.Discover(ctx, log, targets, cfg)
	if program != nil {
		program.Quit()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "discover: %v\n", err)
		return 1
	}

	if len(hosts) == 0 {
		fmt.Println("zero hosts detected")
		return 0
	}
	display.RenderTable(os.Stdout, hosts, cfg.Redact)
	return 0
}
