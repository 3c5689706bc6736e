package display

import (
	"fmt"
	"io"
	"strings"

	"hostprowl/internal/iface"
)

// RenderInterfaces writes the interface list shown by the "info" command.
func RenderInterfaces(w io.Writer, candidates []iface.Candidate) {
	fmt.Fprintln(w, "Network interfaces:")
	fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, c := range candidates {
		mac := "-"
		if len(c.MAC) > 0 {
			mac = c.MAC.String()
		}
		fmt.Fprintf(w, "%-12s mac=%-18s\n", c.Name, mac)
		for _, p := range c.Addrs {
			fmt.Fprintf(w, "             %s\n", p)
		}
	}
}
