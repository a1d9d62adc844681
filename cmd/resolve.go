package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/sim"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the interconnect decisions a configuration implies.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		o, err := optionsFrom(cmd)
		if err != nil {
			return err
		}

		_, res, err := loadConfig(o)
		if err != nil {
			return err
		}

		return printResolution(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func formatGroup(g config.ChannelGroup) string {
	switch g := g.(type) {
	case config.PresentGroup:
		s := fmt.Sprintf("%s x%d", g.Family, g.Count)
		if g.Async {
			s += " async"
		}

		return s
	default:
		return fmt.Sprintf("%s absent", g.Protocol())
	}
}

func formatGroups(groups []config.ChannelGroup) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, formatGroup(g))
	}

	return strings.Join(parts, ", ")
}

func formatScope(s config.Scope) string {
	parts := make([]string, 0, sim.NumBusFamilies)
	for _, f := range sim.BusFamilies {
		parts = append(parts, fmt.Sprintf("%s=%d", f, s.Count(f)))
	}

	return fmt.Sprintf("%s (%s) %s", s.Name, s.Site, strings.Join(parts, " "))
}

func printResolution(out io.Writer, res *config.Resolution) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "Memory\t%s\n", formatGroups(res.Memory()))
	fmt.Fprintf(w, "Boundary memory\t%s\n", formatGroups(res.BoundaryMemory()))

	serial := formatGroup(res.SerialLink())
	if config.CountOf(res.SerialLink()) > 0 {
		serial += fmt.Sprintf(" width %d", res.NarrowLinkWidth())
	}

	fmt.Fprintf(w, "Serial link\t%s\n", serial)
	fmt.Fprintf(w, "Bus\t%s\n", formatGroup(res.Bus()))
	fmt.Fprintf(w, "MMIO\t%s\n", formatGroups(res.MMIO()))

	debug := res.Debug().String()
	if res.AsyncDebug() {
		debug += " async"
	}

	fmt.Fprintf(w, "Debug\t%s\n", debug)

	scopes := res.Scopes()
	for _, s := range []config.Scope{scopes.Inner, scopes.Outer, scopes.OuterMMIO} {
		fmt.Fprintf(w, "Scope\t%s\n", formatScope(s))
	}

	if region, ok := res.ExternalIO(); ok {
		fmt.Fprintf(w, "External I/O\t%s\n", region)
	} else {
		fmt.Fprintf(w, "External I/O\tnot exported\n")
	}

	for _, d := range res.BoundDevices() {
		fmt.Fprintf(w, "Device\t%s mmio=%d clients=%d\n",
			d.Name, d.MMIOPorts, d.ClientPorts)
	}

	fmt.Fprintf(w, "Client ports\t%d\n", res.ClientPortCount())

	return w.Flush()
}
