package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/chiptop/chiptop"
	"github.com/sarchlab/chiptop/datarecording"
)

var elaborateCmd = &cobra.Command{
	Use:   "elaborate",
	Short: "Elaborate the chip-top topology and print its boundary.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		o, err := optionsFrom(cmd)
		if err != nil {
			return err
		}

		t, err := buildTopology(o)
		if err != nil {
			return err
		}

		if record := stringOption(cmd, "record", EnvRecord); record != "" {
			recorder := datarecording.New(record)
			datarecording.CreateTopologyTables(recorder)
			datarecording.RecordTopology(recorder, t)
		}

		if signature, _ := cmd.Flags().GetBool("signature"); signature {
			_, err := io.WriteString(cmd.OutOrStdout(), t.Signature())
			return err
		}

		return printBoundary(cmd.OutOrStdout(), t)
	},
}

func init() {
	elaborateCmd.Flags().String("record", "",
		"record the topology into <record>.sqlite3 (default $"+EnvRecord+")")
	elaborateCmd.Flags().Bool("signature", false,
		"print the structural signature instead of the boundary")
	rootCmd.AddCommand(elaborateCmd)
}

func printBoundary(out io.Writer, t *chiptop.Topology) error {
	fmt.Fprintf(out, "Topology %s: %d components, %d wires\n",
		t.ID(), len(t.Graph().Components()), len(t.Graph().Wires()))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	for _, p := range t.BoundaryPorts() {
		spec := p.Spec()
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			p.Name(), spec.Protocol, spec.Dir, spec.Width, spec.Clock)
	}

	return w.Flush()
}
