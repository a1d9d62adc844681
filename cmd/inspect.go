package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/chiptop/datarecording"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.sqlite3>",
	Short: "Print rows of a recorded topology.",
	Long: `inspect reads a database written by "elaborate --record" and ` +
		`prints the rows of one table: topology, component, param, port or ` +
		`wire.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); err != nil {
			return errors.Wrapf(err, "opening %s", args[0])
		}

		table, _ := cmd.Flags().GetString("table")
		where, _ := cmd.Flags().GetString("where")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		if _, ok := datarecording.TopologyTables()[table]; !ok {
			return errors.Errorf("unknown table %q", table)
		}

		reader := datarecording.NewReader(args[0])
		defer reader.Close()

		datarecording.MapTopologyTables(reader)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		rows, total, err := reader.Query(ctx, table, datarecording.QueryParams{
			Where:  where,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, row := range rows {
			fmt.Fprintf(out, "%+v\n", row)
		}

		fmt.Fprintf(out, "%d of %d rows\n", len(rows), total)

		return nil
	},
}

func init() {
	inspectCmd.Flags().StringP("table", "t", datarecording.ComponentTable,
		"table to print")
	inspectCmd.Flags().String("where", "", "SQL condition rows must satisfy")
	inspectCmd.Flags().Int("limit", 0, "maximum number of rows, 0 for all")
	inspectCmd.Flags().Int("offset", 0, "rows to skip")
	rootCmd.AddCommand(inspectCmd)
}
