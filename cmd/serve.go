package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/chiptop/monitoring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Elaborate the topology and serve it for inspection over HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		o, err := optionsFrom(cmd)
		if err != nil {
			return err
		}

		port, err := intOption(cmd, "port", EnvMonitorPort)
		if err != nil {
			return err
		}

		t, err := buildTopology(o)
		if err != nil {
			return err
		}

		m := monitoring.NewMonitor()
		if port != 0 {
			m.WithPortNumber(port)
		}

		m.RegisterTopology(t)
		url := m.StartServer()

		if open, _ := cmd.Flags().GetBool("open"); open {
			if err := browser.OpenURL(url); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Cannot open browser: %v\n", err)
			}
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		<-ctx.Done()

		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0,
		"port of the monitoring server (default $"+EnvMonitorPort+
			", random if unset)")
	serveCmd.Flags().Bool("open", false, "open the monitor in a browser")
	rootCmd.AddCommand(serveCmd)
}
