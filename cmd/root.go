// Package cmd provides the command-line interface for chiptop.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/chiptop/chiptop"
	"github.com/sarchlab/chiptop/compute"
	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/device"
	"github.com/sarchlab/chiptop/sim"
)

// Environment variables that provide defaults for flags. They can also be
// set in a .env file in the working directory.
const (
	EnvConfig      = "CHIPTOP_CONFIG"
	EnvRecord      = "CHIPTOP_RECORD"
	EnvMonitorPort = "CHIPTOP_MONITOR_PORT"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chiptop",
	Short: "chiptop elaborates the top-level interconnect of a chip.",
	Long: `chiptop reads a chip configuration, resolves the interconnect ` +
		`decisions it implies and elaborates the chip-top topology. The ` +
		`topology can be printed, recorded into SQLite or served over HTTP.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(loadEnv)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "",
		"chip configuration file (default $"+EnvConfig+")")
	flags.String("name", "ChipTop", "name of the chip domain")
	flags.Int("interrupts", 0, "interrupt inputs of the compute subsystem")
	flags.BoolP("verbose", "v", false, "log every elaboration step")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func loadEnv() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Ignoring .env: %v\n", err)
	}
}

// stringOption returns the flag value when it is given on the command line,
// then the environment variable, then the flag default.
func stringOption(cmd *cobra.Command, flag, env string) string {
	value, _ := cmd.Flags().GetString(flag)
	if cmd.Flags().Changed(flag) {
		return value
	}

	if v, ok := os.LookupEnv(env); ok {
		return v
	}

	return value
}

func intOption(cmd *cobra.Command, flag, env string) (int, error) {
	value, _ := cmd.Flags().GetInt(flag)
	if cmd.Flags().Changed(flag) {
		return value, nil
	}

	v, ok := os.LookupEnv(env)
	if !ok {
		return value, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", env)
	}

	return n, nil
}

type options struct {
	configPath string
	name       string
	interrupts int
	logger     *log.Logger
}

func optionsFrom(cmd *cobra.Command) (options, error) {
	o := options{
		configPath: stringOption(cmd, "config", EnvConfig),
	}

	o.name, _ = cmd.Flags().GetString("name")
	o.interrupts, _ = cmd.Flags().GetInt("interrupts")

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		o.logger = log.New(cmd.ErrOrStderr(), "", 0)
	}

	if o.configPath == "" {
		return o, errors.Errorf(
			"no configuration given, use --config or $%s", EnvConfig)
	}

	return o, nil
}

func loadConfig(o options) (*config.Config, *config.Resolution, error) {
	b, err := config.LoadFile(o.configPath, device.Catalog())
	if err != nil {
		return nil, nil, err
	}

	cfg, err := b.Build()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "configuring from %s", o.configPath)
	}

	res, err := config.Resolve(cfg)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "resolving %s", o.configPath)
	}

	return cfg, res, nil
}

func buildTopology(o options) (*chiptop.Topology, error) {
	cfg, res, err := loadConfig(o)
	if err != nil {
		return nil, err
	}

	sub := compute.MakeBuilder().
		WithResolution(res).
		WithInterrupts(o.interrupts).
		Build(sim.BuildName(o.name, "Compute"))

	b := chiptop.MakeBuilder().
		WithConfig(cfg).
		WithName(o.name)

	if o.logger != nil {
		b = b.WithLogger(o.logger)
	}

	return b.Build(sub)
}
