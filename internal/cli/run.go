package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ghalamif/perftrace/pkg/perftrace"
)

var runConfig string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runConfig, "config", "./data/config.yaml", "Path to configuration file")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay the journal into the configured store and serve metrics",
	Args:  cobra.NoArgs,
	RunE:  runRuntime,
}

func runRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := perftrace.LoadConfig(runConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := perftrace.NewRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}
