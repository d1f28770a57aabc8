package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghalamif/perftrace/internal/app/config"
)

var validateConfig string

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateConfig, "config", "./data/config.yaml", "Path to configuration file to validate")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate a config file without starting the runtime",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(validateConfig); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config %s looks good\n", validateConfig)
		return nil
	},
}
