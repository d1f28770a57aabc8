package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "perftrace",
	Short:        "Build, encode and journal mobile performance trace events",
	Long:         "Constructs performance trace events from attribute and counter sequences,\nencodes them into the transfer form and keeps them in a local journal.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
