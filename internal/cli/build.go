package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ghalamif/perftrace/internal/adapters/journal"
	"github.com/ghalamif/perftrace/internal/codec"
)

var (
	buildSession    string
	buildAttributes string
	buildCounters   string
	buildJournal    string
	buildFormat     string
)

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildSession, "session", "s", "", "Session id (random UUID when empty)")
	buildCmd.Flags().StringVarP(&buildAttributes, "attributes", "a", "[]", "String attributes as a JSON array of {name,value}")
	buildCmd.Flags().StringVarP(&buildCounters, "counters", "c", "[]", "Numeric counters as a JSON array of {name,value}")
	buildCmd.Flags().StringVarP(&buildJournal, "journal", "j", "", "Append the encoded event to the journal in this directory")
	buildCmd.Flags().StringVarP(&buildFormat, "format", "f", "base64", "Output format (base64|json)")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Construct an event and print its transfer form",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	if buildFormat != "base64" && buildFormat != "json" {
		return fmt.Errorf("invalid --format %q: want base64 or json", buildFormat)
	}
	session := buildSession
	if session == "" {
		session = uuid.NewString()
	}

	e, err := codec.Construct(session, codec.Bag{
		codec.KeyAttributes: buildAttributes,
		codec.KeyCounters:   buildCounters,
	})
	if err != nil {
		return err
	}
	data, err := codec.Encode(e)
	if err != nil {
		return err
	}

	if buildJournal != "" {
		j, err := journal.Open(buildJournal)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		id, err := j.Append(data)
		if err != nil {
			_ = j.Close()
			return fmt.Errorf("journal append: %w", err)
		}
		if err := j.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "journaled entry %d\n", id)
	}

	out := cmd.OutOrStdout()
	switch buildFormat {
	case "json":
		b, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	default:
		fmt.Fprintln(out, base64.StdEncoding.EncodeToString(data))
	}
	return nil
}
