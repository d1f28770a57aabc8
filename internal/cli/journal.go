package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghalamif/perftrace/internal/adapters/journal"
	"github.com/ghalamif/perftrace/internal/codec"
	"github.com/ghalamif/perftrace/internal/ports"
)

var (
	journalDir     string
	journalFrom    uint64
	journalPending bool
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().StringVarP(&journalDir, "dir", "d", "./data/journal", "Journal directory")
	journalCmd.Flags().Uint64Var(&journalFrom, "from", 1, "First entry id to list")
	journalCmd.Flags().BoolVar(&journalPending, "pending", false, "List only entries not yet committed to a store")
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List the events kept in a journal",
	Args:  cobra.NoArgs,
	RunE:  runJournal,
}

type journalLine struct {
	ID    uint64          `json:"id"`
	Event json.RawMessage `json:"event,omitempty"`
	Error string          `json:"error,omitempty"`
}

// runJournal only reads: a torn tail left by a crash stays on disk for the
// next writer to repair.
func runJournal(cmd *cobra.Command, args []string) error {
	from := ports.EntryID(journalFrom)
	if journalPending {
		committed, err := journal.ReadCursor(journalDir)
		if err != nil {
			return fmt.Errorf("read journal cursor: %w", err)
		}
		if committed+1 > from {
			from = committed + 1
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	stats, err := journal.ReadEntries(journalDir, from, func(id ports.EntryID, encoded []byte) error {
		line := journalLine{ID: uint64(id)}
		e, err := codec.Decode(encoded)
		if err != nil {
			line.Error = err.Error()
			return enc.Encode(line)
		}
		line.Event, err = json.Marshal(e)
		if err != nil {
			return err
		}
		return enc.Encode(line)
	})
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "latest=%d committed_through=%d size_bytes=%d\n",
		stats.LatestAppended, stats.OldestUncommitted-1, stats.SizeBytes)
	return nil
}
