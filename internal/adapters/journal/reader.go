package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ghalamif/perftrace/internal/ports"
)

// ReadCursor returns the committed cursor of the journal in dir.
func ReadCursor(dir string) (ports.EntryID, error) {
	return readCursor(filepath.Join(dir, metaName))
}

// ReadEntries walks the journal in dir without opening it for writing and
// calls fn for every complete record with id >= from. A torn tail is skipped,
// not truncated. The returned stats describe the complete records.
func ReadEntries(dir string, from ports.EntryID, fn func(id ports.EntryID, encoded []byte) error) (ports.JournalStats, error) {
	committed, err := ReadCursor(dir)
	if err != nil {
		return ports.JournalStats{}, err
	}
	stats := ports.JournalStats{OldestUncommitted: committed + 1}

	f, err := os.Open(filepath.Join(dir, logName))
	if err != nil {
		return stats, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("journal read header: %w", err)
		}
		id := ports.EntryID(binary.BigEndian.Uint64(hdr[0:8]))
		b := make([]byte, binary.BigEndian.Uint32(hdr[8:12]))
		if _, err := io.ReadFull(r, b); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("journal read body: %w", err)
		}
		stats.LatestAppended = id
		stats.SizeBytes += recordHeaderLen + int64(len(b))
		if id < from {
			continue
		}
		if err := fn(id, b); err != nil {
			return stats, err
		}
	}
}
