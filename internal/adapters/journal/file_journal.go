package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ghalamif/perftrace/internal/ports"
)

const (
	recordHeaderLen = 12
	logName         = "journal.log"
	metaName        = "journal.meta"
)

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal: closed")

// renameFile is swapped in tests.
var renameFile = os.Rename

// FileJournal stores encoded events in an append-only file. The committed
// cursor lives in a sidecar meta file.
type FileJournal struct {
	mu        sync.Mutex
	path      string
	metaPath  string
	file      *os.File
	writer    *bufio.Writer
	nextID    ports.EntryID
	committed ports.EntryID
	sizeBytes int64
	closed    bool
}

func Open(dir string) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, logName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	j := &FileJournal{
		path:     path,
		metaPath: filepath.Join(dir, metaName),
		file:     f,
		writer:   bufio.NewWriterSize(f, 64<<10),
	}
	if err := j.bootstrap(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return j, nil
}

func (j *FileJournal) bootstrap() error {
	if err := j.scanExisting(); err != nil {
		return err
	}
	if err := j.loadCommitted(); err != nil {
		return err
	}
	if j.nextID < j.committed {
		j.nextID = j.committed
	}
	_, err := j.file.Seek(0, io.SeekEnd)
	return err
}

// scanExisting finds the last complete record and drops a torn tail.
func (j *FileJournal) scanExisting() error {
	rf, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer rf.Close()

	reader := bufio.NewReader(rf)
	var (
		offset int64
		lastID ports.EntryID
	)

	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(reader, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("journal scan header: %w", err)
		}
		id := ports.EntryID(binary.BigEndian.Uint64(hdr[0:8]))
		length := binary.BigEndian.Uint32(hdr[8:12])

		if _, err := io.CopyN(io.Discard, reader, int64(length)); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("journal scan body: %w", err)
		}
		offset += recordHeaderLen + int64(length)
		lastID = id
	}

	if err := j.file.Truncate(offset); err != nil {
		return err
	}
	j.sizeBytes = offset
	j.nextID = lastID
	return nil
}

func (j *FileJournal) loadCommitted() error {
	committed, err := readCursor(j.metaPath)
	if err != nil {
		return err
	}
	j.committed = committed
	return nil
}

func readCursor(metaPath string) (ports.EntryID, error) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	val := strings.TrimSpace(string(data))
	if val == "" {
		return 0, nil
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("journal meta parse: %w", err)
	}
	return ports.EntryID(u), nil
}

// Append buffers one record; call Sync to make it durable.
func (j *FileJournal) Append(encoded []byte) (ports.EntryID, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return 0, ErrClosed
	}
	if uint64(len(encoded)) > 1<<32-1 {
		return 0, fmt.Errorf("journal: record too large: %d bytes", len(encoded))
	}

	id := j.nextID + 1

	// record format: [8 bytes id][4 bytes len][len bytes transfer form]
	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(id))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(encoded)))

	if _, err := j.writer.Write(hdr[:]); err != nil {
		return 0, err
	}
	if _, err := j.writer.Write(encoded); err != nil {
		return 0, err
	}

	j.nextID = id
	j.sizeBytes += int64(len(encoded) + len(hdr))
	return id, nil
}

// Iterate calls fn for every record with id >= from, in append order.
func (j *FileJournal) Iterate(from ports.EntryID, fn func(id ports.EntryID, encoded []byte) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}

	if err := j.writer.Flush(); err != nil {
		return err
	}

	f, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("journal iterate truncated header: %w", err)
		}
		id := ports.EntryID(binary.BigEndian.Uint64(hdr[0:8]))
		l := binary.BigEndian.Uint32(hdr[8:12])

		b := make([]byte, l)
		if _, err := io.ReadFull(r, b); err != nil {
			return fmt.Errorf("corrupt journal: %w", err)
		}
		if id < from {
			continue
		}
		if err := fn(id, b); err != nil {
			return err
		}
	}
}

// Commit advances the persisted cursor; it never moves backwards.
func (j *FileJournal) Commit(upto ports.EntryID) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if upto > j.committed {
		j.committed = upto
	}
	return j.persistMetaLocked()
}

// Compact rewrites the log without committed records.
func (j *FileJournal) Compact() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if err := j.writer.Flush(); err != nil {
		return err
	}

	src, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer src.Close()

	tmpPath := j.path + ".compact"
	dst, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(dst)
	r := bufio.NewReader(src)

	var kept int64
	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			_ = dst.Close()
			return fmt.Errorf("journal compact header: %w", err)
		}
		id := ports.EntryID(binary.BigEndian.Uint64(hdr[0:8]))
		l := int64(binary.BigEndian.Uint32(hdr[8:12]))
		if id <= j.committed {
			if _, err := io.CopyN(io.Discard, r, l); err != nil {
				_ = dst.Close()
				return fmt.Errorf("journal compact body: %w", err)
			}
			continue
		}
		if _, err := w.Write(hdr[:]); err != nil {
			_ = dst.Close()
			return err
		}
		if _, err := io.CopyN(w, r, l); err != nil {
			_ = dst.Close()
			return fmt.Errorf("journal compact body: %w", err)
		}
		kept += recordHeaderLen + l
	}
	if err := w.Flush(); err != nil {
		_ = dst.Close()
		return err
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	// the live file stays open until the rename lands, so a failed rename
	// leaves the journal usable
	if err := renameFile(tmpPath, j.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("journal compact rename: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		_ = j.file.Close()
		j.closed = true
		return err
	}
	_ = j.file.Close()
	j.file = f
	j.writer.Reset(f)
	j.sizeBytes = kept
	return nil
}

func (j *FileJournal) Stats() ports.JournalStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return ports.JournalStats{
		OldestUncommitted: j.committed + 1,
		LatestAppended:    j.nextID,
		SizeBytes:         j.sizeBytes,
	}
}

// Sync flushes buffered records and fsyncs the log.
func (j *FileJournal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Sync()
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	flushErr := j.writer.Flush()
	syncErr := j.file.Sync()
	closeErr := j.file.Close()
	return errors.Join(flushErr, syncErr, closeErr)
}

func (j *FileJournal) persistMetaLocked() error {
	data := []byte(fmt.Sprintf("%d\n", j.committed))
	return os.WriteFile(j.metaPath, data, 0o644)
}

var _ ports.Journal = (*FileJournal)(nil)
