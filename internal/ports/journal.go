package ports

// EntryID identifies a journal record. IDs start at 1 and increase by one.
type EntryID uint64

// Journal is an append-only log of encoded performance events.
type Journal interface {
	Append(encoded []byte) (EntryID, error)
	Iterate(from EntryID, fn func(id EntryID, encoded []byte) error) error
	Commit(upto EntryID) error
	Compact() error
	Stats() JournalStats
	Sync() error
	Close() error
}

type JournalStats struct {
	OldestUncommitted EntryID
	LatestAppended    EntryID
	SizeBytes         int64
}
