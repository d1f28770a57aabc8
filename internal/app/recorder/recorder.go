package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ghalamif/perftrace/internal/codec"
	"github.com/ghalamif/perftrace/internal/domain"
	"github.com/ghalamif/perftrace/internal/ports"
)

// ErrNoStore is returned by Replay when no event store is configured.
var ErrNoStore = errors.New("recorder: no event store configured")

// Option customizes a Recorder.
type Option func(*Recorder)

// WithStore saves every recorded event and lets Replay drain the journal.
func WithStore(s ports.EventStore) Option {
	return func(r *Recorder) { r.store = s }
}

// WithBuilder overrides the event builder, e.g. to pin the clock.
func WithBuilder(b *codec.Builder) Option {
	return func(r *Recorder) {
		if b != nil {
			r.builder = b
		}
	}
}

// WithSyncEveryRecord fsyncs the journal after each append.
func WithSyncEveryRecord(on bool) Option {
	return func(r *Recorder) { r.syncEveryRecord = on }
}

// Recorder turns property bags into journaled, optionally stored, events.
// Record and Replay are serialized so the journal cursor only ever moves
// across entries the store has accepted.
type Recorder struct {
	mu              sync.Mutex
	builder         *codec.Builder
	journal         ports.Journal
	store           ports.EventStore
	obs             ports.Observability
	syncEveryRecord bool
}

func New(journal ports.Journal, obs ports.Observability, opts ...Option) (*Recorder, error) {
	if journal == nil {
		return nil, fmt.Errorf("journal is required")
	}
	if obs == nil {
		return nil, fmt.Errorf("observability is required")
	}
	r := &Recorder{
		builder: codec.NewBuilder(),
		journal: journal,
		obs:     obs,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Record constructs an event from bag and appends its transfer form to the
// journal. With a store configured the event is saved, and its entry is
// committed when no earlier entry is still waiting for the store. A failed
// save leaves the entry, and every later one, for Replay.
func (r *Recorder) Record(ctx context.Context, sessionID string, bag ports.PropertyBag) (domain.PerformanceEvent, ports.EntryID, error) {
	e, err := r.builder.Construct(sessionID, bag)
	if err != nil {
		r.obs.IncCounter(ports.MetricConstructFailures, 1)
		r.obs.LogError("construct_failed", err, ports.Field{Key: "session_id", Value: sessionID})
		return domain.PerformanceEvent{}, 0, err
	}
	r.obs.IncCounter(ports.MetricEventsConstructed, 1)

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := codec.Encode(e)
	if err != nil {
		return domain.PerformanceEvent{}, 0, err
	}
	id, err := r.journal.Append(data)
	if err != nil {
		return domain.PerformanceEvent{}, 0, fmt.Errorf("journal append: %w", err)
	}
	if r.syncEveryRecord {
		if err := r.journal.Sync(); err != nil {
			return e, id, fmt.Errorf("journal sync: %w", err)
		}
	}
	r.obs.SetGauge(ports.MetricJournalSize, float64(r.journal.Stats().SizeBytes))

	if r.store == nil {
		return e, id, nil
	}
	if err := r.save(ctx, id, e); err != nil {
		return e, id, err
	}
	if pending := r.journal.Stats().OldestUncommitted; pending != id {
		// an earlier entry has not reached the store; committing id would hide it
		r.obs.LogInfo("journal_commit_deferred",
			ports.Field{Key: "entry_id", Value: uint64(id)},
			ports.Field{Key: "oldest_uncommitted", Value: uint64(pending)})
		return e, id, nil
	}
	if err := r.journal.Commit(id); err != nil {
		r.obs.LogError("journal_commit_failed", err, ports.Field{Key: "entry_id", Value: uint64(id)})
	}
	return e, id, nil
}

// Replay saves every uncommitted journal entry and commits the cursor past
// the last entry handled. Entries that fail to decode are counted and skipped.
// It stops at the first store error and returns the number of events saved.
// Entries saved by Record behind a pending one are saved again, so stores
// must tolerate duplicates.
func (r *Recorder) Replay(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, ErrNoStore
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		saved int
		last  ports.EntryID
	)
	from := r.journal.Stats().OldestUncommitted
	iterErr := r.journal.Iterate(from, func(id ports.EntryID, encoded []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := codec.Decode(encoded)
		if err != nil {
			r.obs.RecordRejected(id, err)
			last = id
			return nil
		}
		if err := r.save(ctx, id, e); err != nil {
			return err
		}
		saved++
		last = id
		return nil
	})

	if last > 0 {
		if err := r.journal.Commit(last); err != nil {
			return saved, errors.Join(iterErr, fmt.Errorf("journal commit: %w", err))
		}
	}
	if iterErr != nil {
		return saved, iterErr
	}
	r.obs.LogInfo("journal_replayed", ports.Field{Key: "saved", Value: saved}, ports.Field{Key: "through", Value: uint64(last)})
	return saved, nil
}

// Compact drops committed entries from the journal.
func (r *Recorder) Compact() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.journal.Compact(); err != nil {
		return fmt.Errorf("journal compact: %w", err)
	}
	r.obs.SetGauge(ports.MetricJournalSize, float64(r.journal.Stats().SizeBytes))
	return nil
}

func (r *Recorder) save(ctx context.Context, id ports.EntryID, e domain.PerformanceEvent) error {
	start := time.Now()
	if err := r.store.Save(ctx, e); err != nil {
		r.obs.LogError("store_write_failed", err,
			ports.Field{Key: "store", Value: r.store.Name()},
			ports.Field{Key: "entry_id", Value: uint64(id)})
		return fmt.Errorf("store event: %w", err)
	}
	r.obs.ObserveLatency(ports.MetricStoreLatency, time.Since(start).Seconds())
	r.obs.IncCounter(ports.MetricEventsStored, 1)
	return nil
}
