package perftrace

import (
	"time"

	"github.com/ghalamif/perftrace/internal/codec"
	"github.com/ghalamif/perftrace/internal/domain"
	"github.com/ghalamif/perftrace/internal/ports"
)

// PerformanceEvent is the immutable telemetry record built by Construct or Decode.
type PerformanceEvent = domain.PerformanceEvent

// StringAttribute is a named textual value attached to an event.
type StringAttribute = domain.StringAttribute

// NumericAttribute is a named counter attached to an event.
type NumericAttribute = domain.NumericAttribute

// Number holds an integer or floating point counter value.
type Number = domain.Number

// PropertyBag supplies the pre-encoded "attributes" and "counters" entries.
type PropertyBag = ports.PropertyBag

// Bag is a map-backed PropertyBag.
type Bag = codec.Bag

// Builder constructs events with a configurable clock.
type Builder = codec.Builder

// EventStore persists events; see NewCallbackStore and NewChannelStore.
type EventStore = ports.EventStore

// Journal is the append-only log of encoded events.
type Journal = ports.Journal

// Observability receives logs and metrics from the runtime.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// EntryID identifies a journal entry.
type EntryID = ports.EntryID

type (
	MissingFieldError = codec.MissingFieldError
	DecodeError       = codec.DecodeError
)

const (
	// EventName is the discriminator of every PerformanceEvent.
	EventName = domain.PerformanceTrace
	// KeyAttributes and KeyCounters are the property bag keys read by Construct.
	KeyAttributes = codec.KeyAttributes
	KeyCounters   = codec.KeyCounters
)

var (
	ErrMissingField = codec.ErrMissingField
	ErrDecode       = codec.ErrDecode
)

// Int builds an integer counter value.
func Int(v int64) Number { return domain.Int(v) }

// Float builds a floating point counter value.
func Float(v float64) Number { return domain.Float(v) }

// Construct builds an event stamped with the current wall clock.
func Construct(sessionID string, bag PropertyBag) (PerformanceEvent, error) {
	return codec.Construct(sessionID, bag)
}

// BuilderOption customizes a Builder.
type BuilderOption = codec.BuilderOption

// NewBuilder returns a Builder configured by opts such as WithClock.
func NewBuilder(opts ...BuilderOption) *Builder {
	return codec.NewBuilder(opts...)
}

// WithClock pins the clock a Builder stamps events with.
func WithClock(now func() time.Time) BuilderOption { return codec.WithClock(now) }

// NewBag encodes attributes and counters into a Bag for Construct.
func NewBag(attrs []StringAttribute, counters []NumericAttribute) (Bag, error) {
	return codec.NewBag(attrs, counters)
}

// Encode writes the fixed-order transfer form of e.
func Encode(e PerformanceEvent) ([]byte, error) { return codec.Encode(e) }

// Decode reads a transfer form produced by Encode.
func Decode(data []byte) (PerformanceEvent, error) { return codec.Decode(data) }
