package perftrace

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	base "github.com/ghalamif/perftrace/pkg/perftrace"
)

// Re-exported errors for convenience.
var (
	ErrMissingField       = base.ErrMissingField
	ErrDecode             = base.ErrDecode
	ErrNoStore            = base.ErrNoStore
	ErrChannelStoreClosed = base.ErrChannelStoreClosed
)

// EventName is the discriminator of every PerformanceEvent.
const EventName = base.EventName

// Property bag keys read by Construct.
const (
	KeyAttributes = base.KeyAttributes
	KeyCounters   = base.KeyCounters
)

// Type aliases so consumers can import github.com/ghalamif/perftrace directly.
type (
	PerformanceEvent  = base.PerformanceEvent
	StringAttribute   = base.StringAttribute
	NumericAttribute  = base.NumericAttribute
	Number            = base.Number
	PropertyBag       = base.PropertyBag
	Bag               = base.Bag
	Builder           = base.Builder
	BuilderOption     = base.BuilderOption
	MissingFieldError = base.MissingFieldError
	DecodeError       = base.DecodeError
	Config            = base.Config
	JournalConfig     = base.JournalConfig
	StoreConfig       = base.StoreConfig
	MetricsConfig     = base.MetricsConfig
	LogConfig         = base.LogConfig
	Runtime           = base.Runtime
	RuntimeOption     = base.RuntimeOption
	EventStore        = base.EventStore
	EventHandler      = base.EventHandler
	Journal           = base.Journal
	Observability     = base.Observability
	Field             = base.Field
	EntryID           = base.EntryID
)

// Codec helpers.
func Int(v int64) Number { return base.Int(v) }

func Float(v float64) Number { return base.Float(v) }

func Construct(sessionID string, bag PropertyBag) (PerformanceEvent, error) {
	return base.Construct(sessionID, bag)
}

func NewBuilder(opts ...BuilderOption) *Builder {
	return base.NewBuilder(opts...)
}

func WithClock(now func() time.Time) BuilderOption {
	return base.WithClock(now)
}

func NewBag(attrs []StringAttribute, counters []NumericAttribute) (Bag, error) {
	return base.NewBag(attrs, counters)
}

func Encode(e PerformanceEvent) ([]byte, error) {
	return base.Encode(e)
}

func Decode(data []byte) (PerformanceEvent, error) {
	return base.Decode(data)
}

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime and options.
func NewRuntime(ctx context.Context, cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(ctx, cfg, opts...)
}

func WithJournal(j Journal) RuntimeOption {
	return base.WithJournal(j)
}

func WithStore(s EventStore) RuntimeOption {
	return base.WithStore(s)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithRegistry(reg *prometheus.Registry) RuntimeOption {
	return base.WithRegistry(reg)
}

func WithLogger(l *zap.Logger) RuntimeOption {
	return base.WithLogger(l)
}

func WithEventBuilder(b *Builder) RuntimeOption {
	return base.WithEventBuilder(b)
}

// Store adapters.
func NewCallbackStore(name string, fn EventHandler) EventStore {
	return base.NewCallbackStore(name, fn)
}

func NewChannelStore(name string, buffer int) (EventStore, <-chan PerformanceEvent, func()) {
	return base.NewChannelStore(name, buffer)
}
