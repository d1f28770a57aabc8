package codec

import (
	"errors"
	"time"

	"github.com/ghalamif/perftrace/internal/domain"
	"github.com/ghalamif/perftrace/internal/ports"
)

// Builder constructs performance events from property bags. It holds no
// mutable state and is safe for concurrent use.
type Builder struct {
	now func() time.Time
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithClock replaces the wall clock used to stamp `created`.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

var defaultBuilder = NewBuilder()

// Construct builds an event with the wall clock. See Builder.Construct.
func Construct(sessionID string, bag ports.PropertyBag) (domain.PerformanceEvent, error) {
	return defaultBuilder.Construct(sessionID, bag)
}

// Construct decodes the "attributes" and "counters" entries of bag and
// stamps the event with the builder clock. Both entries are always decoded;
// if either fails no event is returned and the error carries every failure.
func (b *Builder) Construct(sessionID string, bag ports.PropertyBag) (domain.PerformanceEvent, error) {
	attrs, attrErr := decodeBagField(bag, KeyAttributes, DecodeAttributes)
	counters, counterErr := decodeBagField(bag, KeyCounters, DecodeCounters)
	switch {
	case attrErr != nil && counterErr != nil:
		return domain.PerformanceEvent{}, errors.Join(attrErr, counterErr)
	case attrErr != nil:
		return domain.PerformanceEvent{}, attrErr
	case counterErr != nil:
		return domain.PerformanceEvent{}, counterErr
	}
	return domain.NewPerformanceEvent(
		domain.PerformanceTrace,
		FormatCreated(b.now()),
		sessionID,
		attrs,
		counters,
	), nil
}

// FormatCreated renders t with domain.CreatedLayout. time.Format is
// locale-independent and reentrant.
func FormatCreated(t time.Time) string {
	return t.Format(domain.CreatedLayout)
}

func decodeBagField[T any](bag ports.PropertyBag, key string, decode func(string) ([]T, error)) ([]T, error) {
	if bag == nil {
		return nil, missing(key)
	}
	raw, ok := bag.GetString(key)
	if !ok {
		return nil, missing(key)
	}
	return decode(raw)
}

// Bag is a map-backed PropertyBag.
type Bag map[string]string

func (b Bag) GetString(key string) (string, bool) {
	v, ok := b[key]
	return v, ok
}

// NewBag pre-serializes attributes and counters into a Bag ready for Construct.
func NewBag(attrs []domain.StringAttribute, counters []domain.NumericAttribute) (Bag, error) {
	a, err := EncodeAttributes(attrs)
	if err != nil {
		return nil, err
	}
	c, err := EncodeCounters(counters)
	if err != nil {
		return nil, err
	}
	return Bag{KeyAttributes: a, KeyCounters: c}, nil
}

var _ ports.PropertyBag = Bag(nil)

