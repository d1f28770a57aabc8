package perftrace

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelStoreClosed is returned when a channel store is written to after being closed.
var ErrChannelStoreClosed = errors.New("perftrace: channel store closed")

// EventHandler receives each recorded event.
type EventHandler func(PerformanceEvent) error

// NewCallbackStore adapts a function into an EventStore so callers can hand
// events to their own telemetry sink without defining structs.
func NewCallbackStore(name string, fn EventHandler) EventStore {
	if name == "" {
		name = "callback"
	}
	return &callbackStore{name: name, fn: fn}
}

// NewChannelStore exposes events via a channel; it returns the store, the
// read-only channel, and a close function the caller invokes during shutdown.
// Readers should stop reading once close has been called.
func NewChannelStore(name string, buffer int) (EventStore, <-chan PerformanceEvent, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan PerformanceEvent, buffer)
	s := &channelStore{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, s.close
}

type callbackStore struct {
	name string
	fn   EventHandler
}

func (s *callbackStore) Save(_ context.Context, e PerformanceEvent) error {
	if s.fn == nil {
		return fmt.Errorf("callback store %q: nil handler", s.name)
	}
	return s.fn(e)
}

func (s *callbackStore) ListBySession(context.Context, string) ([]PerformanceEvent, error) {
	return nil, fmt.Errorf("callback store %q: listing is not supported", s.name)
}

func (s *callbackStore) Name() string { return s.name }

type channelStore struct {
	name   string
	ch     chan PerformanceEvent
	closed chan struct{}
	once   sync.Once
}

func (s *channelStore) Save(ctx context.Context, e PerformanceEvent) error {
	select {
	case <-s.closed:
		return ErrChannelStoreClosed
	default:
	}

	select {
	case <-s.closed:
		return ErrChannelStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- e:
		return nil
	}
}

func (s *channelStore) ListBySession(context.Context, string) ([]PerformanceEvent, error) {
	return nil, fmt.Errorf("channel store %q: listing is not supported", s.name)
}

func (s *channelStore) Name() string { return s.name }

func (s *channelStore) close() {
	s.once.Do(func() { close(s.closed) })
}
