package perftrace

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, withStore bool) *Config {
	t.Helper()
	cfg := &Config{
		Journal: JournalConfig{Dir: t.TempDir()},
		Metrics: MetricsConfig{Addr: "127.0.0.1:0"},
	}
	if withStore {
		cfg.Store = StoreConfig{Driver: "sqlite", DSN: ":memory:"}
	}
	return cfg
}

func scenarioBag(t *testing.T) Bag {
	t.Helper()
	bag, err := NewBag(
		[]StringAttribute{{Name: "style_id", Value: "mapbox://styles/x"}},
		[]NumericAttribute{{Name: "elapsed", Value: Int(873)}},
	)
	require.NoError(t, err)
	return bag
}

func TestRuntimeRecordsIntoSQLiteStore(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntime(ctx, testConfig(t, true), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer rt.Shutdown(ctx)

	e, err := rt.Record(ctx, "sess-42", scenarioBag(t))
	require.NoError(t, err)
	assert.Equal(t, EventName, e.Event())

	events, err := rt.Events(ctx, "sess-42")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Equal(e))

	stats := rt.JournalStats()
	assert.Equal(t, EntryID(1), stats.LatestAppended)
	assert.Equal(t, EntryID(2), stats.OldestUncommitted, "stored entry should be committed")

	require.NoError(t, rt.Compact())
	assert.Zero(t, rt.JournalStats().SizeBytes)
}

func TestRuntimeWithoutStore(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntime(ctx, testConfig(t, false), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer rt.Shutdown(ctx)

	_, err = rt.Record(ctx, "s", scenarioBag(t))
	require.NoError(t, err)

	_, err = rt.Events(ctx, "s")
	assert.True(t, errors.Is(err, ErrNoStore))
	_, err = rt.Replay(ctx)
	assert.True(t, errors.Is(err, ErrNoStore))
	assert.Equal(t, EntryID(1), rt.JournalStats().OldestUncommitted)
}

func TestRuntimeReplaysJournalIntoStoreOnRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, false)

	first, err := NewRuntime(ctx, cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	_, err = first.Record(ctx, "sess-1", scenarioBag(t))
	require.NoError(t, err)
	require.NoError(t, first.Shutdown(ctx))

	var delivered []PerformanceEvent
	cb := NewCallbackStore("sink", func(e PerformanceEvent) error {
		delivered = append(delivered, e)
		return nil
	})
	second, err := NewRuntime(ctx, cfg, WithLogger(zap.NewNop()), WithStore(cb))
	require.NoError(t, err)
	defer second.Shutdown(ctx)

	n, err := second.Replay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, delivered, 1)
	assert.Equal(t, "sess-1", delivered[0].SessionID())
}

func TestRuntimeReplayRecoversEventBehindLaterSuccess(t *testing.T) {
	ctx := context.Background()
	calls := 0
	var delivered []string
	cb := NewCallbackStore("flaky", func(e PerformanceEvent) error {
		calls++
		if calls == 1 {
			return errors.New("sink unavailable")
		}
		delivered = append(delivered, e.SessionID())
		return nil
	})
	rt, err := NewRuntime(ctx, testConfig(t, false), WithLogger(zap.NewNop()), WithStore(cb))
	require.NoError(t, err)
	defer rt.Shutdown(ctx)

	_, err = rt.Record(ctx, "first", scenarioBag(t))
	require.Error(t, err)
	_, err = rt.Record(ctx, "second", scenarioBag(t))
	require.NoError(t, err)
	assert.Equal(t, EntryID(1), rt.JournalStats().OldestUncommitted)

	require.NoError(t, rt.Compact())
	n, err := rt.Replay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, delivered, "first")
	assert.Equal(t, EntryID(3), rt.JournalStats().OldestUncommitted)
}

func TestRuntimeStoresEventsSharingCreatedStamp(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	b := NewBuilder(WithClock(func() time.Time { return at }))
	rt, err := NewRuntime(ctx, testConfig(t, true), WithLogger(zap.NewNop()), WithEventBuilder(b))
	require.NoError(t, err)
	defer rt.Shutdown(ctx)

	for _, v := range []int64{1, 2} {
		bag, err := NewBag(nil, []NumericAttribute{{Name: "frame", Value: Int(v)}})
		require.NoError(t, err)
		_, err = rt.Record(ctx, "sess", bag)
		require.NoError(t, err)
	}

	events, err := rt.Events(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, events[0].Created(), events[1].Created())
}

func TestRuntimeMetricsHandler(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	rt, err := NewRuntime(ctx, testConfig(t, false), WithLogger(zap.NewNop()), WithRegistry(reg))
	require.NoError(t, err)
	defer rt.Shutdown(ctx)

	_, err = rt.Record(ctx, "s", scenarioBag(t))
	require.NoError(t, err)
	_, err = rt.Record(ctx, "s", Bag{KeyAttributes: "[]"})
	require.Error(t, err)

	srv := httptest.NewServer(rt.MetricsHandler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "perftrace_events_constructed_total 1")
	assert.Contains(t, text, "perftrace_construct_failures_total 1")
	assert.True(t, strings.Contains(text, "perftrace_journal_size_bytes"))
}

func TestRuntimeRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rt, err := NewRuntime(ctx, testConfig(t, true), WithLogger(zap.NewNop()))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runtime did not stop after cancel")
	}
}

func TestNewRuntimeRejectsBadConfig(t *testing.T) {
	_, err := NewRuntime(context.Background(), nil)
	assert.Error(t, err)

	cfg := testConfig(t, false)
	cfg.Store = StoreConfig{Driver: "oracle", DSN: "x"}
	_, err = NewRuntime(context.Background(), cfg, WithLogger(zap.NewNop()))
	assert.Error(t, err)
}
