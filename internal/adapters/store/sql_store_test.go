package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/perftrace/internal/codec"
	"github.com/ghalamif/perftrace/internal/domain"
)

func testEvent(t *testing.T, session string, at time.Time) domain.PerformanceEvent {
	t.Helper()
	bag, err := codec.NewBag(
		[]domain.StringAttribute{{Name: "style_id", Value: "mapbox://styles/x"}},
		[]domain.NumericAttribute{{Name: "elapsed", Value: domain.Int(873)}, {Name: "fps", Value: domain.Float(59.5)}},
	)
	require.NoError(t, err)
	e, err := codec.NewBuilder(codec.WithClock(func() time.Time { return at })).Construct(session, bag)
	require.NoError(t, err)
	return e
}

func TestPostgresSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewSQLStore(db, Postgres, "perf_events")
	require.NoError(t, err)
	e := testEvent(t, "sess-42", time.Date(2020, 1, 2, 3, 4, 5, 6e6, time.UTC))

	digest, err := eventDigest(e)
	require.NoError(t, err)
	require.Len(t, digest, 64)

	expectedQuery := regexp.QuoteMeta("INSERT INTO perf_events (digest, session_id, created, event, attributes, counters) VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (digest) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs(digest, "sess-42", "2020-01-02T03:04:05.006+0000", domain.PerformanceTrace,
			`[{"name":"style_id","value":"mapbox://styles/x"}]`,
			`[{"name":"elapsed","value":873},{"name":"fps","value":59.5}]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Save(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListBySession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewSQLStore(db, Postgres, "perf_events")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"event", "created", "session_id", "attributes", "counters"}).
		AddRow(domain.PerformanceTrace, "2020-01-02T03:04:05.006+0000", "sess-42", `[{"name":"a","value":"1"}]`, `[{"name":"n","value":1500}]`).
		AddRow(domain.PerformanceTrace, "2020-01-02T03:04:06.006+0000", "sess-42", `[]`, `[]`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event, created, session_id, attributes, counters FROM perf_events WHERE session_id = $1 ORDER BY id")).
		WithArgs("sess-42").
		WillReturnRows(rows)

	events, err := s.ListBySession(context.Background(), "sess-42")
	require.NoError(t, err)
	require.Len(t, events, 2)
	v, ok := events[0].Counters()[0].Value.Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(1500), v)
	assert.Empty(t, events[1].Attributes())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRejectsCorruptRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewSQLStore(db, Postgres, "perf_events")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"event", "created", "session_id", "attributes", "counters"}).
		AddRow(domain.PerformanceTrace, "2020-01-02T03:04:05.006+0000", "s", `[]`, `[{"name":"n","value":"x"}]`)
	mock.ExpectQuery("SELECT event").WithArgs("s").WillReturnRows(rows)

	_, err = s.ListBySession(context.Background(), "s")
	assert.ErrorIs(t, err, codec.ErrDecode)
}

func TestSQLiteKeepsDistinctEventsWithSameStamp(t *testing.T) {
	ctx := context.Background()
	s, db, err := Open(ctx, SQLite, ":memory:", "perf_events")
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2021, 6, 7, 8, 9, 10, 11e6, time.UTC)
	build := codec.NewBuilder(codec.WithClock(func() time.Time { return at }))
	var events []domain.PerformanceEvent
	for _, counters := range []string{`[{"name":"elapsed","value":1}]`, `[{"name":"elapsed","value":2}]`} {
		e, err := build.Construct("sess-1", codec.Bag{codec.KeyAttributes: "[]", codec.KeyCounters: counters})
		require.NoError(t, err)
		events = append(events, e)
	}
	require.Equal(t, events[0].Created(), events[1].Created())

	for _, e := range events {
		require.NoError(t, s.Save(ctx, e))
	}
	require.NoError(t, s.Save(ctx, events[1]))

	stored, err := s.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, stored, 2, "same-stamp events must both be kept, and the repeat ignored")
	assert.True(t, stored[0].Equal(events[0]))
	assert.True(t, stored[1].Equal(events[1]))
}

func TestNewSQLStoreValidates(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLStore(nil, Postgres, "t")
	assert.Error(t, err)
	_, err = NewSQLStore(db, Dialect("mysql"), "t")
	assert.Error(t, err)
	_, err = NewSQLStore(db, SQLite, "t; DROP TABLE x")
	assert.Error(t, err)

	s, err := NewSQLStore(db, SQLite, "events")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.Name())
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, db, err := Open(ctx, SQLite, ":memory:", "perf_events")
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2021, 6, 7, 8, 9, 10, 11e6, time.FixedZone("", -5*3600))
	first := testEvent(t, "sess-1", at)
	second := testEvent(t, "sess-1", at.Add(time.Second))
	other := testEvent(t, "sess-2", at)

	for _, e := range []domain.PerformanceEvent{first, second, other, first} {
		require.NoError(t, s.Save(ctx, e))
	}

	events, err := s.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2, "duplicate insert must be ignored")
	assert.Equal(t, first, events[0])
	assert.Equal(t, second, events[1])

	none, err := s.ListBySession(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
