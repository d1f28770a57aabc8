package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"github.com/ghalamif/perftrace/internal/codec"
	"github.com/ghalamif/perftrace/internal/domain"
	"github.com/ghalamif/perftrace/internal/ports"
)

// Dialect selects placeholder and conflict syntax.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStore keeps one row per distinct event; attributes and counters are
// stored in their JSON sequence encoding. Rows are keyed by a digest of the
// event's transfer form, so saving the same event twice keeps one row while
// events that share a session and created stamp stay separate.
type SQLStore struct {
	db        *sql.DB
	dialect   Dialect
	tableName string
}

func NewSQLStore(db *sql.DB, dialect Dialect, table string) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("store: db is required")
	}
	switch dialect {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("store: unsupported dialect %q", dialect)
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("store: invalid table name %q", table)
	}
	return &SQLStore{db: db, dialect: dialect, tableName: table}, nil
}

func (s *SQLStore) Name() string { return string(s.dialect) }

// EnsureSchema creates the events table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	idCol := "id BIGSERIAL PRIMARY KEY"
	if s.dialect == SQLite {
		idCol = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s, digest TEXT NOT NULL UNIQUE, session_id TEXT NOT NULL, created TEXT NOT NULL, event TEXT NOT NULL, attributes TEXT NOT NULL, counters TEXT NOT NULL)`,
		s.tableName, idCol)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Save inserts e unless an identical event is already stored.
func (s *SQLStore) Save(ctx context.Context, e domain.PerformanceEvent) error {
	digest, err := eventDigest(e)
	if err != nil {
		return err
	}
	attrs, err := codec.EncodeAttributes(e.Attributes())
	if err != nil {
		return err
	}
	counters, err := codec.EncodeCounters(e.Counters())
	if err != nil {
		return err
	}

	var query string
	switch s.dialect {
	case Postgres:
		query = fmt.Sprintf("INSERT INTO %s (digest, session_id, created, event, attributes, counters) VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (digest) DO NOTHING", s.tableName)
	default:
		query = fmt.Sprintf("INSERT OR IGNORE INTO %s (digest, session_id, created, event, attributes, counters) VALUES (?,?,?,?,?,?)", s.tableName)
	}

	if _, err := s.db.ExecContext(ctx, query, digest, e.SessionID(), e.Created(), e.Event(), attrs, counters); err != nil {
		return fmt.Errorf("store: insert event: %w", err)
	}
	return nil
}

// ListBySession returns the session's events in insertion order.
func (s *SQLStore) ListBySession(ctx context.Context, sessionID string) ([]domain.PerformanceEvent, error) {
	placeholder := "?"
	if s.dialect == Postgres {
		placeholder = "$1"
	}
	query := fmt.Sprintf("SELECT event, created, session_id, attributes, counters FROM %s WHERE session_id = %s ORDER BY id", s.tableName, placeholder)

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	defer rows.Close()

	var out []domain.PerformanceEvent
	for rows.Next() {
		var event, created, session, attrsRaw, countersRaw string
		if err := rows.Scan(&event, &created, &session, &attrsRaw, &countersRaw); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		attrs, err := codec.DecodeAttributes(attrsRaw)
		if err != nil {
			return nil, err
		}
		counters, err := codec.DecodeCounters(countersRaw)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.NewPerformanceEvent(event, created, session, attrs, counters))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	return out, nil
}

// eventDigest hashes the transfer form, which covers every field of e.
func eventDigest(e domain.PerformanceEvent) (string, error) {
	data, err := codec.Encode(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

var _ ports.EventStore = (*SQLStore)(nil)
