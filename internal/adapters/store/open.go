package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the database for dialect, pings it and ensures the schema.
func Open(ctx context.Context, dialect Dialect, dsn, table string) (*SQLStore, *sql.DB, error) {
	driver := "postgres"
	if dialect == SQLite {
		driver = "sqlite"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if dialect == SQLite {
		// a single connection keeps in-memory databases shared
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}
	s, err := NewSQLStore(db, dialect, table)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, db, nil
}
