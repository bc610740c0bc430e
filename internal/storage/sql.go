package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"nutrichef/internal/logger"
)

const collectionsSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Both postgres and sqlite (3.24+) accept this upsert.
const upsertCollection = `
INSERT INTO collections (name, body, updated_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
`

// SQLStore keeps each collection as one row of the collections table.
// It works with the "postgres" and "sqlite3" drivers.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore connects to the database and creates the collections table if
// it does not exist.
func NewSQLStore(driver, dataSourceName string) (*SQLStore, error) {
	db, err := sqlx.Connect(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every sqlite connection to ":memory:" is a separate database.
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(collectionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create collections table: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Load reads the collection row. A missing row leaves dst untouched.
func (s *SQLStore) Load(ctx context.Context, c Collection, dst any) error {
	var body string
	err := s.db.QueryRowxContext(ctx, s.db.Rebind("SELECT body FROM collections WHERE name = ?"), string(c)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug("collection row missing", zap.String("collection", string(c)))
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", c, err)
	}

	logger.Debug("collection loaded", zap.String("collection", string(c)), zap.Int("bytes", len(body)))
	return decode(c, []byte(body), dst)
}

// Save upserts the collection row.
func (s *SQLStore) Save(ctx context.Context, c Collection, records any) error {
	return s.SaveAll(ctx, Write{Collection: c, Records: records})
}

// SaveAll upserts every collection in one transaction.
func (s *SQLStore) SaveAll(ctx context.Context, writes ...Write) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, w := range writes {
		body, err := encode(w.Records)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(upsertCollection), string(w.Collection), string(body), now); err != nil {
			return fmt.Errorf("failed to save %s: %w", w.Collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug("collections saved", zap.Int("count", len(writes)))
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
