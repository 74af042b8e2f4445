// Package store persists roster blobs and login sessions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/playperu/hooplink/internal/roster"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// DocStore keeps roster blobs and sessions in SQLite. The schema is owned by
// the migrations package.
type DocStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{db: db, now: time.Now}
}

// Ping reports whether the database is reachable.
func (s *DocStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DocStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM blobs WHERE key = ?`, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, roster.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *DocStore) PutBlob(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, formatTime(s.now()),
	)
	return err
}

var _ roster.Blobs = (*DocStore)(nil)
