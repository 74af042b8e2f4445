package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/hooplink/internal/hooplink"
)

var ErrNoSession = errors.New("no valid session")

type sessionDoc struct {
	User      hooplink.User `json:"user"`
	CreatedAt string        `json:"createdAt"`
}

// CreateSession stores user under a new random token valid for ttl.
func (s *DocStore) CreateSession(ctx context.Context, user hooplink.User, ttl time.Duration) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	token := id.String()

	now := s.now()
	data, err := json.Marshal(sessionDoc{User: user, CreatedAt: formatTime(now)})
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, data, expires_at) VALUES (?, ?, jsonb(?), ?)`,
		token, user.ID, string(data), formatTime(now.Add(ttl)),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// SessionUser returns the user behind an unexpired token.
func (s *DocStore) SessionUser(ctx context.Context, token string) (hooplink.User, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM sessions WHERE id = ? AND expires_at > ?`,
		token, formatTime(s.now()),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return hooplink.User{}, ErrNoSession
	}
	if err != nil {
		return hooplink.User{}, err
	}
	var doc sessionDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return hooplink.User{}, err
	}
	return doc.User, nil
}

// UpdateUser rewrites the stored user on every session of user.ID.
func (s *DocStore) UpdateUser(ctx context.Context, user hooplink.User) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, json(data) FROM sessions WHERE user_id = ?`, user.ID,
	)
	if err != nil {
		return err
	}
	docs := make(map[string]sessionDoc)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			rows.Close()
			return err
		}
		var doc sessionDoc
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			rows.Close()
			return err
		}
		docs[id] = doc
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return ErrNoSession
	}

	for id, doc := range docs {
		doc.User = user
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE sessions SET data = jsonb(?) WHERE id = ?`, string(data), id,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *DocStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, token)
	return err
}

// PurgeExpiredSessions deletes sessions that expired before now.
func (s *DocStore) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, formatTime(s.now()),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
