package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/seee/pkg/domain"
)

// SessionStore implements ports.SessionStore.
type SessionStore struct {
	d *DB
}

// Save upserts the session blob.
func (s *SessionStore) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	q := s.d.db.Rebind(`INSERT INTO sessions (id, owner_id, title, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = excluded.owner_id,
			title = excluded.title,
			data = excluded.data,
			updated_at = excluded.updated_at`)
	if _, err := s.d.db.ExecContext(ctx, q, sessionID, session.OwnerID, session.Title, string(data), s.d.now()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads a session blob.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var data string
	err := s.d.db.GetContext(ctx, &data, s.d.db.Rebind(`SELECT data FROM sessions WHERE id = ?`), sessionID)
	if isNoRows(err) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &session, nil
}

// Delete removes a session. Missing rows are not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.d.db.ExecContext(ctx, s.d.db.Rebind(`DELETE FROM sessions WHERE id = ?`), sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns every session ID, most recently saved first.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := s.d.db.SelectContext(ctx, &ids, `SELECT id FROM sessions ORDER BY updated_at DESC`); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}
