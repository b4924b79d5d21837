package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aretw0/seee/pkg/notebook"
)

type thoughtRow struct {
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	SessionID string    `db:"session_id"`
	Number    int       `db:"thought_number"`
	Title     string    `db:"title"`
	Text      string    `db:"thought_text"`
	CreatedAt time.Time `db:"created_at"`
}

func (r thoughtRow) thought() notebook.Thought {
	return notebook.Thought(r)
}

const thoughtColumns = `id, user_id, session_id, thought_number, title, thought_text, created_at`

type mapEntryRow struct {
	ID          int64     `db:"id"`
	UserID      string    `db:"user_id"`
	EventNumber int       `db:"event_number"`
	Event       string    `db:"event"`
	Emotion     string    `db:"emotion"`
	Idea        string    `db:"idea"`
	Completed   bool      `db:"is_completed"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r mapEntryRow) entry() notebook.MapEntry {
	return notebook.MapEntry(r)
}

const mapEntryColumns = `id, user_id, event_number, event, emotion, idea, is_completed, created_at, updated_at`

// NotebookStore implements ports.NotebookStore.
type NotebookStore struct {
	d *DB
}

// Notebook returns the ports.NotebookStore view of the database.
func (d *DB) Notebook() *NotebookStore {
	return &NotebookStore{d: d}
}

func (s *NotebookStore) withinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.d.logger.Error("rollback failed", "err", rbErr)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Thoughts returns the user's thoughts by number.
func (s *NotebookStore) Thoughts(ctx context.Context, userID string) ([]notebook.Thought, error) {
	var rows []thoughtRow
	q := s.d.db.Rebind(`SELECT ` + thoughtColumns + ` FROM thoughts WHERE user_id = ? ORDER BY thought_number, id`)
	if err := s.d.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("failed to list thoughts: %w", err)
	}
	out := make([]notebook.Thought, len(rows))
	for i, r := range rows {
		out[i] = r.thought()
	}
	return out, nil
}

// AddThought inserts t under the next number of its user.
func (s *NotebookStore) AddThought(ctx context.Context, t *notebook.Thought) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.d.now()
	}
	err := s.withinTx(ctx, func(tx *sqlx.Tx) error {
		var last int
		q := tx.Rebind(`SELECT COALESCE(MAX(thought_number), 0) FROM thoughts WHERE user_id = ?`)
		if err := tx.GetContext(ctx, &last, q, t.UserID); err != nil {
			return err
		}
		q = tx.Rebind(`INSERT INTO thoughts (user_id, session_id, thought_number, title, thought_text, created_at)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
		if err := tx.GetContext(ctx, &t.ID, q, t.UserID, t.SessionID, last+1, t.Title, t.Text, t.CreatedAt); err != nil {
			return err
		}
		t.Number = last + 1
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add thought: %w", err)
	}
	return nil
}

func (s *NotebookStore) thought(ctx context.Context, tx *sqlx.Tx, userID string, id int64) (*thoughtRow, error) {
	var row thoughtRow
	q := tx.Rebind(`SELECT ` + thoughtColumns + ` FROM thoughts WHERE id = ? AND user_id = ?` + s.d.forUpdate())
	err := tx.GetContext(ctx, &row, q, id, userID)
	if isNoRows(err) {
		return nil, notebook.ErrNotFound
	}
	return &row, err
}

// UpdateThought applies patch to one of the user's thoughts.
func (s *NotebookStore) UpdateThought(ctx context.Context, userID string, id int64, patch notebook.ThoughtPatch) (*notebook.Thought, error) {
	var out notebook.Thought
	err := s.withinTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.thought(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		out = row.thought()
		patch.Apply(&out)
		q := tx.Rebind(`UPDATE thoughts SET title = ?, thought_text = ?, thought_number = ? WHERE id = ?`)
		_, err = tx.ExecContext(ctx, q, out.Title, out.Text, out.Number, id)
		return err
	})
	if err != nil {
		return nil, notFoundOr(err, "failed to update thought")
	}
	return &out, nil
}

// DeleteThought removes one of the user's thoughts.
func (s *NotebookStore) DeleteThought(ctx context.Context, userID string, id int64) error {
	return s.deleteOwned(ctx, "thoughts", userID, id)
}

// MapEntries returns the user's event map by event number.
func (s *NotebookStore) MapEntries(ctx context.Context, userID string) ([]notebook.MapEntry, error) {
	var rows []mapEntryRow
	q := s.d.db.Rebind(`SELECT ` + mapEntryColumns + ` FROM event_map WHERE user_id = ? ORDER BY event_number, id`)
	if err := s.d.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("failed to list map entries: %w", err)
	}
	out := make([]notebook.MapEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

// AddMapEntry inserts e, opening a new event when it has no number.
func (s *NotebookStore) AddMapEntry(ctx context.Context, e *notebook.MapEntry) error {
	now := s.d.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	err := s.withinTx(ctx, func(tx *sqlx.Tx) error {
		if e.EventNumber == 0 {
			var last int
			q := tx.Rebind(`SELECT COALESCE(MAX(event_number), 0) FROM event_map WHERE user_id = ?`)
			if err := tx.GetContext(ctx, &last, q, e.UserID); err != nil {
				return err
			}
			e.EventNumber = last + 1
		}
		q := tx.Rebind(`INSERT INTO event_map (user_id, event_number, event, emotion, idea, is_completed, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
		return tx.GetContext(ctx, &e.ID, q, e.UserID, e.EventNumber, e.Event, e.Emotion, e.Idea, e.Completed, e.CreatedAt, e.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to add map entry: %w", err)
	}
	return nil
}

func (s *NotebookStore) mapEntry(ctx context.Context, tx *sqlx.Tx, userID string, id int64) (*mapEntryRow, error) {
	var row mapEntryRow
	q := tx.Rebind(`SELECT ` + mapEntryColumns + ` FROM event_map WHERE id = ? AND user_id = ?` + s.d.forUpdate())
	err := tx.GetContext(ctx, &row, q, id, userID)
	if isNoRows(err) {
		return nil, notebook.ErrNotFound
	}
	return &row, err
}

// UpdateMapEntry applies patch to one of the user's entries.
func (s *NotebookStore) UpdateMapEntry(ctx context.Context, userID string, id int64, patch notebook.MapEntryPatch) (*notebook.MapEntry, error) {
	var out notebook.MapEntry
	err := s.withinTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.mapEntry(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		out = row.entry()
		patch.Apply(&out)
		out.UpdatedAt = s.d.now()
		q := tx.Rebind(`UPDATE event_map SET event = ?, emotion = ?, idea = ?, updated_at = ? WHERE id = ?`)
		_, err = tx.ExecContext(ctx, q, out.Event, out.Emotion, out.Idea, out.UpdatedAt, id)
		return err
	})
	if err != nil {
		return nil, notFoundOr(err, "failed to update map entry")
	}
	return &out, nil
}

// DeleteMapEntry removes one of the user's entries.
func (s *NotebookStore) DeleteMapEntry(ctx context.Context, userID string, id int64) error {
	return s.deleteOwned(ctx, "event_map", userID, id)
}

// SetMapEntryCompleted marks one of the user's entries done or open.
func (s *NotebookStore) SetMapEntryCompleted(ctx context.Context, userID string, id int64, completed bool) error {
	q := s.d.db.Rebind(`UPDATE event_map SET is_completed = ?, updated_at = ? WHERE id = ? AND user_id = ?`)
	res, err := s.d.db.ExecContext(ctx, q, completed, s.d.now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update map entry: %w", err)
	}
	return requireRow(res)
}

// deleteOwned deletes by id within the user's rows. table is a constant.
func (s *NotebookStore) deleteOwned(ctx context.Context, table, userID string, id int64) error {
	q := s.d.db.Rebind(`DELETE FROM ` + table + ` WHERE id = ? AND user_id = ?`)
	res, err := s.d.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notebook.ErrNotFound
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, notebook.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
