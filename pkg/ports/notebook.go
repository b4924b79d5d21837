package ports

import (
	"context"

	"github.com/aretw0/seee/pkg/notebook"
)

// NotebookStore persists thoughts and event map entries. Every lookup is
// scoped to a user; another user's entry reads as notebook.ErrNotFound.
type NotebookStore interface {
	// Thoughts returns the user's thoughts by ascending number, then ID.
	Thoughts(ctx context.Context, userID string) ([]notebook.Thought, error)

	// AddThought stores t, assigning its ID and the next free number.
	AddThought(ctx context.Context, t *notebook.Thought) error

	// UpdateThought applies patch and returns the stored result.
	UpdateThought(ctx context.Context, userID string, id int64, patch notebook.ThoughtPatch) (*notebook.Thought, error)

	DeleteThought(ctx context.Context, userID string, id int64) error

	// MapEntries returns the user's map by event number, then ID.
	MapEntries(ctx context.Context, userID string) ([]notebook.MapEntry, error)

	// AddMapEntry stores e and assigns its ID. A zero EventNumber opens a
	// new event numbered after the highest one.
	AddMapEntry(ctx context.Context, e *notebook.MapEntry) error

	// UpdateMapEntry applies patch and returns the stored result.
	UpdateMapEntry(ctx context.Context, userID string, id int64, patch notebook.MapEntryPatch) (*notebook.MapEntry, error)

	DeleteMapEntry(ctx context.Context, userID string, id int64) error

	SetMapEntryCompleted(ctx context.Context, userID string, id int64, completed bool) error
}
