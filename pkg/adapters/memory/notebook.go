package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/aretw0/seee/pkg/notebook"
)

// Notebook implements ports.NotebookStore in memory.
type Notebook struct {
	mu       sync.Mutex
	lastID   int64
	thoughts map[int64]notebook.Thought
	entries  map[int64]notebook.MapEntry
}

// NewNotebook creates an empty in-memory notebook.
func NewNotebook() *Notebook {
	return &Notebook{
		thoughts: make(map[int64]notebook.Thought),
		entries:  make(map[int64]notebook.MapEntry),
	}
}

func (n *Notebook) nextID() int64 {
	n.lastID++
	return n.lastID
}

// Thoughts returns the user's thoughts by number.
func (n *Notebook) Thoughts(ctx context.Context, userID string) ([]notebook.Thought, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := []notebook.Thought{}
	for _, t := range n.thoughts {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b notebook.Thought) int {
		return cmp.Or(cmp.Compare(a.Number, b.Number), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// AddThought stores t under the next number of its user.
func (n *Notebook) AddThought(ctx context.Context, t *notebook.Thought) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	last := 0
	for _, other := range n.thoughts {
		if other.UserID == t.UserID {
			last = max(last, other.Number)
		}
	}
	t.ID = n.nextID()
	t.Number = last + 1
	n.thoughts[t.ID] = *t
	return nil
}

// UpdateThought applies patch to one of the user's thoughts.
func (n *Notebook) UpdateThought(ctx context.Context, userID string, id int64, patch notebook.ThoughtPatch) (*notebook.Thought, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	t, ok := n.thoughts[id]
	if !ok || t.UserID != userID {
		return nil, notebook.ErrNotFound
	}
	patch.Apply(&t)
	n.thoughts[id] = t
	return &t, nil
}

// DeleteThought removes one of the user's thoughts.
func (n *Notebook) DeleteThought(ctx context.Context, userID string, id int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.thoughts[id]; !ok || t.UserID != userID {
		return notebook.ErrNotFound
	}
	delete(n.thoughts, id)
	return nil
}

// MapEntries returns the user's event map by event number.
func (n *Notebook) MapEntries(ctx context.Context, userID string) ([]notebook.MapEntry, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := []notebook.MapEntry{}
	for _, e := range n.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b notebook.MapEntry) int {
		return cmp.Or(cmp.Compare(a.EventNumber, b.EventNumber), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// AddMapEntry stores e, opening a new event when it has no number.
func (n *Notebook) AddMapEntry(ctx context.Context, e *notebook.MapEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if e.EventNumber == 0 {
		last := 0
		for _, other := range n.entries {
			if other.UserID == e.UserID {
				last = max(last, other.EventNumber)
			}
		}
		e.EventNumber = last + 1
	}
	e.ID = n.nextID()
	n.entries[e.ID] = *e
	return nil
}

// UpdateMapEntry applies patch to one of the user's entries.
func (n *Notebook) UpdateMapEntry(ctx context.Context, userID string, id int64, patch notebook.MapEntryPatch) (*notebook.MapEntry, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	e, ok := n.entries[id]
	if !ok || e.UserID != userID {
		return nil, notebook.ErrNotFound
	}
	patch.Apply(&e)
	n.entries[id] = e
	return &e, nil
}

// DeleteMapEntry removes one of the user's entries.
func (n *Notebook) DeleteMapEntry(ctx context.Context, userID string, id int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if e, ok := n.entries[id]; !ok || e.UserID != userID {
		return notebook.ErrNotFound
	}
	delete(n.entries, id)
	return nil
}

// SetMapEntryCompleted marks one of the user's entries done or open.
func (n *Notebook) SetMapEntryCompleted(ctx context.Context, userID string, id int64, completed bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	e, ok := n.entries[id]
	if !ok || e.UserID != userID {
		return notebook.ErrNotFound
	}
	e.Completed = completed
	n.entries[id] = e
	return nil
}
