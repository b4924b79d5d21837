// Package notebook holds the personal records kept in the cabinet next to
// the dialogue: numbered thoughts noted after sessions, and the event map,
// where each entry ties an event to the emotion it raised and the idea
// behind that emotion.
package notebook

import (
	"errors"
	"slices"
	"time"
)

var (
	// ErrNotFound is returned for missing entries and for entries owned by
	// another user.
	ErrNotFound = errors.New("notebook entry not found")
	// ErrEmptyThought means a thought has neither a title nor a text.
	ErrEmptyThought = errors.New("thought needs a title or a text")
)

// Thought is one numbered note. Numbers start at 1 per user and may be
// reassigned by the owner.
type Thought struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	SessionID string    `json:"session_id,omitempty"`
	Number    int       `json:"thought_number"`
	Title     string    `json:"title"`
	Text      string    `json:"thought_text"`
	CreatedAt time.Time `json:"created_at"`
}

// ThoughtPatch changes a thought. Zero values leave a field unchanged.
type ThoughtPatch struct {
	Title  string
	Text   string
	Number int
}

// Apply writes the non-zero fields of p into t.
func (p ThoughtPatch) Apply(t *Thought) {
	if p.Title != "" {
		t.Title = p.Title
	}
	if p.Text != "" {
		t.Text = p.Text
	}
	if p.Number > 0 {
		t.Number = p.Number
	}
}

// MapEntry is one event-emotion-idea row of the event map. Rows with the
// same EventNumber describe the same event.
type MapEntry struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"-"`
	EventNumber int       `json:"event_number"`
	Event       string    `json:"event"`
	Emotion     string    `json:"emotion"`
	Idea        string    `json:"idea"`
	Completed   bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MapEntryPatch changes a map entry. Empty fields are left unchanged.
type MapEntryPatch struct {
	Event   string
	Emotion string
	Idea    string
}

// Apply writes the non-empty fields of p into e.
func (p MapEntryPatch) Apply(e *MapEntry) {
	if p.Event != "" {
		e.Event = p.Event
	}
	if p.Emotion != "" {
		e.Emotion = p.Emotion
	}
	if p.Idea != "" {
		e.Idea = p.Idea
	}
}

// MapEvent is the grouped view of the entries of one event.
type MapEvent struct {
	Number   int      `json:"event_number"`
	Event    string   `json:"event"`
	Emotions []string `json:"emotions"`
	Ideas    []string `json:"ideas"`
	// Completed is set once every entry of the event is completed.
	Completed bool    `json:"is_completed"`
	EntryIDs  []int64 `json:"entry_ids"`
}

// GroupEvents folds entries into events keyed by number and event text,
// in order of first appearance. Emotions are deduplicated; ideas are not.
func GroupEvents(entries []MapEntry) []MapEvent {
	type key struct {
		number int
		event  string
	}
	index := make(map[key]int)
	var events []MapEvent
	for _, e := range entries {
		k := key{e.EventNumber, e.Event}
		i, ok := index[k]
		if !ok {
			i = len(events)
			index[k] = i
			events = append(events, MapEvent{
				Number:    e.EventNumber,
				Event:     e.Event,
				Emotions:  []string{},
				Ideas:     []string{},
				Completed: true,
			})
		}
		ev := &events[i]
		if e.Emotion != "" && !slices.Contains(ev.Emotions, e.Emotion) {
			ev.Emotions = append(ev.Emotions, e.Emotion)
		}
		if e.Idea != "" {
			ev.Ideas = append(ev.Ideas, e.Idea)
		}
		ev.Completed = ev.Completed && e.Completed
		ev.EntryIDs = append(ev.EntryIDs, e.ID)
	}
	return events
}
