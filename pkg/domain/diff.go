package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Stage          *Stage  `json:"stage,omitempty"`
	CurrentConcept *string `json:"current_concept,omitempty"`

	// Concepts contains only changed or added concepts.
	// For deletions, the key is present with a nil value.
	Concepts map[string]*Concept `json:"concepts,omitempty"`

	// Message is the outbound message of the turn that produced the diff.
	Message *OutboundMessage `json:"message,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil || oldSession.Cursor.Stage != newSession.Cursor.Stage {
		stage := newSession.Cursor.Stage
		diff.Stage = &stage
	}
	if oldSession == nil || oldSession.Cursor.CurrentConcept != newSession.Cursor.CurrentConcept {
		current := newSession.Cursor.CurrentConcept
		diff.CurrentConcept = &current
	}

	diff.Concepts = diffConcepts(oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffConcepts(old, new *Session) map[string]*Concept {
	delta := make(map[string]*Concept)

	if old == nil {
		for name, c := range new.Concepts {
			delta[name] = c
		}
		return delta
	}

	for name, c := range new.Concepts {
		prev, exists := old.Concepts[name]
		if !exists || !reflect.DeepEqual(prev, c) {
			delta[name] = c
		}
	}
	for name := range old.Concepts {
		if _, exists := new.Concepts[name]; !exists {
			delta[name] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Stage == nil &&
		d.CurrentConcept == nil &&
		len(d.Concepts) == 0 &&
		d.Message == nil
}
