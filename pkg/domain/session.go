package domain

import (
	"time"
	"unicode/utf8"
)

// Stage is the dialogue phase of a session, orthogonal to a concept's
// current field.
type Stage string

const (
	StageAwaitingFirstConcept  Stage = "awaiting_first_concept"
	StageFillingField          Stage = "filling_field"
	StageAwaitingPartSelection Stage = "awaiting_part_selection"
	StageAwaitingConceptChoice Stage = "awaiting_concept_choice"
	StageComplete              Stage = "complete"
)

// SessionCursor is the explicit dialogue position passed into and returned
// from every engine call.
type SessionCursor struct {
	Stage          Stage  `json:"stage"`
	CurrentConcept string `json:"current_concept,omitempty"`
	// Choices lists the concepts offered while awaiting a concept choice.
	Choices []string `json:"choices,omitempty"`
	// Editing is set while a single field is being re-entered; ResumeField
	// is where the concept continues afterwards.
	Editing     bool  `json:"editing,omitempty"`
	ResumeField Field `json:"resume_field,omitempty"`
}

// Session is the persisted unit: the concept store plus the cursor.
type Session struct {
	ID        string        `json:"id"`
	OwnerID   string        `json:"owner_id,omitempty"`
	Title     string        `json:"title,omitempty"`
	Concepts  ConceptStore  `json:"concepts"`
	Cursor    SessionCursor `json:"cursor"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Sealed carries the encrypted session when a store seals blobs at
	// rest. A sealed envelope has no concepts of its own.
	Sealed []byte `json:"sealed,omitempty"`
}

// TitleLimit bounds session titles and extracted concept names, in runes.
const TitleLimit = 50

// NewSession creates an empty session waiting for its first concept.
func NewSession(id, ownerID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		OwnerID:   ownerID,
		Concepts:  make(ConceptStore),
		Cursor:    SessionCursor{Stage: StageAwaitingFirstConcept},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Current returns the concept the cursor points at.
func (s *Session) Current() (*Concept, bool) {
	if s.Cursor.CurrentConcept == "" {
		return nil, false
	}
	return s.Concepts.Get(s.Cursor.CurrentConcept)
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Concepts = s.Concepts.Clone()
	if s.Cursor.Choices != nil {
		out.Cursor.Choices = append([]string(nil), s.Cursor.Choices...)
	}
	if s.Sealed != nil {
		out.Sealed = append([]byte(nil), s.Sealed...)
	}
	return &out
}

// InferStage derives the stage from the current concept. Used when a
// persisted blob predates explicit stages.
func (s *Session) InferStage() Stage {
	if len(s.Concepts) == 0 {
		return StageAwaitingFirstConcept
	}
	c, ok := s.Current()
	switch {
	case !ok:
		return StageAwaitingConceptChoice
	case c.AwaitingPartSelection:
		return StageAwaitingPartSelection
	case c.CurrentField != "":
		return StageFillingField
	default:
		return StageComplete
	}
}

// Truncate shortens s to at most limit runes.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
