package domain

import (
	"strings"
	"time"
)

// Consequences groups the effects of a belief on the person holding it.
type Consequences struct {
	Emotional []string `json:"emotional" mapstructure:"emotional"`
	Physical  []string `json:"physical" mapstructure:"physical"`
}

// Concept is one belief being decomposed by the dialogue.
type Concept struct {
	Name         string       `json:"name" mapstructure:"name"`
	Goal         string       `json:"goal,omitempty" mapstructure:"goal"`
	Parts        []string     `json:"parts" mapstructure:"parts"`
	Founder      string       `json:"founder,omitempty" mapstructure:"founder"`
	Consequences Consequences `json:"consequences" mapstructure:"consequences"`
	Conclusion   string       `json:"conclusion,omitempty" mapstructure:"conclusion"`
	Comments     []string     `json:"comments,omitempty" mapstructure:"comments"`

	// ExtractedFrom is a weak reference by name to the parent concept.
	ExtractedFrom string `json:"extracted_from,omitempty" mapstructure:"extracted_from"`
	// ExtractedPart is the parent field the concept was split out of.
	ExtractedPart   Field `json:"extracted_part,omitempty" mapstructure:"extracted_part"`
	IsStrikethrough bool  `json:"is_strikethrough" mapstructure:"is_strikethrough"`

	// CurrentField is the field being elicited. Empty means nothing is pending.
	CurrentField Field `json:"current_field,omitempty" mapstructure:"current_field"`
	// PendingFounder holds a founder detected before the goal had any text.
	PendingFounder        string `json:"pending_founder,omitempty" mapstructure:"pending_founder"`
	AwaitingPartSelection bool   `json:"awaiting_part_selection" mapstructure:"awaiting_part_selection"`

	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
}

// NewConcept creates an empty concept positioned on the first field.
func NewConcept(name string) *Concept {
	return &Concept{
		Name:         name,
		Parts:        []string{},
		Consequences: Consequences{Emotional: []string{}, Physical: []string{}},
		CurrentField: FieldOrder[0],
	}
}

// Complete reports whether nothing is left to elicit for the concept.
func (c *Concept) Complete() bool {
	return c.CurrentField == "" && !c.AwaitingPartSelection
}

// Value renders a field as text. List fields are joined with ", ".
func (c *Concept) Value(f Field) string {
	switch f {
	case FieldGoal:
		return c.Goal
	case FieldParts:
		return strings.Join(c.Parts, ", ")
	case FieldFounder:
		return c.Founder
	case FieldEmotional:
		return strings.Join(c.Consequences.Emotional, ", ")
	case FieldPhysical:
		return strings.Join(c.Consequences.Physical, ", ")
	case FieldConclusion:
		return c.Conclusion
	}
	return ""
}

// Empty reports whether a field has no value yet.
func (c *Concept) Empty(f Field) bool {
	return c.Value(f) == ""
}

// Set writes an already parsed value into a field.
// List fields replace their content with items.
func (c *Concept) Set(f Field, text string, items []string) {
	switch f {
	case FieldGoal:
		c.Goal = text
	case FieldParts:
		c.Parts = items
	case FieldFounder:
		c.Founder = text
	case FieldEmotional:
		c.Consequences.Emotional = items
	case FieldPhysical:
		c.Consequences.Physical = items
	case FieldConclusion:
		c.Conclusion = text
	}
}

// FirstEmpty returns the first canonical field without a value, or "".
func (c *Concept) FirstEmpty() Field {
	for _, f := range FieldOrder {
		if c.Empty(f) {
			return f
		}
	}
	return ""
}

// Clone returns a deep copy of the concept.
func (c *Concept) Clone() *Concept {
	if c == nil {
		return nil
	}
	out := *c
	out.Parts = cloneStrings(c.Parts)
	out.Comments = cloneStrings(c.Comments)
	out.Consequences = Consequences{
		Emotional: cloneStrings(c.Consequences.Emotional),
		Physical:  cloneStrings(c.Consequences.Physical),
	}
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
