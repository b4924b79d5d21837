package domain

import "strings"

// Field identifies one slot of a Concept that the dialogue elicits.
type Field string

const (
	FieldGoal       Field = "goal"
	FieldParts      Field = "parts"
	FieldFounder    Field = "founder"
	FieldEmotional  Field = "consequences.emotional"
	FieldPhysical   Field = "consequences.physical"
	FieldConclusion Field = "conclusion"
)

// FieldOrder is the canonical elicitation order.
// Emotional consequences always precede physical ones.
var FieldOrder = []Field{
	FieldGoal,
	FieldParts,
	FieldFounder,
	FieldEmotional,
	FieldPhysical,
	FieldConclusion,
}

// legacyFields maps names written by older session blobs to canonical fields.
var legacyFields = map[string]Field{
	"purpose":                FieldGoal,
	"composition":            FieldParts,
	"conclusions":            FieldConclusion,
	"consequences_emotional": FieldEmotional,
	"consequences_physical":  FieldPhysical,
	"emotional":              FieldEmotional,
	"physical":               FieldPhysical,
}

// ParseField resolves canonical and legacy field names.
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range FieldOrder {
		if string(f) == name {
			return f, true
		}
	}
	if f, ok := legacyFields[name]; ok {
		return f, true
	}
	return "", false
}

// Valid reports whether f is one of the canonical fields.
func (f Field) Valid() bool {
	return f.index() >= 0
}

// Next returns the field after f, or "" when f is the last one.
func (f Field) Next() Field {
	i := f.index()
	if i < 0 || i+1 >= len(FieldOrder) {
		return ""
	}
	return FieldOrder[i+1]
}

// IsList reports whether the field holds an ordered list of entries.
func (f Field) IsList() bool {
	return f == FieldParts || f == FieldEmotional || f == FieldPhysical
}

func (f Field) index() int {
	for i, o := range FieldOrder {
		if o == f {
			return i
		}
	}
	return -1
}
