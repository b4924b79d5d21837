package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Older session blobs used alternate key names for the same fields.
// They are accepted on decode only; encoding always uses canonical names.
var legacyConceptKeys = map[string]string{
	"purpose":          "goal",
	"composition":      "parts",
	"conclusions":      "conclusion",
	"_pending_founder": "pending_founder",
	"strikethrough":    "is_strikethrough",
}

// UnmarshalJSON decodes canonical and legacy concept shapes.
func (c *Concept) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalizeConcept(raw)

	var out Concept
	if err := decodeLoose(raw, &out); err != nil {
		return fmt.Errorf("failed to decode concept: %w", err)
	}
	if out.Parts == nil {
		out.Parts = []string{}
	}
	if out.Consequences.Emotional == nil {
		out.Consequences.Emotional = []string{}
	}
	if out.Consequences.Physical == nil {
		out.Consequences.Physical = []string{}
	}
	*c = out
	return nil
}

func normalizeConcept(raw map[string]any) {
	for old, canonical := range legacyConceptKeys {
		v, ok := raw[old]
		if !ok {
			continue
		}
		if cur, has := raw[canonical]; !has || cur == nil {
			raw[canonical] = v
		}
		delete(raw, old)
	}

	cons, _ := raw["consequences"].(map[string]any)
	if cons == nil {
		cons = make(map[string]any)
	}
	for flat, key := range map[string]string{
		"consequences_emotional": "emotional",
		"consequences_physical":  "physical",
	} {
		if v, ok := raw[flat]; ok {
			if _, has := cons[key]; !has {
				cons[key] = v
			}
			delete(raw, flat)
		}
	}
	raw["consequences"] = cons

	switch v := raw["current_field"].(type) {
	case string:
		if f, ok := ParseField(v); ok {
			raw["current_field"] = string(f)
		} else {
			raw["current_field"] = ""
		}
	case nil:
		delete(raw, "current_field")
	}
	if f, ok := raw["extracted_part"].(string); ok {
		if parsed, valid := ParseField(f); valid {
			raw["extracted_part"] = string(parsed)
		}
	}
}

// UnmarshalJSON decodes sessions, falling back to legacy flat cursor keys
// and inferring the stage when it was never stored.
func (s *Session) UnmarshalJSON(data []byte) error {
	type plain Session
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}

	var legacy struct {
		CurrentConceptName string          `json:"current_concept_name"`
		CurrentConcept     json.RawMessage `json:"current_concept"`
		Stage              Stage           `json:"stage"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	if out.Cursor.CurrentConcept == "" {
		out.Cursor.CurrentConcept = legacyConceptName(legacy.CurrentConcept)
		if out.Cursor.CurrentConcept == "" {
			out.Cursor.CurrentConcept = legacy.CurrentConceptName
		}
	}
	if out.Cursor.Stage == "" {
		out.Cursor.Stage = legacy.Stage
	}
	if out.Concepts == nil {
		out.Concepts = make(ConceptStore)
	}
	for name, c := range out.Concepts {
		if c.Name == "" {
			c.Name = name
		}
	}

	*s = Session(out)
	if s.Cursor.Stage == "" {
		s.Cursor.Stage = s.InferStage()
	}
	return nil
}

// legacyConceptName reads current_concept, which was stored either as a
// bare name or as a full copy of the concept.
func legacyConceptName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

func decodeLoose(input map[string]any, result any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
