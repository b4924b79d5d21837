package domain

// Outcome classifies the result of a dialogue turn.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeCrisis          Outcome = "crisis"
	OutcomeConceptNotFound Outcome = "concept_not_found"
	OutcomePartNotFound    Outcome = "part_not_found"
	OutcomeEmptyInput      Outcome = "empty_input"
	OutcomeConceptExists   Outcome = "concept_exists"
	OutcomeCyclicReference Outcome = "cyclic_reference"
	OutcomeInvalidField    Outcome = "invalid_field"
)

// Retry reports whether the outcome asks the user to try again.
func (o Outcome) Retry() bool {
	return o != OutcomeOK && o != OutcomeCrisis
}

// Extra keys set on OutboundMessage.Extra.
const (
	ExtraPartsForSelection     = "parts_for_selection"
	ExtraAwaitingPartSelection = "awaiting_part_selection"
	ExtraFounder               = "founder"
	ExtraConcept               = "concept"
	ExtraStage                 = "stage"
	ExtraChoices               = "choices"
	ExtraRequiresPsychiatrist  = "requires_psychiatrist"
)

// OutboundMessage is what the transport renders after every engine call.
type OutboundMessage struct {
	Text                  string         `json:"text"`
	CurrentField          Field          `json:"current_field,omitempty"`
	ShowNavigationButtons bool           `json:"show_navigation_buttons"`
	AvailableConceptNames []string       `json:"available_concept_names"`
	Extra                 map[string]any `json:"extra,omitempty"`
	Outcome               Outcome        `json:"outcome"`
	IsCritical            bool           `json:"is_critical,omitempty"`
}
