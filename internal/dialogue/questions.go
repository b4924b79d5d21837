package dialogue

import (
	"fmt"
	"strings"

	"github.com/aretw0/seee/pkg/domain"
)

const (
	askFirstConcept = "What idea would you like to explore? Name it in a few words."
	askMoreParts    = "Are there any more parts of this idea, or shall we move on?"
	msgComplete     = "Great! The idea structure is complete. Want to change something or move to another idea?"
	msgNoConcept    = "There is no idea in progress. Start a new idea by typing its name."
	msgEmptyInput   = "I did not catch that. Please type your answer."
)

var fieldQuestions = map[domain.Field]string{
	domain.FieldGoal:       "How do you think, with what purpose was this idea introduced into your mind?",
	domain.FieldParts:      "What parts does this idea consist of? List them separated by commas.",
	domain.FieldFounder:    "Who is the founder of this idea? (Who benefited from you having this idea?)",
	domain.FieldEmotional:  "What emotional consequences does this idea have for you?",
	domain.FieldPhysical:   "What physical consequences does this idea have for you?",
	domain.FieldConclusion: "What conclusion can be drawn about this idea?",
}

// Question returns the prompt for a field of the given concept.
func Question(c *domain.Concept, f domain.Field) string {
	if f == domain.FieldParts && len(c.Parts) > 0 {
		return askMoreParts
	}
	return fieldQuestions[f]
}

func numbered(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	return b.String()
}

func partMenu(c *domain.Concept) string {
	return fmt.Sprintf("Which part of «%s» do you want to decompose next? Reply with a number or the part name, or say skip.%s",
		c.Name, numbered(c.Parts))
}

func choiceMenu(names []string) string {
	return "Which idea do you want to continue? Reply with a number or a name." + numbered(names)
}
