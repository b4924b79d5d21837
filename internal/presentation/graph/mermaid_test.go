package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/seee/internal/presentation/graph"
	"github.com/aretw0/seee/pkg/domain"
)

func store() domain.ConceptStore {
	root := domain.NewConcept("lose weight")
	root.Parts = []string{"junk food", "no exercise"}
	root.CurrentField = ""
	root.AwaitingPartSelection = true

	child := domain.NewConcept("no exercise")
	child.ExtractedFrom = "lose weight"
	child.ExtractedPart = domain.FieldParts

	done := domain.NewConcept(`say "no"`)
	done.CurrentField = ""
	done.IsStrikethrough = true

	return domain.ConceptStore{root.Name: root, child.Name: child, done.Name: done}
}

func TestGenerateMermaid(t *testing.T) {
	h := domain.BuildHierarchy(store())
	out := graph.GenerateMermaid(h, &graph.Overlay{CurrentConcept: "no exercise"})

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `{{"lose weight"}}`)
	assert.Contains(t, out, `["no exercise"]`)
	assert.Contains(t, out, `("say #quot;no#quot;")`)
	assert.Contains(t, out, `-- "parts" -->`)
	assert.Contains(t, out, "struck;")
	assert.Contains(t, out, "current;")
}

func TestGenerateMermaid_NoOverlay(t *testing.T) {
	c := domain.NewConcept("alone")
	out := graph.GenerateMermaid(domain.BuildHierarchy(domain.ConceptStore{"alone": c}), nil)
	assert.Equal(t, "graph TD\n    c0[\"alone\"]\n", out)
}
