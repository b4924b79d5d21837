package dialogue

import (
	"fmt"
	"strings"

	"github.com/aretw0/seee/pkg/domain"
)

var fieldLabels = map[domain.Field]string{
	domain.FieldGoal:       "Goal",
	domain.FieldParts:      "Parts",
	domain.FieldFounder:    "Founder",
	domain.FieldEmotional:  "Emotional consequences",
	domain.FieldPhysical:   "Physical consequences",
	domain.FieldConclusion: "Conclusion",
}

// RenderDocument renders the concept hierarchy of a session as markdown.
// An empty session renders as "".
func RenderDocument(s *domain.Session, author string) string {
	if s == nil || len(s.Concepts) == 0 {
		return ""
	}

	var b strings.Builder
	title := s.Title
	if title == "" {
		title = "Concept map"
	}
	fmt.Fprintf(&b, "# %s\n", title)
	if author != "" {
		fmt.Fprintf(&b, "\n_Prepared for %s._\n", author)
	}

	h := domain.BuildHierarchy(s.Concepts)
	h.Walk(func(n *domain.Node) {
		renderNode(&b, n)
	})

	if len(h.Cycles) > 0 {
		fmt.Fprintf(&b, "\n> Circular references: %s\n", strings.Join(h.Cycles, ", "))
	}
	return b.String()
}

func renderNode(b *strings.Builder, n *domain.Node) {
	c := n.Concept
	depth := min(n.Level+2, 6)

	name := c.Name
	if c.IsStrikethrough {
		name = "~~" + name + "~~"
	}
	fmt.Fprintf(b, "\n%s %s\n", strings.Repeat("#", depth), name)

	if c.ExtractedFrom != "" && c.ExtractedPart != "" {
		fmt.Fprintf(b, "\n_Extracted from the %s of «%s»._\n", strings.ToLower(fieldLabels[c.ExtractedPart]), c.ExtractedFrom)
	}

	b.WriteString("\n")
	for _, f := range domain.FieldOrder {
		if c.Empty(f) {
			continue
		}
		if f.IsList() {
			fmt.Fprintf(b, "**%s:**\n", fieldLabels[f])
			for _, item := range listValue(c, f) {
				fmt.Fprintf(b, "- %s\n", item)
			}
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(b, "**%s:** %s\n\n", fieldLabels[f], c.Value(f))
	}
	for _, comment := range c.Comments {
		fmt.Fprintf(b, "> %s\n", comment)
	}
}

func listValue(c *domain.Concept, f domain.Field) []string {
	switch f {
	case domain.FieldParts:
		return c.Parts
	case domain.FieldEmotional:
		return c.Consequences.Emotional
	case domain.FieldPhysical:
		return c.Consequences.Physical
	}
	return nil
}
