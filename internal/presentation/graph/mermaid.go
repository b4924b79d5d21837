// Package graph renders concept hierarchies as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/seee/pkg/domain"
)

// Overlay marks the concept the session cursor points at.
type Overlay struct {
	CurrentConcept string
}

// GenerateMermaid produces a Mermaid flowchart of the hierarchy.
// Shapes:
// - Complete concept: (Rounded)
// - Awaiting part selection: {{Hexagon}}
// - In progress: [Rectangle]
// Edges point from the source concept to the extracted one and carry the
// field the extraction came from.
func GenerateMermaid(h domain.Hierarchy, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[string]string)
	nodeID := func(name string) string {
		if id, ok := ids[name]; ok {
			return id
		}
		id := fmt.Sprintf("c%d", len(ids))
		ids[name] = id
		return id
	}

	var struck []string
	h.Walk(func(n *domain.Node) {
		c := n.Concept
		id := nodeID(c.Name)

		opener, closer := "[", "]"
		switch {
		case c.AwaitingPartSelection:
			opener, closer = "{{", "}}"
		case c.Complete():
			opener, closer = "(", ")"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escapeLabel(c.Name), closer)
		if c.IsStrikethrough {
			struck = append(struck, id)
		}

		for _, child := range n.Children {
			childID := nodeID(child.Concept.Name)
			if part := child.Concept.ExtractedPart; part != "" {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id, part, childID)
				continue
			}
			fmt.Fprintf(&sb, "    %s --> %s\n", id, childID)
		}
	})

	if len(struck) > 0 || (overlay != nil && overlay.CurrentConcept != "") {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef struck fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 2,color:#757575;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range struck {
			fmt.Fprintf(&sb, "    class %s struck;\n", id)
		}
		if overlay != nil {
			if id, ok := ids[overlay.CurrentConcept]; ok {
				fmt.Fprintf(&sb, "    class %s current;\n", id)
			}
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	return strings.ReplaceAll(s, "\n", " ")
}
