package domain

// Node wraps a concept and the concepts extracted from it.
type Node struct {
	Concept  *Concept `json:"concept"`
	Level    int      `json:"level"`
	Children []*Node  `json:"children,omitempty"`
}

// Hierarchy is the display forest of a concept store.
type Hierarchy struct {
	Roots []*Node `json:"roots"`
	// Cycles lists concepts promoted to roots because their ancestry loops.
	// They are appended to Roots so nothing is hidden.
	Cycles []string `json:"cycles,omitempty"`
}

// BuildHierarchy arranges concepts into a forest by their ExtractedFrom
// references. Dangling references make a concept a root. Descent stops at
// any name already visited.
func BuildHierarchy(store ConceptStore) Hierarchy {
	children := make(map[string][]string)
	var roots []string
	for _, name := range store.Names() {
		parent := store[name].ExtractedFrom
		if _, ok := store[parent]; parent == "" || !ok {
			roots = append(roots, name)
			continue
		}
		children[parent] = append(children[parent], name)
	}

	visited := make(map[string]bool)
	var build func(name string, level int) *Node
	build = func(name string, level int) *Node {
		visited[name] = true
		n := &Node{Concept: store[name], Level: level}
		for _, child := range children[name] {
			if visited[child] {
				continue
			}
			n.Children = append(n.Children, build(child, level+1))
		}
		return n
	}

	var h Hierarchy
	for _, name := range roots {
		h.Roots = append(h.Roots, build(name, 0))
	}
	for _, name := range store.Names() {
		if visited[name] {
			continue
		}
		h.Cycles = append(h.Cycles, name)
		h.Roots = append(h.Roots, build(name, 0))
	}
	return h
}

// Walk visits every node depth-first in display order.
func (h Hierarchy) Walk(fn func(*Node)) {
	var walk func(*Node)
	walk = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range h.Roots {
		walk(r)
	}
}
