package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ConceptStore maps concept names to concepts for a single session.
type ConceptStore map[string]*Concept

// Get returns the concept with the given name.
func (s ConceptStore) Get(name string) (*Concept, bool) {
	c, ok := s[name]
	return c, ok
}

// Add inserts a new concept. Names are unique within a store.
func (s ConceptStore) Add(c *Concept) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if _, exists := s[c.Name]; exists {
		return fmt.Errorf("%w: %q", ErrConceptExists, c.Name)
	}
	s[c.Name] = c
	return nil
}

// Names returns all concept names sorted alphabetically.
func (s ConceptStore) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UniqueName returns base, or base with a numeric suffix if base is taken.
func (s ConceptStore) UniqueName(base string) string {
	if _, taken := s[base]; !taken {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", base, i)
		if _, taken := s[candidate]; !taken {
			return candidate
		}
	}
}

// Clone returns a deep copy of the store.
func (s ConceptStore) Clone() ConceptStore {
	out := make(ConceptStore, len(s))
	for name, c := range s {
		out[name] = c.Clone()
	}
	return out
}

// Rename changes a concept name and rewrites every reference to it:
// the map key, ExtractedFrom back-references and Parts entries equal to
// the old name. The store is only modified if the whole rename succeeds.
func (s ConceptStore) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	if _, ok := s[oldName]; !ok {
		return fmt.Errorf("%w: %q", ErrConceptNotFound, oldName)
	}
	if oldName == newName {
		return nil
	}
	if _, exists := s[newName]; exists {
		return fmt.Errorf("%w: %q", ErrConceptExists, newName)
	}

	next := s.Clone()
	c := next[oldName]
	delete(next, oldName)
	c.Name = newName
	next[newName] = c

	for _, other := range next {
		if other.ExtractedFrom == oldName {
			other.ExtractedFrom = newName
		}
		for i, part := range other.Parts {
			if part == oldName {
				other.Parts[i] = newName
			}
		}
	}

	if cycles := next.Cycles(); len(cycles) > 0 {
		return fmt.Errorf("%w: %s", ErrCyclicReference, strings.Join(cycles, " -> "))
	}

	for name := range s {
		delete(s, name)
	}
	for name, c := range next {
		s[name] = c
	}
	return nil
}

// Delete removes a concept. Children keep their ExtractedFrom value as a
// dangling reference and surface as roots in the hierarchy.
func (s ConceptStore) Delete(name string) error {
	if _, ok := s[name]; !ok {
		return fmt.Errorf("%w: %q", ErrConceptNotFound, name)
	}
	delete(s, name)
	return nil
}

// Cycles returns the sorted names of concepts whose ExtractedFrom chain
// loops back onto itself.
func (s ConceptStore) Cycles() []string {
	onCycle := make(map[string]bool)
	for start := range s {
		seen := map[string]bool{start: true}
		cur := s[start].ExtractedFrom
		for cur != "" {
			if cur == start {
				onCycle[start] = true
				break
			}
			if seen[cur] {
				break
			}
			seen[cur] = true
			parent, ok := s[cur]
			if !ok {
				break
			}
			cur = parent.ExtractedFrom
		}
	}

	out := make([]string, 0, len(onCycle))
	for name := range onCycle {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Incomplete returns the sorted names of concepts that still need input and
// are not struck through, excluding the given name.
func (s ConceptStore) Incomplete(except string) []string {
	var out []string
	for _, name := range s.Names() {
		c := s[name]
		if name == except || c.IsStrikethrough || c.Complete() {
			continue
		}
		out = append(out, name)
	}
	return out
}
