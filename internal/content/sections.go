package content

import "fmt"

// DefaultSections returns the allow-listed section keys the site renders.
// The list must stay identical between the admin UI and this service;
// rejecting unknown sections keeps the section-to-record invariant meaningful
// and prevents orphaned storage prefixes.
func DefaultSections() []string {
	sections := []string{"hero", "aproposdemoi"}
	for _, group := range []string{"grossesse", "famille", "bebe", "complices"} {
		for i := 0; i < 4; i++ {
			sections = append(sections, fmt.Sprintf("%s-%d", group, i))
		}
	}
	return sections
}

// SectionSet is an immutable membership set over allow-listed sections.
type SectionSet struct {
	members map[string]struct{}
}

// NewSectionSet builds a SectionSet from the given keys.
func NewSectionSet(sections []string) SectionSet {
	m := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		m[s] = struct{}{}
	}
	return SectionSet{members: m}
}

// Contains reports whether section is allow-listed.
func (s SectionSet) Contains(section string) bool {
	_, ok := s.members[section]
	return ok
}

// Len returns the number of allow-listed sections.
func (s SectionSet) Len() int {
	return len(s.members)
}
