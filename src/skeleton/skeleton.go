// Package skeleton holds the joint naming conventions the toolkit converts
// between and the name-to-name table that links them.
package skeleton

import "sort"

// Names is an ordered joint name list. The position of a name is its index
// on the joint axis of a motion array.
type Names []string

// Index returns the position of name, or -1 if it is not in the list.
func (n Names) Index(name string) int {
	for i, candidate := range n {
		if candidate == name {
			return i
		}
	}
	return -1
}

// Contains returns true if name is in the list.
func (n Names) Contains(name string) bool {
	return n.Index(name) != -1
}

// Pair links a source joint name to a target joint name.
type Pair struct {
	Source string
	Target string
}

// Mapping is an ordered source-to-target name table. It is neither total nor
// injective.
type Mapping []Pair

// Inverse returns the target-to-source lookup. When two sources map to the
// same target, the later pair wins.
func (m Mapping) Inverse() map[string]string {
	inv := make(map[string]string, len(m))
	for _, p := range m {
		inv[p.Target] = p.Source
	}
	return inv
}

// Lookup returns the source name for target.
func (m Mapping) Lookup(target string) (string, bool) {
	source, ok := m.Inverse()[target]
	return source, ok
}

// MappingFromMap builds a Mapping from an unordered map. Pairs are sorted by
// source name so the inverse is stable between runs.
func MappingFromMap(table map[string]string) Mapping {
	sources := make([]string, 0, len(table))
	for source := range table {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	m := make(Mapping, 0, len(sources))
	for _, source := range sources {
		m = append(m, Pair{Source: source, Target: table[source]})
	}
	return m
}

// Merge returns m with every pair of override applied on top. An override
// for an existing source replaces its target in place; new sources are
// appended.
func (m Mapping) Merge(override Mapping) Mapping {
	out := make(Mapping, len(m))
	copy(out, m)
	for _, p := range override {
		replaced := false
		for i := range out {
			if out[i].Source == p.Source {
				out[i].Target = p.Target
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}
