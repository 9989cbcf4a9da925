package cache

import "github.com/arbormatch/treematcher/tree"

// emulated satisfies Interface without any precomputation or memoization:
// every call walks the subtree fresh. It exists so callers can opt out of
// the Attribute Cache entirely (spec.md §4.1's "no cache" mode) while still
// going through the same Interface the matcher depends on.
type emulated struct{}

// Emulate returns a cache.Interface that recomputes every aggregate on
// demand instead of precomputing and memoizing them.
func Emulate() Interface { return emulated{} }

func (emulated) Leaves(n tree.Node) []tree.Node {
	var out []tree.Node
	tree.Walk(n, tree.PreOrder, func(d tree.Node) bool {
		if d.IsLeaf() {
			out = append(out, d)
		}
		return true
	})
	return out
}

func (emulated) Subtree(n tree.Node) []tree.Node {
	var out []tree.Node
	tree.Walk(n, tree.PreOrder, func(d tree.Node) bool {
		out = append(out, d)
		return true
	})
	return out
}

func (e emulated) LeafNames(n tree.Node) []string {
	var out []string
	for _, l := range e.Leaves(n) {
		out = append(out, l.Name())
	}
	return out
}

func (e emulated) Species(n tree.Node) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range e.Leaves(n) {
		sp := l.Species()
		if sp == "" || seen[sp] {
			continue
		}
		seen[sp] = true
		out = append(out, sp)
	}
	return out
}

func (e emulated) ContainsSpecies(n tree.Node, species string) bool {
	for _, s := range e.Species(n) {
		if s == species {
			return true
		}
	}
	return false
}

func (e emulated) ContainsLeaf(n tree.Node, leafName string) bool {
	for _, name := range e.LeafNames(n) {
		if name == leafName {
			return true
		}
	}
	return false
}

func (e emulated) NSpecies(n tree.Node) int { return len(e.Species(n)) }
func (e emulated) NLeaves(n tree.Node) int  { return len(e.Leaves(n)) }

func (e emulated) NDuplications(n tree.Node) int { return e.countEvolType(n, tree.Duplication) }
func (e emulated) NSpeciations(n tree.Node) int  { return e.countEvolType(n, tree.Speciation) }

func (e emulated) countEvolType(n tree.Node, et tree.EvolType) int {
	count := 0
	for _, d := range e.Subtree(n) {
		if d.EvolType() == et {
			count++
		}
	}
	return count
}
