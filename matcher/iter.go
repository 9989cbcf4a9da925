package matcher

import "github.com/arbormatch/treematcher/tree"

// MatchIter is a demand-driven cursor over an already-computed, ordered
// match sequence. It is an explicit state machine rather than a suspended
// goroutine/channel pipeline, per the pull-based iteration model in
// SPEC_FULL.md §5/§9.
type MatchIter struct {
	items []tree.Node
	pos   int
}

func newMatchIter(items []tree.Node) *MatchIter {
	return &MatchIter{items: items}
}

// Next returns the next match and true, or the zero value and false once
// the sequence is exhausted.
func (it *MatchIter) Next() (tree.Node, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	n := it.items[it.pos]
	it.pos++
	return n, true
}

// Remaining reports how many matches are left to pull.
func (it *MatchIter) Remaining() int {
	return len(it.items) - it.pos
}

// All drains the iterator into a slice. Convenience for callers that don't
// need laziness.
func (it *MatchIter) All() []tree.Node {
	out := it.items[it.pos:]
	it.pos = len(it.items)
	return out
}
