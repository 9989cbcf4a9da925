package matcher

import (
	"github.com/arbormatch/treematcher/cache"
	"github.com/arbormatch/treematcher/pattern"
	"github.com/arbormatch/treematcher/tree"
)

// matchStrict is the recursive backtracking topology matcher (SPEC_FULL.md
// §4.6). It reports whether t's rooted subtree satisfies p.
//
// A pattern node with LooseChildren=true searches t's full descendant set
// (via c.Subtree) instead of t's direct children — this is the one point
// where the strict "children must be matched by direct children" rule is
// relaxed, implementing the loose connection inline rather than through a
// separate global stitching pass (see Split's doc comment).
func matchStrict(p *pattern.Node, t tree.Node, lm *LocalMatrix, c cache.Interface) bool {
	if !lm.IsLocalMatch(p, t) {
		return false
	}
	if len(p.Children) == 0 {
		return true
	}
	if p.LooseChildren {
		pool := excludeSelf(c.Subtree(t), t)
		// Coverage is not required here: loose children are allowed to
		// skip over intermediate descendants, so an unclaimed candidate
		// in the pool is expected, not a violation.
		return assignChildren(p.Children, pool, lm, c, false)
	}
	// Every direct child of t must be claimed by some pattern child
	// (SPEC_FULL.md §4.6 step 5's coverage requirement).
	return assignChildren(p.Children, t.Children(), lm, c, true)
}

func excludeSelf(nodes []tree.Node, self tree.Node) []tree.Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n.ID() != self.ID() {
			out = append(out, n)
		}
	}
	return out
}

// assignChildren finds a non-overlapping assignment of candidates to
// patChildren such that every pattern child's occurrence bound is
// satisfied by candidates it locally-and-recursively matches. When
// requireCoverage is true, every candidate must also be claimed by some
// pattern child (SPEC_FULL.md §4.6 step 5); when false, unclaimed
// candidates are permitted.
func assignChildren(patChildren []*pattern.Node, candidates []tree.Node, lm *LocalMatrix, c cache.Interface, requireCoverage bool) bool {
	used := make([]bool, len(candidates))

	var remainingMin func(from int) int
	remainingMin = func(from int) int {
		total := 0
		for i := from; i < len(patChildren); i++ {
			total += patChildren[i].MinOccur
		}
		return total
	}

	var assign func(pi int) bool
	assign = func(pi int) bool {
		if pi == len(patChildren) {
			if requireCoverage {
				for _, u := range used {
					if !u {
						return false
					}
				}
			}
			return true
		}
		pc := patChildren[pi]

		unusedTotal := 0
		for _, u := range used {
			if !u {
				unusedTotal++
			}
		}
		// Remaining-minimum prune: if the candidates still available
		// can't even cover every remaining pattern child's minimum, there
		// is no point enumerating combinations for pc at all.
		if unusedTotal < remainingMin(pi) {
			return false
		}

		var eligible []int
		for i, cand := range candidates {
			if used[i] {
				continue
			}
			if matchStrict(pc, cand, lm, c) {
				eligible = append(eligible, i)
			}
		}
		if len(eligible) < pc.MinOccur {
			return false
		}

		maxN := pc.MaxOccur
		if maxN < 0 || maxN > len(eligible) {
			maxN = len(eligible)
		}
		for size := pc.MinOccur; size <= maxN; size++ {
			if combos(eligible, size, func(combo []int) bool {
				for _, idx := range combo {
					used[idx] = true
				}
				ok := assign(pi + 1)
				if !ok {
					for _, idx := range combo {
						used[idx] = false
					}
				}
				return ok
			}) {
				return true
			}
		}
		return false
	}

	return assign(0)
}

// combos calls cb with every k-sized combination of items (as index
// values from items, preserving items' own values) until cb returns true,
// short-circuiting as soon as one succeeds.
func combos(items []int, k int, cb func([]int) bool) bool {
	n := len(items)
	if k == 0 {
		return cb(nil)
	}
	if k > n {
		return false
	}
	chosen := make([]int, k)
	var rec func(start, idx int) bool
	rec = func(start, idx int) bool {
		if idx == k {
			return cb(append([]int(nil), chosen...))
		}
		for i := start; i <= n-(k-idx); i++ {
			chosen[idx] = items[i]
			if rec(i+1, idx+1) {
				return true
			}
		}
		return false
	}
	return rec(0, 0)
}
