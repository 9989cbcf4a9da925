// Package matcher implements the Local Match Matrix, Pattern Splitter,
// Topology Matcher, and Match Driver described in SPEC_FULL.md §4.4-4.7.
package matcher

import (
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/arbormatch/treematcher/cache"
	"github.com/arbormatch/treematcher/constraint"
	"github.com/arbormatch/treematcher/pattern"
	"github.com/arbormatch/treematcher/tree"
	"github.com/arbormatch/treematcher/treeerr"
)

// LocalMatrix records, for every pattern node, the set of target nodes
// that satisfy that pattern node's own constraint and anchors in
// isolation (ignoring topology). It is built once per query and reused by
// every subsequent topology search.
type LocalMatrix struct {
	sets    map[*pattern.Node]*hashset.Set
	targets []tree.Node
}

// BuildLocalMatrix evaluates every pattern node's constraint against every
// target node once, in a single O(|pattern| * |target|) pass. A
// *treeerr.ConstraintTypeError from any evaluation aborts the build and is
// returned to the caller; any other evaluation failure is absorbed as a
// non-match for that (pattern node, target node) pair.
func BuildLocalMatrix(p *pattern.Pattern, target tree.Node, c cache.Interface, namer constraint.Namer) (*LocalMatrix, error) {
	lm := &LocalMatrix{
		sets: make(map[*pattern.Node]*hashset.Set),
	}
	tree.Walk(target, tree.PreOrder, func(n tree.Node) bool {
		lm.targets = append(lm.targets, n)
		return true
	})

	var err error
	walkPattern(p.Root, func(pn *pattern.Node) bool {
		set := hashset.New()
		for _, tn := range lm.targets {
			ok, evalErr := localMatch(pn, tn, target, c, namer)
			if evalErr != nil {
				var typeErr *treeerr.ConstraintTypeError
				if isConstraintTypeError(evalErr, &typeErr) {
					err = evalErr
					return false
				}
				continue // absorbed ConstraintEvalError: treated as no match
			}
			if ok {
				set.Add(tn.ID())
			}
		}
		lm.sets[pn] = set
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return lm, nil
}

func isConstraintTypeError(err error, target **treeerr.ConstraintTypeError) bool {
	if e, ok := err.(*treeerr.ConstraintTypeError); ok {
		*target = e
		return true
	}
	return false
}

func localMatch(pn *pattern.Node, tn tree.Node, root tree.Node, c cache.Interface, namer constraint.Namer) (bool, error) {
	if pn.IsRootAnchor && !tn.IsRoot() {
		return false, nil
	}
	if pn.IsLeafAnchor && !tn.IsLeaf() {
		return false, nil
	}
	if tn.IsLeaf() != pn.RequiresLeaf {
		return false, nil
	}
	v, err := constraint.Eval(pn.Constraint, constraint.Context{Node: tn, Root: root, Cache: c, Namer: namer})
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// IsLocalMatch reports whether tn satisfies pn's own constraint/anchors.
func (lm *LocalMatrix) IsLocalMatch(pn *pattern.Node, tn tree.Node) bool {
	set, ok := lm.sets[pn]
	if !ok {
		return false
	}
	return set.Contains(tn.ID())
}

// Candidates returns every target node that locally matches pn, in the
// preorder the matrix was built in.
func (lm *LocalMatrix) Candidates(pn *pattern.Node) []tree.Node {
	set, ok := lm.sets[pn]
	if !ok {
		return nil
	}
	out := make([]tree.Node, 0, set.Size())
	for _, tn := range lm.targets {
		if set.Contains(tn.ID()) {
			out = append(out, tn)
		}
	}
	return out
}

func walkPattern(n *pattern.Node, visit func(*pattern.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.Children {
		if !walkPattern(c, visit) {
			return false
		}
	}
	return true
}
