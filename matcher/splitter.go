package matcher

import "github.com/arbormatch/treematcher/pattern"

// AncestorGroup records a loose connection: Ancestor's pattern children
// were detached from it because Ancestor.LooseChildren is set, and must
// instead be found somewhere in Ancestor's descendant set rather than
// among its direct children.
type AncestorGroup struct {
	Ancestor *pattern.Node
	Children []*pattern.Node
}

// Split decomposes a pattern tree into its maximal strict sub-patterns
// (sub-trees with no internal loose connection) plus the ancestor groups
// describing how those sub-patterns relate to each other. The returned
// roots slice always has the overall pattern root's strict clone first.
//
// Split is used two ways: directly, by this package's own tests, to assert
// on the pattern's decomposed structure; and by Driver.Decompose, which
// re-searches each detached sub-pattern independently and stitches the
// results back together with tree.CommonAncestor (SPEC_FULL.md §4.7).
// matchStrict itself does not depend on Split's output for deciding
// matches — a loose-children pattern node's own clone carries no children,
// which makes recursing into it from matchStrict equivalent to evaluating
// it against the node's full descendant set directly, and that direct
// recursion is what FindMatch actually relies on. See Driver.Decompose's
// doc comment and DESIGN.md for why Split's flat roots list cannot drive
// matching on its own once a loose pattern node is nested beneath another
// one.
func Split(root *pattern.Node) (roots []*pattern.Node, groups []AncestorGroup) {
	var build func(n *pattern.Node) *pattern.Node
	build = func(n *pattern.Node) *pattern.Node {
		clone := &pattern.Node{
			ConstraintSource: n.ConstraintSource,
			Constraint:       n.Constraint,
			MinOccur:         n.MinOccur,
			MaxOccur:         n.MaxOccur,
			LooseChildren:    n.LooseChildren,
			IsRootAnchor:     n.IsRootAnchor,
			IsLeafAnchor:     n.IsLeafAnchor,
			// Copied from n, not recomputed from len(clone.Children): a
			// loose node's clone always ends up with zero children
			// regardless of how many pattern children the original had.
			RequiresLeaf: n.RequiresLeaf,
		}
		if n.LooseChildren {
			if len(n.Children) > 0 {
				var kids []*pattern.Node
				for _, c := range n.Children {
					k := build(c)
					roots = append(roots, k)
					kids = append(kids, k)
				}
				groups = append(groups, AncestorGroup{Ancestor: clone, Children: kids})
			}
			return clone
		}
		clone.Children = make([]*pattern.Node, len(n.Children))
		for i, c := range n.Children {
			clone.Children[i] = build(c)
		}
		return clone
	}
	rootClone := build(root)
	roots = append([]*pattern.Node{rootClone}, roots...)
	return roots, groups
}
