// Package pattern parses a parenthesized pattern string into a pattern
// tree: nodes carrying a compiled constraint expression, an occurrence
// range, and topology flags (loose_children, root/leaf anchors).
package pattern

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/arbormatch/treematcher/constraint"
)

// Unbounded marks MaxOccur as having no upper limit.
const Unbounded = -1

// Node is a single node of a compiled pattern tree.
type Node struct {
	ConstraintSource string
	Constraint       constraint.Expr

	MinOccur int
	MaxOccur int // Unbounded for no upper limit

	LooseChildren bool
	IsRootAnchor  bool
	IsLeafAnchor  bool

	// RequiresLeaf is the implicit structural constraint from SPEC_FULL.md
	// §4.2 step 3: a pattern node with no children requires a leaf target;
	// a pattern node with children requires a non-leaf target. Set once in
	// buildNode from len(children)==0 and checked in localMatch alongside
	// the explicit ^/$ anchors.
	RequiresLeaf bool

	Children []*Node
}

// Pattern is a compiled pattern tree ready to be matched against targets.
type Pattern struct {
	Root *Node
}

// DebugDump renders the full pattern tree for diagnostics.
func (p *Pattern) DebugDump() string {
	return spew.Sdump(p.Root)
}
