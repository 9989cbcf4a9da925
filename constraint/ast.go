package constraint

// Expr is any node of a compiled constraint expression. It mirrors the
// teacher's query.Q shape: a small closed interface implemented by every
// concrete AST node, with no behavior of its own beyond identifying the
// node as part of the tree.
type Expr interface {
	exprNode()
}

// Literal is a constant bool, number, or string.
type Literal struct {
	Value Value
}

// SetLiteral is a `[a, b, c]` string-set literal, used on the right side
// of `in`.
type SetLiteral struct {
	Items []string
}

// Attr is an `@name`-style attribute access on the node currently in
// scope (the node being tested, or the quantified child/node inside a
// quantifier body).
type Attr struct {
	Name string
}

// ChildAttr is `children[i].attr` — access attr on the i-th child of the
// node currently in scope.
type ChildAttr struct {
	Index Expr
	Attr  string
}

// Call is a built-in shortcut predicate such as is_leaf(), species(),
// contains_species("x"), n_duplications().
type Call struct {
	Name string
	Args []Expr
}

// SelfRef is the bare `@` shortcut symbol meaning "this target node"
// (SPEC_FULL.md §4.3). It only has meaning as an explicit leading node
// argument to a shortcut predicate call, e.g. contains_leaves(@, N); it
// has no standalone value.
type SelfRef struct{}

// Unary is "not x" or unary "-x".
type Unary struct {
	Op string
	X  Expr
}

// Binary covers comparisons, and/or, in, and arithmetic +/-.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

// ChildrenQuantifier is `[:children:](body)`: universal quantification
// over the current node's direct children.
type ChildrenQuantifier struct {
	Body Expr
}

// AnyChildQuantifier is `[:any_child:](body)`: existential quantification
// over the current node's direct children.
type AnyChildQuantifier struct {
	Body Expr
}

// AllNodesQuantifier is `[:all_nodes:](body)`: existential quantification
// over every node of the entire target tree, independent of the node
// currently in scope. It is used by patterns that assert something exists
// somewhere in the tree rather than among the current node's relatives.
// The match set is not reduced to a single node: every target node whose
// own constraint holds is still reported.
type AllNodesQuantifier struct {
	Body Expr
}

func (*Literal) exprNode()             {}
func (*SetLiteral) exprNode()          {}
func (*Attr) exprNode()                {}
func (*ChildAttr) exprNode()           {}
func (*Call) exprNode()                {}
func (*SelfRef) exprNode()             {}
func (*Unary) exprNode()               {}
func (*Binary) exprNode()              {}
func (*ChildrenQuantifier) exprNode()  {}
func (*AnyChildQuantifier) exprNode()  {}
func (*AllNodesQuantifier) exprNode()  {}
