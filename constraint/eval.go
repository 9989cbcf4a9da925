package constraint

import (
	"fmt"

	"github.com/kr/pretty"

	"github.com/arbormatch/treematcher/cache"
	"github.com/arbormatch/treematcher/tree"
	"github.com/arbormatch/treematcher/treeerr"
)

// Namer rewrites a raw lineage/taxon identifier into the name a pattern
// author would write. When nil, lineage comparisons use raw identifiers.
type Namer func(id string) string

// Context carries everything an expression needs to evaluate against one
// target node.
type Context struct {
	Node  tree.Node
	Root  tree.Node
	Cache cache.Interface
	Namer Namer
}

func (c Context) withNode(n tree.Node) Context {
	c2 := c
	c2.Node = n
	return c2
}

// Eval evaluates expr against ctx.Node. A *treeerr.ConstraintTypeError is
// returned for operand-kind mismatches (propagates and aborts the whole
// query); any other failure is returned as *treeerr.ConstraintEvalError
// (absorbed — the node simply does not match).
func Eval(expr Expr, ctx Context) (Value, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil

	case *SetLiteral:
		return SetValue(e.Items), nil

	case *Attr:
		return attrValue(ctx, ctx.Node, e.Name)

	case *ChildAttr:
		idxVal, err := Eval(e.Index, ctx)
		if err != nil {
			return Value{}, err
		}
		if idxVal.Kind != KindNumber {
			return Value{}, typeErr(expr, "children[i] index must be a number")
		}
		children := ctx.Node.Children()
		i := int(idxVal.Num)
		if i < 0 || i >= len(children) {
			return Value{}, evalErr(expr, fmt.Errorf("children index %d out of range (%d children)", i, len(children)))
		}
		return attrValue(ctx, children[i], e.Attr)

	case *Call:
		return evalCall(e, ctx)

	case *SelfRef:
		return Value{}, evalErr(expr, fmt.Errorf("'@' only has meaning as a shortcut predicate's node argument"))

	case *Unary:
		return evalUnary(e, ctx)

	case *Binary:
		return evalBinary(e, ctx)

	case *ChildrenQuantifier:
		for _, c := range ctx.Node.Children() {
			v, err := Eval(e.Body, ctx.withNode(c))
			if err != nil {
				return Value{}, err
			}
			if !v.Truthy() {
				return BoolValue(false), nil
			}
		}
		return BoolValue(true), nil

	case *AnyChildQuantifier:
		for _, c := range ctx.Node.Children() {
			v, err := Eval(e.Body, ctx.withNode(c))
			if err != nil {
				return Value{}, err
			}
			if v.Truthy() {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil

	case *AllNodesQuantifier:
		if ctx.Root == nil {
			return Value{}, evalErr(expr, fmt.Errorf("[:all_nodes:] requires a tree root in scope"))
		}
		for _, n := range ctx.Cache.Subtree(ctx.Root) {
			v, err := Eval(e.Body, ctx.withNode(n))
			if err != nil {
				return Value{}, err
			}
			if v.Truthy() {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	}
	return Value{}, evalErr(expr, fmt.Errorf("unhandled expression type %T", expr))
}

func attrValue(ctx Context, n tree.Node, name string) (Value, error) {
	switch name {
	case "name":
		return StringValue(n.Name()), nil
	case "dist":
		return NumberValue(n.Dist()), nil
	case "support":
		return NumberValue(n.Support()), nil
	case "species":
		return StringValue(n.Species()), nil
	case "lineage":
		lin := n.Lineage()
		if ctx.Namer != nil {
			renamed := make([]string, len(lin))
			for i, id := range lin {
				renamed[i] = ctx.Namer(id)
			}
			lin = renamed
		}
		return SetValue(lin), nil
	case "evoltype":
		return StringValue(n.EvolType().String()), nil
	}
	return Value{}, &treeerr.ConstraintEvalError{
		Msg:   fmt.Sprintf("unknown attribute @%s", name),
		Cause: treeerr.ErrUnknownAttribute,
	}
}

func evalCall(c *Call, ctx Context) (Value, error) {
	n := ctx.Node
	args := nodeShortcutArgs(c.Args)
	switch c.Name {
	case "is_leaf":
		return BoolValue(n.IsLeaf()), nil
	case "is_root":
		return BoolValue(n.IsRoot()), nil
	case "leaves":
		return SetValue(namesOf(ctx.Cache.Leaves(n))), nil
	case "descendants":
		return SetValue(namesOf(excludeSelf(ctx.Cache.Subtree(n), n))), nil
	case "species":
		return SetValue(ctx.Cache.Species(n)), nil
	case "n_species":
		return NumberValue(float64(ctx.Cache.NSpecies(n))), nil
	case "n_leaves":
		return NumberValue(float64(ctx.Cache.NLeaves(n))), nil
	case "n_duplications":
		return NumberValue(float64(ctx.Cache.NDuplications(n))), nil
	case "n_speciations":
		return NumberValue(float64(ctx.Cache.NSpeciations(n))), nil
	case "contains_species":
		want, err := setArg(c, ctx, args, 0)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(containsAll(ctx.Cache.Species(n), want)), nil
	case "contains_leaves":
		want, err := setArg(c, ctx, args, 0)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(containsAll(ctx.Cache.LeafNames(n), want)), nil
	}
	return Value{}, &treeerr.ConstraintEvalError{
		Msg:   fmt.Sprintf("unknown predicate %s()", c.Name),
		Cause: treeerr.ErrUnknownAttribute,
	}
}

// nodeShortcutArgs strips an optional explicit leading node argument (the
// `@` shortcut symbol, SPEC_FULL.md §4.3's contains_leaves(v, N) form)
// from a shortcut call's arguments. Every shortcut predicate only ever
// evaluates against ctx.Node regardless of whether the call spells that
// out, so contains_leaves(@, [...]) and the implicit contains_leaves([...])
// this module's other tests use are equivalent.
func nodeShortcutArgs(args []Expr) []Expr {
	if len(args) > 0 {
		if _, ok := args[0].(*SelfRef); ok {
			return args[1:]
		}
	}
	return args
}

// setArg resolves argument i of a shortcut call (after nodeShortcutArgs
// stripping) to a string set. A bare string argument is treated as its
// own one-element set, so both contains_species("mouse") and
// contains_species(["mouse","rat"]) are accepted.
func setArg(c *Call, ctx Context, args []Expr, i int) ([]string, error) {
	if i >= len(args) {
		return nil, evalErr(c, fmt.Errorf("%s() expects an argument", c.Name))
	}
	v, err := Eval(args[i], ctx)
	if err != nil {
		return nil, err
	}
	switch v.Kind {
	case KindString:
		return []string{v.Str}, nil
	case KindStringSet:
		return v.Set, nil
	}
	return nil, typeErr(c, fmt.Sprintf("%s() expects a string or a set argument", c.Name))
}

// containsAll reports whether every member of want appears in have
// (SPEC_FULL.md §4.3: contains_species(v, S)/contains_leaves(v, N) are
// true iff every member of S/N is present, not merely one).
func containsAll(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

func namesOf(nodes []tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
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

func evalUnary(e *Unary, ctx Context) (Value, error) {
	v, err := Eval(e.X, ctx)
	if err != nil {
		return Value{}, err
	}
	switch e.Op {
	case "not":
		return BoolValue(!v.Truthy()), nil
	case "-":
		if v.Kind != KindNumber {
			return Value{}, typeErr(e, "unary '-' requires a number")
		}
		return NumberValue(-v.Num), nil
	}
	return Value{}, evalErr(e, fmt.Errorf("unknown unary operator %q", e.Op))
}

func evalBinary(e *Binary, ctx Context) (Value, error) {
	switch e.Op {
	case "and":
		l, err := Eval(e.Left, ctx)
		if err != nil {
			return Value{}, err
		}
		if !l.Truthy() {
			return BoolValue(false), nil
		}
		r, err := Eval(e.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(r.Truthy()), nil

	case "or":
		l, err := Eval(e.Left, ctx)
		if err != nil {
			return Value{}, err
		}
		if l.Truthy() {
			return BoolValue(true), nil
		}
		r, err := Eval(e.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(r.Truthy()), nil
	}

	l, err := Eval(e.Left, ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := Eval(e.Right, ctx)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case "+", "-":
		if l.Kind != KindNumber || r.Kind != KindNumber {
			return Value{}, typeErr(e, fmt.Sprintf("arithmetic %q requires numbers, got %s and %s", e.Op, l.Kind, r.Kind))
		}
		if e.Op == "+" {
			return NumberValue(l.Num + r.Num), nil
		}
		return NumberValue(l.Num - r.Num), nil

	case "in":
		if r.Kind != KindStringSet {
			return Value{}, typeErr(e, "right side of 'in' must be a set")
		}
		needle := valueAsString(l)
		for _, s := range r.Set {
			if s == needle {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil

	case "==", "!=", "<", "<=", ">", ">=":
		return compare(e, l, r)
	}
	return Value{}, evalErr(e, fmt.Errorf("unknown binary operator %q", e.Op))
}

func valueAsString(v Value) string {
	if v.Kind == KindString {
		return v.Str
	}
	return fmt.Sprint(v)
}

func compare(e *Binary, l, r Value) (Value, error) {
	if l.Kind != r.Kind {
		if e.Op == "==" {
			return BoolValue(false), nil
		}
		if e.Op == "!=" {
			return BoolValue(true), nil
		}
		return Value{}, typeErr(e, fmt.Sprintf("cannot compare %s with %s", l.Kind, r.Kind))
	}
	switch l.Kind {
	case KindNumber:
		return compareOrdered(e.Op, l.Num, r.Num)
	case KindString:
		return compareOrdered(e.Op, l.Str, r.Str)
	case KindBool:
		switch e.Op {
		case "==":
			return BoolValue(l.Bool == r.Bool), nil
		case "!=":
			return BoolValue(l.Bool != r.Bool), nil
		}
		return Value{}, typeErr(e, "booleans only support == and !=")
	}
	return Value{}, typeErr(e, fmt.Sprintf("values of kind %s are not comparable", l.Kind))
}

type ordered interface{ ~float64 | ~string }

func compareOrdered[T ordered](op string, l, r T) (Value, error) {
	switch op {
	case "==":
		return BoolValue(l == r), nil
	case "!=":
		return BoolValue(l != r), nil
	case "<":
		return BoolValue(l < r), nil
	case "<=":
		return BoolValue(l <= r), nil
	case ">":
		return BoolValue(l > r), nil
	case ">=":
		return BoolValue(l >= r), nil
	}
	return Value{}, fmt.Errorf("unsupported comparison operator %q", op)
}

func typeErr(expr Expr, msg string) error {
	return &treeerr.ConstraintTypeError{
		Msg: fmt.Sprintf("%s (in %s)", msg, pretty.Sprint(expr)),
	}
}

func evalErr(expr Expr, cause error) error {
	return treeerr.NewConstraintEvalError(fmt.Sprintf("evaluating %s", pretty.Sprint(expr)), cause)
}
