package constraint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arbormatch/treematcher/cache"
	"github.com/arbormatch/treematcher/constraint"
	"github.com/arbormatch/treematcher/internal/nwk"
	"github.com/arbormatch/treematcher/tree"
)

func sampleTree(t *testing.T) tree.Node {
	t.Helper()
	root := nwk.NewBuilder("root").Support(100).
		AddChild(nwk.NewBuilder("A").Dist(0.2).Species("human")).
		AddChild(
			nwk.NewBuilder("inner").Dist(0.1).EvolType(tree.Duplication).
				AddChild(nwk.NewBuilder("B").Dist(0.3).Species("mouse")).
				AddChild(nwk.NewBuilder("C").Dist(0.4).Species("mouse")),
		)
	return root.Build()
}

func evalString(t *testing.T, src string, n tree.Node, c *cache.Cache, root tree.Node) constraint.Value {
	t.Helper()
	expr, err := constraint.Parse(src)
	require.NoError(t, err)
	v, err := constraint.Eval(expr, constraint.Context{Node: n, Root: root, Cache: c})
	require.NoError(t, err)
	return v
}

func TestEvalBasicComparisons(t *testing.T) {
	root := sampleTree(t)
	c := cache.Build(root)
	a := root.Children()[0]

	require.True(t, evalString(t, `@name == "A"`, a, c, root).Truthy())
	require.True(t, evalString(t, `@dist > 0.1`, a, c, root).Truthy())
	require.False(t, evalString(t, `@dist > 0.5`, a, c, root).Truthy())
	require.True(t, evalString(t, `is_leaf()`, a, c, root).Truthy())
	require.False(t, evalString(t, `is_root()`, a, c, root).Truthy())
}

func TestEvalShortcutsAndQuantifiers(t *testing.T) {
	root := sampleTree(t)
	c := cache.Build(root)
	inner := root.Children()[1]

	require.True(t, evalString(t, `contains_species("mouse")`, inner, c, root).Truthy())
	require.False(t, evalString(t, `contains_species("human")`, inner, c, root).Truthy())
	require.Equal(t, float64(2), evalString(t, `n_leaves()`, inner, c, root).Num)
	require.Equal(t, float64(1), evalString(t, `n_duplications()`, root, c, root).Num)

	require.True(t, evalString(t, `[:children:](@species == "mouse")`, inner, c, root).Truthy())
	require.True(t, evalString(t, `[:any_child:](@name == "B")`, inner, c, root).Truthy())
	require.False(t, evalString(t, `[:any_child:](@name == "Z")`, inner, c, root).Truthy())
	require.True(t, evalString(t, `[:all_nodes:](@name == "C")`, root, c, root).Truthy())
}

func TestEvalChildAccessAndSets(t *testing.T) {
	root := sampleTree(t)
	c := cache.Build(root)
	inner := root.Children()[1]

	require.True(t, evalString(t, `children[0].name == "B"`, inner, c, root).Truthy())
	require.True(t, evalString(t, `@species in ["mouse", "rat"]`, inner.Children()[0], c, root).Truthy())
}

func TestEvalTypeErrorPropagates(t *testing.T) {
	root := sampleTree(t)
	c := cache.Build(root)
	expr, err := constraint.Parse(`@dist + @name`)
	require.NoError(t, err)
	_, err = constraint.Eval(expr, constraint.Context{Node: root.Children()[0], Root: root, Cache: c})
	require.Error(t, err)
	require.Contains(t, err.Error(), "arithmetic")
}

func TestEvalBareLabelMeansNameEquality(t *testing.T) {
	root := sampleTree(t)
	c := cache.Build(root)
	a := root.Children()[0]

	// A bare identifier with no call parens ("A") is shorthand for
	// @name == "A", not a zero-arg predicate call.
	require.True(t, evalString(t, `A`, a, c, root).Truthy())
	require.False(t, evalString(t, `A`, root, c, root).Truthy())
}

func TestEvalSelfRefShortcutArgument(t *testing.T) {
	target, err := nwk.Parse(`((((Human_1,Chimp_1),(Human_2,(Chimp_2,Chimp_3))),((Fish_1,(Human_3,Fish_3)),Yeast_2)),Yeast_1);`)
	require.NoError(t, err)
	c := cache.Build(target)

	// The unmodified literal pattern string from the scenario 6 worked
	// example: a bare '@' spelled out explicitly as contains_leaves's
	// leading node argument.
	expr, err := constraint.Parse(`contains_leaves(@,["Chimp_2","Chimp_3"])`)
	require.NoError(t, err)

	var chimp23Ancestor tree.Node
	for _, n := range c.Subtree(target) {
		if n.Name() == "" {
			leaves := c.LeafNames(n)
			has2, has3 := false, false
			for _, l := range leaves {
				has2 = has2 || l == "Chimp_2"
				has3 = has3 || l == "Chimp_3"
			}
			if has2 && has3 && len(leaves) == 2 {
				chimp23Ancestor = n
			}
		}
	}
	require.NotNil(t, chimp23Ancestor)

	v, err := constraint.Eval(expr, constraint.Context{Node: chimp23Ancestor, Root: target, Cache: c})
	require.NoError(t, err)
	require.True(t, v.Truthy())

	// A node whose leaf set only partially overlaps the requested set must
	// not match: every member of the requested set must be present. The
	// Chimp_2 leaf has Chimp_2 but not Chimp_3.
	v, err = constraint.Eval(expr, constraint.Context{Node: chimp23Ancestor.Children()[0], Root: target, Cache: c})
	require.NoError(t, err)
	require.False(t, v.Truthy())

	// The implicit form (without the leading '@') is equivalent.
	implicit, err := constraint.Parse(`contains_leaves(["Chimp_2","Chimp_3"])`)
	require.NoError(t, err)
	v, err = constraint.Eval(implicit, constraint.Context{Node: chimp23Ancestor, Root: target, Cache: c})
	require.NoError(t, err)
	require.True(t, v.Truthy())
}

func TestEvalBareSelfRefIsAnEvalError(t *testing.T) {
	root := sampleTree(t)
	c := cache.Build(root)
	expr, err := constraint.Parse(`@`)
	require.NoError(t, err)
	_, err = constraint.Eval(expr, constraint.Context{Node: root, Root: root, Cache: c})
	require.Error(t, err)
}

func TestEvalUnknownAttributeIsEvalError(t *testing.T) {
	root := sampleTree(t)
	c := cache.Build(root)
	// A genuinely unknown attribute is an evaluator error (absorbed upstream
	// by the local match matrix, not by Eval itself).
	expr, err := constraint.Parse(`@bogus == "x"`)
	require.NoError(t, err)
	_, err = constraint.Eval(expr, constraint.Context{Node: root.Children()[0], Root: root, Cache: c})
	require.Error(t, err)
}
