package matcher_test

import (
	"sort"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/require"

	"github.com/arbormatch/treematcher/cache"
	"github.com/arbormatch/treematcher/internal/nwk"
	"github.com/arbormatch/treematcher/matcher"
	"github.com/arbormatch/treematcher/pattern"
	"github.com/arbormatch/treematcher/tree"
)

func names(nodes []tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func buildGeneTree() tree.Node {
	root := nwk.NewBuilder("root").EvolType(tree.Duplication).
		AddChild(
			nwk.NewBuilder("n1").EvolType(tree.Speciation).
				AddChild(nwk.NewBuilder("human1").Species("human")).
				AddChild(nwk.NewBuilder("mouse1").Species("mouse")),
		).
		AddChild(
			nwk.NewBuilder("n2").EvolType(tree.Speciation).
				AddChild(nwk.NewBuilder("human2").Species("human")).
				AddChild(nwk.NewBuilder("mouse2").Species("mouse")),
		)
	return root.Build()
}

func TestStrictTopologyMatchesSpeciationNodes(t *testing.T) {
	target := buildGeneTree()
	c := cache.Build(target)

	p, err := pattern.Parse(`(@species == "human",@species == "mouse")@evoltype == "speciation"`, pattern.Options{})
	require.NoError(t, err)

	d, err := matcher.NewDriver(p, target, c)
	require.NoError(t, err)
	it, err := d.FindMatch(tree.PreOrder, 0)
	require.NoError(t, err)

	got := names(it.All())
	sort.Strings(got)
	want := []string{"n1", "n2"}
	if diff := pretty.Compare(want, got); diff != "" {
		t.Fatalf("match set diff (-want +got):\n%s", diff)
	}
}

func TestOccurrenceBoundsRejectWrongChildCount(t *testing.T) {
	target := buildGeneTree()
	c := cache.Build(target)

	// Require exactly 3 children matching "true" under the root; root has
	// only 2, so no match.
	p, err := pattern.Parse(`(true{3,3})true`, pattern.Options{})
	require.NoError(t, err)

	d, err := matcher.NewDriver(p, target, c)
	require.NoError(t, err)
	it, err := d.FindMatch(tree.PreOrder, 0)
	require.NoError(t, err)
	require.Empty(t, it.All())
}

func TestLooseChildrenMatchesDescendants(t *testing.T) {
	target := buildGeneTree()
	c := cache.Build(target)

	// loose_children root: any node carrying a "human" leaf somewhere
	// beneath it, found anywhere in the subtree rather than only direct
	// children.
	p, err := pattern.Parse(`(@species == "human")^true`, pattern.Options{})
	require.NoError(t, err)

	d, err := matcher.NewDriver(p, target, c)
	require.NoError(t, err)
	it, err := d.FindMatch(tree.PreOrder, 0)
	require.NoError(t, err)

	got := names(it.All())
	require.ElementsMatch(t, []string{"root", "n1", "n2"}, got)
}

func TestLeafAnchorRestrictsToLeaves(t *testing.T) {
	target := buildGeneTree()
	c := cache.Build(target)

	p, err := pattern.Parse(`@species == "human"$`, pattern.Options{})
	require.NoError(t, err)

	d, err := matcher.NewDriver(p, target, c)
	require.NoError(t, err)
	it, err := d.FindMatch(tree.PreOrder, 0)
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"human1", "human2"}, names(it.All()))
}

func TestRootAnchorRestrictsToRoot(t *testing.T) {
	target := buildGeneTree()
	c := cache.Build(target)

	p, err := pattern.Parse(`((true,true),(true,true))true^`, pattern.Options{})
	require.NoError(t, err)

	d, err := matcher.NewDriver(p, target, c)
	require.NoError(t, err)
	it, err := d.FindMatch(tree.PreOrder, 0)
	require.NoError(t, err)

	require.Equal(t, []string{"root"}, names(it.All()))
}

func TestMaxHitsCapsResults(t *testing.T) {
	target := buildGeneTree()
	c := cache.Build(target)

	p, err := pattern.Parse(`true`, pattern.Options{})
	require.NoError(t, err)

	d, err := matcher.NewDriver(p, target, c)
	require.NoError(t, err)
	it, err := d.FindMatch(tree.PreOrder, 2)
	require.NoError(t, err)
	require.Len(t, it.All(), 2)
}

func TestConstraintTypeErrorAbortsBuild(t *testing.T) {
	target := buildGeneTree()
	c := cache.Build(target)

	p, err := pattern.Parse(`@dist + @name == 1`, pattern.Options{})
	require.NoError(t, err)

	_, err = matcher.NewDriver(p, target, c)
	require.Error(t, err)
}

func TestMatchIterPullsLazily(t *testing.T) {
	target := buildGeneTree()
	c := cache.Build(target)
	p, err := pattern.Parse(`true`, pattern.Options{})
	require.NoError(t, err)
	d, err := matcher.NewDriver(p, target, c)
	require.NoError(t, err)
	it, err := d.FindMatch(tree.PreOrder, 0)
	require.NoError(t, err)

	total := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		total++
	}
	require.Equal(t, 4, total) // a childless "true" pattern requires a leaf target
}

func TestDecomposeStitchesLooseConnectionWithLCA(t *testing.T) {
	target := buildGeneTree()
	c := cache.Build(target)

	p, err := pattern.Parse(`(@species == "human")^true`, pattern.Options{})
	require.NoError(t, err)

	d, err := matcher.NewDriver(p, target, c)
	require.NoError(t, err)

	bindings, err := d.Decompose(target)
	require.NoError(t, err)

	byAncestor := map[string]matcher.GroupBinding{}
	for _, b := range bindings {
		byAncestor[b.Ancestor.Name()] = b
	}
	require.Contains(t, byAncestor, "root")
	require.Contains(t, byAncestor, "n1")
	require.Contains(t, byAncestor, "n2")

	rootBinding := byAncestor["root"]
	require.ElementsMatch(t, []string{"human1", "human2"}, names(rootBinding.Matched))
	require.Equal(t, "root", rootBinding.LCA.Name())
	require.True(t, rootBinding.IsOutermost)

	n1Binding := byAncestor["n1"]
	require.ElementsMatch(t, []string{"human1"}, names(n1Binding.Matched))
	require.Equal(t, "human1", n1Binding.LCA.Name())
}
