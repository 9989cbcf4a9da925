package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arbormatch/treematcher/matcher"
	"github.com/arbormatch/treematcher/pattern"
)

func TestSplitDetachesLooseChildren(t *testing.T) {
	p, err := pattern.Parse(`(@name == "B",@name == "C")^@name == "A"`, pattern.Options{})
	require.NoError(t, err)

	roots, groups := matcher.Split(p.Root)
	// root clone (no children, loose) + 2 detached child roots
	require.Len(t, roots, 3)
	require.Len(t, groups, 1)
	require.Equal(t, `@name == "A"`, groups[0].Ancestor.ConstraintSource)
	require.Len(t, groups[0].Children, 2)
}

func TestSplitKeepsStrictChildrenAttached(t *testing.T) {
	p, err := pattern.Parse(`(@name == "B")@name == "A"`, pattern.Options{})
	require.NoError(t, err)

	roots, groups := matcher.Split(p.Root)
	require.Len(t, roots, 1)
	require.Empty(t, groups)
	require.Len(t, roots[0].Children, 1)
}
