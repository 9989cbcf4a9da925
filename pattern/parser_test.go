package pattern_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arbormatch/treematcher/pattern"
	"github.com/arbormatch/treematcher/treeerr"
)

func TestDebugDumpIncludesConstraintSource(t *testing.T) {
	p, err := pattern.Parse(`(@name == "B")@name == "A"`, pattern.Options{})
	require.NoError(t, err)
	dump := p.DebugDump()
	// spew prints strings Go-quoted, so the inner double quotes are escaped.
	require.Contains(t, dump, `@name == \"A\"`)
	require.Contains(t, dump, `@name == \"B\"`)
}

func TestParseSimpleTree(t *testing.T) {
	p, err := pattern.Parse(`(@name == "B", @name == "C")@name == "inner"`, pattern.Options{})
	require.NoError(t, err)
	require.Len(t, p.Root.Children, 2)
	require.Equal(t, `@name == "inner"`, p.Root.ConstraintSource)
	require.Equal(t, 1, p.Root.MinOccur)
	require.Equal(t, 1, p.Root.MaxOccur)
}

func TestParseOccurrenceMetacharacters(t *testing.T) {
	cases := []struct {
		label      string
		wantMin    int
		wantMax    int
		wantCore   string
	}{
		{`@name == "A"+`, 1, pattern.Unbounded, `@name == "A"`},
		{`@name == "A"*`, 0, pattern.Unbounded, `@name == "A"`},
		{`@name == "A"?`, 0, 1, `@name == "A"`},
		{`@name == "A"{2,4}`, 2, 4, `@name == "A"`},
	}
	for _, c := range cases {
		p, err := pattern.Parse(`(`+c.label+`)true`, pattern.Options{})
		require.NoError(t, err, c.label)
		child := p.Root.Children[0]
		require.Equal(t, c.wantMin, child.MinOccur, c.label)
		require.Equal(t, c.wantMax, child.MaxOccur, c.label)
		require.Equal(t, c.wantCore, child.ConstraintSource, c.label)
	}
}

func TestParseAnchorsAndLooseChildren(t *testing.T) {
	p, err := pattern.Parse(`(is_leaf()$)^true`, pattern.Options{})
	require.NoError(t, err)
	require.True(t, p.Root.LooseChildren)
	require.True(t, p.Root.Children[0].IsLeafAnchor)
}

func TestParseLooseWithoutChildrenFails(t *testing.T) {
	_, err := pattern.Parse(`^true`, pattern.Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, treeerr.ErrLooseWithoutChildren)
}

func TestParseEmptyFails(t *testing.T) {
	_, err := pattern.Parse("", pattern.Options{})
	require.ErrorIs(t, err, treeerr.ErrEmptyPattern)
}

func TestParseUnconstrainedLabelMatchesAnything(t *testing.T) {
	p, err := pattern.Parse(`(,)`, pattern.Options{})
	require.NoError(t, err)
	got := []string{p.Root.Children[0].ConstraintSource, p.Root.Children[1].ConstraintSource}
	want := []string{"", ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected constraint sources diff: %s", diff)
	}
}
