// Package treematcher enumerates every node of a labeled rooted target
// tree whose rooted subtree satisfies a pattern tree of constraint
// expressions and topology metacharacters. See SPEC_FULL.md for the full
// component breakdown; this file is the external interface (§6): Compile,
// BuildCache, FindMatch.
package treematcher

import (
	"github.com/arbormatch/treematcher/cache"
	"github.com/arbormatch/treematcher/constraint"
	"github.com/arbormatch/treematcher/matcher"
	"github.com/arbormatch/treematcher/pattern"
	"github.com/arbormatch/treematcher/tree"
)

// Re-exported so callers don't need to import the subpackages directly
// for everyday use.
type (
	Pattern = pattern.Pattern
	Cache   = cache.Interface
	Node    = tree.Node
	Order   = tree.Order
	MatchIter = matcher.MatchIter
)

const (
	PreOrder   = tree.PreOrder
	PostOrder  = tree.PostOrder
	LevelOrder = tree.LevelOrder
)

// Options controls pattern compilation.
type Options struct {
	// QuotedLabels requires every non-empty constraint label in the
	// pattern string to be wrapped in double quotes.
	QuotedLabels bool

	// TreeFormat is informational only: this module does not parse or
	// serialize trees, so the value is never inspected.
	TreeFormat int

	// Namer rewrites raw lineage/taxon identifiers into display names
	// during constraint evaluation. Nil means lineage comparisons use the
	// raw identifiers unchanged.
	Namer constraint.Namer
}

// Compile parses patternText into a ready-to-match Pattern.
func Compile(patternText string, opts Options) (*Pattern, error) {
	return pattern.Parse(patternText, pattern.Options{QuotedLabels: opts.QuotedLabels})
}

// BuildCache precomputes the attribute cache for root. The result is safe
// to reuse across any number of FindMatch calls against the same tree, and
// safe for concurrent readers.
func BuildCache(root Node) *cache.Cache {
	return cache.Build(root)
}

// FindMatch enumerates every node of root whose rooted subtree satisfies
// p, visited in the given order. maxHits caps the number of matches
// returned; 0 means all matches. Pass a Cache built with BuildCache, or
// cache.Emulate() to opt out of precomputation entirely.
func FindMatch(p *Pattern, root Node, maxHits int, order Order, c Cache) (*MatchIter, error) {
	return FindMatchWithOptions(p, root, maxHits, order, c, Options{})
}

// FindMatchWithOptions is FindMatch with a Namer applied to lineage
// attribute access during constraint evaluation.
func FindMatchWithOptions(p *Pattern, root Node, maxHits int, order Order, c Cache, opts Options) (*MatchIter, error) {
	d, err := matcher.NewDriverWithNamer(p, root, c, opts.Namer)
	if err != nil {
		return nil, err
	}
	return d.FindMatch(order, maxHits)
}
