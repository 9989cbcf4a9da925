package matcher

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arbormatch/treematcher/cache"
	"github.com/arbormatch/treematcher/constraint"
	"github.com/arbormatch/treematcher/pattern"
	"github.com/arbormatch/treematcher/tree"
)

// Driver orchestrates the Local Match Matrix and Topology Matcher to
// enumerate every target node whose rooted subtree satisfies a pattern
// (SPEC_FULL.md §4.7).
type Driver struct {
	pattern *pattern.Pattern
	target  tree.Node
	cache   cache.Interface
	namer   constraint.Namer
	lm      *LocalMatrix
}

// NewDriver builds the local match matrix for p against target and
// returns a ready-to-query Driver. The cache must have been built over
// (or otherwise cover) target.
func NewDriver(p *pattern.Pattern, target tree.Node, c cache.Interface) (*Driver, error) {
	return NewDriverWithNamer(p, target, c, nil)
}

// NewDriverWithNamer is NewDriver with an explicit lineage Namer (see
// constraint.Namer); nil behaves exactly like NewDriver.
func NewDriverWithNamer(p *pattern.Pattern, target tree.Node, c cache.Interface, namer constraint.Namer) (*Driver, error) {
	lm, err := BuildLocalMatrix(p, target, c, namer)
	if err != nil {
		return nil, err
	}
	return &Driver{pattern: p, target: target, cache: c, namer: namer, lm: lm}, nil
}

// FindMatch returns a lazy, pull-based iterator over every target node
// whose rooted subtree satisfies the pattern, visited in the given order.
// maxHits caps the number of matches produced; 0 means unbounded.
func (d *Driver) FindMatch(order tree.Order, maxHits int) (*MatchIter, error) {
	root := d.pattern.Root

	// A singleton pattern (no children) is satisfied purely by the local
	// match matrix; any of root's children being loose or strict doesn't
	// change this, since matchStrict already handles both cases uniformly.
	candidates := d.lm.Candidates(root)

	results := make([]bool, len(candidates))
	g, _ := errgroup.WithContext(context.Background())
	var mu sync.Mutex
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			ok := matchStrict(root, cand, d.lm, d.cache)
			mu.Lock()
			results[i] = ok
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var matched []tree.Node
	for i, ok := range results {
		if ok {
			matched = append(matched, candidates[i])
		}
	}

	orderIndex := traversalIndex(d.target, order)
	sort.Slice(matched, func(i, j int) bool {
		return orderIndex[matched[i].ID()] < orderIndex[matched[j].ID()]
	})

	if maxHits > 0 && len(matched) > maxHits {
		matched = matched[:maxHits]
	}
	return newMatchIter(matched), nil
}

// GroupBinding is one loose connection's reconciliation, as reported by
// Driver.Decompose: Matched is the set of target nodes independently bound
// to one ancestor group's detached sub-patterns, and LCA is their lowest
// common ancestor (SPEC_FULL.md §4.7).
type GroupBinding struct {
	Ancestor    tree.Node
	Matched     []tree.Node
	LCA         tree.Node
	IsOutermost bool
}

// Decompose re-derives, for a target node that FindMatch has already
// confirmed matches the pattern, how each of the pattern's loose
// connections was satisfied. It calls matcher.Split to get the pattern's
// ancestor groups, independently searches each detached sub-pattern's own
// candidates within the relevant ancestor's matched subtree, and calls
// tree.CommonAncestor to stitch each group's candidates back into a single
// node — the "outermost LCA" SPEC_FULL.md §4.7 describes.
//
// This is a diagnostic replay of a decision matchStrict has already made,
// not an alternate way of making it: matchStrict's direct recursion against
// LooseChildren/c.Subtree remains the mechanism FindMatch actually relies
// on. A pattern node that is itself someone else's detached child (a loose
// connection nested inside another one) has no independent root candidate
// set outside of the exact subtree matchStrict is already searching at that
// point in its recursion, so reassembling matches purely from Split's flat
// roots list is not well-defined in general; see DESIGN.md for the worked
// counterexample. Decompose therefore re-searches each detached sub-pattern
// scoped to the ancestor node matchStrict already bound, which keeps the
// stitched LCA meaningful without claiming Split's output alone decides
// matches.
func (d *Driver) Decompose(matched tree.Node) ([]GroupBinding, error) {
	_, groups := Split(d.pattern.Root)
	var out []GroupBinding
	for _, g := range groups {
		ancestorHits, err := d.findSubPattern(g.Ancestor, matched)
		if err != nil {
			return nil, err
		}
		for _, an := range ancestorHits {
			var kids []tree.Node
			for _, childPat := range g.Children {
				hits, err := d.findSubPattern(childPat, an)
				if err != nil {
					return nil, err
				}
				kids = append(kids, hits...)
			}
			if len(kids) == 0 {
				continue
			}
			lca := tree.CommonAncestor(kids...)
			out = append(out, GroupBinding{
				Ancestor:    an,
				Matched:     kids,
				LCA:         lca,
				IsOutermost: lca.ID() == an.ID(),
			})
		}
	}
	return out, nil
}

// findSubPattern searches scope's own rooted subtree for every node whose
// rooted subtree independently satisfies sub, using a throwaway local match
// matrix scoped to sub and scope (sub's own nested loose connections, if
// any, are handled by matchStrict exactly as they are everywhere else).
func (d *Driver) findSubPattern(sub *pattern.Node, scope tree.Node) ([]tree.Node, error) {
	lm, err := BuildLocalMatrix(&pattern.Pattern{Root: sub}, scope, d.cache, d.namer)
	if err != nil {
		return nil, err
	}
	var hits []tree.Node
	for _, cand := range lm.Candidates(sub) {
		if matchStrict(sub, cand, lm, d.cache) {
			hits = append(hits, cand)
		}
	}
	return hits, nil
}

func traversalIndex(root tree.Node, order tree.Order) map[uint32]int {
	idx := make(map[uint32]int)
	i := 0
	tree.Walk(root, order, func(n tree.Node) bool {
		idx[n.ID()] = i
		i++
		return true
	})
	return idx
}
