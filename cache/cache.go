// Package cache precomputes, per target-node, the descendant and leaf sets
// needed by the constraint evaluator's aggregate attributes (species,
// leaves, descendant counts). See treematcher's SPEC_FULL.md §4.1.
package cache

import (
	"sync"

	"github.com/emirpasic/gods/sets/hashset"

	"github.com/arbormatch/treematcher/tree"
)

// Interface is satisfied by both the precomputed Cache and the no-cache
// Emulated implementation, so callers can swap one for the other without
// touching the rest of the pipeline.
type Interface interface {
	Leaves(n tree.Node) []tree.Node
	Subtree(n tree.Node) []tree.Node
	LeafNames(n tree.Node) []string
	Species(n tree.Node) []string
	ContainsSpecies(n tree.Node, species string) bool
	ContainsLeaf(n tree.Node, leafName string) bool
	NSpecies(n tree.Node) int
	NLeaves(n tree.Node) int
	NDuplications(n tree.Node) int
	NSpeciations(n tree.Node) int
}

// Cache is a precomputed attribute cache built in a single post-order pass
// over an immutable target tree. It is safe for concurrent reads.
type Cache struct {
	leaves  map[uint32]*hashset.Set
	subtree map[uint32]*hashset.Set
	resolve map[uint32]tree.Node
	memo    sync.Map
}

// Build walks root once and populates the leaves/subtree sets for every
// node. The returned Cache is only valid as long as root's structure does
// not change.
func Build(root tree.Node) *Cache {
	c := &Cache{
		leaves:  make(map[uint32]*hashset.Set),
		subtree: make(map[uint32]*hashset.Set),
	}
	tree.Walk(root, tree.PostOrder, func(n tree.Node) bool {
		sub := hashset.New()
		sub.Add(n.ID())
		lv := hashset.New()
		if n.IsLeaf() {
			lv.Add(n.ID())
		}
		for _, ch := range n.Children() {
			for _, v := range c.subtree[ch.ID()].Values() {
				sub.Add(v)
			}
			for _, v := range c.leaves[ch.ID()].Values() {
				lv.Add(v)
			}
		}
		c.subtree[n.ID()] = sub
		c.leaves[n.ID()] = lv
		return true
	})
	// index nodes by ID for resolving sets back to tree.Node
	byID := make(map[uint32]tree.Node)
	tree.Walk(root, tree.PreOrder, func(n tree.Node) bool {
		byID[n.ID()] = n
		return true
	})
	c.resolve = byID
	return c
}

func (c *Cache) Leaves(n tree.Node) []tree.Node  { return c.resolveSet(c.leaves[n.ID()]) }
func (c *Cache) Subtree(n tree.Node) []tree.Node { return c.resolveSet(c.subtree[n.ID()]) }

func (c *Cache) resolveSet(s *hashset.Set) []tree.Node {
	if s == nil {
		return nil
	}
	out := make([]tree.Node, 0, s.Size())
	for _, v := range s.Values() {
		out = append(out, c.resolve[v.(uint32)])
	}
	return out
}

func (c *Cache) LeafNames(n tree.Node) []string {
	return memoize(c, "leafnames", n.ID(), func() interface{} {
		var names []string
		for _, l := range c.Leaves(n) {
			names = append(names, l.Name())
		}
		return names
	}).([]string)
}

func (c *Cache) Species(n tree.Node) []string {
	return memoize(c, "species", n.ID(), func() interface{} {
		seen := map[string]bool{}
		var out []string
		for _, l := range c.Leaves(n) {
			sp := l.Species()
			if sp == "" || seen[sp] {
				continue
			}
			seen[sp] = true
			out = append(out, sp)
		}
		return out
	}).([]string)
}

func (c *Cache) ContainsSpecies(n tree.Node, species string) bool {
	for _, s := range c.Species(n) {
		if s == species {
			return true
		}
	}
	return false
}

func (c *Cache) ContainsLeaf(n tree.Node, leafName string) bool {
	for _, name := range c.LeafNames(n) {
		if name == leafName {
			return true
		}
	}
	return false
}

func (c *Cache) NSpecies(n tree.Node) int { return len(c.Species(n)) }
func (c *Cache) NLeaves(n tree.Node) int  { return c.leaves[n.ID()].Size() }

func (c *Cache) NDuplications(n tree.Node) int { return c.countEvolType(n, tree.Duplication) }
func (c *Cache) NSpeciations(n tree.Node) int  { return c.countEvolType(n, tree.Speciation) }

func (c *Cache) countEvolType(n tree.Node, et tree.EvolType) int {
	key := "evol"
	if et == tree.Duplication {
		key = "dup"
	} else if et == tree.Speciation {
		key = "spec"
	}
	return memoize(c, key, n.ID(), func() interface{} {
		count := 0
		for _, d := range c.Subtree(n) {
			if d.EvolType() == et {
				count++
			}
		}
		return count
	}).(int)
}

type memoKey struct {
	attr string
	id   uint32
}

func memoize(c *Cache, attr string, id uint32, compute func() interface{}) interface{} {
	key := memoKey{attr, id}
	if v, ok := c.memo.Load(key); ok {
		return v
	}
	v := compute()
	actual, _ := c.memo.LoadOrStore(key, v)
	return actual
}
