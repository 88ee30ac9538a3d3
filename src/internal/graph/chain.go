// Package graph implements the reference graph used to keep outbound and
// address resolver chains acyclic.
//
// A Chain maps an identity (an outbound or resolver tag) to the identities it
// references. In a well-formed configuration every identity has at most one
// outgoing reference; several records sharing the same tag each contribute an
// edge and all of them are followed. Terminals (built-in targets) end every
// walk and never take part in a cycle.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// CycleError is returned when a walk revisits an identity or runs past the
// size of the graph.
type CycleError[T comparable] struct {
	Cycle []T
}

func (e *CycleError[T]) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, v := range e.Cycle {
		parts[i] = fmt.Sprint(v)
	}
	return "graph contains a cycle: " + strings.Join(parts, " -> ")
}

// AsCycleError returns the *CycleError wrapped in err, or nil.
func AsCycleError[T comparable](err error) *CycleError[T] {
	var cycleErr *CycleError[T]
	if errors.As(err, &cycleErr) {
		return cycleErr
	}
	return nil
}

// Chain is a directed reference graph over identities of type T.
type Chain[T comparable] struct {
	// Vertices holds the identities in insertion order.
	Vertices []T

	edges     map[T][]T
	terminals map[T]struct{}
}

// NewChain returns an empty chain. Identities listed in terminals are treated
// as built-in targets.
func NewChain[T comparable](terminals ...T) *Chain[T] {
	c := &Chain[T]{
		edges:     make(map[T][]T),
		terminals: make(map[T]struct{}, len(terminals)),
	}
	for _, t := range terminals {
		c.terminals[t] = struct{}{}
	}
	return c
}

// IsTerminal reports whether id is a built-in target.
func (c *Chain[T]) IsTerminal(id T) bool {
	_, ok := c.terminals[id]
	return ok
}

// AddVertex registers id. Adding an existing identity is a no-op.
func (c *Chain[T]) AddVertex(id T) {
	if _, ok := c.edges[id]; ok {
		return
	}
	c.edges[id] = nil
	c.Vertices = append(c.Vertices, id)
}

// AddEdge records that from references to.
func (c *Chain[T]) AddEdge(from, to T) {
	c.AddVertex(from)
	c.edges[from] = append(c.edges[from], to)
}

// Edges returns the outgoing references of id.
func (c *Chain[T]) Edges(id T) []T {
	return c.edges[id]
}

// bound is the maximum number of steps any walk can take in a well-formed
// graph: every vertex and every edge visited once.
func (c *Chain[T]) bound() int {
	n := len(c.Vertices) + 1
	for _, out := range c.edges {
		n += len(out)
	}
	return n
}

// WouldCycle reports whether adding the edge from -> to would close a cycle:
// to is from itself, or walking the references starting at to reaches from.
// A walk that runs into an already existing cycle, or past the size of the
// graph, also reports true.
func (c *Chain[T]) WouldCycle(from, to T) bool {
	if to == from {
		return true
	}
	if c.IsTerminal(to) || c.IsTerminal(from) {
		return false
	}

	steps := 0
	limit := c.bound()
	onPath := make(map[T]bool)
	done := make(map[T]bool)

	var visit func(id T) bool
	visit = func(id T) bool {
		steps++
		if steps > limit {
			return true
		}
		if id == from || onPath[id] {
			return true
		}
		if done[id] {
			return false
		}
		onPath[id] = true
		for _, next := range c.edges[id] {
			if visit(next) {
				return true
			}
		}
		onPath[id] = false
		done[id] = true
		return false
	}

	return visit(to)
}

// Walk follows the first outgoing reference from id until a vertex without
// references or a terminal is reached. It returns the visited path, starting
// with id. A revisited identity yields a *CycleError carrying the loop.
func (c *Chain[T]) Walk(id T) ([]T, error) {
	path := []T{id}
	seen := map[T]int{id: 0}
	limit := c.bound()

	current := id
	for len(path) <= limit {
		if c.IsTerminal(current) {
			return path, nil
		}
		out := c.edges[current]
		if len(out) == 0 {
			return path, nil
		}
		current = out[0]
		if i, ok := seen[current]; ok {
			return path, &CycleError[T]{Cycle: append(append([]T{}, path[i:]...), current)}
		}
		seen[current] = len(path)
		path = append(path, current)
	}

	return path, &CycleError[T]{Cycle: path}
}

// ReachableTerminal returns the identity a chain starting at id ends on.
func (c *Chain[T]) ReachableTerminal(id T) (T, error) {
	path, err := c.Walk(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return path[len(path)-1], nil
}
