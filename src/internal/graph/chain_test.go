package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build creates a chain from "A->B,B->C" style edge lists.
func build(t *testing.T, edges string, terminals ...string) *Chain[string] {
	t.Helper()
	c := NewChain(terminals...)
	if edges == "" {
		return c
	}
	for _, edge := range strings.Split(edges, ",") {
		tokens := strings.SplitN(edge, "->", 2)
		require.Len(t, tokens, 2, "bad edge %q", edge)
		c.AddEdge(tokens[0], tokens[1])
	}
	return c
}

func TestChainWouldCycle(t *testing.T) {
	grid := []struct {
		Name  string
		Edges string
		From  string
		To    string
		Want  bool
	}{
		{Name: "self reference", From: "A", To: "A", Want: true},
		{Name: "empty graph", From: "A", To: "B", Want: false},
		{Name: "two hop", Edges: "B->A", From: "A", To: "B", Want: true},
		{Name: "three hop", Edges: "B->C,C->A", From: "A", To: "B", Want: true},
		{Name: "chain ends elsewhere", Edges: "B->C,C->D", From: "A", To: "B", Want: false},
		{Name: "chain ends on terminal", Edges: "B->direct-out", From: "A", To: "B", Want: false},
		{Name: "terminal target", Edges: "direct-out->A", From: "A", To: "direct-out", Want: false},
		{Name: "dangling reference", Edges: "B->ghost", From: "A", To: "B", Want: false},
		{Name: "existing unrelated cycle", Edges: "B->C,C->B", From: "A", To: "B", Want: true},
		{Name: "shared tag second edge loops", Edges: "B->C,B->A", From: "A", To: "B", Want: true},
		{Name: "diamond without loop", Edges: "B->C,B->D,C->E,D->E", From: "A", To: "B", Want: false},
	}

	for _, g := range grid {
		t.Run(g.Name, func(t *testing.T) {
			c := build(t, g.Edges, "direct-out", "block-out")
			assert.Equal(t, g.Want, c.WouldCycle(g.From, g.To))
		})
	}
}

func TestChainWouldCycle_EditOrderIndependent(t *testing.T) {
	// A -> B committed; proposing B -> A must be refused.
	c := build(t, "A->B")
	assert.True(t, c.WouldCycle("B", "A"))

	// B -> A committed; proposing A -> B must be refused.
	c = build(t, "B->A")
	assert.True(t, c.WouldCycle("A", "B"))
}

func TestChainWalk(t *testing.T) {
	c := build(t, "A->B,B->C,C->direct-out", "direct-out")

	path, err := c.Walk("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "direct-out"}, path)

	terminal, err := c.ReachableTerminal("A")
	require.NoError(t, err)
	assert.Equal(t, "direct-out", terminal)

	terminal, err = c.ReachableTerminal("Z")
	require.NoError(t, err)
	assert.Equal(t, "Z", terminal)
}

func TestChainWalk_Cycle(t *testing.T) {
	c := build(t, "A->B,B->C,C->B")

	_, err := c.Walk("A")
	require.Error(t, err)

	cycleErr := AsCycleError[string](err)
	require.NotNil(t, cycleErr)
	assert.Equal(t, []string{"B", "C", "B"}, cycleErr.Cycle)
	assert.Contains(t, err.Error(), "B -> C -> B")

	_, err = c.ReachableTerminal("A")
	assert.NotNil(t, AsCycleError[string](err))
}

func TestChainVertices(t *testing.T) {
	c := NewChain[string]()
	c.AddVertex("A")
	c.AddVertex("A")
	c.AddEdge("B", "A")

	assert.Equal(t, []string{"A", "B"}, c.Vertices)
	assert.Equal(t, []string{"A"}, c.Edges("B"))
	assert.Empty(t, c.Edges("A"))
}

func TestAsCycleError_Nil(t *testing.T) {
	assert.Nil(t, AsCycleError[string](nil))
}
