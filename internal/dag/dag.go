// SPDX-License-Identifier: MPL-2.0

// Package dag orders front-end modules by their declared dependencies.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is matched by every *CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError reports the nodes left unordered because they sit on, or
	// depend on, a cycle.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph keyed by node name. An edge from A to B means
	// A must come before B.
	Graph struct {
		index     map[string]int
		nodes     []string
		adjacency [][]int
		edges     map[[2]int]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Is reports whether target is ErrCycle.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[[2]int]bool),
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// AddNode adds name if it is not present yet and returns its insertion index.
func (g *Graph) AddNode(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[name] = i
	g.nodes = append(g.nodes, name)
	g.adjacency = append(g.adjacency, nil)
	return i
}

// AddEdge records that from must come before to. Missing nodes are added and
// repeated edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	f, t := g.AddNode(from), g.AddNode(to)
	key := [2]int{f, t}
	if g.edges[key] {
		return
	}
	g.edges[key] = true
	g.adjacency[f] = append(g.adjacency[f], t)
}

// TopologicalSort returns every node with each one after its predecessors.
// Among nodes that are ready at the same time, the one added first wins, so
// the result is stable for a given insertion order.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make([]int, len(g.nodes))
	for _, targets := range g.adjacency {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	// ready is kept sorted by insertion index.
	var ready []int
	for i, d := range inDegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		result = append(result, g.nodes[n])

		for _, t := range g.adjacency[n] {
			inDegree[t]--
			if inDegree[t] == 0 {
				pos, _ := slices.BinarySearch(ready, t)
				ready = slices.Insert(ready, pos, t)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycle []string
		for i, d := range inDegree {
			if d > 0 {
				cycle = append(cycle, g.nodes[i])
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}
	return result, nil
}
