// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// AcyclicGraph is a Graph whose edges are expected to form no cycles.
// The expectation is checked by Validate, not enforced on Connect, so
// callers can build the graph freely and validate once.
type AcyclicGraph struct {
	Graph
}

// Validate checks that the graph contains no cycles and no self
// references, returning an error describing every offending group.
func (g *AcyclicGraph) Validate() error {
	var err *multierror.Error

	for _, cycle := range g.Cycles() {
		cycleStr := make([]string, len(cycle))
		for i, v := range cycle {
			cycleStr[i] = VertexName(v)
		}
		sort.Strings(cycleStr)
		err = multierror.Append(err, fmt.Errorf(
			"cycle: %s", strings.Join(cycleStr, ", ")))
	}

	for _, v := range g.Vertices() {
		if g.HasEdge(v, v) {
			err = multierror.Append(err, fmt.Errorf(
				"self reference: %s", VertexName(v)))
		}
	}

	return err.ErrorOrNil()
}

// Cycles returns the vertex groups that participate in cycles, as the
// strongly connected components with more than one member.
func (g *AcyclicGraph) Cycles() [][]Vertex {
	var cycles [][]Vertex
	for _, cycle := range g.stronglyConnected() {
		if len(cycle) > 1 {
			cycles = append(cycles, cycle)
		}
	}
	return cycles
}

// TopologicalOrder returns the vertices ordered so that every vertex
// comes after all vertices it has edges pointing to (its dependencies
// first). The graph must be acyclic.
func (g *AcyclicGraph) TopologicalOrder() ([]Vertex, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	var order []Vertex
	visited := make(Set)

	var visit func(v Vertex)
	visit = func(v Vertex) {
		if visited.Include(v) {
			return
		}
		visited.Add(v)
		for _, dep := range sortedByName(g.DownVertices(v).List()) {
			visit(dep)
		}
		order = append(order, v)
	}

	for _, v := range sortedByName(g.Vertices()) {
		visit(v)
	}
	return order, nil
}

// stronglyConnected implements Tarjan's algorithm iterating vertices in
// insertion order for determinism.
func (g *AcyclicGraph) stronglyConnected() [][]Vertex {
	index := 0
	indices := make(map[Vertex]int)
	lowlink := make(map[Vertex]int)
	onStack := make(Set)
	var stack []Vertex
	var output [][]Vertex

	var strongconnect func(v Vertex)
	strongconnect = func(v Vertex) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack.Add(v)

		for w := range g.DownVertices(v) {
			if _, ok := indices[w]; !ok {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack.Include(w) {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []Vertex
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack.Delete(w)
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			output = append(output, scc)
		}
	}

	for _, v := range g.Vertices() {
		if _, ok := indices[v]; !ok {
			strongconnect(v)
		}
	}
	return output
}

func sortedByName(vs []Vertex) []Vertex {
	sorted := make([]Vertex, len(vs))
	copy(sorted, vs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return VertexName(sorted[i]) < VertexName(sorted[j])
	})
	return sorted
}
