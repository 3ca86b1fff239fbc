// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

// Package dag implements a directed acyclic graph over opaque vertices,
// supporting cycle detection, topological ordering and dot output. It
// is the substrate for container dependency resolution in the slot
// engine.
package dag

import (
	"fmt"
	"sort"
	"strings"
)

// Vertex is any value. All vertices are compared by the identity of the
// value given, so pointer types are the typical choice.
type Vertex interface{}

// NamedVertex is an optional interface implemented by vertices that
// can provide a display name for dot output and error messages.
type NamedVertex interface {
	Name() string
}

// Edge is a directed edge from a source vertex to a target vertex.
type Edge interface {
	Source() Vertex
	Target() Vertex
}

// BasicEdge returns an Edge between the two given vertices.
func BasicEdge(source, target Vertex) Edge {
	return &basicEdge{S: source, T: target}
}

type basicEdge struct {
	S, T Vertex
}

func (e *basicEdge) Source() Vertex { return e.S }
func (e *basicEdge) Target() Vertex { return e.T }

// Graph is a directed graph of vertices. The zero value is an empty
// usable graph.
type Graph struct {
	vertices  Set
	downEdges map[Vertex]Set // by source
	upEdges   map[Vertex]Set // by target
	order     []Vertex       // insertion order, for deterministic output
}

func (g *Graph) init() {
	if g.vertices == nil {
		g.vertices = make(Set)
	}
	if g.downEdges == nil {
		g.downEdges = make(map[Vertex]Set)
	}
	if g.upEdges == nil {
		g.upEdges = make(map[Vertex]Set)
	}
}

// Add adds a vertex to the graph. Adding the same vertex twice is a
// no-op. It returns the vertex for convenience.
func (g *Graph) Add(v Vertex) Vertex {
	g.init()
	if !g.vertices.Include(v) {
		g.vertices.Add(v)
		g.order = append(g.order, v)
	}
	return v
}

// Remove removes a vertex and all edges touching it.
func (g *Graph) Remove(v Vertex) {
	g.init()
	delete(g.vertices, v)
	for i, o := range g.order {
		if o == v {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	for t := range g.downEdges[v] {
		g.upEdges[t].Delete(v)
	}
	for s := range g.upEdges[v] {
		g.downEdges[s].Delete(v)
	}
	delete(g.downEdges, v)
	delete(g.upEdges, v)
}

// HasVertex returns true if the given vertex is in the graph.
func (g *Graph) HasVertex(v Vertex) bool {
	g.init()
	return g.vertices.Include(v)
}

// Vertices returns the vertices in a stable (insertion) order.
func (g *Graph) Vertices() []Vertex {
	g.init()
	out := make([]Vertex, len(g.order))
	copy(out, g.order)
	return out
}

// Connect adds the given edge, adding its vertices as needed. Adding
// the same edge twice is a no-op.
func (g *Graph) Connect(e Edge) {
	g.init()
	s, t := e.Source(), e.Target()
	g.Add(s)
	g.Add(t)
	if g.downEdges[s] == nil {
		g.downEdges[s] = make(Set)
	}
	if g.upEdges[t] == nil {
		g.upEdges[t] = make(Set)
	}
	g.downEdges[s].Add(t)
	g.upEdges[t].Add(s)
}

// HasEdge returns true if the given directed edge exists.
func (g *Graph) HasEdge(source, target Vertex) bool {
	g.init()
	return g.downEdges[source].Include(target)
}

// DownVertices returns the set of vertices that the given vertex has
// edges pointing to (its dependencies).
func (g *Graph) DownVertices(v Vertex) Set {
	g.init()
	return g.downEdges[v]
}

// UpVertices returns the set of vertices with edges pointing at the
// given vertex (its dependents).
func (g *Graph) UpVertices(v Vertex) Set {
	g.init()
	return g.upEdges[v]
}

// VertexName returns the best display name for a vertex.
func VertexName(v Vertex) string {
	switch vt := v.(type) {
	case NamedVertex:
		return vt.Name()
	case fmt.Stringer:
		return vt.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Dot returns a dot-format description of the graph, with vertices
// sorted by name so output is stable.
func (g *Graph) Dot() string {
	g.init()

	var buf strings.Builder
	buf.WriteString("digraph {\n")
	buf.WriteString("\tcompound = \"true\"\n")
	buf.WriteString("\tnewrank = \"true\"\n")

	names := make([]string, 0, len(g.order))
	byName := make(map[string]Vertex, len(g.order))
	for _, v := range g.order {
		n := VertexName(v)
		names = append(names, n)
		byName[n] = v
	}
	sort.Strings(names)

	for _, n := range names {
		fmt.Fprintf(&buf, "\t%q\n", n)
		v := byName[n]

		targets := make([]string, 0, len(g.downEdges[v]))
		for t := range g.downEdges[v] {
			targets = append(targets, VertexName(t))
		}
		sort.Strings(targets)
		for _, t := range targets {
			fmt.Fprintf(&buf, "\t%q -> %q\n", n, t)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}
