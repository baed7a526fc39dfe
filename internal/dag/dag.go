// Package dag provides the directed acyclic graph built from manifest
// dependency edges. It supports cycle detection, topological sorting,
// and downstream change propagation for state comparison.
package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlplan/internal/graph"
)

// Graph is a DAG of manifest resources keyed by unique_id. Edges run
// from dependency to dependent.
type Graph struct {
	nodes   map[string]graph.Resource
	edges   map[string][]string // dependency -> dependents
	parents map[string][]string // dependent -> dependencies
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]graph.Resource),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// MissingNodeError reports an edge naming a node that was never added.
type MissingNodeError struct {
	UniqueID string
	Role     string
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("%s node %q does not exist", e.Role, e.UniqueID)
}

// SelfLoopError reports a resource depending on itself.
type SelfLoopError struct {
	UniqueID string
}

func (e *SelfLoopError) Error() string {
	return fmt.Sprintf("self-loop detected: %s", e.UniqueID)
}

// CycleError reports a dependency cycle, listing the ids along it.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("found a cycle: %s", strings.Join(e.Path, " --> "))
}

// AddResource adds a resource, replacing an earlier version with the
// same unique_id but keeping its edges.
func (g *Graph) AddResource(res graph.Resource) {
	id := res.Ident().UniqueID
	if _, exists := g.nodes[id]; !exists {
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	}
	g.nodes[id] = res
}

// AddEdge records that dependent depends on dependency. Duplicate
// edges are ignored; self-loops and edges to unknown nodes are errors.
func (g *Graph) AddEdge(dependencyID, dependentID string) error {
	if _, exists := g.nodes[dependencyID]; !exists {
		return &MissingNodeError{UniqueID: dependencyID, Role: "dependency"}
	}
	if _, exists := g.nodes[dependentID]; !exists {
		return &MissingNodeError{UniqueID: dependentID, Role: "dependent"}
	}
	if dependencyID == dependentID {
		return &SelfLoopError{UniqueID: dependencyID}
	}

	if !containsID(g.edges[dependencyID], dependentID) {
		g.edges[dependencyID] = append(g.edges[dependencyID], dependentID)
	}
	if !containsID(g.parents[dependentID], dependencyID) {
		g.parents[dependentID] = append(g.parents[dependentID], dependencyID)
	}
	return nil
}

// Resource returns the resource stored under id.
func (g *Graph) Resource(id string) (graph.Resource, bool) {
	res, exists := g.nodes[id]
	return res, exists
}

// Dependencies returns the ids this node depends on.
func (g *Graph) Dependencies(id string) []string { return g.parents[id] }

// Dependents returns the ids that depend on this node.
func (g *Graph) Dependents(id string) []string { return g.edges[id] }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, dependents := range g.edges {
		count += len(dependents)
	}
	return count
}

// NodeIDs returns every node id in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasCycle reports whether the graph contains a cycle, returning the
// ids along the first cycle found.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, dependentID := range g.edges[id] {
			if !visited[dependentID] {
				cameFrom[dependentID] = id
				if dfs(dependentID) {
					return true
				}
			} else if onStack[dependentID] {
				cyclePath = []string{dependentID}
				for curr := id; curr != dependentID; curr = cameFrom[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{dependentID}, cyclePath...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, id := range g.NodeIDs() {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

// TopologicalSort returns resources with dependencies before
// dependents, deterministically. Returns a CycleError if the graph is
// not acyclic.
func (g *Graph) TopologicalSort() ([]graph.Resource, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &CycleError{Path: cyclePath}
	}

	visited := make(map[string]bool)
	result := make([]graph.Resource, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dependencyID := range g.parents[id] {
			visit(dependencyID)
		}
		result = append(result, g.nodes[id])
	}

	for _, id := range g.NodeIDs() {
		visit(id)
	}
	return result, nil
}

// AffectedBy returns the changed ids plus everything downstream of
// them, sorted. Ids not present in the graph are ignored.
func (g *Graph) AffectedBy(changedIDs []string) []string {
	affected := make(map[string]bool)

	var mark func(id string)
	mark = func(id string) {
		if affected[id] {
			return
		}
		affected[id] = true
		for _, dependentID := range g.edges[id] {
			mark(dependentID)
		}
	}

	for _, id := range changedIDs {
		if _, exists := g.nodes[id]; exists {
			mark(id)
		}
	}

	result := make([]string, 0, len(affected))
	for id := range affected {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// Upstream returns every transitive dependency of id, sorted.
func (g *Graph) Upstream(id string) []string {
	upstream := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, dependencyID := range g.parents[nodeID] {
			if !upstream[dependencyID] {
				upstream[dependencyID] = true
				mark(dependencyID)
			}
		}
	}
	mark(id)

	result := make([]string, 0, len(upstream))
	for nodeID := range upstream {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// Roots returns ids with no dependencies, sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Subgraph returns a new graph restricted to the given ids and the
// edges between them.
func (g *Graph) Subgraph(ids []string) *Graph {
	sub := NewGraph()
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
		if res, exists := g.nodes[id]; exists {
			sub.AddResource(res)
		}
	}
	for _, id := range ids {
		for _, dependentID := range g.edges[id] {
			if keep[dependentID] {
				_ = sub.AddEdge(id, dependentID)
			}
		}
	}
	return sub
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
