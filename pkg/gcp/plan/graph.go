// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/orbital-telemetry/groundctl/pkg/gcp/resources"
)

// ErrDuplicateResource is an error, which is returned when two declared
// resources share the same kind/name identifier.
var ErrDuplicateResource = errors.New("duplicate resource")

// ErrUnknownDependency is an error, which is returned when a resource depends
// on an identifier, which is not part of the declarations.
var ErrUnknownDependency = errors.New("unknown dependency")

// ErrDependencyCycle is an error, which is returned when the declared
// dependencies do not form a DAG.
var ErrDependencyCycle = errors.New("dependency cycle")

// Graph is the dependency graph of the declared resources.
type Graph struct {
	// nodes indexes the resources by their kind/name identifier.
	nodes map[string]resources.Resource

	// order records the declaration order of the identifiers. Ties during
	// the topological sort are broken in declaration order, so that plans
	// are deterministic.
	order []string

	// dependents maps an identifier to the identifiers, which depend on
	// it.
	dependents map[string][]string

	// indegree holds the number of declared dependencies per identifier.
	indegree map[string]int
}

// NewGraph builds the dependency graph of the given resources. It returns an
// error when an identifier is declared twice or a dependency refers to an
// unknown identifier.
func NewGraph(items []resources.Resource) (*Graph, error) {
	g := &Graph{
		nodes:      make(map[string]resources.Resource, len(items)),
		order:      make([]string, 0, len(items)),
		dependents: make(map[string][]string),
		indegree:   make(map[string]int, len(items)),
	}

	for _, item := range items {
		id := resources.ID(item)
		if _, ok := g.nodes[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateResource, id)
		}
		g.nodes[id] = item
		g.order = append(g.order, id)
		g.indegree[id] = 0
	}

	for _, item := range items {
		id := resources.ID(item)
		for _, dep := range item.DependsOn() {
			if _, ok := g.nodes[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, id, dep)
			}
			g.dependents[dep] = append(g.dependents[dep], id)
			g.indegree[id]++
		}
	}

	return g, nil
}

// Sort returns the resources in topological order, dependencies first. The
// order is deterministic, ties are broken in declaration order.
func (g *Graph) Sort() ([]resources.Resource, error) {
	indegree := make(map[string]int, len(g.indegree))
	for id, deg := range g.indegree {
		indegree[id] = deg
	}

	sorted := make([]resources.Resource, 0, len(g.order))
	seen := make(map[string]bool, len(g.order))

	for len(sorted) < len(g.order) {
		progressed := false
		for _, id := range g.order {
			if seen[id] || indegree[id] > 0 {
				continue
			}
			seen[id] = true
			progressed = true
			sorted = append(sorted, g.nodes[id])
			for _, dependent := range g.dependents[id] {
				indegree[dependent]--
			}
		}

		if !progressed {
			return nil, fmt.Errorf("%w involving %s", ErrDependencyCycle, strings.Join(g.remaining(seen), ", "))
		}
	}

	return sorted, nil
}

// ReverseSort returns the resources in reverse topological order, dependents
// first. This is the teardown order.
func (g *Graph) ReverseSort() ([]resources.Resource, error) {
	sorted, err := g.Sort()
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}

	return sorted, nil
}

// remaining returns the identifiers, which were not reached by the
// topological sort, in lexicographic order.
func (g *Graph) remaining(seen map[string]bool) []string {
	var left []string
	for _, id := range g.order {
		if !seen[id] {
			left = append(left, id)
		}
	}
	sort.Strings(left)

	return left
}
