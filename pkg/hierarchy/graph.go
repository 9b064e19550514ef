// Package hierarchy provides inheritance ordering for declared resource types.
//
// Features:
//  1. Topological sort so parents are built before children
//  2. Cycle detection
//  3. Transitive ancestor listing
package hierarchy

import (
	"errors"
	"fmt"
	"sort"
)

// Errors.
var (
	ErrCyclicInheritance = errors.New("cyclic inheritance detected")
	ErrUnknownParent     = errors.New("unknown parent type")
	ErrSelfInheritance   = errors.New("type inherits from itself")
	ErrDuplicateType     = errors.New("type declared twice")
	ErrTypeNotFound      = errors.New("type not found")
)

// Graph is an inheritance graph keyed by type name.
type Graph struct {
	parents  map[string][]string // adjacency list (inherits from)
	children map[string][]string // reverse edges (inherited by)
	external map[string]bool     // names resolvable outside the graph
}

// NewGraph creates an empty graph. External names are accepted as parents
// without being declared, which is how roots are referenced.
func NewGraph(external ...string) *Graph {
	g := &Graph{
		parents:  make(map[string][]string),
		children: make(map[string][]string),
		external: make(map[string]bool),
	}
	for _, name := range external {
		g.external[name] = true
	}
	return g
}

// AddType adds a type with its direct parents.
func (g *Graph) AddType(name string, parents ...string) error {
	for _, p := range parents {
		if p == name {
			return fmt.Errorf("%w: %s", ErrSelfInheritance, name)
		}
	}
	if _, exists := g.parents[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, name)
	}

	g.parents[name] = append([]string(nil), parents...)
	for _, p := range parents {
		g.children[p] = append(g.children[p], name)
	}

	return nil
}

// Validate checks for unknown parents and cycles.
func (g *Graph) Validate() error {
	if err := g.validateParentsExist(); err != nil {
		return err
	}
	return g.detectCycles()
}

// validateParentsExist checks that all parents reference known types.
func (g *Graph) validateParentsExist() error {
	for _, name := range g.names() {
		for _, p := range g.parents[name] {
			if _, declared := g.parents[p]; !declared && !g.external[p] {
				return fmt.Errorf("%w: %s inherits from %s", ErrUnknownParent, name, p)
			}
		}
	}
	return nil
}

// detectCycles uses DFS to find circular inheritance.
func (g *Graph) detectCycles() error {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)

	for _, name := range g.names() {
		if cyclePath := g.dfsDetectCycle(name, visited, inStack); cyclePath != nil {
			return fmt.Errorf("%w: %v", ErrCyclicInheritance, cyclePath)
		}
	}
	return nil
}

// dfsDetectCycle returns the cycle path reachable from name, or nil.
func (g *Graph) dfsDetectCycle(name string, visited, inStack map[string]bool) []string {
	if visited[name] {
		return nil
	}

	visited[name] = true
	inStack[name] = true

	for _, p := range g.parents[name] {
		if inStack[p] {
			return []string{name, p}
		}
		if cyclePath := g.dfsDetectCycle(p, visited, inStack); cyclePath != nil {
			return append([]string{name}, cyclePath...)
		}
	}

	inStack[name] = false
	return nil
}

// TopologicalSort returns declared types with parents listed before children.
// Ties are broken by name.
func (g *Graph) TopologicalSort() ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	var result []string
	visited := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true

		for _, p := range g.parents[name] {
			if _, declared := g.parents[p]; declared {
				visit(p)
			}
		}

		result = append(result, name)
	}

	for _, name := range g.names() {
		visit(name)
	}

	return result, nil
}

// Parents returns the direct parents of a type.
func (g *Graph) Parents(name string) ([]string, error) {
	parents, exists := g.parents[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, name)
	}
	return append([]string(nil), parents...), nil
}

// Children returns the types inheriting directly from name.
func (g *Graph) Children(name string) []string {
	return append([]string(nil), g.children[name]...)
}

// Ancestors returns all transitive parents of a type, nearest first,
// including external names.
func (g *Graph) Ancestors(name string) ([]string, error) {
	if _, exists := g.parents[name]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, name)
	}

	var result []string
	visited := make(map[string]bool)

	var collect func(n string)
	collect = func(n string) {
		for _, p := range g.parents[n] {
			if !visited[p] {
				visited[p] = true
				result = append(result, p)
				collect(p)
			}
		}
	}

	collect(name)
	return result, nil
}

// Size returns the number of declared types.
func (g *Graph) Size() int {
	return len(g.parents)
}

func (g *Graph) names() []string {
	names := make([]string, 0, len(g.parents))
	for name := range g.parents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
