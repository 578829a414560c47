// Package graph builds the dependency DAG that drives task scheduling.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/loom/pkg/models"
)

// ErrCycleDetected indicates a circular dependency in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// DAG is a directed acyclic graph of subtasks. Edges point from a task to
// the tasks it depends on. A DAG is immutable once built: levels are
// computed exactly once and reads need no locking.
type DAG struct {
	nodes      map[string]*models.SubTask
	edges      map[string][]string
	dependents map[string][]string
	levels     [][]string
	order      []string
}

// Build constructs a DAG from subtasks. Explicit DependsOn entries are
// authoritative; additional edges are inferred from sequential language and
// artifact references in the prompts. Returns ErrCycleDetected (wrapped,
// naming the unresolved tasks) when the edges do not form a DAG.
func Build(tasks []*models.SubTask) (*DAG, error) {
	return build(tasks, true)
}

// BuildExplicit constructs a DAG from explicit DependsOn entries only.
// Used for taskfile batches, where the declared dependencies are the whole
// contract and prompt text must not grow surprise edges.
func BuildExplicit(tasks []*models.SubTask) (*DAG, error) {
	return build(tasks, false)
}

func build(tasks []*models.SubTask, infer bool) (*DAG, error) {
	g := &DAG{
		nodes:      make(map[string]*models.SubTask, len(tasks)),
		edges:      make(map[string][]string, len(tasks)),
		dependents: make(map[string][]string),
		order:      make([]string, 0, len(tasks)),
	}

	for _, task := range tasks {
		if _, exists := g.nodes[task.ID]; exists {
			return nil, fmt.Errorf("duplicate task id %s", task.ID)
		}
		g.nodes[task.ID] = task
		g.edges[task.ID] = nil
		g.order = append(g.order, task.ID)
	}

	for _, task := range tasks {
		for _, depID := range task.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return nil, fmt.Errorf("task %s depends on unknown task %s", task.ID, depID)
			}
			g.addEdge(depID, task.ID)
		}
	}

	if infer {
		inferEdges(tasks, g.addInferredEdge)
	}

	if err := g.computeLevels(); err != nil {
		return nil, err
	}
	return g, nil
}

// addEdge records that `to` depends on `from`. Duplicates are dropped;
// cyclic explicit edges are kept so the level computation reports them.
func (g *DAG) addEdge(from, to string) {
	for _, dep := range g.edges[to] {
		if dep == from {
			return
		}
	}
	g.edges[to] = append(g.edges[to], from)
	g.dependents[from] = append(g.dependents[from], to)
}

// addInferredEdge is addEdge for heuristic edges: self edges and edges
// contradicting an existing explicit or inferred edge are dropped, so
// inference alone never manufactures a two-node cycle.
func (g *DAG) addInferredEdge(from, to string) {
	if from == to {
		return
	}
	for _, dep := range g.edges[from] {
		if dep == to {
			return
		}
	}
	g.addEdge(from, to)
}

// computeLevels runs a wave-by-wave topological sort. Each wave holds the
// tasks whose dependencies are all in earlier waves; wave k becomes level
// k. Nodes left unvisited after the sort form a cycle.
func (g *DAG) computeLevels() error {
	indegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = len(g.edges[id])
	}

	placed := 0
	remaining := g.order
	for len(remaining) > 0 {
		var wave []string
		var rest []string
		for _, id := range remaining {
			if indegree[id] == 0 {
				wave = append(wave, id)
			} else {
				rest = append(rest, id)
			}
		}
		if len(wave) == 0 {
			break
		}
		g.levels = append(g.levels, wave)
		placed += len(wave)
		for _, id := range wave {
			for _, dep := range g.dependents[id] {
				indegree[dep]--
			}
		}
		remaining = rest
	}

	if placed != len(g.nodes) {
		var stuck []string
		for _, id := range g.order {
			if indegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return fmt.Errorf("%w: unresolved tasks %s", ErrCycleDetected, strings.Join(stuck, ", "))
	}
	return nil
}

// Levels returns task IDs grouped by execution level. Level 0 has no
// dependencies; every task's dependencies live in strictly earlier levels.
// The returned slices are shared; treat them as read-only.
func (g *DAG) Levels() [][]string {
	return g.levels
}

// Task returns the subtask for an ID, or nil when unknown.
func (g *DAG) Task(id string) *models.SubTask {
	return g.nodes[id]
}

// Tasks returns all subtasks in their original input order.
func (g *DAG) Tasks() []*models.SubTask {
	tasks := make([]*models.SubTask, 0, len(g.order))
	for _, id := range g.order {
		tasks = append(tasks, g.nodes[id])
	}
	return tasks
}

// Dependencies returns the IDs a task depends on.
func (g *DAG) Dependencies(id string) []string {
	return g.edges[id]
}

// Dependents returns the IDs that depend on a task, directly.
func (g *DAG) Dependents(id string) []string {
	return g.dependents[id]
}

// Size returns the number of tasks in the graph.
func (g *DAG) Size() int {
	return len(g.nodes)
}
