package workflow

import (
	"fmt"

	"github.com/firstpixel/agent-workflow/types"
)

// Graph is the registry of nodes plus directed edges forming the workflow
// topology. Successor lists keep insertion order; fan-out dispatch follows
// that order for determinism.
type Graph struct {
	nodes map[string]*Node
	edges map[string][]string
	// order records node registration order, used to give edge and
	// predecessor enumeration a stable order.
	order []string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string][]string),
	}
}

// AddNode registers a node. Names must be unique.
func (g *Graph) AddNode(node *Node) error {
	if node == nil || node.Name == "" {
		return types.NewError(types.ErrInvalidNode, "node must have a name")
	}
	if _, exists := g.nodes[node.Name]; exists {
		return types.NewError(types.ErrDuplicateNode,
			fmt.Sprintf("node already registered: %s", node.Name)).
			WithNode(node.Name)
	}
	g.nodes[node.Name] = node
	g.order = append(g.order, node.Name)
	return nil
}

// AddEdge declares a directed edge from one node to another. Referenced
// nodes are checked during Validate so edges may be declared before their
// endpoints.
func (g *Graph) AddEdge(from, to string) {
	g.edges[from] = append(g.edges[from], to)
}

// Node retrieves a node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	node, exists := g.nodes[name]
	return node, exists
}

// Successors returns the declared successor list for a node.
func (g *Graph) Successors(name string) []string {
	return g.edges[name]
}

// Predecessors returns the nodes with an edge into name, in declaration
// order.
func (g *Graph) Predecessors(name string) []string {
	var preds []string
	for _, from := range g.order {
		for _, to := range g.edges[from] {
			if to == name {
				preds = append(preds, from)
			}
		}
	}
	return preds
}

// Nodes returns the node names in registration order.
func (g *Graph) Nodes() []string {
	names := make([]string, len(g.order))
	copy(names, g.order)
	return names
}

// inDegree counts incoming edges per node.
func (g *Graph) inDegree() map[string]int {
	degree := make(map[string]int, len(g.nodes))
	for _, from := range g.order {
		for _, to := range g.edges[from] {
			degree[to]++
		}
	}
	return degree
}

// Validate checks the graph invariants before any run starts: every edge
// references a registered node, the edge relation is acyclic, and no
// node's join arity exceeds its in-degree.
func (g *Graph) Validate() error {
	if len(g.nodes) == 0 {
		return types.NewError(types.ErrInvalidNode, "graph has no nodes")
	}

	for from, tos := range g.edges {
		if _, exists := g.nodes[from]; !exists {
			return types.NewError(types.ErrUnknownNode,
				fmt.Sprintf("edge references unregistered source node: %s", from)).
				WithNode(from)
		}
		for _, to := range tos {
			if _, exists := g.nodes[to]; !exists {
				return types.NewError(types.ErrUnknownNode,
					fmt.Sprintf("edge references unregistered target node: %s", to)).
					WithNode(to)
			}
		}
	}

	for _, name := range g.order {
		node := g.nodes[name]
		if node.RetryLimit < 0 {
			return types.NewError(types.ErrInvalidNode,
				fmt.Sprintf("node %s has negative retry limit", name)).
				WithNode(name)
		}
	}

	if err := g.detectCycles(); err != nil {
		return err
	}
	return g.checkJoinArity()
}

// detectCycles runs DFS over the edge relation; a back edge means the
// join-readiness of some node is undecidable.
func (g *Graph) detectCycles() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, name := range g.order {
		if !visited[name] {
			if cycleNode := g.hasCycleDFS(name, visited, recStack); cycleNode != "" {
				return types.NewError(types.ErrCyclicGraph,
					fmt.Sprintf("cycle detected involving node: %s", cycleNode)).
					WithNode(cycleNode)
			}
		}
	}
	return nil
}

func (g *Graph) hasCycleDFS(name string, visited, recStack map[string]bool) string {
	visited[name] = true
	recStack[name] = true

	for _, next := range g.edges[name] {
		if !visited[next] {
			if cycleNode := g.hasCycleDFS(next, visited, recStack); cycleNode != "" {
				return cycleNode
			}
		} else if recStack[next] {
			return next
		}
	}

	recStack[name] = false
	return ""
}

// checkJoinArity rejects nodes whose ExpectedInputs exceeds their
// in-degree: such a node could never fire. A node with no incoming edges
// can only be a start node, where the seed satisfies an arity of one.
func (g *Graph) checkJoinArity() error {
	degree := g.inDegree()
	for _, name := range g.order {
		node := g.nodes[name]
		expected := node.expectedInputs()
		in := degree[name]
		if in == 0 {
			if expected > 1 {
				return types.NewError(types.ErrOverJoinArity,
					fmt.Sprintf("node %s expects %d inputs but has no predecessors", name, expected)).
					WithNode(name)
			}
			continue
		}
		if expected > in {
			return types.NewError(types.ErrOverJoinArity,
				fmt.Sprintf("node %s expects %d inputs but has in-degree %d", name, expected, in)).
				WithNode(name)
		}
	}
	return nil
}

// reachableFrom returns the set of nodes reachable from start, start
// included.
func (g *Graph) reachableFrom(start string) map[string]bool {
	reachable := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		if reachable[name] {
			return
		}
		reachable[name] = true
		for _, next := range g.edges[name] {
			mark(next)
		}
	}
	mark(start)
	return reachable
}
