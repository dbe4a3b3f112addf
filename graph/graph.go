package graph

import (
	"context"
	"errors"
	"fmt"
)

// NodeType represents the type of a node in the graph
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeEnd       NodeType = "end"
	NodeTypeStep      NodeType = "step"
	NodeTypeCondition NodeType = "condition"
)

// ErrMaxVisits is returned when a node is entered more often than the graph allows.
var ErrMaxVisits = errors.New("graph: node visit budget exceeded")

// State represents the execution state passed between nodes
type State map[string]any

// NodeFunc is the function executed by a node
type NodeFunc func(context.Context, State) (State, error)

// ConditionFunc evaluates a condition and returns the branch label to follow
type ConditionFunc func(context.Context, State) (string, error)

// VisitFunc observes every node entry.
type VisitFunc func(ctx context.Context, node string, visit int)

// Node represents a node in the execution graph. Execution is strictly
// sequential: a step node has exactly one successor, a condition node picks
// one successor per evaluation.
type Node struct {
	Name      string
	Type      NodeType
	Execute   NodeFunc
	Condition ConditionFunc     // Only for condition nodes
	Next      string            // Successor for start and step nodes
	Branches  map[string]string // For condition nodes: label -> next node
}

// Graph represents an execution flow graph
type Graph struct {
	nodes     map[string]*Node
	startNode string
	endNode   string
	maxVisits int
	onVisit   VisitFunc
}

// NewGraph creates a new graph
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		maxVisits: 10,
	}
}

func (g *Graph) validateNode(node *Node) {
	if node.Name == "" {
		panic("node name cannot be empty")
	}

	switch node.Type {
	case NodeTypeCondition:
		if node.Condition == nil {
			panic(fmt.Sprintf("condition node %s must have non-nil Condition function", node.Name))
		}
	case NodeTypeStep:
		if node.Execute == nil {
			panic(fmt.Sprintf("node %s of type %s must have non-nil Execute function", node.Name, node.Type))
		}
	}
}

// AddNode adds a node to the graph
func (g *Graph) AddNode(node *Node) {
	if _, exists := g.nodes[node.Name]; exists {
		panic(fmt.Sprintf("node %s already exists", node.Name))
	}

	g.validateNode(node)
	g.nodes[node.Name] = node

	if node.Type == NodeTypeStart {
		g.startNode = node.Name
	}
	if node.Type == NodeTypeEnd {
		g.endNode = node.Name
	}
}

// SetStartNode sets the start node
func (g *Graph) SetStartNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.startNode = name
}

// SetEndNode sets the end node
func (g *Graph) SetEndNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.endNode = name
}

// SetMaxVisits sets the maximum number of times any single node may be entered
func (g *Graph) SetMaxVisits(maxVisits int) {
	if maxVisits > 0 {
		g.maxVisits = maxVisits
	}
}

// MaxVisits reports the per-node visit budget.
func (g *Graph) MaxVisits() int {
	return g.maxVisits
}

// OnVisit registers an observer called before each node runs.
func (g *Graph) OnVisit(fn VisitFunc) {
	g.onVisit = fn
}

// Validate checks that start and end are set and that every edge resolves.
func (g *Graph) Validate() error {
	if g.startNode == "" {
		return fmt.Errorf("start node not set")
	}
	if g.endNode == "" {
		return fmt.Errorf("end node not set")
	}
	for _, node := range g.nodes {
		switch node.Type {
		case NodeTypeEnd:
			continue
		case NodeTypeCondition:
			if len(node.Branches) == 0 {
				return fmt.Errorf("condition node %s has no branches", node.Name)
			}
			for label, target := range node.Branches {
				if _, ok := g.nodes[target]; !ok {
					return fmt.Errorf("node %s branch %q points to unknown node %s", node.Name, label, target)
				}
			}
		default:
			if node.Next == "" {
				return fmt.Errorf("no next node specified for node %s", node.Name)
			}
			if _, ok := g.nodes[node.Next]; !ok {
				return fmt.Errorf("node %s points to unknown node %s", node.Name, node.Next)
			}
		}
	}
	return nil
}

// Execute walks the graph from the start node until the end node returns.
// Each node sees the state produced by its predecessor. A node entered more
// than MaxVisits times aborts the run with ErrMaxVisits.
func (g *Graph) Execute(ctx context.Context, initialState State) (State, error) {
	if g.startNode == "" {
		return nil, fmt.Errorf("start node not set")
	}

	state := initialState
	if state == nil {
		state = make(State)
	}

	visited := make(map[string]int)
	current := g.startNode
	for {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, exists := g.nodes[current]
		if !exists {
			return nil, fmt.Errorf("node %s not found", current)
		}

		visited[current]++
		if visited[current] > g.maxVisits {
			return state, fmt.Errorf("%w: node %s entered %d times", ErrMaxVisits, current, visited[current])
		}
		if g.onVisit != nil {
			g.onVisit(ctx, current, visited[current])
		}

		switch node.Type {
		case NodeTypeEnd:
			if node.Execute == nil {
				return state, nil
			}
			out, err := node.Execute(ctx, state)
			if err != nil {
				return state, fmt.Errorf("error executing node %s: %w", node.Name, err)
			}
			return out, nil

		case NodeTypeCondition:
			label, err := node.Condition(ctx, state)
			if err != nil {
				return state, fmt.Errorf("error evaluating condition at node %s: %w", node.Name, err)
			}
			next, ok := node.Branches[label]
			if !ok || next == "" {
				return state, fmt.Errorf("condition node %s returned unknown branch %q", node.Name, label)
			}
			current = next

		default:
			if node.Execute != nil {
				out, err := node.Execute(ctx, state)
				if err != nil {
					return state, fmt.Errorf("error executing node %s: %w", node.Name, err)
				}
				if out != nil {
					state = out
				}
			}
			if node.Next == "" {
				return state, fmt.Errorf("no next node specified for node %s", node.Name)
			}
			current = node.Next
		}
	}
}

// GetNode returns a node by name
func (g *Graph) GetNode(name string) (*Node, error) {
	node, exists := g.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node %s not found", name)
	}
	return node, nil
}

// Builder helps build graphs fluently
type Builder struct {
	graph *Graph
}

// NewBuilder creates a new graph builder
func NewBuilder() *Builder {
	return &Builder{
		graph: NewGraph(),
	}
}

// AddNode adds a node to the graph
func (b *Builder) AddNode(name string, nodeType NodeType, execute NodeFunc) *Builder {
	b.graph.AddNode(&Node{
		Name:    name,
		Type:    nodeType,
		Execute: execute,
	})
	return b
}

// AddConditionNode adds a condition node
func (b *Builder) AddConditionNode(name string, condition ConditionFunc, branches map[string]string) *Builder {
	b.graph.AddNode(&Node{
		Name:      name,
		Type:      NodeTypeCondition,
		Condition: condition,
		Branches:  branches,
	})
	return b
}

// AddEdge connects two nodes. A node has at most one outgoing edge.
func (b *Builder) AddEdge(from, to string) *Builder {
	node, exists := b.graph.nodes[from]
	if !exists {
		panic(fmt.Sprintf("node %s not found", from))
	}
	if node.Type == NodeTypeCondition {
		panic(fmt.Sprintf("condition node %s uses branches, not edges", from))
	}
	if node.Next != "" && node.Next != to {
		panic(fmt.Sprintf("node %s already has successor %s", from, node.Next))
	}
	node.Next = to
	return b
}

// SetStart sets the start node
func (b *Builder) SetStart(name string) *Builder {
	b.graph.SetStartNode(name)
	return b
}

// SetEnd sets the end node
func (b *Builder) SetEnd(name string) *Builder {
	b.graph.SetEndNode(name)
	return b
}

// SetMaxVisits sets the maximum number of visits to a node
func (b *Builder) SetMaxVisits(maxVisits int) *Builder {
	b.graph.SetMaxVisits(maxVisits)
	return b
}

// Build validates and returns the constructed graph
func (b *Builder) Build() (*Graph, error) {
	if err := b.graph.Validate(); err != nil {
		return nil, err
	}
	return b.graph, nil
}
