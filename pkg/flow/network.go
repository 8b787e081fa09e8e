// Package flow implements a directed, capacitated, costed flow network and a
// min-cost flow solver based on cycle canceling.
//
// The network carries no seating knowledge: node kinds exist only so callers
// can decode a solved flow back into domain terms. The intended lifecycle is
// single-owner and single-threaded: build a Network, hand it to a Solver for
// one solve, decode, discard. Nothing in this package is safe for concurrent
// mutation.
//
// # Residual bookkeeping
//
// AddEdge creates a forward edge together with a zero-capacity residual edge
// in the opposite direction carrying the negated cost. Pushing flow on either
// member of the pair symmetrically adjusts the other, so augmenting-path and
// negative-cycle searches can traverse both without special cases.
//
// # Determinism
//
// Adjacency lists preserve insertion order and all traversals in this package
// visit edges in that order, breaking ties by lowest node id. Identical inputs
// therefore always produce identical flows.
package flow

import (
	"github.com/hardstucks/podium/pkg/errors"
)

// NodeKind classifies a node for decoding purposes only.
// The solver treats all nodes uniformly.
type NodeKind int

// Node kinds.
const (
	KindSource NodeKind = iota
	KindSink
	KindParticipant
	KindGroupHub
	KindRoleSlot
	KindRoom
)

// String returns the kind name used in DOT output and error messages.
func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindSink:
		return "sink"
	case KindParticipant:
		return "participant"
	case KindGroupHub:
		return "group_hub"
	case KindRoleSlot:
		return "role_slot"
	case KindRoom:
		return "room"
	default:
		return "unknown"
	}
}

// Node is a vertex in the network.
type Node struct {
	ID   int
	Kind NodeKind
}

// Edge is a directed edge with capacity, per-unit cost and current flow.
// Every forward edge is linked to a residual counterpart created by AddEdge;
// residual edges have zero capacity and negated cost.
type Edge struct {
	From     int
	To       int
	Capacity int64
	Cost     int64

	flow     int64
	pair     *Edge
	residual bool
}

// Flow returns the flow currently routed over a forward edge.
// For residual edges it returns the negated flow of the counterpart.
func (e *Edge) Flow() int64 {
	if e.residual {
		return -e.pair.flow
	}
	return e.flow
}

// Residual reports whether this is the residual half of an edge pair.
func (e *Edge) Residual() bool { return e.residual }

// ResidualCapacity returns how much additional flow the edge admits:
// capacity minus flow for forward edges, the counterpart's flow for
// residual edges.
func (e *Edge) ResidualCapacity() int64 {
	if e.residual {
		return e.pair.flow
	}
	return e.Capacity - e.flow
}

// Network is a flow network with residual-edge bookkeeping.
type Network struct {
	nodes []Node
	adj   [][]*Edge
	edges []*Edge // forward edges in insertion order
}

// New creates an empty network.
func New() *Network {
	return &Network{}
}

// AddNode adds a node of the given kind and returns its id.
// Ids are dense and assigned in insertion order.
func (n *Network) AddNode(kind NodeKind) int {
	id := len(n.nodes)
	n.nodes = append(n.nodes, Node{ID: id, Kind: kind})
	n.adj = append(n.adj, nil)
	return id
}

// Node returns the node with the given id.
func (n *Network) Node(id int) Node { return n.nodes[id] }

// NodeCount returns the number of nodes.
func (n *Network) NodeCount() int { return len(n.nodes) }

// EdgeCount returns the number of forward edges.
func (n *Network) EdgeCount() int { return len(n.edges) }

// AddEdge adds a forward edge from u to v and its linked residual
// counterpart (v, u, capacity 0, cost -cost). It returns the forward edge.
// Capacity must be non-negative; cost may be any integer, though negative
// costs on forward edges are unsupported by the solver's phase 1.
func (n *Network) AddEdge(u, v int, capacity, cost int64) (*Edge, error) {
	if u < 0 || u >= len(n.nodes) || v < 0 || v >= len(n.nodes) {
		return nil, errors.New(errors.ErrCodeInternal, "edge (%d,%d) references unknown node", u, v)
	}
	if capacity < 0 {
		return nil, errors.New(errors.ErrCodeInternal, "edge (%d,%d) has negative capacity %d", u, v, capacity)
	}

	fwd := &Edge{From: u, To: v, Capacity: capacity, Cost: cost}
	rev := &Edge{From: v, To: u, Capacity: 0, Cost: -cost, residual: true}
	fwd.pair = rev
	rev.pair = fwd

	n.adj[u] = append(n.adj[u], fwd)
	n.adj[v] = append(n.adj[v], rev)
	n.edges = append(n.edges, fwd)
	return fwd, nil
}

// OutEdges returns the outgoing edges of a node, forward and residual,
// in insertion order. The caller must not mutate the slice.
func (n *Network) OutEdges(id int) []*Edge { return n.adj[id] }

// ForwardEdges returns all forward edges in insertion order.
func (n *Network) ForwardEdges() []*Edge { return n.edges }

// Push routes amount units of flow over e, symmetrically adjusting the
// residual counterpart. Pushing more than ResidualCapacity is an internal
// invariant violation.
func (n *Network) Push(e *Edge, amount int64) error {
	if amount < 0 {
		return errors.New(errors.ErrCodeInternal, "push of negative amount %d on edge (%d,%d)", amount, e.From, e.To)
	}
	if amount > e.ResidualCapacity() {
		return errors.New(errors.ErrCodeInternal,
			"push of %d exceeds residual capacity %d on edge (%d,%d)", amount, e.ResidualCapacity(), e.From, e.To)
	}
	if e.residual {
		e.pair.flow -= amount
	} else {
		e.flow += amount
	}
	return nil
}

// FlowValue returns the total flow leaving the given node, normally the
// source. Once solved this equals the flow into the sink.
func (n *Network) FlowValue(source int) int64 {
	var total int64
	for _, e := range n.adj[source] {
		if !e.residual {
			total += e.flow
		}
	}
	return total
}

// TotalCost returns the cost of the current flow, summed over forward edges.
func (n *Network) TotalCost() int64 {
	var total int64
	for _, e := range n.edges {
		total += e.flow * e.Cost
	}
	return total
}

// CheckConservation verifies the flow invariants: every edge carries between
// zero and capacity units, and every node other than source and sink has
// inflow equal to outflow. A violation signals a solver defect.
func (n *Network) CheckConservation(source, sink int) error {
	balance := make([]int64, len(n.nodes))
	for _, e := range n.edges {
		if e.flow < 0 || e.flow > e.Capacity {
			return errors.New(errors.ErrCodeInternal,
				"edge (%d,%d) carries flow %d outside [0,%d]", e.From, e.To, e.flow, e.Capacity)
		}
		balance[e.From] -= e.flow
		balance[e.To] += e.flow
	}
	for id, b := range balance {
		if id == source || id == sink {
			continue
		}
		if b != 0 {
			return errors.New(errors.ErrCodeInternal,
				"node %d (%s) has inflow-outflow imbalance %d", id, n.nodes[id].Kind, b)
		}
	}
	return nil
}
