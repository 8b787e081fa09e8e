package flow

import (
	"context"

	"github.com/hardstucks/podium/pkg/errors"
)

// DefaultMaxCancellations bounds phase 2 as a defensive guard: each
// cancellation strictly decreases an integer-valued total cost, so a run
// this long signals an inconsistently costed network rather than slow
// convergence.
const DefaultMaxCancellations = 100000

// Solver computes a min-cost flow of a target value using cycle canceling:
// a feasibility phase of breadth-first augmenting paths (Edmonds-Karp)
// followed by repeated cancellation of negative-cost residual cycles
// (Bellman-Ford detection).
//
// A Solver exclusively owns its network for the duration of one Solve call.
// It holds no state that survives the call, but neither the Solver nor its
// network may be shared across concurrent solves.
type Solver struct {
	net    *Network
	source int
	sink   int

	// MaxCancellations overrides DefaultMaxCancellations when positive.
	MaxCancellations int
}

// NewSolver creates a solver over net with the given source and sink nodes.
func NewSolver(net *Network, source, sink int) *Solver {
	return &Solver{net: net, source: source, sink: sink}
}

// Solve drives the network to a cost-optimal flow of value demand.
//
// It returns an INFEASIBLE_ASSIGNMENT error if the maximum flow falls short
// of demand, the context error if ctx is cancelled between augmentations or
// cancellations (the flow is then meaningless and must be discarded), and an
// INTERNAL_ERROR if phase 2 exceeds its iteration bound or conservation is
// violated afterwards.
func (s *Solver) Solve(ctx context.Context, demand int64) error {
	if err := s.maximize(ctx); err != nil {
		return err
	}
	if got := s.net.FlowValue(s.source); got < demand {
		return errors.New(errors.ErrCodeInfeasible,
			"maximum flow %d falls short of demand %d: capacity or group constraints make a complete assignment impossible", got, demand)
	}
	if err := s.minimizeCost(ctx); err != nil {
		return err
	}
	return s.net.CheckConservation(s.source, s.sink)
}

// maximize runs phase 1: repeated shortest augmenting paths until the
// residual graph admits no source-to-sink path.
func (s *Solver) maximize(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := s.augmentingPath()
		if path == nil {
			return nil
		}
		bottleneck := path[0].ResidualCapacity()
		for _, e := range path[1:] {
			if rc := e.ResidualCapacity(); rc < bottleneck {
				bottleneck = rc
			}
		}
		for _, e := range path {
			if err := s.net.Push(e, bottleneck); err != nil {
				return err
			}
		}
	}
}

// augmentingPath finds a source-to-sink path with positive residual capacity
// using breadth-first search. Nodes are visited in queue order and edges in
// insertion order, so the shortest path found is the same on every run.
// Returns nil when no augmenting path exists.
func (s *Solver) augmentingPath() []*Edge {
	parent := make([]*Edge, s.net.NodeCount())
	visited := make([]bool, s.net.NodeCount())
	visited[s.source] = true

	queue := []int{s.source}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, e := range s.net.OutEdges(u) {
			if visited[e.To] || e.ResidualCapacity() <= 0 {
				continue
			}
			visited[e.To] = true
			parent[e.To] = e
			if e.To == s.sink {
				return unwindPath(parent, s.source, s.sink)
			}
			queue = append(queue, e.To)
		}
	}
	return nil
}

// unwindPath reconstructs the source-to-sink edge sequence from parent links.
func unwindPath(parent []*Edge, source, sink int) []*Edge {
	var path []*Edge
	for v := sink; v != source; v = parent[v].From {
		path = append(path, parent[v])
	}
	// reverse into source-to-sink order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// minimizeCost runs phase 2: cancel negative-cost residual cycles until
// none remain. Termination is guaranteed because every cancellation strictly
// decreases the integer total cost, which is bounded below; the iteration
// cap only guards against a builder defect producing inconsistent costs.
func (s *Solver) minimizeCost(ctx context.Context) error {
	limit := s.MaxCancellations
	if limit <= 0 {
		limit = DefaultMaxCancellations
	}

	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		cycle := s.negativeCycle()
		if cycle == nil {
			return nil
		}
		bottleneck := cycle[0].ResidualCapacity()
		for _, e := range cycle[1:] {
			if rc := e.ResidualCapacity(); rc < bottleneck {
				bottleneck = rc
			}
		}
		for _, e := range cycle {
			if err := s.net.Push(e, bottleneck); err != nil {
				return err
			}
		}
	}
	return errors.New(errors.ErrCodeInternal,
		"negative-cycle cancellation did not converge within %d iterations", limit)
}

// negativeCycle searches the residual graph for a negative-total-cost cycle
// using Bellman-Ford with all nodes as simultaneous origins (distance zero),
// which detects a negative cycle anywhere in the graph. Edges are relaxed in
// ascending node-id and insertion order for determinism. Returns the cycle's
// edges in traversal order, or nil if no negative cycle exists.
func (s *Solver) negativeCycle() []*Edge {
	n := s.net.NodeCount()
	dist := make([]int64, n)
	parent := make([]*Edge, n)

	marked := -1
	for pass := 0; pass < n; pass++ {
		marked = -1
		for u := 0; u < n; u++ {
			for _, e := range s.net.OutEdges(u) {
				if e.ResidualCapacity() <= 0 {
					continue
				}
				if d := dist[u] + e.Cost; d < dist[e.To] {
					dist[e.To] = d
					parent[e.To] = e
					marked = e.To
				}
			}
		}
		if marked < 0 {
			return nil
		}
	}

	// A relaxation on the n-th pass means marked is reachable from a negative
	// cycle. Walk n parent links to land on the cycle itself.
	v := marked
	for i := 0; i < n; i++ {
		v = parent[v].From
	}

	var cycle []*Edge
	for u := v; ; {
		e := parent[u]
		cycle = append(cycle, e)
		u = e.From
		if u == v {
			break
		}
	}
	// parent links were followed backwards; restore traversal order
	for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}
	return cycle
}
