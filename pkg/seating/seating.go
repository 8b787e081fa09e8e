// Package seating assigns debate participants to rooms and speaking roles.
//
// Given each participant's per-role preference costs and optional group tags,
// Solve finds the assignment minimizing the summed preference cost, subject to
// every participant getting exactly one seat, every seat holding at most one
// participant, and no room holding more members of one group than the format's
// cap allows. The engine models the problem as a min-cost flow network (see
// pkg/flow) and decodes the optimal flow back into rooms.
package seating

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hardstucks/podium/pkg/flow"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a solve.
type Options struct {
	// Format selects the debate format. Ignored when Spec is set.
	Format Format

	// Spec overrides the format's preset seating rules when non-nil.
	Spec *FormatSpec

	// Logger receives structured progress logs. Defaults to a silent logger.
	Logger *log.Logger

	// MaxCancellations overrides the solver's cycle-cancellation bound when
	// positive.
	MaxCancellations int
}

// ValidateAndSetDefaults validates the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Spec != nil {
		if err := o.Spec.Validate(); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// spec returns the effective seating rules.
func (o *Options) spec() FormatSpec {
	if o.Spec != nil {
		return *o.Spec
	}
	return o.Format.Spec()
}

// =============================================================================
// Results
// =============================================================================

// Stats captures measurements of one solve.
type Stats struct {
	Participants int           `json:"participants"`
	Rooms        int           `json:"rooms"`
	Nodes        int           `json:"nodes"`
	Edges        int           `json:"edges"`
	BuildTime    time.Duration `json:"build_time"`
	SolveTime    time.Duration `json:"solve_time"`
	DecodeTime   time.Duration `json:"decode_time"`
}

// Result is a completed assignment.
type Result struct {
	// Rooms lists the non-empty rooms in ascending id, each with its
	// assignments in speaking order.
	Rooms []Room `json:"rooms"`

	// TotalPreference is the summed preference cost of all assignments.
	TotalPreference int `json:"total_preference"`

	// AveragePreference is TotalPreference per participant, rounded to
	// three decimal places.
	AveragePreference float64 `json:"average_preference"`

	// Stats carries solve measurements. Not part of the wire response.
	Stats Stats `json:"-"`
}

// =============================================================================
// Solve
// =============================================================================

// Solve computes the cost-optimal seat assignment for the participants.
//
// It returns an INVALID_INPUT error for malformed participants, an
// INFEASIBLE_ASSIGNMENT error when the group caps make a complete assignment
// impossible, the context error if ctx is cancelled mid-solve, and an
// INTERNAL_ERROR if the solved flow fails an invariant check. Identical
// inputs always produce the identical result.
func Solve(ctx context.Context, participants []Participant, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	buildStart := time.Now()
	p, err := buildNetwork(participants, opts.spec())
	if err != nil {
		return nil, err
	}
	buildTime := time.Since(buildStart)
	logger.Debug("built assignment network",
		"participants", len(participants),
		"rooms", p.roomCount,
		"nodes", p.net.NodeCount(),
		"edges", p.net.EdgeCount(),
		"duration", buildTime)

	solveStart := time.Now()
	solver := flow.NewSolver(p.net, p.source, p.sink)
	solver.MaxCancellations = opts.MaxCancellations
	if err := solver.Solve(ctx, int64(len(participants))); err != nil {
		return nil, err
	}
	solveTime := time.Since(solveStart)
	logger.Debug("solved min-cost flow",
		"flow_cost", p.net.TotalCost(),
		"duration", solveTime)

	decodeStart := time.Now()
	rooms, err := assemble(ctx, p, opts.MaxCancellations)
	if err != nil {
		return nil, err
	}
	decodeTime := time.Since(decodeStart)

	total := 0
	for _, room := range rooms {
		for _, a := range room.Assignments {
			total += a.Preference
		}
	}
	avg := math.Round(float64(total)/float64(len(participants))*1000) / 1000

	logger.Info("assignment complete",
		"rooms", len(rooms),
		"total_preference", total,
		"average_preference", avg)

	return &Result{
		Rooms:             rooms,
		TotalPreference:   total,
		AveragePreference: avg,
		Stats: Stats{
			Participants: len(participants),
			Rooms:        len(rooms),
			Nodes:        p.net.NodeCount(),
			Edges:        p.net.EdgeCount(),
			BuildTime:    buildTime,
			SolveTime:    solveTime,
			DecodeTime:   decodeTime,
		},
	}, nil
}

// =============================================================================
// Visualization
// =============================================================================

// GraphDOT solves the assignment and renders the underlying flow network in
// Graphviz DOT format, with nodes labeled in domain terms. Intended for
// debugging and documentation.
func GraphDOT(ctx context.Context, participants []Participant, opts Options) (string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", err
	}
	spec := opts.spec()

	p, err := buildNetwork(participants, spec)
	if err != nil {
		return "", err
	}
	solver := flow.NewSolver(p.net, p.source, p.sink)
	solver.MaxCancellations = opts.MaxCancellations
	if err := solver.Solve(ctx, int64(len(participants))); err != nil {
		return "", err
	}

	labels := make(map[int]string, p.net.NodeCount())
	labels[p.source] = "source"
	labels[p.sink] = "sink"
	for i, id := range p.partNodes {
		labels[id] = participants[i].Name
	}
	for r, slots := range p.slotNodes {
		for k, id := range slots {
			labels[id] = fmt.Sprintf("R%d %s", r+1, spec.RoleLabels[k])
		}
	}
	for _, h := range p.hubs {
		labels[h.in] = fmt.Sprintf("R%d %s in", h.room+1, h.tag)
		labels[h.out] = fmt.Sprintf("R%d %s out", h.room+1, h.tag)
	}
	return flow.ToDOT(p.net, labels), nil
}
