package seating

import (
	"slices"
	"strings"

	"github.com/hardstucks/podium/pkg/errors"
)

// =============================================================================
// Formats - Single Source of Truth
// =============================================================================

// Format selects one of the supported debate formats.
type Format int

// Supported formats.
const (
	// FormatBritishParliamentary seats eight speakers per room across four
	// teams of two.
	FormatBritishParliamentary Format = iota

	// FormatTraditional seats six speakers per room across two teams of
	// three.
	FormatTraditional
)

// String returns the wire name of the format.
func (f Format) String() string {
	switch f {
	case FormatBritishParliamentary:
		return "bp"
	case FormatTraditional:
		return "traditional"
	default:
		return "unknown"
	}
}

// ParseFormat maps a wire name to a Format.
// Accepted names: "bp", "british-parliamentary", "traditional".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bp", "british-parliamentary":
		return FormatBritishParliamentary, nil
	case "traditional":
		return FormatTraditional, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidFormat,
			"unknown format %q (must be one of: bp, traditional)", s)
	}
}

// britishParliamentaryRoles lists the eight BP roles in speaking order.
var britishParliamentaryRoles = []string{
	"Prime Minister",
	"Leader of Opposition",
	"Deputy Prime Minister",
	"Deputy Leader of Opposition",
	"Member of Government",
	"Member of Opposition",
	"Government Whip",
	"Opposition Whip",
}

// traditionalRoles lists the six traditional-format roles in speaking order.
var traditionalRoles = []string{
	"First Proposition",
	"First Opposition",
	"Second Proposition",
	"Second Opposition",
	"Third Proposition",
	"Third Opposition",
}

// Spec returns the format's seating rules.
func (f Format) Spec() FormatSpec {
	switch f {
	case FormatTraditional:
		return FormatSpec{
			RoleCount:  6,
			GroupCap:   1,
			RoleLabels: traditionalRoles,
		}
	default:
		return FormatSpec{
			RoleCount:  8,
			GroupCap:   1,
			RoleLabels: britishParliamentaryRoles,
		}
	}
}

// FormatSpec captures the seating rules of a debate format.
// The preset specs from Format.Spec cover the two supported formats;
// callers may also construct custom specs directly.
type FormatSpec struct {
	// RoleCount is the number of seats per room.
	RoleCount int

	// GroupCap is the maximum number of participants sharing a group tag
	// permitted in a single room.
	GroupCap int

	// RoleLabels maps role index to the displayed role name. Must have
	// RoleCount entries.
	RoleLabels []string
}

// Validate checks that the spec is internally consistent.
func (s FormatSpec) Validate() error {
	if s.RoleCount <= 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "role count must be positive, got %d", s.RoleCount)
	}
	if s.GroupCap <= 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "group cap must be positive, got %d", s.GroupCap)
	}
	if len(s.RoleLabels) != s.RoleCount {
		return errors.New(errors.ErrCodeInvalidFormat,
			"format has %d role labels for %d roles", len(s.RoleLabels), s.RoleCount)
	}
	return nil
}

// =============================================================================
// Participants
// =============================================================================

// Participant is one entrant to be seated. Participants are read-only
// inputs: the engine never mutates them.
type Participant struct {
	// Name is an opaque display name.
	Name string `json:"name"`

	// Preferences holds one cost per role, indexed by role id.
	// Lower is more preferred.
	Preferences []int `json:"preferences"`

	// Groups is an optional set of opaque tags used for room diversity.
	Groups []string `json:"group,omitempty"`
}

// tags returns the participant's group tags sorted and deduplicated.
// The sort order fixes the hub chain order in the builder.
func (p Participant) tags() []string {
	if len(p.Groups) == 0 {
		return nil
	}
	out := slices.Clone(p.Groups)
	slices.Sort(out)
	return slices.Compact(out)
}

// primaryGroup returns the tag shown in the output's group field: the
// lexicographically smallest of the participant's tags, or "" when the
// participant carries none. Diversity routing constrains every tag, not
// only this one.
func (p Participant) primaryGroup() string {
	if len(p.Groups) == 0 {
		return ""
	}
	return slices.Min(p.Groups)
}

// =============================================================================
// Output
// =============================================================================

// Assignment records one seated participant. Constructed once per solve and
// immutable thereafter; the engine retains no reference to it.
type Assignment struct {
	// Name is the participant's name.
	Name string `json:"name"`

	// Role is the displayed role label.
	Role string `json:"role"`

	// Preference is the participant's stated cost for the assigned role.
	Preference int `json:"preference"`

	// Group is the tag that drove diversity routing, or "" for untagged
	// participants.
	Group string `json:"group"`
}

// Room is one room's ordered seat list. Assignments are ordered by role
// index; a room seated below capacity simply omits the unfilled roles.
type Room struct {
	Name        string       `json:"name"`
	Assignments []Assignment `json:"assignments"`
}
