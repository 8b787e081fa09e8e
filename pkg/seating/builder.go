package seating

import (
	"github.com/hardstucks/podium/pkg/errors"
	"github.com/hardstucks/podium/pkg/flow"
)

// missingPreferencePenalty is the cost assigned to roles a participant left
// unranked. Large enough to dominate any stated preference, finite so every
// participant keeps a path to every room and full assignability is preserved.
const missingPreferencePenalty = 1000

// slotRef locates a role slot in the room grid.
type slotRef struct {
	room int
	role int
}

// hub is the capacity gadget enforcing a group cap for one (room, tag) pair.
// Flow entering in and leaving out is squeezed through a single edge of
// capacity GroupCap, so at most GroupCap members of the tag can occupy the
// room regardless of which seats they take. Multi-tag participants traverse
// one hub per tag in sorted order; only the last hub of a chain gets exit
// edges to the room's seats.
type hub struct {
	in   int
	out  int
	room int
	tag  string

	exit bool // exit edges to the room's slots have been added
}

// plan is a built network plus the tables needed to decode its solved flow.
type plan struct {
	net    *flow.Network
	source int
	sink   int

	spec         FormatSpec
	participants []Participant
	roomCount    int

	partNodes []int           // participant index -> node id
	slots     map[int]slotRef // slot node id -> grid position
	slotNodes [][]int         // [room][role] -> slot node id
	hubsByIn  map[int]*hub    // hub entry node id -> hub
	hubs      []*hub          // creation order
	chained   map[[2]int]bool // (out, in) node pairs already linked
}

// buildNetwork translates participants and a format spec into a flow network
// whose min-cost flow of value n encodes the optimal seat assignment.
//
// Topology, leaf to root: SOURCE -> PARTICIPANT (cap 1) -> [GROUP_HUB
// chain ->] ROLE_SLOT (cap 1) -> ROOM (cap RoleCount) -> SINK. Ungrouped
// participants connect straight to every role slot with their preference as
// edge cost. Grouped participants reach a room's slots only through the hubs
// of their tags, chained in sorted order so the unit spends capacity in every
// tag's throat; per-role preference costs ride on the chain entry edges.
func buildNetwork(participants []Participant, spec FormatSpec) (*plan, error) {
	n := len(participants)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no participants given")
	}
	for i, p := range participants {
		if len(p.Preferences) > spec.RoleCount {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"participant %q has %d preferences for %d roles", p.Name, len(p.Preferences), spec.RoleCount)
		}
		if p.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "participant %d has no name", i)
		}
	}

	roomCount := roomsFor(participants, spec)
	if roomCount*spec.RoleCount < n {
		// Unreachable given the rounding above; raise rather than build a
		// network that cannot seat everyone.
		return nil, errors.New(errors.ErrCodeInternal,
			"%d rooms of %d seats cannot hold %d participants", roomCount, spec.RoleCount, n)
	}

	net := flow.New()
	p := &plan{
		net:          net,
		spec:         spec,
		participants: participants,
		roomCount:    roomCount,
		slots:        make(map[int]slotRef),
		hubsByIn:     make(map[int]*hub),
		chained:      make(map[[2]int]bool),
	}

	p.source = net.AddNode(flow.KindSource)
	p.sink = net.AddNode(flow.KindSink)

	p.slotNodes = make([][]int, roomCount)
	for r := 0; r < roomCount; r++ {
		room := net.AddNode(flow.KindRoom)
		if _, err := net.AddEdge(room, p.sink, int64(spec.RoleCount), 0); err != nil {
			return nil, err
		}
		p.slotNodes[r] = make([]int, spec.RoleCount)
		for k := 0; k < spec.RoleCount; k++ {
			slot := net.AddNode(flow.KindRoleSlot)
			p.slots[slot] = slotRef{room: r, role: k}
			p.slotNodes[r][k] = slot
			if _, err := net.AddEdge(slot, room, 1, 0); err != nil {
				return nil, err
			}
		}
	}

	p.partNodes = make([]int, n)
	for i := range participants {
		p.partNodes[i] = net.AddNode(flow.KindParticipant)
		if _, err := net.AddEdge(p.source, p.partNodes[i], 1, 0); err != nil {
			return nil, err
		}
	}

	for i, part := range participants {
		tags := part.tags()
		for r := 0; r < roomCount; r++ {
			if len(tags) == 0 {
				for k := 0; k < spec.RoleCount; k++ {
					if _, err := net.AddEdge(p.partNodes[i], p.slotNodes[r][k], 1, preferenceCost(part, k)); err != nil {
						return nil, err
					}
				}
				continue
			}
			h, err := p.hubFor(r, tags[0])
			if err != nil {
				return nil, err
			}
			for k := 0; k < spec.RoleCount; k++ {
				if _, err := net.AddEdge(p.partNodes[i], h.in, 1, preferenceCost(part, k)); err != nil {
					return nil, err
				}
			}
			for _, tag := range tags[1:] {
				next, err := p.hubFor(r, tag)
				if err != nil {
					return nil, err
				}
				if err := p.chainHubs(h, next); err != nil {
					return nil, err
				}
				h = next
			}
			if err := p.openExit(h); err != nil {
				return nil, err
			}
		}
	}

	return p, nil
}

// hubFor returns the hub for (room, tag), creating it with its cap edge on
// first use. Exit edges to the room's slots are added separately by openExit,
// only for hubs that end some participant's chain.
func (p *plan) hubFor(room int, tag string) (*hub, error) {
	for _, h := range p.hubs {
		if h.room == room && h.tag == tag {
			return h, nil
		}
	}
	h := &hub{
		in:   p.net.AddNode(flow.KindGroupHub),
		out:  p.net.AddNode(flow.KindGroupHub),
		room: room,
		tag:  tag,
	}
	if _, err := p.net.AddEdge(h.in, h.out, int64(p.spec.GroupCap), 0); err != nil {
		return nil, err
	}
	p.hubsByIn[h.in] = h
	p.hubs = append(p.hubs, h)
	return h, nil
}

// chainHubs links one hub's exit to the next tag's entry so a unit passing
// both tags spends capacity in both throats. Each ordered pair is linked
// once; the link itself never constrains, only the throats do.
func (p *plan) chainHubs(from, to *hub) error {
	key := [2]int{from.out, to.in}
	if p.chained[key] {
		return nil
	}
	if _, err := p.net.AddEdge(from.out, to.in, int64(p.spec.GroupCap), 0); err != nil {
		return err
	}
	p.chained[key] = true
	return nil
}

// openExit wires a hub to its room's seats. Only the last hub of a chain
// gets exits; earlier hubs can pass flow onward only, which is what forces
// the unit through every remaining throat.
func (p *plan) openExit(h *hub) error {
	if h.exit {
		return nil
	}
	for k := 0; k < p.spec.RoleCount; k++ {
		if _, err := p.net.AddEdge(h.out, p.slotNodes[h.room][k], 1, 0); err != nil {
			return err
		}
	}
	h.exit = true
	return nil
}

// roomsFor determines the room count: enough rooms to seat everyone, and
// enough rooms that every group can be spread below its cap. The second term
// is what lets two cap-limited teammates land in different rooms instead of
// making the whole assignment infeasible.
func roomsFor(participants []Participant, spec FormatSpec) int {
	rooms := ceilDiv(len(participants), spec.RoleCount)
	sizes := make(map[string]int)
	for _, p := range participants {
		for _, tag := range p.tags() {
			sizes[tag]++
		}
	}
	for _, size := range sizes {
		if need := ceilDiv(size, spec.GroupCap); need > rooms {
			rooms = need
		}
	}
	return rooms
}

// preferenceCost returns the participant's cost for a role, padding unranked
// roles with the missing-preference penalty.
func preferenceCost(p Participant, role int) int64 {
	if role < len(p.Preferences) {
		return int64(p.Preferences[role])
	}
	return missingPreferencePenalty
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
