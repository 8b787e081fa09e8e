package seating

import (
	"context"
	"fmt"

	"github.com/hardstucks/podium/pkg/errors"
	"github.com/hardstucks/podium/pkg/flow"
)

// assemble decodes a solved plan into the ordered room list.
//
// Participants wired directly to role slots are read straight off their
// saturated edge. Participants routed through hubs need a second step: the
// hub chains decouple who entered a room from which seat they took, so their
// seats are fixed here by a min-cost matching of the room's grouped members
// against its remaining slots (see matchSeats). Rooms are resolved in
// ascending order and all ties broken by ascending node id, keeping the
// decoding as deterministic as the solve. Before returning, the assignment
// is checked against every tag of every participant, so a cap the network
// failed to encode surfaces as an error instead of a bad seating.
func assemble(ctx context.Context, p *plan, maxCancellations int) ([]Room, error) {
	n := len(p.participants)
	assigned := make([]slotRef, n)
	for i := range assigned {
		assigned[i] = slotRef{room: -1, role: -1}
	}
	claimed := make([][]bool, p.roomCount)
	for r := range claimed {
		claimed[r] = make([]bool, p.spec.RoleCount)
	}
	roomMembers := make([][]int, p.roomCount)

	// Read each participant's single saturated outgoing edge. A slot target
	// fixes the seat outright; a hub target fixes the room only.
	for i := range p.participants {
		var target int = -1
		for _, e := range p.net.OutEdges(p.partNodes[i]) {
			if e.Residual() || e.Flow() != 1 {
				continue
			}
			if target >= 0 && target != e.To {
				return nil, errors.New(errors.ErrCodeInternal,
					"participant %q carries flow to multiple targets", p.participants[i].Name)
			}
			target = e.To
		}
		if target < 0 {
			return nil, errors.New(errors.ErrCodeInternal,
				"participant %q carries no flow", p.participants[i].Name)
		}
		if ref, ok := p.slots[target]; ok {
			if claimed[ref.room][ref.role] {
				return nil, errors.New(errors.ErrCodeInternal,
					"role slot (%d,%d) claimed twice", ref.room, ref.role)
			}
			claimed[ref.room][ref.role] = true
			assigned[i] = ref
			continue
		}
		if h, ok := p.hubsByIn[target]; ok {
			roomMembers[h.room] = append(roomMembers[h.room], i)
			continue
		}
		return nil, errors.New(errors.ErrCodeInternal,
			"participant %q flows to unexpected node %d", p.participants[i].Name, target)
	}

	// Conservation check: the units leaving a room's hub chains onto slots
	// must match the members that entered them.
	hubSeats := make([]int, p.roomCount)
	for _, h := range p.hubs {
		for _, e := range p.net.OutEdges(h.out) {
			if e.Residual() || e.Flow() != 1 {
				continue
			}
			if _, ok := p.slots[e.To]; ok {
				hubSeats[h.room]++
			}
		}
	}

	for r, members := range roomMembers {
		if hubSeats[r] != len(members) {
			return nil, errors.New(errors.ErrCodeInternal,
				"room %d hubs seat %d units for %d members", r+1, hubSeats[r], len(members))
		}
		if len(members) == 0 {
			continue
		}
		// Candidate seats: every slot of the room not taken by a direct
		// participant. Which seats the hub flow landed on is irrelevant;
		// reseating within the room keeps its occupancy and all throat
		// charges unchanged and can only lower the total preference.
		var candidates []int
		for k := 0; k < p.spec.RoleCount; k++ {
			if !claimed[r][k] {
				candidates = append(candidates, p.slotNodes[r][k])
			}
		}
		chosen, err := matchSeats(ctx, p, members, candidates, maxCancellations)
		if err != nil {
			return nil, err
		}
		for member, slot := range chosen {
			ref := p.slots[slot]
			claimed[ref.room][ref.role] = true
			assigned[member] = ref
		}
	}

	if err := checkGroupCaps(p, assigned); err != nil {
		return nil, err
	}
	return buildRooms(p, assigned)
}

// matchSeats assigns each grouped member of a room a seat from candidates,
// minimizing the summed preference cost. The matching is itself a tiny
// min-cost flow over len(members)+len(candidates)+2 nodes, reusing the same
// solver and thus the same tie-breaking as the main solve.
func matchSeats(ctx context.Context, p *plan, members, candidates []int, maxCancellations int) (map[int]int, error) {
	net := flow.New()
	src := net.AddNode(flow.KindSource)
	sink := net.AddNode(flow.KindSink)

	memberNodes := make([]int, len(members))
	for i := range members {
		memberNodes[i] = net.AddNode(flow.KindParticipant)
		if _, err := net.AddEdge(src, memberNodes[i], 1, 0); err != nil {
			return nil, err
		}
	}
	slotByNode := make(map[int]int, len(candidates))
	candidateNodes := make([]int, len(candidates))
	for j, slot := range candidates {
		candidateNodes[j] = net.AddNode(flow.KindRoleSlot)
		slotByNode[candidateNodes[j]] = slot
		if _, err := net.AddEdge(candidateNodes[j], sink, 1, 0); err != nil {
			return nil, err
		}
	}
	for i, m := range members {
		for j, slot := range candidates {
			role := p.slots[slot].role
			if _, err := net.AddEdge(memberNodes[i], candidateNodes[j], 1, preferenceCost(p.participants[m], role)); err != nil {
				return nil, err
			}
		}
	}

	s := flow.NewSolver(net, src, sink)
	s.MaxCancellations = maxCancellations
	if err := s.Solve(ctx, int64(len(members))); err != nil {
		return nil, err
	}

	chosen := make(map[int]int, len(members))
	for i, m := range members {
		for _, e := range net.OutEdges(memberNodes[i]) {
			if e.Residual() || e.Flow() != 1 {
				continue
			}
			chosen[m] = slotByNode[e.To]
		}
		if _, ok := chosen[m]; !ok {
			return nil, errors.New(errors.ErrCodeInternal,
				"grouped member %q left unseated by matching", p.participants[m].Name)
		}
	}
	return chosen, nil
}

// checkGroupCaps verifies the decoded assignment against every tag each
// participant carries, not only the one displayed in the output. The hub
// chains charge every tag's throat, so a count above the cap means the
// network under-constrained the input; failing beats returning it.
func checkGroupCaps(p *plan, assigned []slotRef) error {
	counts := make([]map[string]int, p.roomCount)
	for i, ref := range assigned {
		if ref.room < 0 {
			continue
		}
		for _, tag := range p.participants[i].tags() {
			if counts[ref.room] == nil {
				counts[ref.room] = make(map[string]int)
			}
			counts[ref.room][tag]++
			if counts[ref.room][tag] > p.spec.GroupCap {
				return errors.New(errors.ErrCodeInternal,
					"room %d holds more than %d members tagged %q", ref.room+1, p.spec.GroupCap, tag)
			}
		}
	}
	return nil
}

// buildRooms turns the participant->slot table into the final room list:
// rooms in ascending id, assignments in role order, empty rooms omitted.
func buildRooms(p *plan, assigned []slotRef) ([]Room, error) {
	occupants := make([][]int, p.roomCount)
	for r := range occupants {
		occupants[r] = make([]int, p.spec.RoleCount)
		for k := range occupants[r] {
			occupants[r][k] = -1
		}
	}
	for i, ref := range assigned {
		if ref.room < 0 || ref.role < 0 {
			return nil, errors.New(errors.ErrCodeInternal,
				"participant %q left unassigned after decoding", p.participants[i].Name)
		}
		if prev := occupants[ref.room][ref.role]; prev >= 0 {
			return nil, errors.New(errors.ErrCodeInternal,
				"role %q in room %d assigned to both %q and %q",
				p.spec.RoleLabels[ref.role], ref.room+1, p.participants[prev].Name, p.participants[i].Name)
		}
		occupants[ref.room][ref.role] = i
	}

	var rooms []Room
	for r := 0; r < p.roomCount; r++ {
		room := Room{Name: fmt.Sprintf("Room %d", r+1)}
		for k := 0; k < p.spec.RoleCount; k++ {
			i := occupants[r][k]
			if i < 0 {
				continue
			}
			part := p.participants[i]
			room.Assignments = append(room.Assignments, Assignment{
				Name:       part.Name,
				Role:       p.spec.RoleLabels[k],
				Preference: int(preferenceCost(part, k)),
				Group:      part.primaryGroup(),
			})
		}
		if len(room.Assignments) > 0 {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}
