package seating

import (
	"testing"

	"github.com/hardstucks/podium/pkg/errors"
)

// testSpec builds a small custom format for tests that do not need the full
// six or eight roles.
func testSpec(roleCount, groupCap int) FormatSpec {
	labels := make([]string, roleCount)
	for i := range labels {
		labels[i] = "Role " + string(rune('A'+i))
	}
	return FormatSpec{RoleCount: roleCount, GroupCap: groupCap, RoleLabels: labels}
}

func TestRoomsFor(t *testing.T) {
	tests := []struct {
		name         string
		participants []Participant
		spec         FormatSpec
		want         int
	}{
		{
			name:         "exact fill",
			participants: makeParticipants(8, 8),
			spec:         testSpec(8, 1),
			want:         1,
		},
		{
			name:         "overflow into second room",
			participants: makeParticipants(10, 6),
			spec:         testSpec(6, 1),
			want:         2,
		},
		{
			name: "group cap forces extra room",
			participants: append(makeParticipants(6, 8),
				Participant{Name: "x", Preferences: []int{0, 1, 2, 3, 4, 5, 6, 7}, Groups: []string{"club"}},
				Participant{Name: "y", Preferences: []int{0, 1, 2, 3, 4, 5, 6, 7}, Groups: []string{"club"}},
			),
			spec: testSpec(8, 1),
			want: 2,
		},
		{
			name: "large group dominates",
			participants: []Participant{
				{Name: "a", Preferences: []int{0}, Groups: []string{"club"}},
				{Name: "b", Preferences: []int{0}, Groups: []string{"club"}},
				{Name: "c", Preferences: []int{0}, Groups: []string{"club"}},
			},
			spec: testSpec(6, 1),
			want: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roomsFor(tt.participants, tt.spec); got != tt.want {
				t.Errorf("roomsFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildNetworkCounts(t *testing.T) {
	spec := testSpec(2, 1)
	participants := makeParticipants(4, 2)

	p, err := buildNetwork(participants, spec)
	if err != nil {
		t.Fatalf("buildNetwork() error = %v", err)
	}

	if p.roomCount != 2 {
		t.Fatalf("roomCount = %d, want 2", p.roomCount)
	}
	// source + sink + 2 rooms + 4 slots + 4 participants
	if got := p.net.NodeCount(); got != 12 {
		t.Errorf("NodeCount() = %d, want 12", got)
	}
	// 2 room->sink + 4 slot->room + 4 source->participant + 4*4 participant->slot
	if got := p.net.EdgeCount(); got != 26 {
		t.Errorf("EdgeCount() = %d, want 26", got)
	}
	if len(p.hubs) != 0 {
		t.Errorf("ungrouped input created %d hubs", len(p.hubs))
	}
}

func TestBuildNetworkGroupHubs(t *testing.T) {
	spec := testSpec(2, 1)
	participants := []Participant{
		{Name: "a", Preferences: []int{0, 1}, Groups: []string{"club"}},
		{Name: "b", Preferences: []int{1, 0}, Groups: []string{"club"}},
	}

	p, err := buildNetwork(participants, spec)
	if err != nil {
		t.Fatalf("buildNetwork() error = %v", err)
	}

	if p.roomCount != 2 {
		t.Fatalf("roomCount = %d, want 2 (cap 1 must split the pair)", p.roomCount)
	}
	// One hub per (room, tag) pair actually reached.
	if len(p.hubs) != 2 {
		t.Fatalf("hub count = %d, want 2", len(p.hubs))
	}
	for _, h := range p.hubs {
		if h.tag != "club" {
			t.Errorf("hub tag = %q, want club", h.tag)
		}
	}
}

func TestBuildNetworkChainsMultiTagHubs(t *testing.T) {
	spec := testSpec(2, 1)
	participants := []Participant{
		{Name: "a", Preferences: []int{0, 1}, Groups: []string{"y", "x"}},
	}

	p, err := buildNetwork(participants, spec)
	if err != nil {
		t.Fatalf("buildNetwork() error = %v", err)
	}

	// One hub per tag, chained in sorted order: only the last tag's hub may
	// reach the seats.
	if len(p.hubs) != 2 {
		t.Fatalf("hub count = %d, want 2", len(p.hubs))
	}
	if p.hubs[0].tag != "x" || p.hubs[1].tag != "y" {
		t.Errorf("hub order = [%q, %q], want [x, y]", p.hubs[0].tag, p.hubs[1].tag)
	}
	if p.hubs[0].exit {
		t.Error("first hub of the chain must not exit to seats")
	}
	if !p.hubs[1].exit {
		t.Error("last hub of the chain must exit to seats")
	}
	if !p.chained[[2]int{p.hubs[0].out, p.hubs[1].in}] {
		t.Error("hubs are not chained x -> y")
	}
}

func TestBuildNetworkValidation(t *testing.T) {
	spec := testSpec(2, 1)
	tests := []struct {
		name         string
		participants []Participant
	}{
		{"empty input", nil},
		{"too many preferences", []Participant{{Name: "a", Preferences: []int{0, 1, 2}}}},
		{"unnamed participant", []Participant{{Preferences: []int{0, 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildNetwork(tt.participants, spec)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("buildNetwork() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestPreferenceCostPadsShortLists(t *testing.T) {
	p := Participant{Name: "a", Preferences: []int{3}}
	if got := preferenceCost(p, 0); got != 3 {
		t.Errorf("preferenceCost(ranked) = %d, want 3", got)
	}
	if got := preferenceCost(p, 1); got != missingPreferencePenalty {
		t.Errorf("preferenceCost(unranked) = %d, want %d", got, missingPreferencePenalty)
	}
}

// makeParticipants builds n participants whose preference lists are rotations
// of the identity: participant i ranks role i%roleCount at cost 0.
func makeParticipants(n, roleCount int) []Participant {
	out := make([]Participant, n)
	for i := range out {
		prefs := make([]int, roleCount)
		for k := range prefs {
			prefs[k] = ((k-i)%roleCount + roleCount) % roleCount
		}
		out[i] = Participant{Name: "p" + string(rune('0'+i)), Preferences: prefs}
	}
	return out
}
