package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hardstucks/podium/pkg/errors"
	"github.com/hardstucks/podium/pkg/seating"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "participants.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadParticipantsBareArray(t *testing.T) {
	path := writeTemp(t, `[{"name": "alice", "preferences": [0, 1]}]`)

	got, err := readParticipants(path)
	if err != nil {
		t.Fatalf("readParticipants() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "alice" {
		t.Errorf("readParticipants() = %+v", got)
	}
}

func TestReadParticipantsRequestObject(t *testing.T) {
	path := writeTemp(t, `{"participants": [{"name": "alice", "preferences": [0]}, {"name": "bob", "preferences": [1]}]}`)

	got, err := readParticipants(path)
	if err != nil {
		t.Fatalf("readParticipants() error = %v", err)
	}
	if len(got) != 2 || got[1].Name != "bob" {
		t.Errorf("readParticipants() = %+v", got)
	}
}

func TestReadParticipantsErrors(t *testing.T) {
	if _, err := readParticipants(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing file error = %v, want INVALID_INPUT", err)
	}

	path := writeTemp(t, `{"participants": `)
	if _, err := readParticipants(path); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("malformed json error = %v, want INVALID_INPUT", err)
	}
}

func TestWriteTable(t *testing.T) {
	result := &seating.Result{
		Rooms: []seating.Room{{
			Name: "Room 1",
			Assignments: []seating.Assignment{
				{Name: "alice", Role: "Prime Minister", Preference: 0},
				{Name: "bob", Role: "Leader of Opposition", Preference: 2, Group: "club"},
			},
		}},
		TotalPreference:   2,
		AveragePreference: 1,
	}

	var sb strings.Builder
	if err := writeTable(&sb, result); err != nil {
		t.Fatalf("writeTable() error = %v", err)
	}
	out := sb.String()

	for _, want := range []string{"Room 1", "Prime Minister", "alice", "club", "total preference", "average preference"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommandStructure(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{"solve": false, "serve": false, "graph": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}
