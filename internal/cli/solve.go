package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hardstucks/podium/pkg/errors"
	"github.com/hardstucks/podium/pkg/seating"
)

// solveOpts holds the command-line flags for the solve command.
type solveOpts struct {
	format  string // debate format: "bp" or "traditional"
	output  string // output file path, empty for stdout
	asJSON  bool   // emit the JSON response instead of a table
	timeout time.Duration
}

// solveCommand creates the solve command computing assignments for a
// participant file.
func (c *CLI) solveCommand() *cobra.Command {
	opts := solveOpts{
		format:  "bp",
		timeout: 60 * time.Second,
	}

	cmd := &cobra.Command{
		Use:   "solve [file]",
		Short: "Compute room assignments for a participant file",
		Long: `Solve reads a JSON participant list and prints the preference-optimal
room assignments. The input is either a bare array of participants or an
object with a "participants" field, matching the HTTP API request body.
Pass "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "debate format: bp (default), traditional")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "emit the API JSON response instead of a table")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "computation time limit")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, path string, opts *solveOpts) error {
	format, err := seating.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	participants, err := readParticipants(path)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, opts.timeout)
	defer cancel()

	start := time.Now()
	result, err := seating.Solve(ctx, participants, seating.Options{
		Format: format,
		Logger: c.Logger,
	})
	if err != nil {
		return err
	}
	c.Logger.Infof("Assigned %d participants to %d rooms (%s)",
		len(participants), len(result.Rooms), time.Since(start).Round(time.Millisecond))

	out, closeOut, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer closeOut()

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeTable(out, result)
}

// readParticipants loads a participant list from path, or stdin for "-".
// Both the bare-array and the request-object layout are accepted.
func readParticipants(path string) ([]seating.Participant, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading participants from %s", path)
	}

	var wrapped struct {
		Participants []seating.Participant `json:"participants"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Participants != nil {
		return wrapped.Participants, nil
	}

	var bare []seating.Participant
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing participants from %s", path)
	}
	return bare, nil
}

// writeTable renders the assignment as an aligned text table.
func writeTable(w io.Writer, result *seating.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, room := range result.Rooms {
		fmt.Fprintf(tw, "%s\n", room.Name)
		for _, a := range room.Assignments {
			group := a.Group
			if group == "" {
				group = "-"
			}
			fmt.Fprintf(tw, "  %s\t%s\tpref %d\tgroup %s\n", a.Role, a.Name, a.Preference, group)
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintf(tw, "total preference\t%d\n", result.TotalPreference)
	fmt.Fprintf(tw, "average preference\t%.3f\n", result.AveragePreference)
	return tw.Flush()
}

// openOutput returns a writer for path, stdout when path is empty, and a
// cleanup function.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
