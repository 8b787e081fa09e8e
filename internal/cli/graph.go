package cli

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hardstucks/podium/pkg/flow"
	"github.com/hardstucks/podium/pkg/seating"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	format  string // debate format: "bp" or "traditional"
	output  string // output file; ".svg" suffix selects SVG rendering
	timeout time.Duration
}

// graphCommand creates the graph command rendering the solved flow network.
// Mostly a debugging aid: seeing which edges carry flow explains why the
// solver placed a participant where it did.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{
		format:  "bp",
		timeout: 60 * time.Second,
	}

	cmd := &cobra.Command{
		Use:   "graph [file]",
		Short: "Render the solved assignment network as DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "debate format: bp (default), traditional")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, rendered as SVG for a .svg suffix (default DOT to stdout)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "computation time limit")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, path string, opts *graphOpts) error {
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

	dot, err := seating.GraphDOT(ctx, participants, seating.Options{
		Format: format,
		Logger: c.Logger,
	})
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := os.Stdout.WriteString(dot)
		return err
	}

	data := []byte(dot)
	if strings.HasSuffix(opts.output, ".svg") {
		if data, err = flow.RenderSVG(ctx, dot); err != nil {
			return err
		}
	}
	if err := os.WriteFile(opts.output, data, 0644); err != nil {
		return err
	}
	c.Logger.Info("wrote graph", "path", opts.output, "bytes", len(data))
	return nil
}
