package flow

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts the network to Graphviz DOT format for debugging.
// Node labels carry the kind and id; edge labels show flow/capacity and cost.
// Residual edges are omitted. Output order follows node and edge insertion
// order, so the same network always renders identically.
func ToDOT(n *Network, labels map[int]string) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for _, node := range n.nodes {
		label := labels[node.ID]
		if label == "" {
			label = fmt.Sprintf("%s %d", node.Kind, node.ID)
		}
		fmt.Fprintf(&buf, "  n%d [label=%q%s];\n", node.ID, label, kindAttrs(node.Kind))
	}

	buf.WriteString("\n")
	for _, e := range n.edges {
		fmt.Fprintf(&buf, "  n%d -> n%d [label=\"%d/%d @%d\"%s];\n",
			e.From, e.To, e.flow, e.Capacity, e.Cost, flowAttrs(e))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func kindAttrs(k NodeKind) string {
	switch k {
	case KindSource, KindSink:
		return ", fillcolor=lightgrey"
	case KindGroupHub:
		return ", style=\"rounded,filled,dashed\", fillcolor=lightyellow"
	case KindRoom:
		return ", fillcolor=lightblue"
	default:
		return ""
	}
}

func flowAttrs(e *Edge) string {
	if e.flow > 0 {
		return ", penwidth=2"
	}
	return ", color=grey"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
