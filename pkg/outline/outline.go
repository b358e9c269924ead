package outline

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the node kind, size, and position to labels.
	// When false, only the node ID is shown.
	Detailed bool
}

// ToDOT converts a node tree to Graphviz DOT source.
func ToDOT(root schema.Node, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.15;\n")
	buf.WriteString("\n")

	var edges []string
	var visit func(n *schema.Node, hidden bool)
	visit = func(n *schema.Node, hidden bool) {
		hidden = hidden || n.IsHidden()
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, hidden, opts.Detailed), ", "))
		for i := range n.Children {
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", n.ID, n.Children[i].ID))
			visit(&n.Children[i], hidden)
		}
	}
	visit(&root, false)

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *schema.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	parts := []string{string(n.Kind)}
	if n.Width != nil || n.Height != nil {
		parts = append(parts, "size: "+dim(n.Width)+"x"+dim(n.Height))
	}
	if n.HasPosition() {
		parts = append(parts, "at: "+dim(n.X)+","+dim(n.Y))
	}
	if n.ZIndex != nil {
		parts = append(parts, "z: "+strconv.Itoa(*n.ZIndex))
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *schema.Node, hidden, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch {
	case hidden:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=grey40")
	case n.IsContainer():
		attrs = append(attrs, "fillcolor=aliceblue")
	}
	return attrs
}

func dim(v *float64) string {
	if v == nil {
		return "auto"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// RenderSVG renders DOT source to SVG using Graphviz.
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
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// anchored at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
