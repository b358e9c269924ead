// Package outline draws a template's node tree as a Graphviz diagram.
//
// Templates are easier to debug as a picture of their nesting than as a
// page of JSON. [ToDOT] emits one box per node with an arrow from each
// container to its children, in document order. Hidden nodes are drawn
// dashed and grey so the effect of a variant is visible at a glance.
//
// # Usage
//
//	root, err := compile.Resolve(s, compile.Options{Variant: "minimal"})
//	if err != nil {
//	    return err
//	}
//	dot := outline.ToDOT(root, outline.Options{Detailed: true})
//	svg, err := outline.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. No Graphviz installation is needed.
package outline
