package markup

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/gideonchrapko/template-builder/pkg/schema"
)

const (
	// blockTextMinWidth separates block text (fixed-width paragraphs) from
	// inline labels that size to their content.
	blockTextMinWidth = 120.0

	// maxUnitlessLineHeight is the largest line height read as a multiplier.
	maxUnitlessLineHeight = 5.0

	resetCSS = `*{margin:0;padding:0;box-sizing:border-box;}img,svg{display:block;}`
)

// Option configures document generation.
type Option func(*generator)

// WithTitle sets the document title.
func WithTitle(title string) Option { return func(g *generator) { g.title = title } }

// WithHead appends raw markup to the document head, such as font links that
// an asset inliner will later embed.
func WithHead(markup string) Option { return func(g *generator) { g.head = markup } }

type generator struct {
	buf     bytes.Buffer
	width   float64
	height  float64
	title   string
	head    string
	clipIDs map[string]int
}

// Generate renders a resolved tree as a standalone HTML document sized
// width × height. Zero dimensions fall back to the root's own size.
//
// The tree must already have overrides, tokens, and bindings applied.
// Generate is deterministic: equal inputs produce byte-identical output.
func Generate(root schema.Node, width, height float64, opts ...Option) string {
	if width <= 0 && root.Width != nil {
		width = *root.Width
	}
	if height <= 0 && root.Height != nil {
		height = *root.Height
	}
	g := &generator{width: width, height: height, clipIDs: make(map[string]int)}
	for _, opt := range opts {
		opt(g)
	}

	g.buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	if g.title != "" {
		fmt.Fprintf(&g.buf, "<title>%s</title>\n", html.EscapeString(g.title))
	}
	fmt.Fprintf(&g.buf, "<style>%shtml,body{width:%s;height:%s;overflow:hidden;}</style>\n", resetCSS, px(width), px(height))
	if g.head != "" {
		g.buf.WriteString(g.head)
		g.buf.WriteByte('\n')
	}
	g.buf.WriteString("</head>\n<body>\n")
	g.node(&root, 0)
	g.buf.WriteString("</body>\n</html>\n")
	return g.buf.String()
}

// =============================================================================
// Node Dispatch
// =============================================================================

func (g *generator) node(n *schema.Node, depth int) {
	if n.IsHidden() {
		return
	}
	switch n.Kind {
	case schema.KindFrame:
		g.frame(n, depth)
	case schema.KindFlex, schema.KindBox:
		g.container(n, depth)
	case schema.KindText:
		g.text(n, depth)
	case schema.KindImage:
		g.image(n, depth)
	case schema.KindVector:
		g.vector(n, depth)
	case schema.KindShape:
		g.shape(n, depth)
	case schema.KindGroup:
		g.group(n, depth)
	default:
		panic("markup: unhandled node kind " + string(n.Kind))
	}
}

func (g *generator) children(n *schema.Node, depth int) {
	for i := range n.Children {
		g.node(&n.Children[i], depth+1)
	}
}

// =============================================================================
// Containers
// =============================================================================

func (g *generator) frame(n *schema.Node, depth int) {
	var st style
	placement(&st, n)
	w, h := g.width, g.height
	if n.Width != nil {
		w = *n.Width
	}
	if n.Height != nil {
		h = *n.Height
	}
	st.px("width", w)
	st.px("height", h)
	st.set("display", "flex")
	st.set("flex-direction", "column")
	st.set("background", n.Background)
	padding(&st, n.Padding)
	if n.Clip == nil || *n.Clip {
		st.set("overflow", "hidden")
	}

	g.open("div", n, &st, depth)
	g.children(n, depth)
	g.close("div", depth)
}

func (g *generator) container(n *schema.Node, depth int) {
	var st style
	placement(&st, n)
	size(&st, n)
	st.set("display", "flex")

	dir := n.Direction
	if dir == "" {
		dir = schema.DirectionRow
		if n.IsBox() {
			dir = schema.DirectionColumn
		}
	}
	st.set("flex-direction", dir)
	if n.Gap > 0 {
		st.px("gap", n.Gap)
	}
	st.set("justify-content", flexValue(n.Justify))
	st.set("align-items", flexValue(n.Align))
	if n.Wrap {
		st.set("flex-wrap", "wrap")
	}
	padding(&st, n.Padding)
	st.set("background", n.Background)
	if n.CornerRadius > 0 {
		st.px("border-radius", n.CornerRadius)
		st.set("overflow", "hidden")
	}

	g.open("div", n, &st, depth)
	g.children(n, depth)
	g.close("div", depth)
}

func (g *generator) group(n *schema.Node, depth int) {
	var st style
	if n.HasPosition() {
		placement(&st, n)
		size(&st, n)
	} else {
		st.set("display", "contents")
	}
	g.open("div", n, &st, depth)
	g.children(n, depth)
	g.close("div", depth)
}

// =============================================================================
// Leaves
// =============================================================================

func (g *generator) text(n *schema.Node, depth int) {
	var st style
	placement(&st, n)

	tag := "span"
	if n.Width != nil && *n.Width >= blockTextMinWidth {
		tag = "div"
		st.set("display", "block")
	} else {
		st.set("display", "inline-block")
		st.set("white-space", "nowrap")
	}
	size(&st, n)
	st.set("font-family", n.FontFamily)
	if n.FontSize > 0 {
		st.px("font-size", n.FontSize)
	}
	st.set("font-weight", n.FontWeight)
	if n.LineHeight > 0 {
		st.set("line-height", lineHeight(n.LineHeight))
	}
	if n.LetterSpacing != 0 {
		st.px("letter-spacing", n.LetterSpacing)
	}
	st.set("text-align", n.TextAlign)
	st.set("text-transform", n.TextTransform)
	st.set("color", n.Color)

	g.indent(depth)
	g.startTag(tag, n, &st)
	g.buf.WriteString(textContent(n.Content))
	fmt.Fprintf(&g.buf, "</%s>\n", tag)
}

// textContent escapes s and turns line breaks into <br>.
func textContent(s string) string {
	s = html.EscapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func (g *generator) image(n *schema.Node, depth int) {
	var st style
	placement(&st, n)
	if n.Width != nil {
		st.px("width", *n.Width)
	}
	if n.Height != nil {
		st.px("height", *n.Height)
	} else {
		st.set("height", "auto")
	}
	st.set("overflow", "hidden")
	if n.CornerRadius > 0 {
		st.px("border-radius", n.CornerRadius)
	}

	g.open("div", n, &st, depth)
	if n.Src != "" {
		var img style
		img.set("width", "100%")
		if n.Height != nil {
			img.set("height", "100%")
		} else {
			img.set("height", "auto")
		}
		img.set("object-fit", objectFit(n.Fit))
		g.indent(depth + 1)
		fmt.Fprintf(&g.buf, "<img src=\"%s\" alt=\"\" style=\"%s\">\n",
			html.EscapeString(n.Src), html.EscapeString(img.String()))
	}
	g.close("div", depth)
}

func (g *generator) vector(n *schema.Node, depth int) {
	var st style
	placement(&st, n)
	size(&st, n)

	g.indent(depth)
	fmt.Fprintf(&g.buf, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" data-kind="%s"`, html.EscapeString(n.ID), n.Kind)
	if n.Width != nil {
		fmt.Fprintf(&g.buf, ` width="%s"`, num(*n.Width))
	}
	if n.Height != nil {
		fmt.Fprintf(&g.buf, ` height="%s"`, num(*n.Height))
	}
	if vb := viewBox(n); vb != "" {
		fmt.Fprintf(&g.buf, ` viewBox="%s"`, html.EscapeString(vb))
	}
	if s := st.String(); s != "" {
		fmt.Fprintf(&g.buf, ` style="%s"`, html.EscapeString(s))
	}
	g.buf.WriteString(">\n")

	clip := ""
	if n.MaskPath != "" {
		clip = g.clipID(n.ID)
		g.indent(depth + 1)
		fmt.Fprintf(&g.buf, "<defs><clipPath id=\"%s\"><path d=\"%s\"/></clipPath></defs>\n",
			clip, html.EscapeString(n.MaskPath))
	}
	if n.Src != "" {
		g.indent(depth + 1)
		fmt.Fprintf(&g.buf, `<image href="%s" x="0" y="0" width="100%%" height="100%%" preserveAspectRatio="%s"`,
			html.EscapeString(n.Src), aspectRatio(n.Fit))
		if clip != "" {
			fmt.Fprintf(&g.buf, ` clip-path="url(#%s)"`, clip)
		}
		g.buf.WriteString("/>\n")
	}
	g.close("svg", depth)
}

func viewBox(n *schema.Node) string {
	if n.ViewBox != "" {
		return n.ViewBox
	}
	if n.Width != nil && n.Height != nil {
		return "0 0 " + num(*n.Width) + " " + num(*n.Height)
	}
	return ""
}

// clipID returns a document-unique clip path id derived from a node id.
func (g *generator) clipID(nodeID string) string {
	base := "clip-" + elementID(nodeID)
	g.clipIDs[base]++
	if c := g.clipIDs[base]; c > 1 {
		return fmt.Sprintf("%s-%d", base, c)
	}
	return base
}

func (g *generator) shape(n *schema.Node, depth int) {
	var st style
	placement(&st, n)
	size(&st, n)
	st.set("background", n.Fill)
	if n.IsCircle() {
		st.set("border-radius", "50%")
	} else if n.CornerRadius > 0 {
		st.px("border-radius", n.CornerRadius)
	}
	if n.StrokeWidth > 0 && n.Stroke != "" {
		st.set("border", px(n.StrokeWidth)+" solid "+cssValue(n.Stroke))
	}
	if n.Opacity != nil {
		st.set("opacity", num(*n.Opacity))
	}

	g.open("div", n, &st, depth)
	g.close("div", depth)
}

// =============================================================================
// Shared Style Helpers
// =============================================================================

// placement anchors nodes with coordinates and makes containers of such
// nodes a positioning context. Nodes without coordinates stay in flow.
func placement(st *style, n *schema.Node) {
	switch {
	case n.HasPosition():
		st.set("position", "absolute")
		st.px("left", *n.X)
		st.px("top", *n.Y)
		z := 0
		if n.ZIndex != nil {
			z = *n.ZIndex
		}
		st.set("z-index", fmt.Sprint(z))
	case n.HasPositionedChild() || n.ZIndex != nil:
		st.set("position", "relative")
		if n.ZIndex != nil {
			st.set("z-index", fmt.Sprint(*n.ZIndex))
		}
	}
}

func size(st *style, n *schema.Node) {
	if n.Width != nil {
		st.px("width", *n.Width)
	}
	if n.Height != nil {
		st.px("height", *n.Height)
	}
}

func padding(st *style, p *schema.Insets) {
	if p.IsZero() {
		return
	}
	st.set("padding", px(p.Top)+" "+px(p.Right)+" "+px(p.Bottom)+" "+px(p.Left))
}

// =============================================================================
// Writer
// =============================================================================

func (g *generator) indent(depth int) {
	for range depth {
		g.buf.WriteString("  ")
	}
}

func (g *generator) startTag(tag string, n *schema.Node, st *style) {
	fmt.Fprintf(&g.buf, `<%s id="%s" data-kind="%s"`, tag, html.EscapeString(n.ID), n.Kind)
	if s := st.String(); s != "" {
		fmt.Fprintf(&g.buf, ` style="%s"`, html.EscapeString(s))
	}
	g.buf.WriteByte('>')
}

func (g *generator) open(tag string, n *schema.Node, st *style, depth int) {
	g.indent(depth)
	g.startTag(tag, n, st)
	g.buf.WriteByte('\n')
}

func (g *generator) close(tag string, depth int) {
	g.indent(depth)
	fmt.Fprintf(&g.buf, "</%s>\n", tag)
}
