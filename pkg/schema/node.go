package schema

import (
	"fmt"
)

// =============================================================================
// Kind - Node Discriminator
// =============================================================================

// Kind selects which variant of the node union a Node holds.
type Kind string

// Node kinds.
const (
	KindFrame  Kind = "frame"
	KindFlex   Kind = "flex"
	KindBox    Kind = "box"
	KindText   Kind = "text"
	KindImage  Kind = "image"
	KindVector Kind = "vector"
	KindShape  Kind = "shape"
	KindGroup  Kind = "group" // legacy flat schemas only
)

// Kinds lists every node kind in declaration order.
var Kinds = []Kind{KindFrame, KindFlex, KindBox, KindText, KindImage, KindVector, KindShape, KindGroup}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFrame, KindFlex, KindBox, KindText, KindImage, KindVector, KindShape, KindGroup:
		return true
	}
	return false
}

// Shape primitives.
const (
	ShapeRectangle = "rectangle"
	ShapeCircle    = "circle"
)

// Flex directions.
const (
	DirectionRow    = "row"
	DirectionColumn = "column"
)

// =============================================================================
// Node - Tagged Union
// =============================================================================

// Node is one addressable visual primitive or container in the layout tree.
//
// Kind decides which of the kind-specific fields are meaningful; the others
// are ignored by every stage. Pointer fields distinguish "unset" from zero.
// Nodes are treated as immutable values: compile stages copy a node and
// replace fields or child slices instead of writing through shared memory.
type Node struct {
	ID      string   `json:"id" bson:"id"`
	Kind    Kind     `json:"type" bson:"type"`
	Name    string   `json:"name,omitempty" bson:"name,omitempty"`
	Visible *bool    `json:"visible,omitempty" bson:"visible,omitempty"` // nil means visible
	X       *float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y       *float64 `json:"y,omitempty" bson:"y,omitempty"`
	ZIndex  *int     `json:"zIndex,omitempty" bson:"zIndex,omitempty"`
	Width   *float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height  *float64 `json:"height,omitempty" bson:"height,omitempty"`

	// Containers (frame, flex, box, group)
	Children     []Node  `json:"children,omitempty" bson:"children,omitempty"`
	Background   string  `json:"background,omitempty" bson:"background,omitempty"`
	Padding      *Insets `json:"padding,omitempty" bson:"padding,omitempty"`
	CornerRadius float64 `json:"cornerRadius,omitempty" bson:"cornerRadius,omitempty"`
	Clip         *bool   `json:"clip,omitempty" bson:"clip,omitempty"` // frame only, nil means clip

	// Flow layout (flex)
	Direction string  `json:"direction,omitempty" bson:"direction,omitempty"`
	Justify   string  `json:"justify,omitempty" bson:"justify,omitempty"`
	Align     string  `json:"align,omitempty" bson:"align,omitempty"`
	Gap       float64 `json:"gap,omitempty" bson:"gap,omitempty"`
	Wrap      bool    `json:"wrap,omitempty" bson:"wrap,omitempty"`

	// Text
	Content       string  `json:"content,omitempty" bson:"content,omitempty"`
	FontFamily    string  `json:"fontFamily,omitempty" bson:"fontFamily,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty" bson:"fontSize,omitempty"`
	FontWeight    string  `json:"fontWeight,omitempty" bson:"fontWeight,omitempty"`
	LineHeight    float64 `json:"lineHeight,omitempty" bson:"lineHeight,omitempty"`
	LetterSpacing float64 `json:"letterSpacing,omitempty" bson:"letterSpacing,omitempty"`
	TextAlign     string  `json:"textAlign,omitempty" bson:"textAlign,omitempty"`
	TextTransform string  `json:"textTransform,omitempty" bson:"textTransform,omitempty"`
	Color         string  `json:"color,omitempty" bson:"color,omitempty"`

	// Image and vector
	Src      string `json:"src,omitempty" bson:"src,omitempty"`
	Fit      string `json:"fit,omitempty" bson:"fit,omitempty"`
	MaskPath string `json:"maskPath,omitempty" bson:"maskPath,omitempty"`
	ViewBox  string `json:"viewBox,omitempty" bson:"viewBox,omitempty"`

	// Shape
	Shape       string   `json:"shape,omitempty" bson:"shape,omitempty"`
	Fill        string   `json:"fill,omitempty" bson:"fill,omitempty"`
	Stroke      string   `json:"stroke,omitempty" bson:"stroke,omitempty"`
	StrokeWidth float64  `json:"strokeWidth,omitempty" bson:"strokeWidth,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty" bson:"opacity,omitempty"`
}

// =============================================================================
// Kind Predicates
// =============================================================================

// IsFrame returns true if n is the root frame.
func (n *Node) IsFrame() bool { return n.Kind == KindFrame }

// IsFlex returns true if n is a flow-layout container.
func (n *Node) IsFlex() bool { return n.Kind == KindFlex }

// IsBox returns true if n is a block grouping container.
func (n *Node) IsBox() bool { return n.Kind == KindBox }

// IsText returns true if n is a text leaf.
func (n *Node) IsText() bool { return n.Kind == KindText }

// IsImage returns true if n is an image leaf.
func (n *Node) IsImage() bool { return n.Kind == KindImage }

// IsVector returns true if n is a masked image composited through an SVG viewport.
func (n *Node) IsVector() bool { return n.Kind == KindVector }

// IsShape returns true if n is a geometric primitive.
func (n *Node) IsShape() bool { return n.Kind == KindShape }

// IsGroup returns true if n is a legacy group.
func (n *Node) IsGroup() bool { return n.Kind == KindGroup }

// IsContainer returns true for every kind that holds a children list.
func (n *Node) IsContainer() bool {
	return n.IsFrame() || n.IsFlex() || n.IsBox() || n.IsGroup()
}

// IsHidden returns true if the visibility flag is explicitly false.
func (n *Node) IsHidden() bool { return n.Visible != nil && !*n.Visible }

// HasPosition returns true if n carries explicit coordinates and is placed
// absolutely instead of participating in its parent's flow.
func (n *Node) HasPosition() bool { return n.X != nil && n.Y != nil }

// IsCircle returns true for circular shapes.
func (n *Node) IsCircle() bool { return n.IsShape() && n.Shape == ShapeCircle }

// HasPositionedChild returns true if any child carries coordinates. Groups
// without coordinates add no box of their own, so their children are
// searched as if they were n's.
func (n *Node) HasPositionedChild() bool {
	for i := range n.Children {
		c := &n.Children[i]
		if c.HasPosition() {
			return true
		}
		if c.IsGroup() && c.HasPositionedChild() {
			return true
		}
	}
	return false
}

// WithChildren returns a shallow copy of n holding children.
func (n Node) WithChildren(children []Node) Node {
	n.Children = children
	return n
}

// Walk calls fn for n and every descendant in depth-first pre-order.
// Returning false from fn skips the node's subtree.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for i := range n.Children {
		Walk(&n.Children[i], fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node) bool {
		total++
		return true
	})
	return total
}

// String returns a short description used in logs and error messages.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Kind, n.ID)
}

// =============================================================================
// Constructors
// =============================================================================

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i.
func Int(i int) *int { return &i }
