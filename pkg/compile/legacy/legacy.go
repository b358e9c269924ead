// Package legacy adapts flat, absolutely-positioned template schemas to the
// tree representation.
//
// Older templates store their nodes as one ordered list with canvas
// coordinates. [Normalize] wraps that list in a synthetic root frame so the
// rest of the compile pipeline handles both schema generations identically.
// The wrap is lossless: nodes are carried over unchanged and in order.
package legacy

import (
	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// Synthetic frame defaults.
const (
	FrameID         = "frame"
	FrameBackground = "#ffffff"
)

// Normalize returns the root frame of s.
//
// A schema with a Root returns it as-is. A legacy schema returns a synthetic
// frame sized to the canvas whose direct children are s.Nodes. A schema with
// neither is malformed: there is nothing to render, so a MALFORMED_SCHEMA
// error naming the template is returned.
func Normalize(s schema.Schema) (schema.Node, error) {
	if s.Root != nil {
		return *s.Root, nil
	}
	if len(s.Nodes) == 0 {
		return schema.Node{}, perrors.New(perrors.ErrCodeMalformedSchema,
			"template %s has neither a root frame nor a legacy node list", s.Label())
	}
	return Wrap(s.Nodes, s.Width, s.Height), nil
}

// Wrap builds the synthetic frame around nodes.
func Wrap(nodes []schema.Node, width, height float64) schema.Node {
	children := make([]schema.Node, len(nodes))
	copy(children, nodes)

	frame := schema.Node{
		ID:         FrameID,
		Kind:       schema.KindFrame,
		Background: FrameBackground,
		Clip:       schema.Bool(true),
		Padding:    &schema.Insets{},
		Children:   children,
	}
	if width > 0 {
		frame.Width = schema.Float(width)
	}
	if height > 0 {
		frame.Height = schema.Float(height)
	}
	return frame
}
