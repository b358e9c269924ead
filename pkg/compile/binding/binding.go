// Package binding fills node attributes from a caller-supplied data record.
//
// Each binding names a node, a field path into the record, and the kind of
// value it writes:
//
//	text   Text.Content
//	image  Image.Src, Vector.Src
//	color  Shape.Fill, Text.Color, Frame/Flex/Box background
//
// A binding whose kind does not fit the target node, whose node does not
// exist, or whose field resolves to undefined leaves the tree unchanged.
package binding

import (
	"encoding/json"

	"github.com/spf13/cast"

	"github.com/gideonchrapko/template-builder/pkg/fieldpath"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// Resolve looks up the value of every binding in data. The result maps node
// id to its string value; bindings that resolve to undefined are absent.
// When several bindings name one node, the last defined value wins.
func Resolve(data any, bindings []schema.Binding) map[string]Value {
	values := make(map[string]Value, len(bindings))
	for _, b := range bindings {
		raw, ok := fieldpath.Get(data, b.Field)
		if !ok {
			continue
		}
		s, ok := Stringify(raw)
		if !ok {
			continue
		}
		values[b.NodeID] = Value{Kind: b.Kind, Text: s}
	}
	return values
}

// Value is a resolved binding.
type Value struct {
	Kind schema.BindingKind
	Text string
}

// Apply returns a copy of root with every binding applied.
func Apply(root schema.Node, data any, bindings []schema.Binding) schema.Node {
	if len(bindings) == 0 || data == nil {
		return root
	}
	values := Resolve(data, bindings)
	if len(values) == 0 {
		return root
	}
	return apply(root, values)
}

func apply(n schema.Node, values map[string]Value) schema.Node {
	if v, ok := values[n.ID]; ok {
		n = assign(n, v)
	}
	if len(n.Children) == 0 {
		return n
	}
	children := make([]schema.Node, len(n.Children))
	for i, c := range n.Children {
		children[i] = apply(c, values)
	}
	return n.WithChildren(children)
}

// assign writes v into the attribute its kind targets on n.
func assign(n schema.Node, v Value) schema.Node {
	switch n.Kind {
	case schema.KindText:
		switch v.Kind {
		case schema.BindText:
			n.Content = v.Text
		case schema.BindColor:
			n.Color = v.Text
		}
	case schema.KindImage, schema.KindVector:
		if v.Kind == schema.BindImage {
			n.Src = v.Text
		}
	case schema.KindShape:
		if v.Kind == schema.BindColor {
			n.Fill = v.Text
		}
	case schema.KindFrame, schema.KindFlex, schema.KindBox:
		if v.Kind == schema.BindColor {
			n.Background = v.Text
		}
	case schema.KindGroup:
		// nothing bindable
	default:
		panic("binding: unhandled node kind " + string(n.Kind))
	}
	return n
}

// Stringify converts a bound value to text. Scalars use their natural form
// (120 rather than 1.2e+02); arrays and objects are encoded as JSON. ok is
// false for nil.
func Stringify(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s, true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}
