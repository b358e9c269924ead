// Package token resolves indirect color references.
//
// Any color-valued attribute may hold a literal color or a reference of the
// form "token:<name>". Resolve replaces references with the mapped literal;
// a reference whose name is not mapped is left verbatim, so callers can spot
// it by its prefix instead of getting a blank color.
package token

import (
	"maps"
	"strings"

	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// Prefix marks a token reference.
const Prefix = "token:"

// IsReference returns true if value is a token reference.
func IsReference(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Name returns the token name of a reference, or "" if value is not one.
func Name(value string) string {
	if !IsReference(value) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(value, Prefix))
}

// Ref builds a reference to the named token.
func Ref(name string) string {
	return Prefix + name
}

// Merge combines schema default tokens with caller-supplied values.
// Caller values win. Neither input is modified.
func Merge(defaults, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(overrides))
	maps.Copy(out, defaults)
	maps.Copy(out, overrides)
	return out
}

// Lookup resolves a single attribute value.
func Lookup(value string, tokens map[string]string) string {
	name := Name(value)
	if name == "" {
		return value
	}
	if v, ok := tokens[name]; ok {
		return v
	}
	return value
}

// Resolve returns a copy of root with every token reference in a color
// attribute replaced by its literal.
func Resolve(root schema.Node, tokens map[string]string) schema.Node {
	if len(tokens) == 0 {
		return root
	}
	return resolve(root, tokens)
}

func resolve(n schema.Node, tokens map[string]string) schema.Node {
	switch n.Kind {
	case schema.KindFrame, schema.KindFlex, schema.KindBox:
		n.Background = Lookup(n.Background, tokens)
	case schema.KindText:
		n.Color = Lookup(n.Color, tokens)
	case schema.KindShape:
		n.Fill = Lookup(n.Fill, tokens)
		n.Stroke = Lookup(n.Stroke, tokens)
	case schema.KindImage, schema.KindVector, schema.KindGroup:
		// no color attributes
	default:
		panic("token: unhandled node kind " + string(n.Kind))
	}

	if len(n.Children) == 0 {
		return n
	}
	children := make([]schema.Node, len(n.Children))
	for i, c := range n.Children {
		children[i] = resolve(c, tokens)
	}
	return n.WithChildren(children)
}

// Unresolved returns the distinct token names still referenced in the tree,
// in depth-first order.
func Unresolved(root schema.Node) []string {
	var names []string
	seen := make(map[string]bool)
	note := func(v string) {
		if name := Name(v); name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	schema.Walk(&root, func(n *schema.Node) bool {
		note(n.Background)
		note(n.Color)
		note(n.Fill)
		note(n.Stroke)
		return true
	})
	return names
}
