// Package override applies variant overrides to a node tree.
//
// An override patches exactly one node, addressed by identifier, and leaves
// its siblings and subtree untouched. Overrides for identifiers that do not
// occur in the tree are ignored.
package override

import (
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// Find returns the variant with the given id, or nil when id is empty or
// unknown. A nil variant leaves the tree unmodified.
func Find(variants []schema.Variant, id string) *schema.Variant {
	if id == "" {
		return nil
	}
	for i := range variants {
		if variants[i].ID == id {
			return &variants[i]
		}
	}
	return nil
}

// Apply returns a copy of root with v's overrides applied.
//
// When a variant lists several overrides for one node, the last one wins.
// Children of an overridden container are still visited, so a hidden
// container may hold a child that is explicitly shown; the markup generator
// drops the whole subtree of a hidden node regardless.
func Apply(root schema.Node, v *schema.Variant) schema.Node {
	if v == nil || len(v.Overrides) == 0 {
		return root
	}
	ops := make(map[string]schema.Operation, len(v.Overrides))
	for _, o := range v.Overrides {
		ops[o.NodeID] = o.Operation
	}
	return apply(root, ops)
}

func apply(n schema.Node, ops map[string]schema.Operation) schema.Node {
	if op, ok := ops[n.ID]; ok {
		n = patch(n, op)
	}
	if len(n.Children) == 0 {
		return n
	}
	children := make([]schema.Node, len(n.Children))
	for i, c := range n.Children {
		children[i] = apply(c, ops)
	}
	return n.WithChildren(children)
}

// patch applies one operation. New operations must only touch n's own
// fields.
func patch(n schema.Node, op schema.Operation) schema.Node {
	switch op {
	case schema.OpHide:
		n.Visible = schema.Bool(false)
	case schema.OpShow:
		n.Visible = schema.Bool(true)
	}
	return n
}
