// Package compile turns a template schema into a standalone HTML document.
//
// Compile runs the stages in a fixed order:
//
//	legacy    wrap a flat node list in a synthetic frame
//	override  apply the selected variant's hide/show patches
//	token     replace token:<name> colors with literals
//	binding   copy values from the data record into nodes
//	markup    render the tree
//
// Tokens run before bindings so a bound value is never mistaken for a
// reference, and overrides run first so visibility is settled before any
// node is touched. Every stage returns a new tree; the schema passed in is
// never modified and may be shared by concurrent compiles.
//
// Data problems degrade silently: unknown variant ids, unresolved tokens,
// and missing bound values leave the template's own values in place, and
// nodes of a type this package does not know are left out with their
// subtrees. Only a schema with nothing to render is an error.
package compile

import (
	"github.com/gideonchrapko/template-builder/pkg/compile/binding"
	"github.com/gideonchrapko/template-builder/pkg/compile/legacy"
	"github.com/gideonchrapko/template-builder/pkg/compile/markup"
	"github.com/gideonchrapko/template-builder/pkg/compile/override"
	"github.com/gideonchrapko/template-builder/pkg/compile/token"
	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// Options selects what to compile. The zero value compiles the base
// template with its default tokens and no data.
type Options struct {
	Variant string            // variant id; empty or unknown means none
	Tokens  map[string]string // merged over the schema's default tokens
	Data    any               // record read by bindings
	Title   string            // document title, optional
}

// Compile renders s as an HTML document.
func Compile(s schema.Schema, opts Options) (string, error) {
	root, err := Resolve(s, opts)
	if err != nil {
		return "", err
	}
	return Render(s, root, opts), nil
}

// Resolve runs every stage except markup generation and returns the final
// tree. It is used by Compile and by tools that inspect the resolved tree.
func Resolve(s schema.Schema, opts Options) (schema.Node, error) {
	root, err := legacy.Normalize(s)
	if err != nil {
		return schema.Node{}, err
	}
	if !root.Kind.Valid() {
		return schema.Node{}, perrors.New(perrors.ErrCodeMalformedSchema,
			"template %s: root node %q has unknown type %q", s.Label(), root.ID, root.Kind)
	}
	root, _ = schema.PruneUnknown(root)

	root = override.Apply(root, override.Find(s.Variants, opts.Variant))
	root = token.Resolve(root, token.Merge(s.Tokens, opts.Tokens))
	root = binding.Apply(root, opts.Data, s.Bindings)
	return root, nil
}

// Render generates the document for a tree returned by Resolve.
func Render(s schema.Schema, root schema.Node, opts Options) string {
	width, height := Canvas(s, root)
	var mopts []markup.Option
	if opts.Title != "" {
		mopts = append(mopts, markup.WithTitle(opts.Title))
	}
	return markup.Generate(root, width, height, mopts...)
}

// Canvas returns the output size: the schema's declared canvas, falling
// back to the root's own size per dimension.
func Canvas(s schema.Schema, root schema.Node) (width, height float64) {
	width, height = s.Width, s.Height
	if width <= 0 && root.Width != nil {
		width = *root.Width
	}
	if height <= 0 && root.Height != nil {
		height = *root.Height
	}
	return width, height
}
