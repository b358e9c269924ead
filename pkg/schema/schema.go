package schema

import (
	"fmt"
	"strings"

	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
)

// =============================================================================
// Schema - Template Document
// =============================================================================

// Schema is one template: canvas size, a root frame (or a legacy flat node
// list), default color tokens, variants, and bindings.
//
// Exactly one of Root and Nodes is expected to be set. Schemas built before
// the tree representation existed carry only Nodes; see the legacy package.
type Schema struct {
	Family   string            `json:"family,omitempty" bson:"family,omitempty"`
	Name     string            `json:"name,omitempty" bson:"name,omitempty"`
	Width    float64           `json:"width,omitempty" bson:"width,omitempty"`
	Height   float64           `json:"height,omitempty" bson:"height,omitempty"`
	Root     *Node             `json:"root,omitempty" bson:"root,omitempty"`
	Nodes    []Node            `json:"nodes,omitempty" bson:"nodes,omitempty"`
	Tokens   map[string]string `json:"tokens,omitempty" bson:"tokens,omitempty"`
	Variants []Variant         `json:"variants,omitempty" bson:"variants,omitempty"`
	Bindings []Binding         `json:"bindings,omitempty" bson:"bindings,omitempty"`
}

// Variant is a named set of overrides selectable at compile time.
type Variant struct {
	ID        string     `json:"id" bson:"id"`
	Name      string     `json:"name,omitempty" bson:"name,omitempty"`
	Overrides []Override `json:"overrides,omitempty" bson:"overrides,omitempty"`
}

// Operation is a patch applied to one node by an override.
type Operation string

// Override operations.
const (
	OpHide Operation = "hide"
	OpShow Operation = "show"
)

// Override targets one node by identifier.
type Override struct {
	NodeID    string    `json:"nodeId" bson:"nodeId"`
	Operation Operation `json:"operation" bson:"operation"`
}

// BindingKind is the value kind a binding expects to write.
type BindingKind string

// Binding kinds.
const (
	BindText  BindingKind = "text"
	BindImage BindingKind = "image"
	BindColor BindingKind = "color"
)

// Binding maps one node attribute to a field path in caller-supplied data.
type Binding struct {
	NodeID string      `json:"nodeId" bson:"nodeId"`
	Field  string      `json:"field" bson:"field"`
	Kind   BindingKind `json:"type" bson:"type"`
}

// IsLegacy returns true if the schema only carries the flat node list.
func (s *Schema) IsLegacy() bool {
	return s.Root == nil && len(s.Nodes) > 0
}

// Label returns a human-readable identifier for logs and errors.
func (s *Schema) Label() string {
	switch {
	case s.Family != "" && s.Name != "":
		return s.Family + "/" + s.Name
	case s.Family != "":
		return s.Family
	case s.Name != "":
		return s.Name
	}
	return "<unnamed>"
}

// VariantIDs returns variant identifiers in declaration order.
func (s *Schema) VariantIDs() []string {
	ids := make([]string, len(s.Variants))
	for i, v := range s.Variants {
		ids[i] = v.ID
	}
	return ids
}

// =============================================================================
// Validation
// =============================================================================

// Severity classifies a validation problem.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem is one finding reported by Check.
type Problem struct {
	Severity Severity
	NodeID   string
	Message  string
}

func (p Problem) String() string {
	if p.NodeID == "" {
		return fmt.Sprintf("%s: %s", p.Severity, p.Message)
	}
	return fmt.Sprintf("%s: %s: %s", p.Severity, p.NodeID, p.Message)
}

// Check inspects the schema and returns every problem found.
//
// Errors are structural: no root, unknown node kinds, empty or duplicate
// identifiers. Dangling override or binding targets are warnings because
// the compiler treats them as no-ops.
func (s *Schema) Check() []Problem {
	var problems []Problem
	add := func(sev Severity, id, format string, args ...any) {
		problems = append(problems, Problem{Severity: sev, NodeID: id, Message: fmt.Sprintf(format, args...)})
	}

	var roots []Node
	switch {
	case s.Root != nil:
		roots = []Node{*s.Root}
		if !s.Root.IsFrame() {
			add(SeverityWarning, s.Root.ID, "root is %s, not a frame", s.Root.Kind)
		}
	case len(s.Nodes) > 0:
		roots = s.Nodes
	default:
		add(SeverityError, "", "schema has neither a root frame nor a legacy node list")
		return problems
	}

	seen := make(map[string]bool)
	for i := range roots {
		Walk(&roots[i], func(n *Node) bool {
			if !n.Kind.Valid() {
				add(SeverityError, n.ID, "unknown node type %q", n.Kind)
			}
			if n.ID == "" {
				add(SeverityError, "", "%s node without an id", n.Kind)
			} else if seen[n.ID] {
				add(SeverityError, n.ID, "duplicate node id")
			}
			seen[n.ID] = true
			if len(n.Children) > 0 && !n.IsContainer() {
				add(SeverityWarning, n.ID, "%s node has children that will not render", n.Kind)
			}
			if isRelativeAsset(n.Src) {
				if err := perrors.ValidatePath(n.Src); err != nil {
					add(SeverityWarning, n.ID, "asset %q: %s", n.Src, perrors.UserMessage(err))
				}
			}
			return true
		})
	}

	for _, v := range s.Variants {
		for _, o := range v.Overrides {
			if !seen[o.NodeID] {
				add(SeverityWarning, o.NodeID, "variant %q overrides an unknown node", v.ID)
			}
			if o.Operation != OpHide && o.Operation != OpShow {
				add(SeverityWarning, o.NodeID, "variant %q uses unsupported operation %q", v.ID, o.Operation)
			}
		}
	}
	for _, b := range s.Bindings {
		if !seen[b.NodeID] {
			add(SeverityWarning, b.NodeID, "binding for field %q targets an unknown node", b.Field)
		}
	}
	return problems
}

// isRelativeAsset reports whether src is a document-relative path rather
// than a URL, data URI, or root-relative path.
func isRelativeAsset(src string) bool {
	return src != "" && !strings.Contains(src, ":") && !strings.HasPrefix(src, "/")
}

// Validate returns an INVALID_SCHEMA error listing every error-level problem.
// Warnings are ignored.
func (s *Schema) Validate() error {
	var msgs []string
	for _, p := range s.Check() {
		if p.Severity == SeverityError {
			msgs = append(msgs, p.String())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return perrors.New(perrors.ErrCodeInvalidSchema, "template %s: %s", s.Label(), strings.Join(msgs, "; "))
}

// PruneUnknown returns a copy of root without the subtrees whose kind is
// unknown, and the ids of the removed nodes in pre-order. Compile stages
// switch exhaustively on Kind and rely on this having been called. The
// root's own kind is not checked.
func PruneUnknown(root Node) (Node, []string) {
	var dropped []string
	return prune(root, &dropped), dropped
}

func prune(n Node, dropped *[]string) Node {
	if len(n.Children) == 0 {
		return n
	}
	kept := make([]Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.Kind.Valid() {
			*dropped = append(*dropped, c.ID)
			continue
		}
		kept = append(kept, prune(c, dropped))
	}
	return n.WithChildren(kept)
}
