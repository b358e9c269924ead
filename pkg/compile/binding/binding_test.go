package binding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/gideonchrapko/template-builder/pkg/schema"
)

func tree() schema.Node {
	return schema.Node{
		ID: "root", Kind: schema.KindFrame, Background: "#fff",
		Children: []schema.Node{
			{ID: "title", Kind: schema.KindText, Content: "Placeholder", Color: "#000"},
			{ID: "photo", Kind: schema.KindImage, Src: "default.png"},
			{ID: "mask", Kind: schema.KindVector, Src: "default.png"},
			{ID: "dot", Kind: schema.KindShape, Fill: "token:primary"},
			{ID: "card", Kind: schema.KindBox, Children: []schema.Node{
				{ID: "speaker", Kind: schema.KindText, Content: "Speaker"},
			}},
			{ID: "legacy", Kind: schema.KindGroup},
		},
	}
}

func data() map[string]any {
	return map[string]any{
		"eventTitle": "Launch Night",
		"brand":      map[string]any{"color": "#112233", "logo": "https://cdn.example.com/logo.png"},
		"speakers":   []any{map[string]any{"name": "Ada"}},
		"attendees":  float64(120),
		"ratio":      0.75,
		"soldOut":    true,
		"tags":       []any{"a", "b"},
		"venue":      nil,
	}
}

func find(root schema.Node, id string) *schema.Node {
	var found *schema.Node
	schema.Walk(&root, func(n *schema.Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return found == nil
	})
	return found
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		binding schema.Binding
		nodeID  string
		check   func(t *testing.T, n *schema.Node)
	}{
		{
			name:    "text content",
			binding: schema.Binding{NodeID: "title", Field: "eventTitle", Kind: schema.BindText},
			nodeID:  "title",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "Launch Night", n.Content) },
		},
		{
			name:    "nested path",
			binding: schema.Binding{NodeID: "speaker", Field: "speakers[0].name", Kind: schema.BindText},
			nodeID:  "speaker",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "Ada", n.Content) },
		},
		{
			name:    "number as text",
			binding: schema.Binding{NodeID: "title", Field: "attendees", Kind: schema.BindText},
			nodeID:  "title",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "120", n.Content) },
		},
		{
			name:    "text color",
			binding: schema.Binding{NodeID: "title", Field: "brand.color", Kind: schema.BindColor},
			nodeID:  "title",
			check: func(t *testing.T, n *schema.Node) {
				assert.Equal(t, "#112233", n.Color)
				assert.Equal(t, "Placeholder", n.Content)
			},
		},
		{
			name:    "image source",
			binding: schema.Binding{NodeID: "photo", Field: "brand.logo", Kind: schema.BindImage},
			nodeID:  "photo",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "https://cdn.example.com/logo.png", n.Src) },
		},
		{
			name:    "vector source",
			binding: schema.Binding{NodeID: "mask", Field: "brand.logo", Kind: schema.BindImage},
			nodeID:  "mask",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "https://cdn.example.com/logo.png", n.Src) },
		},
		{
			name:    "shape fill replaces token reference",
			binding: schema.Binding{NodeID: "dot", Field: "brand.color", Kind: schema.BindColor},
			nodeID:  "dot",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "#112233", n.Fill) },
		},
		{
			name:    "container background",
			binding: schema.Binding{NodeID: "root", Field: "brand.color", Kind: schema.BindColor},
			nodeID:  "root",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "#112233", n.Background) },
		},
		{
			name:    "missing field keeps default",
			binding: schema.Binding{NodeID: "title", Field: "nope", Kind: schema.BindText},
			nodeID:  "title",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "Placeholder", n.Content) },
		},
		{
			name:    "null field keeps default",
			binding: schema.Binding{NodeID: "title", Field: "venue.name", Kind: schema.BindText},
			nodeID:  "title",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "Placeholder", n.Content) },
		},
		{
			name:    "kind mismatch is a no-op",
			binding: schema.Binding{NodeID: "dot", Field: "eventTitle", Kind: schema.BindText},
			nodeID:  "dot",
			check:   func(t *testing.T, n *schema.Node) { assert.Equal(t, "token:primary", n.Fill) },
		},
		{
			name:    "image binding on text is a no-op",
			binding: schema.Binding{NodeID: "title", Field: "brand.logo", Kind: schema.BindImage},
			nodeID:  "title",
			check: func(t *testing.T, n *schema.Node) {
				assert.Equal(t, "Placeholder", n.Content)
				assert.Empty(t, n.Src)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tree(), data(), []schema.Binding{tt.binding})
			n := find(got, tt.nodeID)
			if assert.NotNil(t, n) {
				tt.check(t, n)
			}
		})
	}
}

func TestApplyNoOps(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		bindings []schema.Binding
	}{
		{"no bindings", data(), nil},
		{"nil data", nil, []schema.Binding{{NodeID: "title", Field: "eventTitle", Kind: schema.BindText}}},
		{"unknown node", data(), []schema.Binding{{NodeID: "ghost", Field: "eventTitle", Kind: schema.BindText}}},
		{"group target", data(), []schema.Binding{{NodeID: "legacy", Field: "eventTitle", Kind: schema.BindText}}},
		{"malformed path", data(), []schema.Binding{{NodeID: "title", Field: "speakers[", Kind: schema.BindText}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, cmp.Diff(tree(), Apply(tree(), tt.data, tt.bindings)))
		})
	}
}

func TestApplyLastBindingWins(t *testing.T) {
	got := Apply(tree(), data(), []schema.Binding{
		{NodeID: "title", Field: "eventTitle", Kind: schema.BindText},
		{NodeID: "title", Field: "speakers.0.name", Kind: schema.BindText},
		{NodeID: "title", Field: "missing", Kind: schema.BindText},
	})
	assert.Equal(t, "Ada", find(got, "title").Content)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	root := tree()
	_ = Apply(root, data(), []schema.Binding{
		{NodeID: "title", Field: "eventTitle", Kind: schema.BindText},
		{NodeID: "speaker", Field: "speakers[0].name", Kind: schema.BindText},
	})
	assert.Empty(t, cmp.Diff(tree(), root))
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"string", "hi", "hi", true},
		{"integral float", float64(120), "120", true},
		{"fraction", 0.75, "0.75", true},
		{"bool", true, "true", true},
		{"int", 7, "7", true},
		{"array", []any{"a", "b"}, `["a","b"]`, true},
		{"object", map[string]any{"k": 1}, `{"k":1}`, true},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Stringify(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	values := Resolve(data(), []schema.Binding{
		{NodeID: "title", Field: "eventTitle", Kind: schema.BindText},
		{NodeID: "photo", Field: "nope", Kind: schema.BindImage},
	})
	assert.Equal(t, map[string]Value{"title": {Kind: schema.BindText, Text: "Launch Night"}}, values)
}
