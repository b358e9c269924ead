package compile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

func loadPoster(t *testing.T) schema.Schema {
	t.Helper()
	s, err := schema.ReadFile(filepath.Join("testdata", "event-poster.json"))
	require.NoError(t, err)
	return *s
}

func loadData(t *testing.T) any {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", "event-data.json"))
	require.NoError(t, err)
	var data any
	require.NoError(t, json.Unmarshal(b, &data))
	return data
}

func parse(t *testing.T, doc string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return n
}

// renderedIDs returns the ids of every element that represents a node.
func renderedIDs(n *html.Node) []string {
	var ids []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			var id, kind string
			for _, a := range n.Attr {
				switch a.Key {
				case "id":
					id = a.Val
				case "data-kind":
					kind = a.Val
				}
			}
			if kind != "" {
				ids = append(ids, id)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	slices.Sort(ids)
	return ids
}

func byID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := byID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func outer(t *testing.T, n *html.Node) string {
	t.Helper()
	require.NotNil(t, n)
	var sb strings.Builder
	require.NoError(t, html.Render(&sb, n))
	return sb.String()
}

func TestCompileDeterministic(t *testing.T) {
	s := loadPoster(t)
	data := loadData(t)

	for _, variant := range append([]string{""}, s.VariantIDs()...) {
		t.Run("variant="+variant, func(t *testing.T) {
			opts := Options{Variant: variant, Data: data, Tokens: map[string]string{"primary": "#112233"}}
			first, err := Compile(s, opts)
			require.NoError(t, err)
			second, err := Compile(s, opts)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestCompileConcurrentSafe(t *testing.T) {
	s := loadPoster(t)
	data := loadData(t)
	want, err := Compile(s, Options{Variant: "minimal", Data: data})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Compile(s, Options{Variant: "minimal", Data: data})
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestHideRemovesExactlySubtree(t *testing.T) {
	s := loadPoster(t)
	base, err := Compile(s, Options{})
	require.NoError(t, err)
	all := renderedIDs(parse(t, base))

	schema.Walk(s.Root, func(target *schema.Node) bool {
		t.Run(target.ID, func(t *testing.T) {
			subtree := map[string]bool{}
			schema.Walk(target, func(n *schema.Node) bool {
				subtree[n.ID] = true
				return true
			})
			var want []string
			for _, id := range all {
				if !subtree[id] {
					want = append(want, id)
				}
			}

			withHide := s
			withHide.Variants = []schema.Variant{{ID: "hide", Overrides: []schema.Override{
				{NodeID: target.ID, Operation: schema.OpHide},
			}}}
			out, err := Compile(withHide, Options{Variant: "hide"})
			require.NoError(t, err)
			assert.Equal(t, want, renderedIDs(parse(t, out)))
		})
		return true
	})
}

func TestCompileVariant(t *testing.T) {
	s := loadPoster(t)

	out, err := Compile(s, Options{Variant: "minimal"})
	require.NoError(t, err)
	doc := parse(t, out)
	assert.Nil(t, byID(doc, "speakers"))
	assert.Nil(t, byID(doc, "speaker-0"))
	assert.Nil(t, byID(doc, "badge"))
	assert.NotNil(t, byID(doc, "logo"))

	unknown, err := Compile(s, Options{Variant: "does-not-exist"})
	require.NoError(t, err)
	base, err := Compile(s, Options{})
	require.NoError(t, err)
	assert.Equal(t, base, unknown)
}

func TestCompileTokens(t *testing.T) {
	s := loadPoster(t)

	t.Run("defaults", func(t *testing.T) {
		out, err := Compile(s, Options{})
		require.NoError(t, err)
		assert.Contains(t, out, "background:#0b0b0f;")
		assert.Contains(t, out, "background:#1d4ed8;")
		assert.NotContains(t, out, "token:")
	})

	t.Run("caller wins", func(t *testing.T) {
		out, err := Compile(s, Options{Tokens: map[string]string{"primary": "#112233"}})
		require.NoError(t, err)
		assert.Contains(t, out, "#112233")
		assert.NotContains(t, out, "#1d4ed8")
	})

	t.Run("unresolved keeps reference", func(t *testing.T) {
		s := s
		s.Tokens = nil
		out, err := Compile(s, Options{})
		require.NoError(t, err)
		assert.Contains(t, out, "background:token:surface;")
		assert.Contains(t, out, "color:token:ink;")
	})
}

func TestCompileBindings(t *testing.T) {
	s := loadPoster(t)
	out, err := Compile(s, Options{Data: loadData(t)})
	require.NoError(t, err)
	doc := parse(t, out)

	text := func(id string) string {
		n := byID(doc, id)
		require.NotNil(t, n, id)
		require.NotNil(t, n.FirstChild, id)
		return n.FirstChild.Data
	}
	assert.Equal(t, "Launch Night", text("title"))
	assert.Equal(t, "Thu, Oct 22 · 7pm", text("date"))
	assert.Equal(t, "Ada Lovelace", text("speaker-0"))
	assert.Equal(t, "Speaker", text("speaker-1"), "missing array element keeps default")
	assert.Contains(t, out, `href="https://cdn.example.com/hero.jpg"`)
	assert.Contains(t, out, "background:#f97316;", "bound color replaces token reference")
}

func TestCompileBoundTextEscaped(t *testing.T) {
	s := loadPoster(t)
	out, err := Compile(s, Options{Data: map[string]any{"eventTitle": `<b>Launch</b> & "Night"`}})
	require.NoError(t, err)

	assert.NotContains(t, out, "<b>Launch</b>")
	assert.Contains(t, out, "&lt;b&gt;Launch&lt;/b&gt; &amp; &#34;Night&#34;")
}

func TestCompileScenarios(t *testing.T) {
	frame := func(children ...schema.Node) *schema.Node {
		return &schema.Node{
			ID: "frame", Kind: schema.KindFrame,
			Width: schema.Float(1080), Height: schema.Float(1350),
			Children: children,
		}
	}

	t.Run("bound title", func(t *testing.T) {
		s := schema.Schema{
			Root:     frame(schema.Node{ID: "title", Kind: schema.KindText}),
			Bindings: []schema.Binding{{NodeID: "title", Field: "eventTitle", Kind: schema.BindText}},
		}
		out, err := Compile(s, Options{Data: map[string]any{"eventTitle": "Launch Night"}})
		require.NoError(t, err)
		assert.Contains(t, out, "Launch Night")
		assert.NotContains(t, out, "eventTitle")
		assert.Contains(t, out, "html,body{width:1080px;height:1350px;")
	})

	t.Run("token fill", func(t *testing.T) {
		s := schema.Schema{Root: frame(schema.Node{ID: "dot", Kind: schema.KindShape, Fill: "token:primary"})}
		out, err := Compile(s, Options{Tokens: map[string]string{"primary": "#112233"}})
		require.NoError(t, err)
		assert.Contains(t, out, "background:#112233;")
		assert.NotContains(t, out, "token:primary")
	})

	t.Run("hidden logo", func(t *testing.T) {
		s := schema.Schema{
			Root: frame(
				schema.Node{ID: "logo", Kind: schema.KindImage, Src: "logo.png"},
				schema.Node{ID: "title", Kind: schema.KindText, Content: "x"},
			),
			Variants: []schema.Variant{{ID: "v", Overrides: []schema.Override{{NodeID: "logo", Operation: schema.OpHide}}}},
		}
		out, err := Compile(s, Options{Variant: "v"})
		require.NoError(t, err)
		assert.NotContains(t, out, `id="logo"`)
		assert.Contains(t, out, `id="title"`)
	})

	t.Run("placeholder kept", func(t *testing.T) {
		s := schema.Schema{
			Root:     frame(schema.Node{ID: "title", Kind: schema.KindText, Content: "Placeholder"}),
			Bindings: []schema.Binding{{NodeID: "title", Field: "event.missing", Kind: schema.BindText}},
		}
		out, err := Compile(s, Options{Data: map[string]any{"event": map[string]any{}}})
		require.NoError(t, err)
		assert.Contains(t, out, ">Placeholder</")
	})
}

func TestCompileLegacyRoundTrip(t *testing.T) {
	nodes := []schema.Node{
		{ID: "bg", Kind: schema.KindShape, X: schema.Float(0), Y: schema.Float(0), Width: schema.Float(1080), Height: schema.Float(1350), Fill: "token:primary"},
		{ID: "title", Kind: schema.KindText, X: schema.Float(64), Y: schema.Float(120), Width: schema.Float(900), Content: "Hello", ZIndex: schema.Int(2)},
		{ID: "logos", Kind: schema.KindGroup, X: schema.Float(64), Y: schema.Float(1200), Children: []schema.Node{
			{ID: "logo", Kind: schema.KindImage, Src: "logo.png", Width: schema.Float(120)},
		}},
	}
	tokens := map[string]string{"primary": "#112233"}
	bindings := []schema.Binding{{NodeID: "title", Field: "t", Kind: schema.BindText}}
	data := map[string]any{"t": "Bound"}

	legacySchema := schema.Schema{Width: 1080, Height: 1350, Nodes: nodes, Tokens: tokens, Bindings: bindings}
	nativeSchema := schema.Schema{
		Root: &schema.Node{
			ID: "native", Kind: schema.KindFrame,
			Width: schema.Float(1080), Height: schema.Float(1350),
			Children: nodes,
		},
		Tokens:   tokens,
		Bindings: bindings,
	}

	legacyOut, err := Compile(legacySchema, Options{Data: data})
	require.NoError(t, err)
	nativeOut, err := Compile(nativeSchema, Options{Data: data})
	require.NoError(t, err)

	legacyDoc, nativeDoc := parse(t, legacyOut), parse(t, nativeOut)
	for _, id := range []string{"bg", "title", "logos"} {
		assert.Equal(t, outer(t, byID(nativeDoc, id)), outer(t, byID(legacyDoc, id)), id)
	}
	assert.Contains(t, outer(t, byID(legacyDoc, "frame")), "background:#ffffff;")
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema schema.Schema
		code   perrors.Code
	}{
		{"no root and no nodes", schema.Schema{Family: "event-poster"}, perrors.ErrCodeMalformedSchema},
		{"unknown root kind", schema.Schema{Root: &schema.Node{ID: "f", Kind: "canvas"}}, perrors.ErrCodeMalformedSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Compile(tt.schema, Options{})
			require.Error(t, err)
			assert.Empty(t, out)
			assert.Equal(t, tt.code, perrors.GetCode(err))
		})
	}
}

func TestCompileSkipsUnknownKinds(t *testing.T) {
	s := schema.Schema{Family: "flyer", Root: &schema.Node{ID: "f", Kind: schema.KindFrame, Children: []schema.Node{
		{ID: "weird", Kind: "svgpath", Children: []schema.Node{{ID: "under", Kind: schema.KindText, Content: "lost"}}},
		{ID: "title", Kind: schema.KindText, Content: "kept", Color: "token:ink"},
	}}, Tokens: map[string]string{"ink": "#111111"}}

	out, err := Compile(s, Options{})
	require.NoError(t, err)
	doc := parse(t, out)
	assert.Nil(t, byID(doc, "weird"))
	assert.Nil(t, byID(doc, "under"))
	require.NotNil(t, byID(doc, "title"))
	assert.Contains(t, out, "color:#111111;")

	t.Run("legacy", func(t *testing.T) {
		legacyOut, err := Compile(schema.Schema{Width: 100, Height: 100, Nodes: []schema.Node{
			{ID: "s", Kind: "sticker"},
			{ID: "dot", Kind: schema.KindShape, X: schema.Float(1), Y: schema.Float(1)},
		}}, Options{})
		require.NoError(t, err)
		doc := parse(t, legacyOut)
		assert.Nil(t, byID(doc, "s"))
		assert.NotNil(t, byID(doc, "dot"))
	})
}

func TestCompileDoesNotMutateSchema(t *testing.T) {
	s := loadPoster(t)
	before, err := schema.Marshal(&s)
	require.NoError(t, err)

	_, err = Compile(s, Options{Variant: "minimal", Data: loadData(t), Tokens: map[string]string{"ink": "#000"}})
	require.NoError(t, err)

	after, err := schema.Marshal(&s)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestCanvas(t *testing.T) {
	root := schema.Node{Width: schema.Float(800), Height: schema.Float(600)}

	w, h := Canvas(schema.Schema{Width: 1080, Height: 1350}, root)
	assert.Equal(t, []float64{1080, 1350}, []float64{w, h})

	w, h = Canvas(schema.Schema{}, root)
	assert.Equal(t, []float64{800, 600}, []float64{w, h})

	w, h = Canvas(schema.Schema{Width: 1080}, schema.Node{})
	assert.Equal(t, []float64{1080, 0}, []float64{w, h})
}
