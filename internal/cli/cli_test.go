package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// runCLI executes the root command against testdata/templates with caching
// in a fresh temp dir and no environment overrides.
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	isolate(t)
	return runWith(t, New(io.Discard, LogInfo), args...)
}

// isolate points the config and cache directories at temp dirs for the
// rest of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
}

// runWith executes c's root command against testdata/templates.
func runWith(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	c.getenv = func(string) string { return "" }
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--templates", filepath.Join("testdata", "templates")}, args...))
	return root.ExecuteContext(context.Background())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// =============================================================================
// compile
// =============================================================================

func TestCompileCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "poster.html")
	err := runCLI(t, "compile", "event-poster",
		"--variant", "full",
		"--data", filepath.Join("testdata", "event.json"),
		"--token", "primary=#ff0066",
		"--title", "Launch",
		"-o", out)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	html := readFile(t, out)
	for _, want := range []string{"<!DOCTYPE html>", "<title>Launch</title>", "Launch Night", "Grace Hopper", "#ff0066"} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestCompileCommandVariant(t *testing.T) {
	out := filepath.Join(t.TempDir(), "minimal.html")
	if err := runCLI(t, "compile", "event-poster", "-V", "minimal", "-o", out); err != nil {
		t.Fatalf("compile: %v", err)
	}
	html := readFile(t, out)
	if strings.Contains(html, `id="speakers"`) || strings.Contains(html, `id="badge"`) {
		t.Error("minimal variant should hide speakers and badge")
	}
	if !strings.Contains(html, `id="hero"`) {
		t.Error("minimal variant should keep the hero")
	}
}

func TestCompileCommandFileArgument(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "out.html")
	err := runCLI(t, "compile", filepath.Join("testdata", "templates", "event-poster.json"),
		"--tokens", filepath.Join("testdata", "tokens.yaml"),
		"--no-cache",
		"-o", out)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if html := readFile(t, out); !strings.Contains(html, "#fafafa") {
		t.Error("tokens file should override the ink token")
	}
}

func TestCompileCommandAllVariants(t *testing.T) {
	dir := t.TempDir()
	if err := runCLI(t, "compile", "event-poster", "--all-variants", "-o", dir); err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, v := range []string{"full", "minimal", "no-logo"} {
		path := filepath.Join(dir, "event-poster-"+v+".html")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output for %s: %v", v, err)
		}
	}
}

func TestCompileCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code perrors.Code
	}{
		{"unknown family", []string{"compile", "missing"}, perrors.ErrCodeTemplateNotFound},
		{"bad token", []string{"compile", "event-poster", "--token", "primary"}, perrors.ErrCodeInvalidInput},
		{"conflicting flags", []string{"compile", "event-poster", "--all-variants", "-V", "full"}, perrors.ErrCodeInvalidInput},
		{"bad data format", []string{"compile", "event-poster", "--data", "data.csv"}, perrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(t, tt.args...)
			if !perrors.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBuildPipelineOptions(t *testing.T) {
	opts, err := buildPipelineOptions("event-poster", compileOpts{
		variant:    "full",
		tokensPath: filepath.Join("testdata", "tokens.yaml"),
		tokens:     []string{"primary=#000000", "accent = #123456"},
		dataPath:   filepath.Join("testdata", "event.json"),
		refresh:    true,
	})
	if err != nil {
		t.Fatalf("buildPipelineOptions: %v", err)
	}
	if opts.Family != "event-poster" || opts.Schema != nil {
		t.Errorf("family argument should not load a schema: %+v", opts)
	}
	want := map[string]string{"primary": "#000000", "ink": "#fafafa", "accent": "#123456"}
	if len(opts.Tokens) != len(want) {
		t.Fatalf("Tokens = %v, want %v", opts.Tokens, want)
	}
	for k, v := range want {
		if opts.Tokens[k] != v {
			t.Errorf("Tokens[%s] = %q, want %q", k, opts.Tokens[k], v)
		}
	}
	if !opts.Refresh || opts.Variant != "full" {
		t.Errorf("flags not carried: %+v", opts)
	}
	data, ok := opts.Data.(map[string]any)
	if !ok || data["eventTitle"] != "Launch Night" {
		t.Errorf("Data = %#v", opts.Data)
	}
}

func TestTemplateOptionsDefaultsFamily(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spring-sale.yaml")
	body := "root:\n  id: root\n  type: frame\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	opts, err := templateOptions(path)
	if err != nil {
		t.Fatalf("templateOptions: %v", err)
	}
	if opts.Schema == nil || opts.Family != "spring-sale" {
		t.Errorf("got family %q, schema %v", opts.Family, opts.Schema)
	}

	// a name with a schema extension that does not exist is a family name
	opts, err = templateOptions("absent.json")
	if err != nil || opts.Schema != nil || opts.Family != "absent.json" {
		t.Errorf("absent file: %+v, %v", opts, err)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		family, variant string
		want            string
		wantErr         bool
	}{
		{"event-poster", "", "event-poster.html", false},
		{"event-poster", "story", "event-poster-story.html", false},
		{"event-poster", "../x", "", true},
		{"event-poster", `a\b`, "", true},
		{"../flyer", "", "", true},
		{"", "story", "", true},
	}
	for _, tt := range tests {
		got, err := outputName(tt.family, tt.variant)
		if tt.wantErr {
			if !perrors.Is(err, perrors.ErrCodeInvalidPath) {
				t.Errorf("outputName(%q, %q) error = %v, want INVALID_PATH", tt.family, tt.variant, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("outputName(%q, %q) = %q, %v; want %q", tt.family, tt.variant, got, err, tt.want)
		}
	}
}

func TestCompileAllRejectsUnsafeVariantIDs(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "flyer.json")
	body := `{"root": {"id": "root", "type": "frame"}, "variants": [{"id": "safe"}, {"id": "../escape"}]}`
	if err := os.WriteFile(src, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(base, "out")
	err := runCLI(t, "compile", src, "--all-variants", "-o", out)
	if !perrors.Is(err, perrors.ErrCodeInvalidPath) {
		t.Fatalf("got %v, want INVALID_PATH", err)
	}
	if _, err := os.Stat(out); err == nil {
		t.Errorf("output directory %s was created", out)
	}
}

// =============================================================================
// validate, outline, push, cache
// =============================================================================

func TestValidateCommand(t *testing.T) {
	if err := runCLI(t, "validate", "event-poster"); err != nil {
		t.Errorf("valid template: %v", err)
	}
	err := runCLI(t, "validate", filepath.Join("testdata", "duplicate.json"))
	if !perrors.Is(err, perrors.ErrCodeInvalidSchema) {
		t.Errorf("duplicate ids: got %v, want INVALID_SCHEMA", err)
	}
}

func TestUnresolvedProblems(t *testing.T) {
	s := &schema.Schema{
		Tokens: map[string]string{"ink": "#fff"},
		Root: &schema.Node{ID: "root", Kind: schema.KindFrame, Background: "token:paper", Children: []schema.Node{
			{ID: "t", Kind: schema.KindText, Color: "token:ink"},
		}},
		Variants: []schema.Variant{{ID: "a"}, {ID: "b"}},
	}
	problems := unresolvedProblems(s)
	if len(problems) != 1 {
		t.Fatalf("got %d problems, want 1: %v", len(problems), problems)
	}
	if problems[0].Severity != schema.SeverityWarning || !strings.Contains(problems[0].Message, "paper") {
		t.Errorf("unexpected problem %v", problems[0])
	}
}

func TestOutlineCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "outline.dot")
	if err := runCLI(t, "outline", "event-poster", "-V", "minimal", "--detailed", "-o", out); err != nil {
		t.Fatalf("outline: %v", err)
	}
	dot := readFile(t, out)
	if !strings.HasPrefix(dot, "digraph G {") || !strings.Contains(dot, `"poster" -> "speakers"`) {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
	if err := runCLI(t, "outline", "event-poster", "-f", "png"); err == nil {
		t.Error("png format should be rejected")
	}
}

func TestPushRequiresMongo(t *testing.T) {
	err := runCLI(t, "push", filepath.Join("testdata", "templates", "event-poster.json"))
	if !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("got %v, want INVALID_INPUT", err)
	}
}

func TestCacheClearCommand(t *testing.T) {
	cacheDir := t.TempDir()
	cfg := writeConfig(t, "[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(cacheDir)+"\"\n")

	out := filepath.Join(t.TempDir(), "poster.html")
	if err := runCLI(t, "--config", cfg, "compile", "event-poster", "-o", out); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if n := countFiles(t, cacheDir); n == 0 {
		t.Fatal("compile should populate the cache")
	}

	if err := runCLI(t, "--config", cfg, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countFiles(t, cacheDir); n != 0 {
		t.Errorf("%d files left after clear", n)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// =============================================================================
// variant picker
// =============================================================================

func TestVariantListModel(t *testing.T) {
	s := &schema.Schema{
		Family: "event-poster",
		Variants: []schema.Variant{
			{ID: "full"},
			{ID: "minimal", Overrides: []schema.Override{
				{NodeID: "a", Operation: schema.OpHide},
				{NodeID: "b", Operation: schema.OpHide},
				{NodeID: "c", Operation: schema.OpShow},
			}},
		},
	}
	m := NewVariantListModel(s)
	if len(m.Rows) != 3 || m.Rows[0].ID != "" {
		t.Fatalf("rows = %+v, want base row first", m.Rows)
	}
	if m.Rows[2].Hides != 2 || m.Rows[2].Shows != 1 {
		t.Errorf("minimal row = %+v", m.Rows[2])
	}

	key := func(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }
	var model tea.Model = m
	model, _ = model.Update(key("j"))
	model, _ = model.Update(key("j"))
	model, _ = model.Update(key("j")) // clamps at the last row
	model, _ = model.Update(key("k"))
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	got := model.(VariantListModel)
	if got.Selected == nil || got.Selected.ID != "full" {
		t.Errorf("Selected = %+v, want full", got.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
	if !strings.Contains(got.View(), "Select Variant") {
		t.Error("view should render the title")
	}
}

func TestVariantListModelQuit(t *testing.T) {
	var model tea.Model = NewVariantListModel(&schema.Schema{})
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil || model.(VariantListModel).Selected != nil {
		t.Error("esc should quit without a selection")
	}
}
