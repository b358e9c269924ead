// Package pkg provides the libraries behind postergen, a compiler from
// node-graph poster templates to standalone HTML.
//
// # Overview
//
// A template is a tree of typed visual nodes (frames, flex and box
// containers, text, images, masked vectors, shapes) plus default color
// tokens, named variants, and data bindings. Compiling one selects a
// variant, resolves tokens, pulls values from a data record, and renders
// an HTML document sized to the poster canvas. The pkg directory is
// organized into three areas:
//
//  1. Compiler - [schema], [fieldpath], and [compile] with its stages
//  2. Infrastructure - [cache], [store], [pipeline], [observability]
//  3. Support - [errors], [outline], [buildinfo]
//
// # Architecture
//
// The data flow of one compile:
//
//	Template store (file or MongoDB)
//	         ↓
//	    [store] package (load schema by family)
//	         ↓
//	    [compile/legacy]   (wrap flat node lists in a frame)
//	    [compile/override] (apply the variant's hide/show patches)
//	    [compile/token]    (resolve token:<name> colors)
//	    [compile/binding]  (copy data record values into nodes)
//	         ↓
//	    [compile/markup] package (emit HTML and CSS)
//	         ↓
//	    HTML document
//
// [pipeline] wraps the stages with content-addressed caching so the same
// template, variant, tokens, and data are compiled once.
//
// # Quick Start
//
// Compile a template directly:
//
//	import (
//	    "github.com/gideonchrapko/template-builder/pkg/compile"
//	    "github.com/gideonchrapko/template-builder/pkg/schema"
//	)
//
//	s, _ := schema.ReadFile("templates/event-poster.json")
//	html, err := compile.Compile(*s, compile.Options{
//	    Variant: "story",
//	    Tokens:  map[string]string{"primary": "#ff0066"},
//	    Data:    map[string]any{"eventTitle": "Launch Night"},
//	})
//
// Or through the cached pipeline:
//
//	st, _ := store.NewFileStore("templates")
//	fc, _ := cache.NewFileCache(cacheDir)
//	runner := pipeline.NewRunner(st, fc, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Family: "event-poster"})
//
// # Main Packages
//
// [schema] - Template document types, JSON/TOML/YAML decoding, and
// structural checks.
//
// [compile] - The compiler. Each stage is its own subpackage and returns a
// new tree; templates are never modified and may be shared by concurrent
// compiles.
//
// [fieldpath] - Dotted and indexed path lookup into data records.
//
// [cache] - Cache interface with file, Redis, and null backends and the
// key scheme for templates and compiled markup.
//
// [store] - Template stores: a directory of schema files or a MongoDB
// collection, with an optional caching wrapper.
//
// [pipeline] - Load → compile orchestration with caching, stats, and
// concurrent variant fan-out.
//
// [observability] - Hook interfaces for pipeline and cache events.
//
// [outline] - Graphviz diagrams of a template's node tree.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                  # All tests
//	go test ./pkg/compile/...          # Compiler only
//	go test -short ./pkg/...           # Skip Graphviz rendering
package pkg
