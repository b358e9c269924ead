// Package fieldpath addresses values inside nested data records.
//
// A path is a sequence of segments written with dots and brackets:
//
//	eventTitle
//	speakers[0].name
//	speakers.0.name
//	meta["display name"]
//
// Paths are compiled into ojg JSONPath expressions and evaluated against
// map[string]any / []any trees (as produced by encoding/json) or Go structs.
// Lookups never panic: a malformed path or a missing or null step yields
// "undefined", reported as ok == false.
package fieldpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Segment is one step of a path.
type Segment struct {
	Key     string // map key or struct field
	Index   int    // array index when IsIndex
	IsIndex bool
	Bare    bool // numeric segment written with dot syntax; may also be a map key
}

// Path is a parsed field path.
type Path struct {
	raw      string
	segments []Segment
}

// Parse splits a path into segments.
//
// Empty dot segments are skipped, so "a..b" and ".a.b" both address a.b.
// Bracket contents are either a non-negative integer or a single- or
// double-quoted key.
func Parse(raw string) (Path, error) {
	p := Path{raw: raw}
	i := 0
	for i < len(raw) {
		switch c := raw[i]; c {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(raw[i:], ']')
			if end < 0 {
				return Path{}, fmt.Errorf("field path %q: unclosed bracket at %d", raw, i)
			}
			seg, err := parseBracket(raw[i+1 : i+end])
			if err != nil {
				return Path{}, fmt.Errorf("field path %q: %w", raw, err)
			}
			p.segments = append(p.segments, seg)
			i += end + 1
		case ']':
			return Path{}, fmt.Errorf("field path %q: unexpected ] at %d", raw, i)
		default:
			end := strings.IndexAny(raw[i:], ".[]")
			if end < 0 {
				end = len(raw) - i
			}
			p.segments = append(p.segments, bareSegment(raw[i:i+end]))
			i += end
		}
	}
	if len(p.segments) == 0 {
		return Path{}, fmt.Errorf("field path %q: no segments", raw)
	}
	return p, nil
}

func parseBracket(inner string) (Segment, error) {
	inner = strings.TrimSpace(inner)
	if n := len(inner); n >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[n-1] == inner[0] {
		return Segment{Key: inner[1 : n-1]}, nil
	}
	idx, err := strconv.Atoi(inner)
	if err != nil || idx < 0 {
		return Segment{}, fmt.Errorf("invalid index %q", inner)
	}
	return Segment{Index: idx, IsIndex: true, Key: inner}, nil
}

func bareSegment(s string) Segment {
	if idx, err := strconv.Atoi(s); err == nil && idx >= 0 {
		return Segment{Key: s, Index: idx, IsIndex: true, Bare: true}
	}
	return Segment{Key: s}
}

// String returns the path as written.
func (p Path) String() string { return p.raw }

// Segments returns a copy of the parsed segments.
func (p Path) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// Expr returns the JSONPath expression for p. Bare numeric segments are
// treated as array indexes.
func (p Path) Expr() jp.Expr {
	return p.expr(false)
}

func (p Path) expr(bareAsKey bool) jp.Expr {
	x := jp.R()
	for _, s := range p.segments {
		if s.IsIndex && !(s.Bare && bareAsKey) {
			x = x.N(s.Index)
		} else {
			x = x.C(s.Key)
		}
	}
	return x
}

func (p Path) hasBare() bool {
	for _, s := range p.segments {
		if s.Bare {
			return true
		}
	}
	return false
}

// Lookup evaluates p against data. ok is false when any step is missing or
// null.
func (p Path) Lookup(data any) (v any, ok bool) {
	if data == nil || len(p.segments) == 0 {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()

	if v = p.expr(false).First(data); v != nil {
		return v, true
	}
	// "speakers.2024" may name a map key rather than an index
	if p.hasBare() {
		if v = p.expr(true).First(data); v != nil {
			return v, true
		}
	}
	return nil, false
}

// Get parses raw and looks it up in data. A malformed path is undefined.
func Get(data any, raw string) (any, bool) {
	p, err := Parse(raw)
	if err != nil {
		return nil, false
	}
	return p.Lookup(data)
}
