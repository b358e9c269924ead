package markup

import (
	"strconv"
	"strings"
)

// style accumulates CSS declarations in insertion order.
type style struct {
	b strings.Builder
}

func (s *style) set(prop, value string) {
	value = cssValue(value)
	if value == "" {
		return
	}
	s.b.WriteString(prop)
	s.b.WriteByte(':')
	s.b.WriteString(value)
	s.b.WriteByte(';')
}

func (s *style) px(prop string, v float64) {
	s.set(prop, px(v))
}

func (s *style) String() string { return s.b.String() }

// px formats a pixel length without trailing zeros.
func px(v float64) string {
	if v == 0 {
		return "0"
	}
	return num(v) + "px"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// cssValue strips characters that could end a declaration or the style
// attribute. Values may come from bound data.
func cssValue(v string) string {
	v = strings.TrimSpace(v)
	if !strings.ContainsAny(v, ";{}<>\"\\") {
		return v
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '"', '\\':
			return -1
		}
		return r
	}, v)
}

var flexAliases = map[string]string{
	"start":   "flex-start",
	"end":     "flex-end",
	"between": "space-between",
	"around":  "space-around",
	"evenly":  "space-evenly",
}

// flexValue maps short alignment names to their CSS keywords.
func flexValue(v string) string {
	if alias, ok := flexAliases[v]; ok {
		return alias
	}
	return v
}

// objectFit returns the CSS object-fit for an image fit mode. Empty means cover.
func objectFit(fit string) string {
	switch fit {
	case "contain", "fill", "none", "scale-down", "cover":
		return fit
	}
	return "cover"
}

// aspectRatio maps a fit mode to an SVG preserveAspectRatio value.
func aspectRatio(fit string) string {
	switch fit {
	case "contain":
		return "xMidYMid meet"
	case "fill":
		return "none"
	}
	return "xMidYMid slice"
}

// lineHeight renders small values as unitless multipliers and larger ones as pixels.
func lineHeight(v float64) string {
	if v <= maxUnitlessLineHeight {
		return num(v)
	}
	return px(v)
}

// elementID sanitizes a node id for use inside SVG url(#...) references.
func elementID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
}
