package bserve

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// SegmentKind classifies one segment of a route pattern.
type SegmentKind int

const (
	// SegmentExact matches a path segment equal to its literal.
	SegmentExact SegmentKind = iota
	// SegmentParam matches any path segment and captures it under its name.
	SegmentParam
	// SegmentWildcard matches the path segment it occupies and everything after it.
	SegmentWildcard
)

// Segment is one element of a compiled pattern. Value holds the literal for exact segments and the
// name (without colon) for param segments.
type Segment struct {
	Kind  SegmentKind
	Value string
}

// Pattern is a compiled path template such as "/users/:id" or "/static/*". It is immutable.
type Pattern struct {
	raw      string
	segments []Segment
	wildcard bool
}

// CompilePattern splits s on '/' and classifies every non-empty segment: "*" is a wildcard, a leading
// ':' marks a named parameter, anything else is literal. There is no escaping. A wildcard must be the
// last segment.
func CompilePattern(s string) (Pattern, error) {
	parts := splitPath(s)
	pat := Pattern{raw: s, segments: make([]Segment, 0, len(parts))}

	for i, part := range parts {
		switch {
		case part == "*":
			if i != len(parts)-1 {
				return Pattern{}, errors.Newf("pattern %q: wildcard must be the final segment", s)
			}
			pat.wildcard = true
			pat.segments = append(pat.segments, Segment{Kind: SegmentWildcard})
		case strings.HasPrefix(part, ":"):
			pat.segments = append(pat.segments, Segment{Kind: SegmentParam, Value: part[1:]})
		default:
			pat.segments = append(pat.segments, Segment{Kind: SegmentExact, Value: part})
		}
	}

	return pat, nil
}

// MustCompilePattern is like [CompilePattern] but panics on error.
func MustCompilePattern(s string) Pattern {
	pat, err := CompilePattern(s)
	if err != nil {
		panic("bserve: " + err.Error())
	}
	return pat
}

// String returns the template the pattern was compiled from.
func (p Pattern) String() string { return p.raw }

// Segments returns a copy of the compiled segments.
func (p Pattern) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// Match reports whether path matches the pattern and returns the captured parameters. Literal
// comparison is case-sensitive and captured values are not decoded. A wildcard ends matching
// successfully without validating or capturing the remaining segments, but it still needs a
// segment of its own.
func (p Pattern) Match(path string) (map[string]string, bool) {
	parts := splitPath(path)
	if !p.wildcard && len(parts) != len(p.segments) {
		return nil, false
	}

	params := map[string]string{}
	for i, seg := range p.segments {
		if i >= len(parts) {
			return nil, false
		}

		switch seg.Kind {
		case SegmentWildcard:
			return params, true
		case SegmentParam:
			params[seg.Value] = parts[i]
		default:
			if parts[i] != seg.Value {
				return nil, false
			}
		}
	}

	if len(parts) > len(p.segments) {
		return nil, false
	}

	return params, true
}

// Build substitutes vals for the pattern's parameters in order and returns the resulting path. A
// wildcard consumes one final value which may itself contain slashes.
func (p Pattern) Build(vals ...string) (string, error) {
	var b strings.Builder
	next := 0

	for _, seg := range p.segments {
		b.WriteByte('/')
		if seg.Kind == SegmentExact {
			b.WriteString(seg.Value)
			continue
		}

		if next >= len(vals) {
			return "", errors.Newf("pattern %q: not enough values, got %d", p.raw, len(vals))
		}
		b.WriteString(strings.Trim(vals[next], "/"))
		next++
	}

	if next != len(vals) {
		return "", errors.Newf("pattern %q: too many values, got %d want %d", p.raw, len(vals), next)
	}
	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

// splitPath splits on '/' and drops empty segments, so leading, trailing and duplicate slashes do not count.
func splitPath(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '/' })
}
