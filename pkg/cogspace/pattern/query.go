package pattern

import (
	"regexp"
	"strings"
)

var typedQuery = regexp.MustCompile(`^(\w+)\(([^)]+)\)`)

// ParseQuery turns query text into a pattern. Two shapes are understood:
//
//	Type(name)   typed pattern with a literal name
//	Type($var)   typed pattern binding the name to var
//
// Anything else is a name-only pattern. It returns nil for empty input or a
// bare variable, which match nothing.
func ParseQuery(text string) *Pattern {
	text = strings.TrimSpace(text)

	if m := typedQuery.FindStringSubmatch(text); m != nil {
		typ, name := m[1], strings.TrimSpace(m[2])
		if strings.HasPrefix(name, "$") {
			if len(name) == 1 {
				return nil
			}
			return New(typ, Var(name[1:]))
		}
		return New(typ, Literal(name))
	}

	if text == "" || strings.HasPrefix(text, "$") {
		return nil
	}
	return New("", Literal(text))
}

// MatchQuery parses text with ParseQuery and matches the result.
func (m *Matcher) MatchQuery(text string) []MatchResult {
	p := ParseQuery(text)
	if p == nil {
		return nil
	}
	return m.Match(p)
}
