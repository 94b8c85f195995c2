package decl

import "strings"

// attrs is the parsed form of a `deku:"..."` struct tag: a comma-separated
// list of either bare flags (`temp`, `skip`, `read_all`) or `key=value`
// pairs. Values may themselves contain `=` (e.g. assert_eq expressions
// comparing with `==`), so splitting only ever happens on the first `=`.
type attrs struct {
	values map[string]string
	flags  map[string]bool
}

func parseTag(tag string) attrs {
	a := attrs{values: map[string]string{}, flags: map[string]bool{}}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return a
	}
	for _, part := range splitTopLevel(tag) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, "="); idx >= 0 {
			key := strings.TrimSpace(part[:idx])
			val := strings.TrimSpace(part[idx+1:])
			a.values[key] = val
		} else {
			a.flags[part] = true
		}
	}
	return a
}

// splitTopLevel splits on commas that are not nested inside parentheses,
// so a ctx=(a,b) attribute value survives intact for its own sub-parser.
func splitTopLevel(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

func (a attrs) get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

func (a attrs) flag(key string) bool {
	return a.flags[key]
}

func (a attrs) has(key string) bool {
	_, ok := a.values[key]
	return ok
}
