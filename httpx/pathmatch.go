package httpx

import "strings"

// pathPattern is a slash-delimited route pattern: literal segments, named
// captures (":name"), and an optional trailing wildcard ("*"). Adapted
// from bus's topic-pattern matcher (bus/pattern.go) for URL paths, which
// are a distinct entity from bus topics even though both are
// slash-delimited strings with the same capture grammar.
type pathPattern struct {
	raw      string
	segments []pathSegment
	wildcard bool
}

type pathSegment struct {
	literal string
	name    string
}

func compilePathPattern(raw string) *pathPattern {
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		parts = nil
	}

	p := &pathPattern{raw: raw}
	for i, part := range parts {
		if part == "*" && i == len(parts)-1 {
			p.wildcard = true
			continue
		}
		if strings.HasPrefix(part, ":") {
			p.segments = append(p.segments, pathSegment{name: part[1:]})
			continue
		}
		p.segments = append(p.segments, pathSegment{literal: part})
	}
	return p
}

func (p *pathPattern) match(path string) (map[string]string, bool) {
	trimmed := strings.Trim(path, "/")
	var parts []string
	if trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}

	if p.wildcard {
		if len(parts) < len(p.segments) {
			return nil, false
		}
	} else if len(parts) != len(p.segments) {
		return nil, false
	}

	params := map[string]string{}
	for i, seg := range p.segments {
		part := parts[i]
		if seg.name != "" {
			params[seg.name] = part
			continue
		}
		if part != seg.literal {
			return nil, false
		}
	}

	if p.wildcard {
		params["*"] = strings.Join(parts[len(p.segments):], "/")
	}
	return params, true
}
