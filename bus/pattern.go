package bus

import "strings"

// pattern is a compiled topic pattern: a slash-delimited sequence of
// literal segments, named captures (":name"), and an optional trailing
// wildcard ("*") that swallows the remainder of the concrete topic.
type pattern struct {
	raw      string
	segments []segment
	wildcard bool
}

type segment struct {
	literal string
	name    string // non-empty for a ":name" capture
}

func compilePattern(raw string) (*pattern, error) {
	if raw == "" || raw[0] != '/' {
		return nil, ErrInvalidTopic(raw, "pattern must start with /")
	}

	parts := strings.Split(strings.Trim(raw, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		parts = nil
	}

	p := &pattern{raw: raw}
	for i, part := range parts {
		if part == "*" {
			if i != len(parts)-1 {
				return nil, ErrInvalidTopic(raw, "wildcard must be the final segment")
			}
			p.wildcard = true
			continue
		}
		if strings.HasPrefix(part, ":") {
			name := part[1:]
			if name == "" {
				return nil, ErrInvalidTopic(raw, "named segment must have a name")
			}
			p.segments = append(p.segments, segment{name: name})
			continue
		}
		if part == "" {
			return nil, ErrInvalidTopic(raw, "empty path segment")
		}
		p.segments = append(p.segments, segment{literal: part})
	}

	return p, nil
}

// match attempts to match topic against p, returning the bound named
// parameters on success.
func (p *pattern) match(topic string) (map[string]string, bool) {
	trimmed := strings.Trim(topic, "/")
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

	var params map[string]string
	for i, seg := range p.segments {
		part := parts[i]
		if seg.name != "" {
			if params == nil {
				params = make(map[string]string)
			}
			params[seg.name] = part
			continue
		}
		if part != seg.literal {
			return nil, false
		}
	}

	if p.wildcard {
		rest := parts[len(p.segments):]
		if params == nil {
			params = make(map[string]string)
		}
		params["*"] = strings.Join(rest, "/")
	}

	if params == nil {
		params = map[string]string{}
	}
	return params, true
}
