package httpx

import "strings"

// Route is one entry in the router table (spec SPEC_FULL.md §4.8): a
// method/path pattern, optionally paired with a rewrite that replaces the
// matched path segment before the trigger topic is built.
type Route struct {
	Method  string // "GET", "POST", ... or "*" for any method
	Pattern string // e.g. "/dashboard", "/users/:id", "/*"
	Rewrite string // if non-empty, replaces Pattern's path wholesale
}

type compiledRoute struct {
	route   Route
	pattern *pathPattern
}

// Router is the ordered route table the HTTP collaborator consults to
// turn an inbound method+path into a trigger-topic suffix and bound
// params (spec SPEC_FULL.md §4.8). Routes are tried in registration
// order; the first match wins.
type Router struct {
	routes []compiledRoute
}

// NewRouter builds a Router from routes, compiling each pattern once.
func NewRouter(routes []Route) *Router {
	r := &Router{}
	for _, rt := range routes {
		r.routes = append(r.routes, compiledRoute{route: rt, pattern: compilePathPattern(rt.Pattern)})
	}
	return r
}

// Match finds the first route whose method and path pattern match,
// returning the literal trigger-topic suffix (e.g. "/get/users/:id") and
// the params bound by the path pattern. The suffix uses Rewrite, when
// set, fully in place of Pattern — rewrite replaces, it does not merge
// (spec SPEC_FULL.md §4.8's resolution of the Open Question).
func (r *Router) Match(method, path string) (suffix string, params map[string]string, ok bool) {
	method = strings.ToUpper(method)
	for _, cr := range r.routes {
		if cr.route.Method != "*" && !strings.EqualFold(cr.route.Method, method) {
			continue
		}
		bound, matched := cr.pattern.match(path)
		if !matched {
			continue
		}

		segment := cr.route.Pattern
		if cr.route.Rewrite != "" {
			segment = cr.route.Rewrite
		}
		return "/" + strings.ToLower(method) + segment, bound, true
	}
	return "", nil, false
}
