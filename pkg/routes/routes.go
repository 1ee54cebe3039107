// Package routes declares HTTP endpoints as nested prefix groups and expands
// them into Go 1.22 ServeMux patterns.
package routes

import "net/http"

// Route is a single endpoint. An empty Method means GET.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

func (r Route) expand(prefix string) string {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	return method + " " + prefix + r.Pattern
}

// Group nests routes under a shared path prefix. Child prefixes are
// appended to their parent's.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Patterns lists the mux patterns the group expands to, parent routes first.
func (g Group) Patterns() []string {
	var out []string
	g.walk("", func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

func (g Group) walk(parent string, visit func(string, http.HandlerFunc)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		visit(r.expand(prefix), r.Handler)
	}
	for _, child := range g.Children {
		child.walk(prefix, visit)
	}
}

// Register expands every group onto mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.walk("", func(pattern string, h http.HandlerFunc) {
			mux.Handle(pattern, h)
		})
	}
}
