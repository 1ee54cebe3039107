package module

import (
	"fmt"
	"net/http"
	"strings"
)

// Router sends requests to the module owning the first path segment and
// everything else to a plain ServeMux (health probes, metrics).
type Router struct {
	modules map[string]*Module
	mux     *http.ServeMux
}

func NewRouter() *Router {
	return &Router{
		modules: map[string]*Module{},
		mux:     http.NewServeMux(),
	}
}

// Handle registers a top-level pattern outside any module.
func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// Mount panics if another module already owns m's prefix.
func (r *Router) Mount(m *Module) {
	if _, dup := r.modules[m.prefix]; dup {
		panic(fmt.Sprintf("module prefix %s already mounted", m.prefix))
	}
	r.modules[m.prefix] = m
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}

	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.Serve(w, req)
		return
	}
	r.mux.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	rest := strings.TrimPrefix(path, "/")
	seg, _, _ := strings.Cut(rest, "/")
	return "/" + seg
}
