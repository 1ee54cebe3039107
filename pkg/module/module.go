// Package module mounts self-contained HTTP surfaces under single-segment
// prefixes, each with its own middleware chain.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/underwriter/pkg/middleware"
)

// Module serves an inner handler beneath a prefix such as "/api".
// The inner handler sees paths with the prefix removed.
type Module struct {
	prefix string
	inner  http.Handler
	chain  middleware.Chain
}

// New panics unless prefix is a single segment with a leading slash.
func New(prefix string, inner http.Handler) *Module {
	if err := checkPrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{prefix: prefix, inner: inner}
}

func (m *Module) Prefix() string { return m.prefix }

// Use appends mw to the module's chain.
func (m *Module) Use(mw middleware.Func) {
	m.chain.Use(mw)
}

// Serve rewrites the request path relative to the prefix and dispatches
// through the middleware chain.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	inner := req.Clone(req.Context())
	inner.URL.Path = relative(req.URL.Path, m.prefix)
	inner.URL.RawPath = ""
	m.chain.Then(m.inner).ServeHTTP(w, inner)
}

func relative(path, prefix string) string {
	if rest := strings.TrimPrefix(path, prefix); rest != "" {
		return rest
	}
	return "/"
}

func checkPrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case prefix[0] != '/':
		return fmt.Errorf("module prefix %q must start with /", prefix)
	case strings.Contains(prefix[1:], "/"):
		return fmt.Errorf("module prefix %q must be a single segment", prefix)
	}
	return nil
}
