package module_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/underwriter/pkg/module"
	"github.com/JaimeStill/underwriter/pkg/routes"
)

func echoPath(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, r.URL.Path)
}

func newRouter() *module.Router {
	mux := http.NewServeMux()
	routes.Register(mux, routes.Group{
		Prefix: "/applications",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: echoPath},
			{Method: "GET", Pattern: "/{id}", Handler: echoPath},
		},
	})

	router := module.NewRouter()
	router.Mount(module.New("/api", mux))
	router.Handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	return router
}

func TestRouterDispatch(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"module root", "/api/applications", http.StatusOK, "/applications"},
		{"trailing slash", "/api/applications/", http.StatusOK, "/applications"},
		{"path value", "/api/applications/abc", http.StatusOK, "/applications/abc"},
		{"top level", "/healthz", http.StatusOK, "ok"},
		{"unmatched", "/nowhere", http.StatusNotFound, ""},
	}

	router := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestModuleMiddleware(t *testing.T) {
	m := module.New("/api", http.HandlerFunc(echoPath))
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Module", "api")
			next.ServeHTTP(w, r)
		})
	})

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

	assert.Equal(t, "api", rec.Header().Get("X-Module"))
	assert.Equal(t, "/", rec.Body.String())
}

func TestNewInvalidPrefix(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1"} {
		assert.Panics(t, func() { module.New(prefix, http.NotFoundHandler()) }, prefix)
	}
}

func TestMountDuplicatePanics(t *testing.T) {
	router := module.NewRouter()
	router.Mount(module.New("/api", http.NotFoundHandler()))

	assert.Panics(t, func() { router.Mount(module.New("/api", http.NotFoundHandler())) })
}
