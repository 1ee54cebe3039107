package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/underwriter/pkg/routes"
)

func respond(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/decisions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: respond(http.StatusAccepted)},
			{Method: "POST", Pattern: "/batch", Handler: respond(http.StatusOK)},
			{Method: "POST", Pattern: "/{id}", Handler: respond(http.StatusCreated)},
		},
	})

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"group root", "POST", "/decisions", http.StatusAccepted},
		{"literal segment wins", "POST", "/decisions/batch", http.StatusOK},
		{"path value", "POST", "/decisions/9b1f", http.StatusCreated},
		{"method mismatch", "GET", "/decisions/9b1f", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestNestedGroups(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/applications",
		Children: []routes.Group{
			{
				Prefix: "/{id}",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/output", Handler: respond(http.StatusOK)},
				},
			},
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/applications/42/output", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("nested route: got %d, want 200", rec.Code)
	}
}

func TestPatterns(t *testing.T) {
	g := routes.Group{
		Prefix: "/applications",
		Routes: []routes.Route{
			{Pattern: "", Handler: respond(http.StatusOK)},
			{Method: "POST", Pattern: "", Handler: respond(http.StatusCreated)},
		},
		Children: []routes.Group{
			{Prefix: "/{id}", Routes: []routes.Route{{Pattern: "/output", Handler: respond(http.StatusOK)}}},
		},
	}

	got := g.Patterns()
	want := []string{"GET /applications", "POST /applications", "GET /applications/{id}/output"}

	if len(got) != len(want) {
		t.Fatalf("Patterns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Patterns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
