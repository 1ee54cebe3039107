package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/underwriter/pkg/middleware"
)

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	var chain middleware.Chain
	chain.Use(tag("first"))
	chain.Use(tag("second"))

	h := chain.Then(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"first", "second", "handler"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/decisions", nil))

	out := buf.String()
	if !strings.Contains(out, "status=202") {
		t.Errorf("log output missing status: %s", out)
	}
	if !strings.Contains(out, "uri=/decisions") {
		t.Errorf("log output missing uri: %s", out)
	}
}

func TestRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := middleware.Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:        true,
		Origins:        []string{"http://dashboard.local"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := middleware.CORS(cfg)(next)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://dashboard.local")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.local" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d, want passthrough", rec.Code)
		}
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://dashboard.local")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
			t.Errorf("Allow-Methods = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
			t.Errorf("Max-Age = %q", got)
		}
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://elsewhere")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://elsewhere")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d, want passthrough", rec.Code)
		}
	})

	t.Run("same origin passes untouched", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if got := rec.Header().Get("Vary"); got != "" {
			t.Errorf("Vary = %q, want empty", got)
		}
	})
}

func TestCORSDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := middleware.CORS(&middleware.CORSConfig{Origins: []string{"*"}})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}
}

func TestCORSConfigFinalize(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.local, ,http://b.local")

	cfg := &middleware.CORSConfig{}
	err := cfg.Finalize(&middleware.CORSEnv{Enabled: "TEST_CORS_ENABLED", Origins: "TEST_CORS_ORIGINS", MaxAge: "TEST_CORS_UNSET"})
	if err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}

	if !cfg.Enabled {
		t.Error("Enabled = false, want env override")
	}
	if strings.Join(cfg.Origins, "|") != "http://a.local|http://b.local" {
		t.Errorf("Origins = %v", cfg.Origins)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want default 3600", cfg.MaxAge)
	}
	if len(cfg.AllowedHeaders) == 0 {
		t.Error("AllowedHeaders not defaulted")
	}
}
