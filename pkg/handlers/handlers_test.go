package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/underwriter/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondJSON(rec, http.StatusCreated, map[string]string{"status": "PENDING"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "PENDING" {
		t.Errorf("body = %v", body)
	}
}

func TestRespondRaw(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondRaw(rec, http.StatusOK, []byte(`{"progress":[]}`))

	if rec.Body.String() != `{"progress":[]}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"client error", http.StatusNotFound, "level=WARN"},
		{"server error", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			rec := httptest.NewRecorder()

			handlers.RespondError(rec, logger, tt.status, errors.New("application not found"))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}

			var body handlers.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != "application not found" {
				t.Errorf("error = %q", body.Error)
			}
			if !bytes.Contains(buf.Bytes(), []byte(tt.level)) {
				t.Errorf("log = %s, want %s", buf.String(), tt.level)
			}
		})
	}
}
