package decisions

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/pkg/handlers"
	"github.com/JaimeStill/underwriter/pkg/routes"
)

var (
	errInvalidID            = errors.New("invalid application id")
	errStreamingUnsupported = errors.New("streaming unsupported")
)

// Handler provides HTTP endpoints for decision operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "decisions"),
	}
}

// Routes returns the route group definition for decision endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/decisions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Apply},
			{Method: "POST", Pattern: "/batch", Handler: h.Batch},
			{Method: "POST", Pattern: "/{id}", Handler: h.Run},
			{Method: "POST", Pattern: "/{id}/submit", Handler: h.Submit},
			{Method: "GET", Pattern: "/{id}/events", Handler: h.Events},
		},
	}
}

// Apply stores the application in the request body and queues its decision.
// Returns 202 with the stored PENDING application.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var cmd applications.CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	app, err := h.sys.Apply(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, app)
}

// Run executes the decision for the id path parameter and returns the result.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return
	}

	result, err := h.sys.Run(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Submit queues the decision for the id path parameter and returns 202.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return
	}

	if err := h.sys.Submit(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, Accepted{
		ApplicationID: id,
		Status:        applications.StatusPending,
		Queued:        true,
	})
}

// Batch runs every id in the request body and returns one item per id.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var cmd BatchCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	items, err := h.sys.RunBatch(r.Context(), cmd.IDs)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Events streams progress for the id path parameter as server-sent events.
// The stream ends when the run reaches a terminal status or the client disconnects.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, errStreamingUnsupported)
		return
	}

	// Streams run until a terminal status, past the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	events, err := h.sys.Subscribe(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Error("encode event failed", "error", err)
				return
			}

			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data)
			flusher.Flush()

			if applications.Status(e.Status).Terminal() {
				return
			}
		}
	}
}
