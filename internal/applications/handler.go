package applications

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/underwriter/pkg/handlers"
	"github.com/JaimeStill/underwriter/pkg/pagination"
	"github.com/JaimeStill/underwriter/pkg/routes"
)

var errInvalidID = errors.New("invalid application id")

// Handler provides HTTP endpoints for application operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "applications"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for application endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/applications",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/recent", Handler: h.Recent},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats},
			{Method: "GET", Pattern: "/latest", Handler: h.Latest},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/output", Handler: h.Output},
			{Method: "POST", Pattern: "", Handler: h.Create},
		},
	}
}

// List returns a paginated list of applications with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Recent returns the newest applications, bounded by the limit query parameter.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	apps, err := h.sys.Recent(r.Context(), limit)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, apps)
}

// Stats returns application counts by status and the approval rate.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sys.Stats(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, stats)
}

// Latest returns the newest application for the name query parameter.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	app, err := h.sys.FindLatestByApplicant(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, app)
}

// Find returns a single application by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	app, ok := h.find(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, app)
}

// Output returns only the stored decision document.
func (h *Handler) Output(w http.ResponseWriter, r *http.Request) {
	app, ok := h.find(w, r)
	if !ok {
		return
	}

	if len(app.AgentOutput) == 0 {
		handlers.RespondRaw(w, http.StatusOK, []byte("{}"))
		return
	}
	handlers.RespondRaw(w, http.StatusOK, app.AgentOutput)
}

// Create inserts a PENDING application from a JSON body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidApplication)
		return
	}

	app, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, app)
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request) (*Application, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return nil, false
	}

	app, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, false
	}

	return app, true
}
