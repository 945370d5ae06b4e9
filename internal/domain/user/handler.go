package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/domain/access"
	"github.com/mcash/mcash-api/internal/middleware"
	"github.com/mcash/mcash-api/internal/pkg/errorhandler"
	"github.com/mcash/mcash-api/internal/pkg/response"
	"github.com/mcash/mcash-api/internal/pkg/validator"
)

// Handler handles user HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates user handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns user routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.With(middleware.RequirePermission(access.PermViewUsers)).Get("/", h.List)
		r.With(middleware.RequirePermission(access.PermViewUsers)).Get("/agents", h.ListAgents)
		r.With(middleware.RequirePermission(access.PermViewUsers)).Get("/agents/pending", h.ListPendingAgents)
		r.With(middleware.RequirePermission(access.PermManageAgents)).Patch("/agents/{id}/approve", h.ApproveAgent)
		r.With(middleware.RequirePermission(access.PermManageAgents)).Patch("/agents/{id}/suspend", h.SuspendAgent)
	})

	return r
}

// Register handles POST /users/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	u, err := h.service.Register(r.Context(), &req)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	response.Created(w, u)
}

// List handles GET /users
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListFilter{})
}

// ListAgents handles GET /users/agents
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	role := RoleAgent
	h.list(w, r, ListFilter{Role: &role})
}

// ListPendingAgents handles GET /users/agents/pending
func (h *Handler) ListPendingAgents(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListFilter{PendingAgents: true})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	filter.Page, filter.Limit = response.PageParams(r)

	users, total, filter, err := h.service.List(r.Context(), filter)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	response.WithMeta(w, users, response.NewMeta(total, filter.Page, filter.Limit))
}

// ApproveAgent handles PATCH /users/agents/{id}/approve
func (h *Handler) ApproveAgent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid agent ID")
		return
	}

	agent, err := h.service.ApproveAgent(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	response.OK(w, agent)
}

// SuspendAgent handles PATCH /users/agents/{id}/suspend
func (h *Handler) SuspendAgent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid agent ID")
		return
	}

	agent, err := h.service.SuspendAgent(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	response.OK(w, agent)
}
