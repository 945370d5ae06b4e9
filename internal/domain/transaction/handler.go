package transaction

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/domain/access"
	"github.com/mcash/mcash-api/internal/middleware"
	"github.com/mcash/mcash-api/internal/pkg/errorhandler"
	"github.com/mcash/mcash-api/internal/pkg/money"
	"github.com/mcash/mcash-api/internal/pkg/response"
)

// Handler handles ledger query HTTP requests
type Handler struct {
	service *Service
	loc     *time.Location
}

// NewHandler creates transaction handler. Bare dates in filters are read in
// loc, the ledger's business-day zone; nil means UTC.
func NewHandler(service *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, loc: loc}
}

// Routes returns transaction routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.With(middleware.RequirePermission(access.PermViewAllTransactions)).Get("/", h.ListAll)
	r.With(middleware.RequirePermission(access.PermViewOwnTransactions)).Get("/me", h.ListMine)
	r.With(middleware.RequirePermission(access.PermViewCommissions)).Get("/commissions", h.Commissions)
	r.With(middleware.RequirePermission(access.PermViewOwnTransactions)).Get("/{id}", h.GetByID)

	return r
}

// commissionMeta extends pagination with the agent's all-time earnings.
type commissionMeta struct {
	response.Meta
	TotalCommissionEarned money.Amount `json:"total_commission_earned"`
}

// ListMine handles GET /transactions/me
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	page, err := h.service.ListMine(r.Context(), middleware.GetActor(r.Context()), filter)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	response.WithMeta(w, page.Transactions, response.NewMeta(page.Total, page.Page, page.Limit))
}

// Commissions handles GET /transactions/commissions
func (h *Handler) Commissions(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	page, err := h.service.AgentCommissions(r.Context(), middleware.GetActor(r.Context()), filter)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	p := page.Page
	response.WithMeta(w, p.Transactions, commissionMeta{
		Meta:                  response.NewMeta(p.Total, p.Page, p.Limit),
		TotalCommissionEarned: page.TotalCommissionEarned,
	})
}

// ListAll handles GET /transactions
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "Invalid user_id")
			return
		}
		filter.ParticipantID = &id
	}

	page, err := h.service.ListAll(r.Context(), middleware.GetActor(r.Context()), filter)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	response.WithMeta(w, page.Transactions, response.NewMeta(page.Total, page.Page, page.Limit))
}

// GetByID handles GET /transactions/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid transaction ID")
		return
	}

	t, err := h.service.GetByID(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	response.OK(w, t)
}

// parseFilter reads type, status, start_date, end_date, page and limit.
// Dates are RFC 3339 or YYYY-MM-DD in the ledger zone; a bare end_date
// covers the whole day.
func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	q := r.URL.Query()
	var filter Filter
	filter.Page, filter.Limit = response.PageParams(r)

	if v := q.Get("type"); v != "" {
		t := Type(strings.ToUpper(v))
		if !t.Valid() {
			response.BadRequest(w, "Invalid transaction type")
			return filter, false
		}
		filter.Type = &t
	}

	if v := q.Get("status"); v != "" {
		s := Status(strings.ToUpper(v))
		if !s.Valid() {
			response.BadRequest(w, "Invalid transaction status")
			return filter, false
		}
		filter.Status = &s
	}

	if v := q.Get("start_date"); v != "" {
		from, _, err := parseDate(v, h.loc)
		if err != nil {
			response.BadRequest(w, "Invalid start_date")
			return filter, false
		}
		filter.From = &from
	}

	if v := q.Get("end_date"); v != "" {
		to, dateOnly, err := parseDate(v, h.loc)
		if err != nil {
			response.BadRequest(w, "Invalid end_date")
			return filter, false
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter.To = &to
	}

	return filter, true
}

func parseDate(v string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, loc)
	return t, true, err
}
