package wallet

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/domain/access"
	"github.com/mcash/mcash-api/internal/middleware"
	"github.com/mcash/mcash-api/internal/pkg/errorhandler"
	"github.com/mcash/mcash-api/internal/pkg/response"
	"github.com/mcash/mcash-api/internal/pkg/validator"
)

// Handler handles wallet HTTP requests
type Handler struct {
	svc    *Service
	stream http.Handler
}

// NewHandler creates wallet handler. stream serves GET /ws when non-nil.
func NewHandler(svc *Service, stream http.Handler) *Handler {
	return &Handler{svc: svc, stream: stream}
}

// Routes returns wallet routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.With(middleware.RequirePermission(access.PermViewWallet)).Get("/me", h.GetMyWallet)
	r.With(middleware.RequirePermission(access.PermDeposit)).Post("/deposit", h.Deposit)
	r.With(middleware.RequirePermission(access.PermWithdraw)).Post("/withdraw", h.Withdraw)
	r.With(middleware.RequirePermission(access.PermSend)).Post("/send-money", h.SendMoney)
	r.With(middleware.RequirePermission(access.PermCashIn)).Post("/cash-in", h.CashIn)
	r.With(middleware.RequirePermission(access.PermCashOut)).Post("/cash-out", h.CashOut)

	r.With(middleware.RequirePermission(access.PermManageWallets)).Get("/all", h.ListWallets)
	r.With(middleware.RequirePermission(access.PermManageWallets)).Patch("/{userId}/block", h.BlockWallet)
	r.With(middleware.RequirePermission(access.PermManageWallets)).Patch("/{userId}/unblock", h.UnblockWallet)

	if h.stream != nil {
		r.With(middleware.RequirePermission(access.PermViewWallet)).Get("/ws", h.stream.ServeHTTP)
	}

	return r
}

// GetMyWallet handles GET /wallet/me
func (h *Handler) GetMyWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.GetMyWallet(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, wallet)
}

// Deposit handles POST /wallet/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Deposit(r.Context(), middleware.GetActor(r.Context()), req.Amount)
	h.respond(w, r, res, err)
}

// Withdraw handles POST /wallet/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Withdraw(r.Context(), middleware.GetActor(r.Context()), req.Amount)
	h.respond(w, r, res, err)
}

// SendMoney handles POST /wallet/send-money
func (h *Handler) SendMoney(w http.ResponseWriter, r *http.Request) {
	var req SendMoneyRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SendMoney(r.Context(), middleware.GetActor(r.Context()), req.ReceiverPhone, req.Amount)
	h.respond(w, r, res, err)
}

// CashIn handles POST /wallet/cash-in
func (h *Handler) CashIn(w http.ResponseWriter, r *http.Request) {
	var req CashInRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.CashIn(r.Context(), middleware.GetActor(r.Context()), req.UserPhone, req.Amount)
	h.respond(w, r, res, err)
}

// CashOut handles POST /wallet/cash-out
func (h *Handler) CashOut(w http.ResponseWriter, r *http.Request) {
	var req CashOutRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.CashOut(r.Context(), middleware.GetActor(r.Context()), req.AgentPhone, req.Amount)
	h.respond(w, r, res, err)
}

// ListWallets handles GET /wallet/all
func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	page, limit := response.PageParams(r)

	p, err := h.svc.ListWallets(r.Context(), middleware.GetActor(r.Context()), page, limit)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	response.WithMeta(w, p.Wallets, response.NewMeta(p.Total, p.Page, p.Limit))
}

// BlockWallet handles PATCH /wallet/{userId}/block
func (h *Handler) BlockWallet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.BlockWallet)
}

// UnblockWallet handles PATCH /wallet/{userId}/unblock
func (h *Handler) UnblockWallet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.UnblockWallet)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor access.Actor, userID uuid.UUID) (*Wallet, error)) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	wallet, err := fn(r.Context(), middleware.GetActor(r.Context()), userID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	response.OK(w, wallet)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res *Result, err error) {
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, res)
}

func decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := response.DecodeJSON(r.Body, req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return false
	}

	if errs := validator.Validate(req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return false
	}

	return true
}
