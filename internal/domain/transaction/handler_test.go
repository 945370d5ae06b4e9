package transaction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/domain/access"
	"github.com/mcash/mcash-api/internal/middleware"
)

func fakeAuth(actor access.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, actor.ID)
			ctx = context.WithValue(ctx, middleware.RoleKey, actor.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func serve(t *testing.T, h *Handler, actor access.Actor, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.Routes(fakeAuth(actor)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestCommissionsEndpointReportsTotal(t *testing.T) {
	agent := uuid.New()
	repo := &memRepo{rows: []Transaction{
		row(TypeCommission, agent, agent, 50, 1),
		row(TypeCommission, uuid.New(), agent, 150, 2),
	}}
	h := NewHandler(NewService(repo), nil)

	w := serve(t, h, access.Actor{ID: agent, Role: access.RoleAgent}, "/commissions?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
		Meta    struct {
			Total                 int     `json:"total"`
			TotalPages            int     `json:"total_pages"`
			TotalCommissionEarned float64 `json:"total_commission_earned"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Data) != 1 {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if body.Meta.Total != 2 || body.Meta.TotalPages != 2 {
		t.Fatalf("unexpected meta %+v", body.Meta)
	}
	if body.Meta.TotalCommissionEarned != 2.00 {
		t.Fatalf("expected 2.00 earned, got %v", body.Meta.TotalCommissionEarned)
	}
}

func TestRoutesEnforcePermissions(t *testing.T) {
	h := NewHandler(NewService(&memRepo{}), nil)
	user := access.Actor{ID: uuid.New(), Role: access.RoleUser}

	if w := serve(t, h, user, "/"); w.Code != http.StatusForbidden {
		t.Fatalf("user listing all: expected 403, got %d", w.Code)
	}
	if w := serve(t, h, user, "/commissions"); w.Code != http.StatusForbidden {
		t.Fatalf("user listing commissions: expected 403, got %d", w.Code)
	}
	if w := serve(t, h, user, "/me"); w.Code != http.StatusOK {
		t.Fatalf("user listing own: expected 200, got %d", w.Code)
	}
}

func TestGetByIDStatusMapping(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	tx := row(TypeSendMoney, alice, bob, 1000, 1)
	h := NewHandler(NewService(&memRepo{rows: []Transaction{tx}}), nil)

	if w := serve(t, h, access.Actor{ID: uuid.New(), Role: access.RoleUser}, "/"+tx.ID.String()); w.Code != http.StatusForbidden {
		t.Fatalf("stranger: expected 403, got %d", w.Code)
	}
	if w := serve(t, h, access.Actor{ID: alice, Role: access.RoleUser}, "/"+uuid.NewString()); w.Code != http.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", w.Code)
	}
	if w := serve(t, h, access.Actor{ID: alice, Role: access.RoleUser}, "/not-a-uuid"); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed: expected 400, got %d", w.Code)
	}
}

func TestParseFilterRejectsBadInput(t *testing.T) {
	h := NewHandler(NewService(&memRepo{}), nil)
	user := access.Actor{ID: uuid.New(), Role: access.RoleUser}

	for _, target := range []string{"/me?type=refund", "/me?status=done", "/me?start_date=yesterday"} {
		if w := serve(t, h, user, target); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}
	if w := serve(t, h, user, "/me?type=deposit&end_date=2025-03-01"); w.Code != http.StatusOK {
		t.Fatalf("valid filter: expected 200, got %d", w.Code)
	}
}

func TestBareDatesUseLedgerZone(t *testing.T) {
	dhaka := time.FixedZone("BDT", 6*60*60)
	h := NewHandler(NewService(&memRepo{}), dhaka)

	r := httptest.NewRequest(http.MethodGet, "/me?start_date=2025-03-01&end_date=2025-03-01", nil)
	filter, ok := h.parseFilter(httptest.NewRecorder(), r)
	if !ok {
		t.Fatalf("expected filter to parse")
	}
	if want := time.Date(2025, 3, 1, 0, 0, 0, 0, dhaka); !filter.From.Equal(want) {
		t.Fatalf("from: expected %s, got %s", want, filter.From)
	}
	if want := time.Date(2025, 3, 2, 0, 0, 0, 0, dhaka).Add(-time.Nanosecond); !filter.To.Equal(want) {
		t.Fatalf("to: expected %s, got %s", want, filter.To)
	}

	filter, _ = h.parseFilter(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me?start_date=2025-03-01T12:00:00Z", nil))
	if want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC); !filter.From.Equal(want) {
		t.Fatalf("explicit offset: expected %s, got %s", want, filter.From)
	}
}

func TestEndDateStopsAtLedgerMidnight(t *testing.T) {
	alice := uuid.New()
	lateEvening := row(TypeDeposit, alice, alice, 100, 7*60+30)
	nextMorning := row(TypeDeposit, alice, alice, 200, 8*60+30)
	h := NewHandler(NewService(&memRepo{rows: []Transaction{lateEvening, nextMorning}}), time.FixedZone("BDT", 6*60*60))

	w := serve(t, h, access.Actor{ID: alice, Role: access.RoleUser}, "/me?end_date=2025-03-01")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data []struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].ID != lateEvening.ID {
		t.Fatalf("expected only the entry before local midnight, got %s", w.Body.String())
	}
}
