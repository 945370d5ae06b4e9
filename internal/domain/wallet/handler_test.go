package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcash/mcash-api/internal/domain/access"
	"github.com/mcash/mcash-api/internal/middleware"
	"github.com/mcash/mcash-api/internal/pkg/money"
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

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func call(t *testing.T, f *fixture, actor access.Actor, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	h := NewHandler(f.svc, nil)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.Routes(fakeAuth(actor)).ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestDepositEndpoint(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.add(access.RoleUser, StartingBalance)

	w, env := call(t, f, alice, http.MethodPost, "/deposit", `{"amount": 100}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Wallet struct {
			Balance float64 `json:"balance"`
		} `json:"wallet"`
		Transactions []struct {
			Type      string `json:"type"`
			Reference string `json:"reference"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 150.0, data.Wallet.Balance)
	require.Len(t, data.Transactions, 1)
	assert.Equal(t, "DEPOSIT", data.Transactions[0].Type)
	assert.NotEmpty(t, data.Transactions[0].Reference)
}

func TestDepositEndpointValidation(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.add(access.RoleUser, StartingBalance)

	w, env := call(t, f, alice, http.MethodPost, "/deposit", `{"amount": 5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Minimum amount is 10", env.Error.Details["amount"])

	w, _ = call(t, f, alice, http.MethodPost, "/deposit", `{"amount": 10.001}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(t, f, alice, http.MethodPost, "/deposit", `{"amount": 60000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLimitExceededCarriesRemaining(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.add(access.RoleUser, StartingBalance)

	for i := 0; i < 2; i++ {
		w, _ := call(t, f, alice, http.MethodPost, "/deposit", `{"amount": 20000}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, env := call(t, f, alice, http.MethodPost, "/deposit", `{"amount": 20000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "LIMIT_EXCEEDED", env.Error.Code)
	assert.Equal(t, "10000.00", env.Error.Details["remaining"])
	assert.Equal(t, "deposit", env.Error.Details["limit"])
}

func TestSendMoneyEndpoint(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.add(access.RoleUser, money.Units(150))
	bob, bobPhone := f.add(access.RoleUser, StartingBalance)

	w, _ := call(t, f, alice, http.MethodPost, "/send-money", `{"receiver_phone": "`+bobPhone+`", "amount": 50}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, StartingBalance*2, f.store.balance(bob.ID))

	w, env := call(t, f, alice, http.MethodPost, "/send-money", `{"receiver_phone": "12345", "amount": 50}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Error.Details, "receiver_phone")
}

func TestEndpointsEnforceRoles(t *testing.T) {
	f := newFixture(t)
	agent, _ := f.add(access.RoleAgent, StartingBalance)
	alice, alicePhone := f.add(access.RoleUser, StartingBalance)

	w, _ := call(t, f, agent, http.MethodPost, "/send-money", `{"receiver_phone": "`+alicePhone+`", "amount": 50}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = call(t, f, alice, http.MethodPost, "/cash-in", `{"user_phone": "`+alicePhone+`", "amount": 50}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = call(t, f, alice, http.MethodGet, "/all", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCashOutNotApprovedAgentStatus(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.add(access.RoleUser, money.Units(150))
	_, agentPhone := f.add(access.RoleAgent, StartingBalance)

	w, env := call(t, f, alice, http.MethodPost, "/cash-out", `{"agent_phone": "`+agentPhone+`", "amount": 10}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NOT_APPROVED_AGENT", env.Error.Code)
}

func TestCashEndpointsRejectOversizedAmounts(t *testing.T) {
	f := newFixture(t)
	alice, alicePhone := f.add(access.RoleUser, money.Units(100))
	agent, agentPhone := f.add(access.RoleAgent, money.Units(500))
	f.approve(agentPhone)

	w, env := call(t, f, alice, http.MethodPost, "/cash-out", `{"agent_phone": "`+agentPhone+`", "amount": 91000000000000000.00}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	require.NotNil(t, env.Error)
	assert.Equal(t, "Maximum amount is 100000", env.Error.Details["amount"])

	w, env = call(t, f, agent, http.MethodPost, "/cash-in", `{"user_phone": "`+alicePhone+`", "amount": 100000.01}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	require.NotNil(t, env.Error)
	assert.Equal(t, "Maximum amount is 100000", env.Error.Details["amount"])

	assert.Equal(t, money.Units(100), f.store.balance(alice.ID))
	assert.Equal(t, money.Units(500), f.store.balance(agent.ID))
	assert.Empty(t, f.store.txns)
}

func TestAdminWalletEndpoints(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.add(access.RoleUser, StartingBalance)
	admin := access.Actor{ID: uuid.New(), Role: access.RoleAdmin}

	w, env := call(t, f, admin, http.MethodGet, "/all?page=1&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.Meta.Total)

	w, _ = call(t, f, admin, http.MethodPatch, "/"+alice.ID.String()+"/block", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, env = call(t, f, alice, http.MethodPost, "/withdraw", `{"amount": 10}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "WALLET_BLOCKED", env.Error.Code)

	w, _ = call(t, f, admin, http.MethodPatch, "/not-a-uuid/unblock", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(t, f, admin, http.MethodPatch, "/"+uuid.NewString()+"/unblock", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyWalletEndpoint(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.add(access.RoleUser, StartingBalance)

	w, env := call(t, f, alice, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		UserID      uuid.UUID `json:"user_id"`
		Balance     float64   `json:"balance"`
		DailyLimits struct {
			Deposit struct {
				DailyLimit float64 `json:"daily_limit"`
			} `json:"deposit"`
		} `json:"daily_limits"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, alice.ID, data.UserID)
	assert.Equal(t, 50.0, data.Balance)
	assert.Equal(t, 50000.0, data.DailyLimits.Deposit.DailyLimit)
}
