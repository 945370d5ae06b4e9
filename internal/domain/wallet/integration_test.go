package wallet_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcash/mcash-api/internal/domain/access"
	"github.com/mcash/mcash-api/internal/domain/transaction"
	"github.com/mcash/mcash-api/internal/domain/user"
	"github.com/mcash/mcash-api/internal/domain/wallet"
	"github.com/mcash/mcash-api/internal/pkg/database"
	"github.com/mcash/mcash-api/internal/pkg/money"
	"github.com/mcash/mcash-api/internal/pkg/password"
)

type ledgerEnv struct {
	db      *sqlx.DB
	users   *user.Service
	wallets *wallet.Service
	repo    *wallet.Repository
	created []uuid.UUID
}

func setupTestDB(t *testing.T) *ledgerEnv {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres integration test")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("Postgres unreachable: %v", err)
	}
	require.NoError(t, database.ApplySchema(context.Background(), db))

	txRepo := transaction.NewRepository(db)
	walletRepo := wallet.NewRepository(db, txRepo, wallet.DefaultCaps(), 0)
	userRepo := user.NewRepository(db)

	env := &ledgerEnv{
		db:      db,
		users:   user.NewService(db, userRepo, walletRepo, password.NewHasher(4)),
		wallets: wallet.NewService(walletRepo, userRepo, nil, nil, time.UTC),
		repo:    walletRepo,
	}
	t.Cleanup(func() { cleanupTestDB(env) })
	return env
}

func cleanupTestDB(env *ledgerEnv) {
	ctx := context.Background()
	for _, id := range env.created {
		env.db.ExecContext(ctx, `DELETE FROM transactions WHERE sender_id = $1 OR receiver_id = $1`, id)
		env.db.ExecContext(ctx, `DELETE FROM wallets WHERE user_id = $1`, id)
		env.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	}
	env.db.Close()
}

func (env *ledgerEnv) createUser(t *testing.T, role access.Role) (access.Actor, string) {
	t.Helper()
	phone := fmt.Sprintf("019%08d", rand.Intn(100000000))
	u, err := env.users.Create(context.Background(), user.CreateParams{
		Name:     "Integration " + string(role),
		Phone:    phone,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	env.created = append(env.created, u.ID)
	return access.Actor{ID: u.ID, Role: role}, u.Phone
}

func (env *ledgerEnv) balance(t *testing.T, userID uuid.UUID) money.Amount {
	t.Helper()
	w, err := env.repo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, w)
	return w.Balance
}

func TestPostgresConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	alice, _ := env.createUser(t, access.RoleUser)
	assert.Equal(t, wallet.StartingBalance, env.balance(t, alice.ID))

	_, err := env.wallets.Deposit(ctx, alice, money.Units(1000))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.wallets.Withdraw(ctx, alice, money.Units(100))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, wallet.ErrInsufficientFunds):
				rejected++
			default:
				t.Errorf("unexpected withdraw error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, rejected)
	assert.Equal(t, money.Units(50), env.balance(t, alice.ID))
}

func TestPostgresOpposingTransfersConserveMoney(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	alice, alicePhone := env.createUser(t, access.RoleUser)
	bob, bobPhone := env.createUser(t, access.RoleUser)

	_, err := env.wallets.Deposit(ctx, alice, money.Units(500))
	require.NoError(t, err)
	_, err = env.wallets.Deposit(ctx, bob, money.Units(500))
	require.NoError(t, err)
	total := env.balance(t, alice.ID) + env.balance(t, bob.ID)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.wallets.SendMoney(ctx, alice, bobPhone, money.Units(10))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := env.wallets.SendMoney(ctx, bob, alicePhone, money.Units(10))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, total, env.balance(t, alice.ID)+env.balance(t, bob.ID))
	assert.Equal(t, money.Units(550), env.balance(t, alice.ID))
}
