package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/domain/transaction"
	"github.com/mcash/mcash-api/internal/domain/user"
)

// Ledger is the view of the store inside one unit of work. Wallets returned
// by the lock methods stay locked until the unit of work ends.
type Ledger interface {
	// LockWallet locks and returns the wallet of userID, or ErrWalletNotFound.
	LockWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	// LockPair locks both wallets in ascending user ID order and returns them
	// in argument order. An absent wallet is returned as nil without error.
	LockPair(ctx context.Context, a, b uuid.UUID) (*Wallet, *Wallet, error)
	SaveWallet(ctx context.Context, w *Wallet) error
	InsertTransaction(ctx context.Context, t *transaction.Transaction) error
}

// UnitOfWork runs fn atomically: every write fn makes through the Ledger is
// committed when fn returns nil and discarded otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, l Ledger) error) error
}

// Store is everything the engine needs from persistence.
type Store interface {
	UnitOfWork
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	List(ctx context.Context, page, limit int) ([]WalletWithOwner, int, error)
	SetBlocked(ctx context.Context, userID uuid.UUID, blocked bool) (*Wallet, error)
}

// Directory resolves counterparties. Absent users are (nil, nil).
type Directory interface {
	GetByPhone(ctx context.Context, phone string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Publisher delivers post-commit notifications to a user's live sessions.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, event string, payload interface{}) error
}

// Metrics records engine outcomes.
type Metrics interface {
	ObserveOperation(operation, outcome string, d time.Duration)
	AddVolume(operation string, principal, fees int64)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, uuid.UUID, string, interface{}) error { return nil }

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string, time.Duration) {}
func (noopMetrics) AddVolume(string, int64, int64)                 {}
