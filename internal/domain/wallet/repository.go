package wallet

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcash/mcash-api/internal/domain/transaction"
	"github.com/mcash/mcash-api/internal/pkg/database"
)

const (
	queryTimeout = 3 * time.Second

	// DefaultTxTimeout bounds one unit of work.
	DefaultTxTimeout = 5 * time.Second
)

const walletColumns = `id, user_id, balance, is_blocked,
	deposit_used, deposit_cap, deposit_reset_at,
	withdrawal_used, withdrawal_cap, withdrawal_reset_at,
	send_used, send_cap, send_reset_at,
	created_at, updated_at`

// TransactionWriter appends ledger rows inside a caller-owned transaction.
type TransactionWriter interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, t *transaction.Transaction) error
}

// Repository is the PostgreSQL Store. Units of work run at READ COMMITTED
// and serialize on wallet rows with SELECT ... FOR UPDATE.
type Repository struct {
	db        *sqlx.DB
	txns      TransactionWriter
	caps      Caps
	txTimeout time.Duration
	now       func() time.Time
}

func NewRepository(db *sqlx.DB, txns TransactionWriter, caps Caps, txTimeout time.Duration) *Repository {
	if txTimeout <= 0 {
		txTimeout = DefaultTxTimeout
	}
	return &Repository{
		db:        db,
		txns:      txns,
		caps:      caps,
		txTimeout: txTimeout,
		now:       time.Now,
	}
}

func (r *Repository) Do(ctx context.Context, fn func(ctx context.Context, l Ledger) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	return database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &pgLedger{tx: tx, txns: r.txns})
	})
}

// CreateTx opens the wallet of a new user inside the user-creation
// transaction.
func (r *Repository) CreateTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	w := NewWallet(userID, r.caps, r.now())

	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (
			id, user_id, balance, is_blocked,
			deposit_used, deposit_cap, deposit_reset_at,
			withdrawal_used, withdrawal_cap, withdrawal_reset_at,
			send_used, send_cap, send_reset_at
		)
		VALUES ($1, $2, $3, false, 0, $4, $5, 0, $6, $7, 0, $8, $9)
	`,
		w.ID, w.UserID, w.Balance,
		w.DailyLimits.Deposit.DailyCap, w.DailyLimits.Deposit.LastReset,
		w.DailyLimits.Withdrawal.DailyCap, w.DailyLimits.Withdrawal.LastReset,
		w.DailyLimits.SendMoney.DailyCap, w.DailyLimits.SendMoney.LastReset,
	)
	if err != nil {
		if constraint, ok := database.UniqueViolation(err); ok && constraint == "wallets_user_id_key" {
			return ErrWalletExists
		}
		return database.Classify(err, "insert wallet")
	}

	return nil
}

// GetByUserID returns the wallet of userID, or nil when absent.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row walletRow
	err := r.db.GetContext(ctx2, &row, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(err, "get wallet")
	}

	return row.toWallet(), nil
}

type walletOwnerRow struct {
	walletRow
	Owner
}

func (r *Repository) List(ctx context.Context, page, limit int) ([]WalletWithOwner, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM wallets`); err != nil {
		return nil, 0, database.Classify(err, "count wallets")
	}

	rows := make([]walletOwnerRow, 0, limit)
	err := r.db.SelectContext(ctx2, &rows, `
		SELECT w.id, w.user_id, w.balance, w.is_blocked,
			w.deposit_used, w.deposit_cap, w.deposit_reset_at,
			w.withdrawal_used, w.withdrawal_cap, w.withdrawal_reset_at,
			w.send_used, w.send_cap, w.send_reset_at,
			w.created_at, w.updated_at,
			u.name, u.phone, u.role, u.status
		FROM wallets w
		JOIN users u ON u.id = w.user_id
		ORDER BY w.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, database.Classify(err, "list wallets")
	}

	wallets := make([]WalletWithOwner, 0, len(rows))
	for _, row := range rows {
		wallets = append(wallets, WalletWithOwner{Wallet: row.toWallet(), Owner: row.Owner})
	}
	return wallets, total, nil
}

// SetBlocked flips is_blocked on a single row.
func (r *Repository) SetBlocked(ctx context.Context, userID uuid.UUID, blocked bool) (*Wallet, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row walletRow
	err := r.db.GetContext(ctx2, &row, `
		UPDATE wallets SET is_blocked = $2, updated_at = now()
		WHERE user_id = $1
		RETURNING `+walletColumns, userID, blocked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, database.Classify(err, "set wallet blocked")
	}

	return row.toWallet(), nil
}

// pgLedger is the Ledger bound to one open transaction.
type pgLedger struct {
	tx   *sqlx.Tx
	txns TransactionWriter
}

func (l *pgLedger) LockWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	w, err := l.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalletNotFound
	}
	return w, nil
}

func (l *pgLedger) LockPair(ctx context.Context, a, b uuid.UUID) (*Wallet, *Wallet, error) {
	if a == b {
		return nil, nil, fmt.Errorf("lock pair: %w", ErrSelfTransfer)
	}

	first, second := a, b
	if bytes.Compare(a[:], b[:]) > 0 {
		first, second = b, a
	}

	w1, err := l.lock(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	w2, err := l.lock(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if first == a {
		return w1, w2, nil
	}
	return w2, w1, nil
}

func (l *pgLedger) lock(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	var row walletRow
	err := l.tx.GetContext(ctx, &row, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(err, "lock wallet")
	}
	return row.toWallet(), nil
}

func (l *pgLedger) SaveWallet(ctx context.Context, w *Wallet) error {
	d, wd, s := w.DailyLimits.Deposit, w.DailyLimits.Withdrawal, w.DailyLimits.SendMoney

	err := l.tx.QueryRowxContext(ctx, `
		UPDATE wallets SET
			balance = $2,
			deposit_used = $3, deposit_reset_at = $4,
			withdrawal_used = $5, withdrawal_reset_at = $6,
			send_used = $7, send_reset_at = $8,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, w.ID, w.Balance,
		d.UsedToday, d.LastReset,
		wd.UsedToday, wd.LastReset,
		s.UsedToday, s.LastReset,
	).Scan(&w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrWalletNotFound
		}
		if constraint, ok := database.CheckViolation(err); ok && constraint == "wallets_balance_check" {
			return ErrInsufficientFunds
		}
		return database.Classify(err, "save wallet")
	}

	return nil
}

func (l *pgLedger) InsertTransaction(ctx context.Context, t *transaction.Transaction) error {
	return l.txns.InsertTx(ctx, l.tx, t)
}
