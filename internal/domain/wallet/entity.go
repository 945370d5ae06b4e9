package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/pkg/money"
)

// StartingBalance is credited to every new wallet.
var StartingBalance = money.Units(50)

// Default daily caps, overridable per deployment for newly created wallets.
var (
	DefaultDepositCap    = money.Units(50000)
	DefaultWithdrawalCap = money.Units(25000)
	DefaultSendMoneyCap  = money.Units(25000)
)

// MaxOperationAmount bounds a single money movement so balance and counter
// arithmetic stays far inside int64.
var MaxOperationAmount = money.Units(1_000_000_000)

// LimitKind names one of the independent daily counters.
type LimitKind string

const (
	LimitDeposit    LimitKind = "deposit"
	LimitWithdrawal LimitKind = "withdrawal"
	LimitSendMoney  LimitKind = "sendMoney"
)

// Limit is the state of one daily counter. It is a value: Consume returns an
// updated copy that the caller persists together with the balance change.
type Limit struct {
	Kind      LimitKind    `json:"-"`
	UsedToday money.Amount `json:"used_today"`
	DailyCap  money.Amount `json:"daily_limit"`
	LastReset time.Time    `json:"last_reset"`
}

// DailyLimits groups the three counters of a wallet.
type DailyLimits struct {
	Deposit    Limit `json:"deposit"`
	Withdrawal Limit `json:"withdrawal"`
	SendMoney  Limit `json:"send_money"`
}

// Caps configures the daily caps of newly created wallets.
type Caps struct {
	Deposit    money.Amount
	Withdrawal money.Amount
	SendMoney  money.Amount
}

// DefaultCaps returns the built-in caps.
func DefaultCaps() Caps {
	return Caps{Deposit: DefaultDepositCap, Withdrawal: DefaultWithdrawalCap, SendMoney: DefaultSendMoneyCap}
}

// Wallet is a user's balance record.
type Wallet struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Balance     money.Amount `json:"balance"`
	IsBlocked   bool         `json:"is_blocked"`
	DailyLimits DailyLimits  `json:"daily_limits"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewWallet builds the initial state of a user's wallet.
func NewWallet(userID uuid.UUID, caps Caps, now time.Time) *Wallet {
	return &Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: StartingBalance,
		DailyLimits: DailyLimits{
			Deposit:    Limit{Kind: LimitDeposit, DailyCap: caps.Deposit, LastReset: now},
			Withdrawal: Limit{Kind: LimitWithdrawal, DailyCap: caps.Withdrawal, LastReset: now},
			SendMoney:  Limit{Kind: LimitSendMoney, DailyCap: caps.SendMoney, LastReset: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// walletRow is the flat storage shape of Wallet.
type walletRow struct {
	ID                uuid.UUID `db:"id"`
	UserID            uuid.UUID `db:"user_id"`
	Balance           int64     `db:"balance"`
	IsBlocked         bool      `db:"is_blocked"`
	DepositUsed       int64     `db:"deposit_used"`
	DepositCap        int64     `db:"deposit_cap"`
	DepositResetAt    time.Time `db:"deposit_reset_at"`
	WithdrawalUsed    int64     `db:"withdrawal_used"`
	WithdrawalCap     int64     `db:"withdrawal_cap"`
	WithdrawalResetAt time.Time `db:"withdrawal_reset_at"`
	SendUsed          int64     `db:"send_used"`
	SendCap           int64     `db:"send_cap"`
	SendResetAt       time.Time `db:"send_reset_at"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r walletRow) toWallet() *Wallet {
	return &Wallet{
		ID:        r.ID,
		UserID:    r.UserID,
		Balance:   money.Amount(r.Balance),
		IsBlocked: r.IsBlocked,
		DailyLimits: DailyLimits{
			Deposit:    Limit{Kind: LimitDeposit, UsedToday: money.Amount(r.DepositUsed), DailyCap: money.Amount(r.DepositCap), LastReset: r.DepositResetAt},
			Withdrawal: Limit{Kind: LimitWithdrawal, UsedToday: money.Amount(r.WithdrawalUsed), DailyCap: money.Amount(r.WithdrawalCap), LastReset: r.WithdrawalResetAt},
			SendMoney:  Limit{Kind: LimitSendMoney, UsedToday: money.Amount(r.SendUsed), DailyCap: money.Amount(r.SendCap), LastReset: r.SendResetAt},
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Owner is the public identity attached to admin wallet listings.
type Owner struct {
	Name   string `db:"name" json:"name"`
	Phone  string `db:"phone" json:"phone"`
	Role   string `db:"role" json:"role"`
	Status string `db:"status" json:"status"`
}

// WalletWithOwner is a wallet together with its owner's directory entry.
type WalletWithOwner struct {
	*Wallet
	Owner Owner `json:"owner"`
}
