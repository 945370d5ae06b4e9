package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/pkg/money"
)

// Type classifies a ledger entry.
type Type string

const (
	TypeDeposit    Type = "DEPOSIT"
	TypeWithdraw   Type = "WITHDRAW"
	TypeSendMoney  Type = "SEND_MONEY"
	TypeCashIn     Type = "CASH_IN"
	TypeCashOut    Type = "CASH_OUT"
	TypeCommission Type = "COMMISSION"
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdraw, TypeSendMoney, TypeCashIn, TypeCashOut, TypeCommission:
		return true
	}
	return false
}

// Status of a ledger entry. Committed rows are always COMPLETED; the other
// values are kept for compatibility with the stored enum.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusReversed  Status = "REVERSED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusReversed:
		return true
	}
	return false
}

// MaxDescriptionLength bounds the free-text note on an entry.
const MaxDescriptionLength = 200

// Transaction is an immutable ledger row.
type Transaction struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	Reference   string       `db:"reference" json:"reference"`
	SenderID    uuid.UUID    `db:"sender_id" json:"sender_id"`
	ReceiverID  uuid.UUID    `db:"receiver_id" json:"receiver_id"`
	Amount      money.Amount `db:"amount" json:"amount"`
	Fee         money.Amount `db:"fee" json:"fee"`
	Commission  money.Amount `db:"commission" json:"commission"`
	Type        Type         `db:"type" json:"type"`
	Status      Status       `db:"status" json:"status"`
	Description string       `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`

	// Sender and Receiver are filled on reads that join the user directory.
	Sender   *Party `db:"-" json:"sender,omitempty"`
	Receiver *Party `db:"-" json:"receiver,omitempty"`
}

// Party is the public identity of one side of an entry.
type Party struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// Involves reports whether userID is the sender or the receiver.
func (t *Transaction) Involves(userID uuid.UUID) bool {
	return t.SenderID == userID || t.ReceiverID == userID
}

// Filter selects ledger rows. Nil fields are unconstrained.
type Filter struct {
	// ParticipantID matches rows where the user is sender or receiver.
	ParticipantID *uuid.UUID
	SenderID      *uuid.UUID
	ReceiverID    *uuid.UUID
	Type          *Type
	Status        *Status
	From          *time.Time
	To            *time.Time
	Page          int
	Limit         int
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Normalized applies pagination defaults.
func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

func (f Filter) offset() int {
	return (f.Page - 1) * f.Limit
}

// Page is one page of ledger rows.
type Page struct {
	Transactions []Transaction
	Total        int
	Page         int
	Limit        int
}

// CommissionPage is an agent's commission history with the all-time total.
type CommissionPage struct {
	Page
	TotalCommissionEarned money.Amount
}
