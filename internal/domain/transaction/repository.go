package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcash/mcash-api/internal/pkg/database"
	"github.com/mcash/mcash-api/internal/pkg/money"
	"github.com/mcash/mcash-api/internal/pkg/reference"
)

const queryTimeout = 3 * time.Second

const partyColumns = `t.id, t.reference, t.sender_id, t.receiver_id, t.amount, t.fee, t.commission,
	t.type, t.status, t.description, t.created_at,
	s.name AS sender_name, s.phone AS sender_phone, s.role AS sender_role,
	r.name AS receiver_name, r.phone AS receiver_phone, r.role AS receiver_role`

const partyJoin = ` FROM transactions t
	JOIN users s ON s.id = t.sender_id
	JOIN users r ON r.id = t.receiver_id`

// partyRow is a transactions row joined with both parties' user rows.
type partyRow struct {
	Transaction
	SenderName    string `db:"sender_name"`
	SenderPhone   string `db:"sender_phone"`
	SenderRole    string `db:"sender_role"`
	ReceiverName  string `db:"receiver_name"`
	ReceiverPhone string `db:"receiver_phone"`
	ReceiverRole  string `db:"receiver_role"`
}

func (p partyRow) toTransaction() Transaction {
	t := p.Transaction
	t.Sender = &Party{Name: p.SenderName, Phone: p.SenderPhone, Role: p.SenderRole}
	t.Receiver = &Party{Name: p.ReceiverName, Phone: p.ReceiverPhone, Role: p.ReceiverRole}
	return t
}

// Repository is append-only: rows are inserted inside a ledger transaction
// and read afterwards, never updated or deleted.
type Repository interface {
	// InsertTx appends t inside the caller's transaction. ID, Reference and
	// Status are filled in when empty.
	InsertTx(ctx context.Context, tx *sqlx.Tx, t *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Search(ctx context.Context, filter Filter) ([]Transaction, int, error)
	SumAmount(ctx context.Context, filter Filter) (money.Amount, error)
}

// PostgresRepository stores ledger rows in the transactions table.
type PostgresRepository struct {
	db   *sqlx.DB
	refs *reference.Generator
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db, refs: reference.NewGenerator()}
}

func (r *PostgresRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if strings.TrimSpace(t.Reference) == "" {
		t.Reference = r.refs.New()
	}
	if t.Status == "" {
		t.Status = StatusCompleted
	}

	err := tx.QueryRowxContext(ctx, `
		INSERT INTO transactions (
			id, reference, sender_id, receiver_id, amount, fee, commission, type, status, description
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, t.ID, t.Reference, t.SenderID, t.ReceiverID, t.Amount, t.Fee, t.Commission, t.Type, t.Status, t.Description,
	).Scan(&t.CreatedAt)
	if err != nil {
		if constraint, ok := database.UniqueViolation(err); ok && constraint == "transactions_reference_key" {
			return ErrDuplicateReference
		}
		return database.Classify(err, "insert transaction")
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row partyRow
	err := r.db.GetContext(ctx2, &row, `SELECT `+partyColumns+partyJoin+` WHERE t.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(err, "get transaction")
	}

	t := row.toTransaction()
	return &t, nil
}

// Search returns one page of matching rows, newest first, with both parties
// attached, and the total number of matches.
func (r *PostgresRepository) Search(ctx context.Context, filter Filter) ([]Transaction, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter = filter.Normalized()
	where, args := buildWhere(filter, "")

	var total int
	if err := r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM transactions`+where, args...); err != nil {
		return nil, 0, database.Classify(err, "count transactions")
	}

	where, args = buildWhere(filter, "t.")
	idx := len(args) + 1
	query := `SELECT ` + partyColumns + partyJoin + where +
		fmt.Sprintf(" ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, filter.Limit, filter.offset())

	rows := make([]partyRow, 0, filter.Limit)
	if err := r.db.SelectContext(ctx2, &rows, query, args...); err != nil {
		return nil, 0, database.Classify(err, "search transactions")
	}

	transactions := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, row.toTransaction())
	}
	return transactions, total, nil
}

// SumAmount totals the amount column over every row matching filter,
// ignoring pagination.
func (r *PostgresRepository) SumAmount(ctx context.Context, filter Filter) (money.Amount, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where, args := buildWhere(filter, "")

	var sum int64
	if err := r.db.GetContext(ctx2, &sum, `SELECT COALESCE(SUM(amount), 0) FROM transactions`+where, args...); err != nil {
		return 0, database.Classify(err, "sum transactions")
	}

	return money.Amount(sum), nil
}

// buildWhere renders filter as a WHERE clause; col qualifies column names
// when the query joins other tables.
func buildWhere(filter Filter, col string) (string, []interface{}) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0, 8)
	idx := 1

	if filter.ParticipantID != nil {
		where += fmt.Sprintf(" AND (%ssender_id = $%d OR %sreceiver_id = $%d)", col, idx, col, idx)
		args = append(args, *filter.ParticipantID)
		idx++
	}
	if filter.SenderID != nil {
		where += fmt.Sprintf(" AND %ssender_id = $%d", col, idx)
		args = append(args, *filter.SenderID)
		idx++
	}
	if filter.ReceiverID != nil {
		where += fmt.Sprintf(" AND %sreceiver_id = $%d", col, idx)
		args = append(args, *filter.ReceiverID)
		idx++
	}
	if filter.Type != nil {
		where += fmt.Sprintf(" AND %stype = $%d", col, idx)
		args = append(args, *filter.Type)
		idx++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND %sstatus = $%d", col, idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.From != nil {
		where += fmt.Sprintf(" AND %screated_at >= $%d", col, idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND %screated_at <= $%d", col, idx)
		args = append(args, *filter.To)
	}

	return where, args
}
