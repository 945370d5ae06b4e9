package transaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/domain/access"
)

// Service answers ledger read queries.
type Service struct {
	repo Repository
}

// NewService creates transaction query service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListMine returns entries where the actor is sender or receiver. Participant
// constraints in filter are replaced by the actor.
func (s *Service) ListMine(ctx context.Context, actor access.Actor, filter Filter) (*Page, error) {
	if err := access.Authorize(actor.Role, access.PermViewOwnTransactions); err != nil {
		return nil, err
	}

	filter.ParticipantID = &actor.ID
	filter.SenderID = nil
	filter.ReceiverID = nil

	return s.search(ctx, filter)
}

// AgentCommissions lists COMMISSION entries credited to the agent: the
// self-credited cash-in commissions and the cash-out fees paid by users.
// TotalCommissionEarned covers every matching entry, not only the page.
// Only the date range and pagination of filter are honoured.
func (s *Service) AgentCommissions(ctx context.Context, actor access.Actor, filter Filter) (*CommissionPage, error) {
	if err := access.Authorize(actor.Role, access.PermViewCommissions); err != nil {
		return nil, err
	}

	commission := TypeCommission
	filter = Filter{
		ReceiverID: &actor.ID,
		Type:       &commission,
		From:       filter.From,
		To:         filter.To,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}

	p, err := s.search(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.SumAmount(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &CommissionPage{Page: *p, TotalCommissionEarned: total}, nil
}

// ListAll is the administrator view over the whole ledger.
func (s *Service) ListAll(ctx context.Context, actor access.Actor, filter Filter) (*Page, error) {
	if err := access.Authorize(actor.Role, access.PermViewAllTransactions); err != nil {
		return nil, err
	}
	return s.search(ctx, filter)
}

// GetByID returns one entry. Non-admins may only read entries they are party to.
func (s *Service) GetByID(ctx context.Context, actor access.Actor, id uuid.UUID) (*Transaction, error) {
	if err := access.Authorize(actor.Role, access.PermViewOwnTransactions); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}

	if !actor.Role.IsAdmin() && !t.Involves(actor.ID) {
		return nil, ErrForbidden
	}

	return t, nil
}

func (s *Service) search(ctx context.Context, filter Filter) (*Page, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, ErrInvalidType
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	filter = filter.Normalized()
	items, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &Page{
		Transactions: items,
		Total:        total,
		Page:         filter.Page,
		Limit:        filter.Limit,
	}, nil
}
