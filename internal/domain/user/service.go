package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcash/mcash-api/internal/pkg/database"
	"github.com/mcash/mcash-api/internal/pkg/logger"
	"github.com/mcash/mcash-api/internal/pkg/password"
)

// WalletProvisioner opens the wallet of a freshly inserted user inside the
// same transaction as the user row.
type WalletProvisioner interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error
}

// CreateParams describes a new directory entry.
type CreateParams struct {
	Name     string
	Phone    string
	Password string
	Role     Role
	Verified bool
	Approved bool
}

// Service handles user business logic
type Service struct {
	db      *sqlx.DB
	repo    Repository
	wallets WalletProvisioner
	hasher  *password.Hasher
}

// NewService creates user service
func NewService(db *sqlx.DB, repo Repository, wallets WalletProvisioner, hasher *password.Hasher) *Service {
	return &Service{
		db:      db,
		repo:    repo,
		wallets: wallets,
		hasher:  hasher,
	}
}

// Register creates a USER or AGENT from the public sign-up form.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	role := req.Role
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleAgent {
		return nil, ErrInvalidRole
	}

	return s.Create(ctx, CreateParams{
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     role,
	})
}

// Create inserts the user and, for wallet-holding roles, its wallet in a
// single transaction. A failed wallet insert leaves no user behind.
func (s *Service) Create(ctx context.Context, p CreateParams) (*User, error) {
	if !p.Role.Valid() {
		return nil, ErrInvalidRole
	}

	phone := NormalizePhone(p.Phone)

	existing, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, ErrWeakPassword
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		Name:         p.Name,
		Phone:        phone,
		PasswordHash: hash,
		Role:         p.Role,
		Status:       StatusActive,
		IsVerified:   p.Verified,
		IsApproved:   p.Approved,
	}

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.repo.CreateTx(ctx, tx, u); err != nil {
			return err
		}
		if u.Role.HoldsWallet() {
			return s.wallets.CreateTx(ctx, tx, u.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("user_id", u.ID.String()).
		Str("role", string(u.Role)).
		Msg("user created")

	return u, nil
}

// GetByID returns a user or ErrUserNotFound.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetByPhone resolves a counterparty. Absent users yield (nil, nil).
func (s *Service) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return s.repo.GetByPhone(ctx, phone)
}

// List returns a page of users and the total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*User, int, ListFilter, error) {
	filter = filter.normalized()
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, filter, err
	}
	return users, total, filter, nil
}

// ApproveAgent marks an agent approved and active.
func (s *Service) ApproveAgent(ctx context.Context, agentID uuid.UUID) (*User, error) {
	agent, err := s.loadAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.IsApproved {
		return nil, ErrAlreadyApproved
	}

	if err := s.repo.UpdateApproval(ctx, agent.ID, true, StatusActive); err != nil {
		return nil, err
	}
	agent.IsApproved = true
	agent.Status = StatusActive

	logger.FromContext(ctx).Info().Str("agent_id", agent.ID.String()).Msg("agent approved")
	return agent, nil
}

// SuspendAgent revokes approval and deactivates the agent.
func (s *Service) SuspendAgent(ctx context.Context, agentID uuid.UUID) (*User, error) {
	agent, err := s.loadAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateApproval(ctx, agent.ID, false, StatusInactive); err != nil {
		return nil, err
	}
	agent.IsApproved = false
	agent.Status = StatusInactive

	logger.FromContext(ctx).Info().Str("agent_id", agent.ID.String()).Msg("agent suspended")
	return agent, nil
}

func (s *Service) loadAgent(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrAgentNotFound
	}
	if !u.IsAgent() {
		return nil, ErrNotAnAgent
	}
	return u, nil
}

// SeedSuperAdmin creates the configured super admin once. Subsequent calls
// with the same phone are no-ops.
func (s *Service) SeedSuperAdmin(ctx context.Context, phone, pass string) error {
	if phone == "" || pass == "" {
		return nil
	}

	existing, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	_, err = s.Create(ctx, CreateParams{
		Name:     "Super Admin",
		Phone:    phone,
		Password: pass,
		Role:     RoleSuperAdmin,
		Verified: true,
		Approved: true,
	})
	if errors.Is(err, ErrPhoneTaken) {
		return nil
	}
	return err
}
