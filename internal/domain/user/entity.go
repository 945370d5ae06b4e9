package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/domain/access"
)

// Role is the directory's view of an access role.
type Role = access.Role

const (
	RoleSuperAdmin = access.RoleSuperAdmin
	RoleAdmin      = access.RoleAdmin
	RoleUser       = access.RoleUser
	RoleAgent      = access.RoleAgent
)

// Status represents account status
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusBlocked  Status = "BLOCKED"
)

// User is an identity in the directory.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	Status       Status    `db:"status" json:"status"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	IsApproved   bool      `db:"is_approved" json:"is_approved"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsAgent returns true if user is an agent
func (u *User) IsAgent() bool {
	return u.Role == RoleAgent
}

// IsAdmin returns true for ADMIN and SUPER_ADMIN
func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

// IsApprovedAgent is the precondition for receiving cash-outs.
func (u *User) IsApprovedAgent() bool {
	return u.IsAgent() && u.IsApproved
}

// NormalizePhone strips the +88 country prefix so one number has one spelling.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	return strings.TrimPrefix(phone, "+88")
}
