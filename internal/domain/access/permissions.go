// Package access holds the capability policy: which role may perform which
// ledger operation. Both the engine and the HTTP routes consult it.
package access

import (
	"github.com/google/uuid"

	"github.com/mcash/mcash-api/internal/pkg/apperr"
)

// Role represents user role in the system
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
	RoleAgent      Role = "AGENT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := RoleHierarchy[r]
	return ok
}

// HoldsWallet reports whether accounts of this role get a wallet.
func (r Role) HoldsWallet() bool {
	return r == RoleUser || r == RoleAgent
}

// IsAdmin is true for ADMIN and SUPER_ADMIN.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Actor is an authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Permission represents a capability
type Permission string

const (
	// Wallet operations
	PermDeposit    Permission = "wallet.deposit"
	PermWithdraw   Permission = "wallet.withdraw"
	PermSend       Permission = "wallet.send"
	PermCashIn     Permission = "wallet.cash_in"
	PermCashOut    Permission = "wallet.cash_out"
	PermViewWallet Permission = "wallet.view"

	// Administration
	PermManageWallets Permission = "wallet.manage"
	PermManageAgents  Permission = "agent.manage"
	PermViewUsers     Permission = "user.view"

	// Ledger reads
	PermViewOwnTransactions Permission = "transaction.view_own"
	PermViewAllTransactions Permission = "transaction.view_all"
	PermViewCommissions     Permission = "commission.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermManageWallets, PermManageAgents, PermViewUsers,
		PermViewOwnTransactions, PermViewAllTransactions,
	},
	RoleAdmin: {
		PermManageWallets, PermManageAgents, PermViewUsers,
		PermViewOwnTransactions, PermViewAllTransactions,
	},
	RoleUser: {
		PermDeposit, PermWithdraw, PermSend, PermCashOut, PermViewWallet,
		PermViewOwnTransactions,
	},
	RoleAgent: {
		PermDeposit, PermWithdraw, PermCashIn, PermViewWallet,
		PermViewOwnTransactions, PermViewCommissions,
	},
}

// RoleHierarchy defines role levels (higher = more permissions)
var RoleHierarchy = map[Role]int{
	RoleSuperAdmin: 100,
	RoleAdmin:      80,
	RoleAgent:      40,
	RoleUser:       20,
}

var ErrForbidden = apperr.New(apperr.Forbidden, "you are not permitted to perform this action")

// HasPermission checks if role has specific permission
func HasPermission(role Role, perm Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// Authorize returns ErrForbidden when role lacks perm.
func Authorize(role Role, perm Permission) error {
	if !HasPermission(role, perm) {
		return ErrForbidden
	}
	return nil
}
