package access

import (
	"errors"
	"testing"
)

func TestAuthorizeMoneyMovement(t *testing.T) {
	cases := []struct {
		role    Role
		perm    Permission
		allowed bool
	}{
		{RoleUser, PermDeposit, true},
		{RoleAgent, PermDeposit, true},
		{RoleAdmin, PermDeposit, false},
		{RoleUser, PermWithdraw, true},
		{RoleAgent, PermWithdraw, true},
		{RoleUser, PermSend, true},
		{RoleAgent, PermSend, false},
		{RoleAgent, PermCashIn, true},
		{RoleUser, PermCashIn, false},
		{RoleUser, PermCashOut, true},
		{RoleAgent, PermCashOut, false},
		{RoleSuperAdmin, PermCashOut, false},
	}

	for _, tc := range cases {
		err := Authorize(tc.role, tc.perm)
		if tc.allowed && err != nil {
			t.Fatalf("%s/%s: expected allowed, got %v", tc.role, tc.perm, err)
		}
		if !tc.allowed && !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s/%s: expected ErrForbidden, got %v", tc.role, tc.perm, err)
		}
	}
}

func TestAdministrationIsAdminOnly(t *testing.T) {
	for _, perm := range []Permission{PermManageWallets, PermManageAgents, PermViewUsers, PermViewAllTransactions} {
		if !HasPermission(RoleAdmin, perm) || !HasPermission(RoleSuperAdmin, perm) {
			t.Fatalf("admins must hold %s", perm)
		}
		if HasPermission(RoleUser, perm) || HasPermission(RoleAgent, perm) {
			t.Fatalf("non-admins must not hold %s", perm)
		}
	}
}

func TestOwnWalletViewIsForWalletHolders(t *testing.T) {
	for _, role := range []Role{RoleUser, RoleAgent} {
		if !HasPermission(role, PermViewWallet) {
			t.Fatalf("%s must view its wallet", role)
		}
	}
	for _, role := range []Role{RoleAdmin, RoleSuperAdmin} {
		if err := Authorize(role, PermViewWallet); !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s holds no wallet, expected ErrForbidden, got %v", role, err)
		}
	}
}

func TestCommissionViewIsAgentOnly(t *testing.T) {
	if !HasPermission(RoleAgent, PermViewCommissions) {
		t.Fatalf("agent must view commissions")
	}
	if HasPermission(RoleUser, PermViewCommissions) {
		t.Fatalf("user must not view commissions")
	}
}

func TestUnknownRoleHasNothing(t *testing.T) {
	if Role("GUEST").Valid() {
		t.Fatalf("GUEST must not be a valid role")
	}
	if err := Authorize(Role("GUEST"), PermViewWallet); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
