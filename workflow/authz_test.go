package workflow

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/mfi_backend/models"
)

func TestRoleCan_CapabilityMatrix(t *testing.T) {
	cases := []struct {
		role models.UserRole
		cap  Capability
		want bool
	}{
		{models.UserRoleSuperAdmin, CapManageProducts, true},
		{models.UserRoleSuperAdmin, CapOperateDrawer, true},
		{models.UserRoleBranchManager, CapAllocateSession, true},
		{models.UserRoleBranchManager, CapReviewLoan, true},
		{models.UserRoleBranchManager, CapOperateDrawer, false},
		{models.UserRoleBranchManager, CapManageProducts, false},
		{models.UserRoleCashier, CapOperateDrawer, true},
		{models.UserRoleCashier, CapRecordRepayment, true},
		{models.UserRoleCashier, CapReviewLoan, false},
		{models.UserRoleCashier, CapReverseCashEntry, false},
		{models.UserRoleLoanOfficer, CapCreateLoan, true},
		{models.UserRoleLoanOfficer, CapDisburseLoan, false},
		{models.UserRoleAuditor, CapViewReports, true},
		{models.UserRoleAuditor, CapDeposit, false},
		{models.UserRoleRecoveryOfficer, CapRecordRepayment, true},
		{models.UserRoleRecoveryOfficer, CapWithdraw, false},
	}
	for _, c := range cases {
		if got := RoleCan(c.role, c.cap); got != c.want {
			t.Errorf("RoleCan(%s, %s) = %v, want %v", c.role, c.cap, got, c.want)
		}
	}
}

func TestRoleCan_UnknownRoleHasNoCapabilities(t *testing.T) {
	if RoleCan(models.UserRole("INTERN"), CapViewReports) {
		t.Fatal("unknown role should have no capabilities")
	}
}

func TestRequireCapability(t *testing.T) {
	cashier := Actor{ID: 1, Role: models.UserRoleCashier, BranchId: 2}
	if err := RequireCapability(cashier, CapOperateDrawer); err != nil {
		t.Fatalf("cashier should operate drawer: %v", err)
	}
	if err := RequireCapability(cashier, CapReviewSession); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("err = %v, want ErrNotPermitted", err)
	}
}

func TestRequireBranch(t *testing.T) {
	manager := Actor{ID: 1, Role: models.UserRoleBranchManager, BranchId: 2}
	if err := RequireBranch(manager, 2); err != nil {
		t.Fatalf("own branch should pass: %v", err)
	}
	if err := RequireBranch(manager, 3); !errors.Is(err, ErrBranchScope) {
		t.Fatalf("err = %v, want ErrBranchScope", err)
	}

	admin := Actor{ID: 9, Role: models.UserRoleSuperAdmin}
	if err := RequireBranch(admin, 3); err != nil {
		t.Fatalf("super admin should bypass branch scoping: %v", err)
	}
}
