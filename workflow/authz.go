package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"bitbucket.org/mmdatafocus/mfi_backend/utils"
)

// Capability is what an operation demands; roles map to capability sets via an
// exhaustive switch. Adding a role without updating the switch is a compile-time
// nudge (default returns nothing) rather than a silent string comparison.
type Capability string

const (
	CapAllocateSession    Capability = "cash.session.allocate"
	CapOperateDrawer      Capability = "cash.session.operate"
	CapReviewSession      Capability = "cash.session.review"
	CapReverseCashEntry   Capability = "cash.entry.reverse"
	CapCreateLoan         Capability = "loan.create"
	CapReviewLoan         Capability = "loan.review"
	CapDisburseLoan       Capability = "loan.disburse"
	CapRecordRepayment    Capability = "loan.repayment.record"
	CapOpenSavingsAccount Capability = "savings.account.open"
	CapDeposit            Capability = "savings.deposit"
	CapWithdraw           Capability = "savings.withdraw"
	CapApproveWithdrawal  Capability = "savings.withdrawal.approve"
	CapManageAccounts     Capability = "savings.account.manage"
	CapManageProducts     Capability = "product.manage"
	CapViewReports        Capability = "report.view"
)

func capabilitiesFor(role models.UserRole) map[Capability]bool {
	switch role {
	case models.UserRoleSuperAdmin:
		return map[Capability]bool{
			CapAllocateSession: true, CapOperateDrawer: true, CapReviewSession: true,
			CapReverseCashEntry: true, CapCreateLoan: true, CapReviewLoan: true,
			CapDisburseLoan: true, CapRecordRepayment: true, CapOpenSavingsAccount: true,
			CapDeposit: true, CapWithdraw: true, CapApproveWithdrawal: true,
			CapManageAccounts: true, CapManageProducts: true, CapViewReports: true,
		}
	case models.UserRoleBranchManager:
		return map[Capability]bool{
			CapAllocateSession: true, CapReviewSession: true, CapReverseCashEntry: true,
			CapReviewLoan: true, CapOpenSavingsAccount: true, CapDeposit: true,
			CapWithdraw: true, CapApproveWithdrawal: true, CapManageAccounts: true,
			CapViewReports: true,
		}
	case models.UserRoleLoanOfficer:
		return map[Capability]bool{
			CapCreateLoan: true, CapDeposit: true, CapViewReports: true,
		}
	case models.UserRoleCashier:
		return map[Capability]bool{
			CapOperateDrawer: true, CapRecordRepayment: true, CapDisburseLoan: true,
			CapOpenSavingsAccount: true, CapDeposit: true, CapWithdraw: true,
		}
	case models.UserRoleAuditor:
		return map[Capability]bool{
			CapViewReports: true,
		}
	case models.UserRoleRecoveryOfficer:
		return map[Capability]bool{
			CapRecordRepayment: true, CapViewReports: true,
		}
	}
	return nil
}

func RoleCan(role models.UserRole, cap Capability) bool {
	return capabilitiesFor(role)[cap]
}

// Actor is the already-authenticated caller, resolved by the auth middleware.
type Actor struct {
	ID       int
	Username string
	Role     models.UserRole
	BranchId int
}

func ActorFromContext(ctx context.Context) Actor {
	id, _ := utils.GetUserIdFromContext(ctx)
	username, _ := utils.GetUsernameFromContext(ctx)
	role, _ := utils.GetRoleFromContext(ctx)
	branchId, _ := utils.GetBranchIdFromContext(ctx)
	return Actor{ID: id, Username: username, Role: models.UserRole(role), BranchId: branchId}
}

func (a Actor) Can(cap Capability) bool {
	return RoleCan(a.Role, cap)
}

// RequireCapability is the common precondition check at engine entry.
func RequireCapability(a Actor, cap Capability) error {
	if !a.Can(cap) {
		return ErrNotPermitted
	}
	return nil
}

// RequireBranch enforces branch scoping: super admins operate anywhere, other
// actors only within their own branch.
func RequireBranch(a Actor, branchId int) error {
	if a.Role == models.UserRoleSuperAdmin {
		return nil
	}
	if a.BranchId == 0 || a.BranchId != branchId {
		return ErrBranchScope
	}
	return nil
}
