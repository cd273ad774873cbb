package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
)

// Product administration. Policy rows change rarely; the savings-product
// cache entry is dropped on every write so the engines never act on a stale
// threshold.

func CreateLoanProduct(ctx context.Context, product *models.LoanProduct) error {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapManageProducts); err != nil {
		return err
	}
	if err := config.GetDB().WithContext(ctx).Create(product).Error; err != nil {
		return err
	}
	emitAudit(ctx, AuditEvent{
		Action:     "product.loan.create",
		TargetType: "loan_product",
		TargetId:   fmt.Sprintf("%d", product.ID),
		Summary:    fmt.Sprintf("loan product %s", product.Code),
	})
	return nil
}

func CreateSavingsProduct(ctx context.Context, product *models.SavingsProduct) error {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapManageProducts); err != nil {
		return err
	}
	if err := config.GetDB().WithContext(ctx).Create(product).Error; err != nil {
		return err
	}
	emitAudit(ctx, AuditEvent{
		Action:     "product.savings.create",
		TargetType: "savings_product",
		TargetId:   fmt.Sprintf("%d", product.ID),
		Summary:    fmt.Sprintf("savings product %s", product.Code),
	})
	return nil
}

func UpdateSavingsProduct(ctx context.Context, product *models.SavingsProduct) error {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapManageProducts); err != nil {
		return err
	}
	if err := config.GetDB().WithContext(ctx).Save(product).Error; err != nil {
		return err
	}
	models.InvalidateSavingsProductCache(product.ID)
	emitAudit(ctx, AuditEvent{
		Action:     "product.savings.update",
		TargetType: "savings_product",
		TargetId:   fmt.Sprintf("%d", product.ID),
		Summary:    fmt.Sprintf("savings product %s updated", product.Code),
	})
	return nil
}
