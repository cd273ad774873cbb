package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/utils"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var auditTracer = otel.Tracer("mfi-backend/audit")

// AuditEvent is emitted after a successful core operation. Emission has its own
// error channel; the caller discards failures by policy (an audit outage must
// never roll back a committed financial operation).
type AuditEvent struct {
	Action     string
	TargetType string
	TargetId   string
	Summary    string
}

// EmitAuditEvent publishes one audit event to the audit topic, fire-and-forget.
// Call it only after the core transaction has committed.
func EmitAuditEvent(ctx context.Context, event AuditEvent) error {
	ctx, span := auditTracer.Start(ctx, "audit.emit")
	defer span.End()

	actor := ActorFromContext(ctx)
	correlationID, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || correlationID == "" {
		correlationID = uuid.NewString()
	}
	ip, _ := utils.GetClientIpFromContext(ctx)

	return config.PublishAuditMessage(ctx, config.AuditMessage{
		ActorId:       actor.ID,
		ActorUsername: actor.Username,
		Action:        event.Action,
		TargetType:    event.TargetType,
		TargetId:      event.TargetId,
		Summary:       event.Summary,
		IpAddress:     ip,
		BranchId:      actor.BranchId,
		CorrelationId: correlationID,
		OccurredAt:    time.Now().UTC(),
	})
}

// emitAudit is the call sites' shorthand: log-and-discard per policy.
func emitAudit(ctx context.Context, event AuditEvent) {
	if err := EmitAuditEvent(ctx, event); err != nil {
		config.LogError(config.GetLogger(), "audit.go", "EmitAuditEvent", event.Action, event.TargetId, err)
	}
}
