package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/logger"
)

// recordAudit logs the supplied entry while tolerating audit failures.
// Callers must not hold an open store transaction: sqlite runs on one connection.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.WithModule("audit").Warn("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource),
			zap.Error(err),
		)
	}
}
