// internal/repository/audit_repo.go
package repository

import (
	"context"

	"dailychow-wallet/internal/domain"
)

// AuditRepository defines the interface for the append-only audit log.
// There are deliberately no update or delete operations.
type AuditRepository interface {
	// RecordChange appends an audit entry. Called synchronously inside the
	// same transaction as the mutation it describes.
	RecordChange(ctx context.Context, q DBExecutor, entry *domain.AuditLog) error
}
