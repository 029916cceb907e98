// internal/repository/postgres/audit_pg.go
package postgres

import (
	"context"
	"fmt"

	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/repository"

	"github.com/jmoiron/sqlx"
)

// AuditRepository implements repository.AuditRepository for PostgreSQL.
// Append-only: there is no update or delete path.
type AuditRepository struct{}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &AuditRepository{}
}

// RecordChange appends an audit entry using the provided DBExecutor.
func (r *AuditRepository) RecordChange(ctx context.Context, q repository.DBExecutor, entry *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (user_id, action, entity_type, entity_id, old_value, new_value, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.OldValue, entry.NewValue, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}
