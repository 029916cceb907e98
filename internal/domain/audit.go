// internal/domain/audit.go
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AuditLog is one append-only record of a state change to a wallet, budget
// or bank account. Rows are written synchronously inside the same database
// transaction as the mutation they describe, so an audit row exists if and
// only if the mutation committed.
type AuditLog struct {
	ID         int64          `db:"id" json:"id"`
	UserID     int64          `db:"user_id" json:"user_id"`
	Action     string         `db:"action" json:"action"`
	EntityType string         `db:"entity_type" json:"entity_type"`
	EntityID   int64          `db:"entity_id" json:"entity_id"`
	OldValue   types.JSONText `db:"old_value" json:"old_value,omitempty"`
	NewValue   types.JSONText `db:"new_value" json:"new_value,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// NewAuditLog builds an audit entry, serializing the old and new entity
// snapshots. A nil snapshot (e.g. no previous active budget) is stored as an
// empty JSON object.
func NewAuditLog(userID int64, action, entityType string, entityID int64, oldValue, newValue any) (*AuditLog, error) {
	entry := &AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now().UTC(),
	}
	if oldValue != nil {
		b, err := json.Marshal(oldValue)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize audit old value: %w", err)
		}
		entry.OldValue = types.JSONText(b)
	}
	if newValue != nil {
		b, err := json.Marshal(newValue)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize audit new value: %w", err)
		}
		entry.NewValue = types.JSONText(b)
	}
	return entry, nil
}
