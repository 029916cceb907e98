// pkg/db/schema.go
package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements creates the six ledger relations and their constraints.
// Partial unique indexes enforce the one-active-row rule for budgets and
// bank accounts, and deduplicate provider references.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		chat_id    BIGINT UNIQUE NOT NULL,
		username   VARCHAR(255),
		is_active  BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS user_budgets (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		monthly_amount  NUMERIC(12,2) NOT NULL,
		daily_allowance NUMERIC(12,2) NOT NULL,
		currency        VARCHAR(3) NOT NULL DEFAULT 'NGN',
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_budgets_one_active
		ON user_budgets(user_id) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS wallets (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT UNIQUE NOT NULL REFERENCES users(id),
		balance    NUMERIC(12,2) NOT NULL DEFAULT 0.00 CHECK (balance >= 0),
		currency   VARCHAR(3) NOT NULL DEFAULT 'NGN',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		type         VARCHAR(20) NOT NULL,
		amount       NUMERIC(12,2) NOT NULL,
		currency     VARCHAR(3) NOT NULL DEFAULT 'NGN',
		reference    VARCHAR(255),
		provider     VARCHAR(50),
		status       VARCHAR(20) NOT NULL,
		description  TEXT,
		metadata     JSONB,
		created_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP WITH TIME ZONE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_provider_reference
		ON transactions(provider, reference) WHERE reference IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created
		ON transactions(user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS bank_accounts (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users(id),
		account_number VARCHAR(32) NOT NULL,
		bank_code      VARCHAR(10) NOT NULL,
		bank_name      VARCHAR(255),
		account_name   VARCHAR(255) NOT NULL,
		recipient_code VARCHAR(255),
		is_verified    BOOLEAN NOT NULL DEFAULT FALSE,
		is_active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at     TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bank_accounts_one_active
		ON bank_accounts(user_id) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users(id),
		action      VARCHAR(100) NOT NULL,
		entity_type VARCHAR(50) NOT NULL,
		entity_id   BIGINT NOT NULL,
		old_value   JSONB,
		new_value   JSONB,
		created_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_user_created
		ON audit_logs(user_id, created_at DESC)`,
}

// Migrate applies the schema. Statements are idempotent, so re-running a
// deploy is safe.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
