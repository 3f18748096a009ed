package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates the engine's tables. Listings and owners are owned by
// the surrounding platform; the engine only needs the columns it reads and
// the position field it writes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS owners (
		id UUID PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		cash_balance DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (cash_balance >= 0),
		bonus_balance DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (bonus_balance >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS listings (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES owners(id),
		scope VARCHAR(255) NOT NULL,
		title VARCHAR(255) NOT NULL,
		position INT NOT NULL DEFAULT 999,
		subscription_expires_at TIMESTAMPTZ,
		is_archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS bids (
		id UUID PRIMARY KEY,
		listing_id UUID NOT NULL REFERENCES listings(id),
		owner_id UUID NOT NULL REFERENCES owners(id),
		pool VARCHAR(50) NOT NULL,
		scope VARCHAR(255) NOT NULL,
		position INT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		cash_paid DOUBLE PRECISION NOT NULL DEFAULT 0,
		bonus_paid DOUBLE PRECISION NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES owners(id),
		amount DOUBLE PRECISION NOT NULL,
		type VARCHAR(50) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		balance_after DOUBLE PRECISION NOT NULL,
		related_bid_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS ux_bids_pool_listing_scope_active
		ON bids (pool, listing_id, scope) WHERE status = 'active';
	CREATE INDEX IF NOT EXISTS idx_bids_pool_scope_status ON bids (pool, scope, status);
	CREATE INDEX IF NOT EXISTS idx_bids_expires_at ON bids (expires_at) WHERE status = 'active';
	CREATE INDEX IF NOT EXISTS idx_listings_scope ON listings (scope) WHERE is_archived = FALSE;
	CREATE INDEX IF NOT EXISTS idx_transactions_owner ON transactions (owner_id, created_at);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
