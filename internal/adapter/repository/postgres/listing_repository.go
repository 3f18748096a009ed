package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/citystay/auction_engine/internal/core/domain"
)

type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	query := `
	SELECT id, owner_id, scope, title, position, subscription_expires_at, is_archived
	FROM listings
	WHERE id = $1
	`

	var listing domain.Listing
	var subscription sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&listing.ID,
		&listing.OwnerID,
		&listing.Scope,
		&listing.Title,
		&listing.Position,
		&subscription,
		&listing.Archived,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrListingNotFound
		}

		return nil, err
	}

	if subscription.Valid {
		listing.SubscriptionExpiresAt = &subscription.Time
	}

	return &listing, nil
}

func (r *ListingRepository) CountEligible(ctx context.Context, scope string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM listings
	WHERE scope = $1 AND is_archived = FALSE
	`, scope).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
