package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/citystay/auction_engine/internal/core/domain"
)

type ListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	CountEligible(ctx context.Context, scope string) (int, error)
}

type BidRepository interface {
	// Allocate runs the whole occupancy-check / displacement / debit /
	// insert / position-update sequence as one serializable transaction.
	Allocate(ctx context.Context, req domain.AllocationRequest) (*domain.AllocationResult, error)
	ActiveByScope(ctx context.Context, pool, scope string, window domain.EpochWindow) ([]domain.Occupancy, error)
	FindExpired(ctx context.Context, limit int) ([]uuid.UUID, error)
	MarkExpired(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type LedgerRepository interface {
	Balances(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerBalance, error)
	Credit(ctx context.Context, ownerID uuid.UUID, amount float64, bucket domain.BalanceBucket, txType domain.TransactionType, description string) (*domain.Transaction, error)
	History(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Transaction, error)
}

type Notifier interface {
	PublishOutbid(ctx context.Context, event domain.OutbidEvent) error
}
