package domain

import (
	"time"

	"github.com/google/uuid"
)

type BidStatus string

const (
	BidActive    BidStatus = "active"
	BidOutbid    BidStatus = "outbid"
	BidCancelled BidStatus = "cancelled"
	BidExpired   BidStatus = "expired"
)

// Bid is a paid occupation of one (pool, scope, position) slot. Once a bid
// leaves the active status it is never revived.
type Bid struct {
	ID        uuid.UUID
	ListingID uuid.UUID
	OwnerID   uuid.UUID
	Pool      string
	Scope     string
	Position  int
	Amount    float64
	CashPaid  float64
	BonusPaid float64
	Status    BidStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (b *Bid) IsActive(now time.Time) bool {
	return b.Status == BidActive && b.ExpiresAt.After(now)
}
