package domain

import (
	"time"

	"github.com/google/uuid"
)

// Listing is owned by the catalog system. The engine only reads ownership and
// subscription state, and writes the cached Position field.
type Listing struct {
	ID                    uuid.UUID
	OwnerID               uuid.UUID
	Scope                 string
	Title                 string
	Position              int
	SubscriptionExpiresAt *time.Time
	Archived              bool
}

// SubscriptionDaysLeft returns the whole days of subscription remaining,
// or -1 when the listing has no subscription at all.
func (l *Listing) SubscriptionDaysLeft(now time.Time) int {
	if l.SubscriptionExpiresAt == nil {
		return -1
	}
	days := int(l.SubscriptionExpiresAt.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
