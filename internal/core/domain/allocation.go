package domain

import (
	"time"

	"github.com/google/uuid"
)

// AllocationRequest is the fully-resolved input to the allocation
// transaction: eligibility and pricing have already been settled, the
// repository only arbitrates occupancy and moves the money atomically.
type AllocationRequest struct {
	BidID     uuid.UUID
	ListingID uuid.UUID
	OwnerID   uuid.UUID
	Pool      string
	Scope     string
	Position  int

	// Amount is what the owner is charged on success.
	Amount       float64
	MinIncrement float64
	Mode         AllocationMode

	Window      EpochWindow
	ExpiresAt   time.Time
	Description string
}

// DisplacedBid describes the occupant evicted by a winning displacing bid.
type DisplacedBid struct {
	BidID     uuid.UUID
	ListingID uuid.UUID
	OwnerID   uuid.UUID
	Position  int
	Amount    float64
}

type AllocationResult struct {
	Bid         Bid
	Transaction Transaction
	// Displaced is set when another listing's bid was outbid.
	Displaced *DisplacedBid
	// Superseded is the listing's own prior active bid that was cancelled.
	Superseded *uuid.UUID
}

// ResolveOccupant decides the fate of the slot's current occupant. First-come
// pools reject outright. Displacing pools require the increment over the
// occupant; a qualifying bid from another listing evicts it, while the same
// listing raising its own bid falls through to a supersede and nothing is
// displaced.
func ResolveOccupant(mode AllocationMode, occupant *DisplacedBid, req AllocationRequest) (*DisplacedBid, error) {
	if occupant == nil {
		return nil, nil
	}

	if mode == ModeFirstCome {
		return nil, ErrPositionTaken
	}

	minimum := occupant.Amount + req.MinIncrement
	if req.Amount < minimum {
		return nil, &BidTooLowError{Offered: req.Amount, Minimum: minimum}
	}

	if occupant.ListingID == req.ListingID {
		return nil, nil
	}

	return occupant, nil
}

// Occupancy is a read-only snapshot of one occupied slot.
type Occupancy struct {
	BidID        uuid.UUID `json:"bid_id"`
	ListingID    uuid.UUID `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Position     int       `json:"position"`
	Amount       float64   `json:"amount"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// PositionStatus is one row of the positions projection.
type PositionStatus struct {
	Position int        `json:"position"`
	Price    float64    `json:"price"`
	IsBooked bool       `json:"is_booked"`
	Booking  *Occupancy `json:"booking_info,omitempty"`
}

// OutbidEvent is published to the displaced owner's notification channel
// after a displacement commits.
type OutbidEvent struct {
	EventID   string    `json:"event_id"`
	Scope     string    `json:"scope"`
	Position  int       `json:"position"`
	OwnerID   uuid.UUID `json:"owner_id"`
	ListingID uuid.UUID `json:"listing_id"`
	OldAmount float64   `json:"old_amount"`
	NewAmount float64   `json:"new_amount"`
	Timestamp time.Time `json:"timestamp"`
}
