package domain

import "time"

// AllocationMode selects how an occupied slot is handled.
type AllocationMode string

const (
	// ModeDisplacing evicts the current occupant when outbid by at least the
	// configured increment.
	ModeDisplacing AllocationMode = "displacing"
	// ModeFirstCome rejects any bid on an occupied slot until it lapses.
	ModeFirstCome AllocationMode = "first_come"
)

// EpochPolicy selects the validity window model for occupancy.
type EpochPolicy string

const (
	// EpochRolling keeps a slot occupied for ValidityDays from booking.
	EpochRolling EpochPolicy = "rolling"
	// EpochDaily scopes occupancy to the current calendar day in Location;
	// slots lapse at midnight without any sweep.
	EpochDaily EpochPolicy = "daily"
)

// EngineConfig is one auction engine variant. The same engine code runs both
// production configurations (displacing step-schedule and first-come fixed
// table); nothing here is mutable at runtime.
type EngineConfig struct {
	// Pool names this variant's slot namespace. Each engine owns its own
	// position space per scope; bids in different pools never contend.
	Pool string

	Mode    AllocationMode
	Epoch   EpochPolicy
	Pricing PricingPolicy

	// ValidityDays is the rolling occupancy duration.
	ValidityDays int
	// MinIncrement is how much a displacing bid must exceed the occupant by.
	MinIncrement float64
	// MinSubscriptionDays gates bidding on listing subscription remaining;
	// zero disables the check.
	MinSubscriptionDays int

	// Location is the canonical timezone for daily epoch boundaries. All
	// window math uses it; host locale is never consulted.
	Location *time.Location
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (c EngineConfig) Clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c EngineConfig) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}

// EpochWindow is the occupancy filter for one instant. Daily windows carry
// the day bounds; rolling windows only carry the reference time and readers
// compare expires_at against it.
type EpochWindow struct {
	Now   time.Time
	Start time.Time
	End   time.Time
}

func (w EpochWindow) Daily() bool { return !w.Start.IsZero() }

func (c EngineConfig) Window(now time.Time) EpochWindow {
	if c.Epoch == EpochDaily {
		local := now.In(c.location())
		start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location())
		return EpochWindow{Now: now, Start: start, End: start.AddDate(0, 0, 1)}
	}
	return EpochWindow{Now: now}
}

// ExpiresAt returns when a bid placed at now lapses: next midnight in
// Location for daily epochs, now+ValidityDays for rolling ones.
func (c EngineConfig) ExpiresAt(now time.Time) time.Time {
	if c.Epoch == EpochDaily {
		return c.Window(now).End
	}
	return now.AddDate(0, 0, c.ValidityDays)
}
