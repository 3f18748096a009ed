package domain

import (
	"errors"
	"fmt"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrOwnerNotFound   = errors.New("owner not found")
	ErrNotOwned        = errors.New("listing does not belong to this owner")
	ErrPositionTaken   = errors.New("position is already booked")
)

// ValidationError rejects malformed input before any state is inspected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type SubscriptionError struct {
	DaysLeft int
	Required int
}

func (e *SubscriptionError) Error() string {
	if e.DaysLeft < 0 {
		return fmt.Sprintf("subscription is not active: at least %d days required", e.Required)
	}
	return fmt.Sprintf("subscription must be valid for at least %d more days, %d left", e.Required, e.DaysLeft)
}

type InvalidPositionError struct {
	Position int
	Slots    int
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("position %d is outside the valid range 1..%d", e.Position, e.Slots)
}

// BidTooLowError reports the minimum acceptable amount so the caller can
// retry without another round trip.
type BidTooLowError struct {
	Offered float64
	Minimum float64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid %.0f is too low, minimum acceptable is %.0f", e.Offered, e.Minimum)
}

type InsufficientFundsError struct {
	Required  float64
	Available float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %.0f required, %.0f available", e.Required, e.Available)
}
