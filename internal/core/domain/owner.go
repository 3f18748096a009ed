package domain

import (
	"math"

	"github.com/google/uuid"
)

type BalanceBucket string

const (
	BucketCash  BalanceBucket = "cash"
	BucketBonus BalanceBucket = "bonus"
)

// OwnerBalance is the two-tier balance of a seller: cash topped up via
// payments and bonus credit earned from promotions. Both are non-negative.
type OwnerBalance struct {
	OwnerID uuid.UUID `json:"owner_id"`
	Cash    float64   `json:"cash_balance"`
	Bonus   float64   `json:"bonus_balance"`
}

func (b *OwnerBalance) Total() float64 {
	return b.Cash + b.Bonus
}

// DebitSplit is how a charge was taken from the two balance buckets.
type DebitSplit struct {
	CashUsed  float64
	BonusUsed float64
}

// SplitDebit computes the bonus-first split of a charge against the two
// buckets. The spend order is a domain rule: bonus credit is always consumed
// before cash. The split is all-or-nothing; when the combined balance cannot
// cover the amount no partial split is returned.
func SplitDebit(cash, bonus, amount float64) (DebitSplit, error) {
	if amount <= 0 {
		return DebitSplit{}, &ValidationError{Message: "debit amount must be positive"}
	}
	if cash+bonus < amount {
		return DebitSplit{}, &InsufficientFundsError{Required: amount, Available: cash + bonus}
	}
	bonusUsed := math.Min(bonus, amount)
	return DebitSplit{CashUsed: amount - bonusUsed, BonusUsed: bonusUsed}, nil
}
