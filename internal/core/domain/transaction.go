package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TxBidPayment TransactionType = "bid_payment"
	TxRefund     TransactionType = "refund"
	TxDeposit    TransactionType = "deposit"
	TxBonus      TransactionType = "bonus"
)

// Transaction is an append-only ledger entry. BalanceAfter is the owner's
// combined cash+bonus total immediately after the mutation it describes and
// is written in the same transaction as the mutation itself.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Amount       float64         `json:"amount"`
	Type         TransactionType `json:"type"`
	Description  string          `json:"description"`
	BalanceAfter float64         `json:"balance_after"`
	RelatedBidID *uuid.UUID      `json:"related_bid_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
