package services

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/citystay/auction_engine/internal/core/domain"
	"github.com/citystay/auction_engine/internal/core/ports"
)

// depositCashbackRate is the bonus credit granted on every top-up.
const depositCashbackRate = 0.10

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type DepositResponse struct {
	Credited float64 `json:"credited"`
	Cashback float64 `json:"cashback"`
	Cash     float64 `json:"cash_balance"`
	Bonus    float64 `json:"bonus_balance"`
}

type LedgerService struct {
	ledgerRepo ports.LedgerRepository
}

func NewLedgerService(ledgerRepo ports.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// Deposit credits a confirmed external top-up to the cash balance plus the
// cashback share to the bonus balance, each with its own ledger entry.
func (s *LedgerService) Deposit(ctx context.Context, ownerID string, amount float64) (*DepositResponse, error) {
	id, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, &domain.ValidationError{Message: "invalid owner id"}
	}

	if amount <= 0 {
		return nil, &domain.ValidationError{Message: "deposit amount must be positive"}
	}

	if _, err := s.ledgerRepo.Credit(ctx, id, amount, domain.BucketCash, domain.TxDeposit, "Balance top-up"); err != nil {
		return nil, err
	}

	cashback := math.Floor(amount * depositCashbackRate)
	if cashback > 0 {
		if _, err := s.ledgerRepo.Credit(ctx, id, cashback, domain.BucketBonus, domain.TxBonus, "10% top-up cashback"); err != nil {
			return nil, err
		}
	}

	balance, err := s.ledgerRepo.Balances(ctx, id)
	if err != nil {
		return nil, err
	}

	return &DepositResponse{
		Credited: amount,
		Cashback: cashback,
		Cash:     balance.Cash,
		Bonus:    balance.Bonus,
	}, nil
}

func (s *LedgerService) Balances(ctx context.Context, ownerID string) (*domain.OwnerBalance, error) {
	id, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, &domain.ValidationError{Message: "invalid owner id"}
	}

	return s.ledgerRepo.Balances(ctx, id)
}

func (s *LedgerService) History(ctx context.Context, ownerID string, limit int) ([]domain.Transaction, error) {
	id, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, &domain.ValidationError{Message: "invalid owner id"}
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	return s.ledgerRepo.History(ctx, id, limit)
}
