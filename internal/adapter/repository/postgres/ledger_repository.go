package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/citystay/auction_engine/internal/core/domain"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Balances(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerBalance, error) {
	balance := domain.OwnerBalance{OwnerID: ownerID}

	err := r.db.QueryRowContext(ctx, `
	SELECT cash_balance, bonus_balance FROM owners WHERE id = $1
	`, ownerID).Scan(&balance.Cash, &balance.Bonus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOwnerNotFound
		}

		return nil, err
	}

	return &balance, nil
}

// Credit adds to one bucket and appends the matching ledger entry in the
// same transaction, so balance_after can never drift from the mutation.
func (r *LedgerRepository) Credit(ctx context.Context, ownerID uuid.UUID, amount float64, bucket domain.BalanceBucket, txType domain.TransactionType, description string) (*domain.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	column := "cash_balance"
	if bucket == domain.BucketBonus {
		column = "bonus_balance"
	}

	query := fmt.Sprintf(`UPDATE owners SET %s = %s + $1 WHERE id = $2`, column, column)

	result, err := tx.ExecContext(ctx, query, amount, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to credit owner: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if affected == 0 {
		return nil, domain.ErrOwnerNotFound
	}

	var cash, bonus float64
	err = tx.QueryRowContext(ctx, `SELECT cash_balance, bonus_balance FROM owners WHERE id = $1`, ownerID).Scan(&cash, &bonus)
	if err != nil {
		return nil, err
	}

	entry := domain.Transaction{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Amount:       amount,
		Type:         txType,
		Description:  description,
		BalanceAfter: cash + bonus,
		CreatedAt:    time.Now(),
	}

	if err := record(ctx, tx, &entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credit: %w", err)
	}

	return &entry, nil
}

func (r *LedgerRepository) History(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Transaction, error) {
	query := `
	SELECT id, owner_id, amount, type, description, balance_after, related_bid_id, created_at
	FROM transactions
	WHERE owner_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		var entry domain.Transaction
		var relatedBid sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.OwnerID,
			&entry.Amount,
			&entry.Type,
			&entry.Description,
			&entry.BalanceAfter,
			&relatedBid,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}

		if relatedBid.Valid && relatedBid.String != "" {
			if id, err := uuid.Parse(relatedBid.String); err == nil {
				entry.RelatedBidID = &id
			}
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// record appends one ledger entry. Entries are never updated or deleted.
func record(ctx context.Context, ex execer, entry *domain.Transaction) error {
	query := `
	INSERT INTO transactions (id, owner_id, amount, type, description, balance_after, related_bid_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var relatedBid interface{}
	if entry.RelatedBidID != nil {
		relatedBid = entry.RelatedBidID.String()
	}

	_, err := ex.ExecContext(ctx, query, entry.ID, entry.OwnerID, entry.Amount, entry.Type, entry.Description, entry.BalanceAfter, relatedBid, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	return nil
}
