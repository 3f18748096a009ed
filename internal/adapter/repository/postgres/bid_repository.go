package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/citystay/auction_engine/internal/core/domain"
)

// allocateRetries bounds retry-on-conflict for serialization failures. The
// retried unit never includes a committed debit, so retrying cannot
// double-charge.
const allocateRetries = 3

type BidRepository struct {
	db *sql.DB
}

func NewBidRepository(db *sql.DB) *BidRepository {
	return &BidRepository{db: db}
}

func (r *BidRepository) Allocate(ctx context.Context, req domain.AllocationRequest) (*domain.AllocationResult, error) {
	var result *domain.AllocationResult
	var err error

	for attempt := 1; attempt <= allocateRetries; attempt++ {
		result, err = r.allocateOnce(ctx, req)
		if err == nil || !isSerializationFailure(err) {
			return result, err
		}

		log.Printf("Allocation conflict on position %d in %s (attempt %d/%d), retrying...", req.Position, req.Scope, attempt, allocateRetries)
	}

	return nil, fmt.Errorf("allocation did not settle after %d attempts: %w", allocateRetries, err)
}

// allocateOnce is the atomic unit: occupancy re-check under lock,
// displacement, supersede, debit, bid insert, ledger record and listing
// position update either all commit or none do.
func (r *BidRepository) allocateOnce(ctx context.Context, req domain.AllocationRequest) (*domain.AllocationResult, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	occupant, err := lockOccupant(ctx, tx, req.Pool, req.Scope, req.Position, req.Window)
	if err != nil {
		return nil, err
	}

	result := &domain.AllocationResult{}

	evicted, err := domain.ResolveOccupant(req.Mode, occupant, req)
	if err != nil {
		return nil, err
	}

	if evicted != nil {
		if err := displace(ctx, tx, evicted); err != nil {
			return nil, err
		}
		result.Displaced = evicted
	}

	superseded, err := supersedePrior(ctx, tx, req.Pool, req.ListingID, req.Scope)
	if err != nil {
		return nil, err
	}
	result.Superseded = superseded

	split, balanceAfter, err := debitOwner(ctx, tx, req.OwnerID, req.Amount)
	if err != nil {
		return nil, err
	}

	bid := domain.Bid{
		ID:        req.BidID,
		ListingID: req.ListingID,
		OwnerID:   req.OwnerID,
		Pool:      req.Pool,
		Scope:     req.Scope,
		Position:  req.Position,
		Amount:    req.Amount,
		CashPaid:  split.CashUsed,
		BonusPaid: split.BonusUsed,
		Status:    domain.BidActive,
		CreatedAt: req.Window.Now,
		ExpiresAt: req.ExpiresAt,
	}

	queryBid := `
	INSERT INTO bids (id, listing_id, owner_id, pool, scope, position, amount, cash_paid, bonus_paid, status, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, queryBid, bid.ID, bid.ListingID, bid.OwnerID, bid.Pool, bid.Scope, bid.Position, bid.Amount, bid.CashPaid, bid.BonusPaid, bid.Status, bid.CreatedAt, bid.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bid: %w", err)
	}

	entry := domain.Transaction{
		ID:           uuid.New(),
		OwnerID:      req.OwnerID,
		Amount:       -req.Amount,
		Type:         domain.TxBidPayment,
		Description:  req.Description,
		BalanceAfter: balanceAfter,
		RelatedBidID: &bid.ID,
		CreatedAt:    req.Window.Now,
	}

	if err := record(ctx, tx, &entry); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE listings SET position = $1 WHERE id = $2`, req.Position, req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing position: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit allocation: %w", err)
	}

	result.Bid = bid
	result.Transaction = entry

	return result, nil
}

// lockOccupant fetches and row-locks the current occupant of the slot within
// the epoch window. The lock plus serializable isolation is what keeps two
// concurrent bidders from both winning the slot. Each pool has its own
// position space, so only rows of the requesting pool can occupy the slot.
func lockOccupant(ctx context.Context, tx *sql.Tx, pool, scope string, position int, window domain.EpochWindow) (*domain.DisplacedBid, error) {
	query := `
	SELECT id, owner_id, listing_id, amount
	FROM bids
	WHERE pool = $1 AND scope = $2 AND position = $3 AND status = 'active'
	`

	var row *sql.Row
	if window.Daily() {
		query += ` AND created_at >= $4 AND created_at < $5 ORDER BY amount DESC LIMIT 1 FOR UPDATE`
		row = tx.QueryRowContext(ctx, query, pool, scope, position, window.Start, window.End)
	} else {
		query += ` AND expires_at > $4 ORDER BY amount DESC LIMIT 1 FOR UPDATE`
		row = tx.QueryRowContext(ctx, query, pool, scope, position, window.Now)
	}

	occupant := domain.DisplacedBid{Position: position}
	err := row.Scan(&occupant.BidID, &occupant.OwnerID, &occupant.ListingID, &occupant.Amount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock occupant: %w", err)
	}

	return &occupant, nil
}

// displace marks the outbid occupant and compresses its listing's cached
// rank down by one.
func displace(ctx context.Context, tx *sql.Tx, occupant *domain.DisplacedBid) error {
	if _, err := tx.ExecContext(ctx, `UPDATE bids SET status = 'outbid' WHERE id = $1`, occupant.BidID); err != nil {
		return fmt.Errorf("failed to mark bid %s outbid: %w", occupant.BidID, err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE listings SET position = position + 1 WHERE id = $1`, occupant.ListingID); err != nil {
		return fmt.Errorf("failed to shift displaced listing: %w", err)
	}

	return nil
}

// supersedePrior cancels the listing's own prior active bid in the pool and
// scope; a listing holds at most one live position per pool per scope, and a
// booking in one pool survives the same listing bidding in another.
func supersedePrior(ctx context.Context, tx *sql.Tx, pool string, listingID uuid.UUID, scope string) (*uuid.UUID, error) {
	query := `
	UPDATE bids SET status = 'cancelled'
	WHERE pool = $1 AND listing_id = $2 AND scope = $3 AND status = 'active'
	RETURNING id
	`

	var id uuid.UUID
	err := tx.QueryRowContext(ctx, query, pool, listingID, scope).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to supersede prior bid: %w", err)
	}

	return &id, nil
}

// debitOwner takes the charge bonus-first from the locked owner row. The
// balance check and the deduction happen under the same lock, so concurrent
// bids cannot both be approved against the same funds.
func debitOwner(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID, amount float64) (domain.DebitSplit, float64, error) {
	var cash, bonus float64
	err := tx.QueryRowContext(ctx, `SELECT cash_balance, bonus_balance FROM owners WHERE id = $1 FOR UPDATE`, ownerID).Scan(&cash, &bonus)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.DebitSplit{}, 0, domain.ErrOwnerNotFound
		}
		return domain.DebitSplit{}, 0, fmt.Errorf("failed to lock owner balance: %w", err)
	}

	split, err := domain.SplitDebit(cash, bonus, amount)
	if err != nil {
		return domain.DebitSplit{}, 0, err
	}

	_, err = tx.ExecContext(ctx, `
	UPDATE owners
	SET cash_balance = cash_balance - $1, bonus_balance = bonus_balance - $2
	WHERE id = $3
	`, split.CashUsed, split.BonusUsed, ownerID)
	if err != nil {
		return domain.DebitSplit{}, 0, fmt.Errorf("failed to debit owner: %w", err)
	}

	return split, cash + bonus - amount, nil
}

func (r *BidRepository) ActiveByScope(ctx context.Context, pool, scope string, window domain.EpochWindow) ([]domain.Occupancy, error) {
	query := `
	SELECT b.id, b.listing_id, l.title, b.owner_id, b.position, b.amount, b.expires_at
	FROM bids b
	JOIN listings l ON b.listing_id = l.id
	WHERE b.pool = $1 AND b.scope = $2 AND b.status = 'active'
	`

	var rows *sql.Rows
	var err error
	if window.Daily() {
		query += ` AND b.created_at >= $3 AND b.created_at < $4 ORDER BY b.position ASC`
		rows, err = r.db.QueryContext(ctx, query, pool, scope, window.Start, window.End)
	} else {
		query += ` AND b.expires_at > $3 ORDER BY b.position ASC`
		rows, err = r.db.QueryContext(ctx, query, pool, scope, window.Now)
	}
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var occupants []domain.Occupancy
	for rows.Next() {
		var occ domain.Occupancy
		if err := rows.Scan(
			&occ.BidID,
			&occ.ListingID,
			&occ.ListingTitle,
			&occ.OwnerID,
			&occ.Position,
			&occ.Amount,
			&occ.ExpiresAt,
		); err != nil {
			return nil, err
		}

		occupants = append(occupants, occ)
	}

	return occupants, rows.Err()
}

func (r *BidRepository) FindExpired(ctx context.Context, limit int) ([]uuid.UUID, error) {
	query := `
	SELECT id FROM bids
	WHERE status = 'active' AND expires_at <= NOW()
	LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *BidRepository) MarkExpired(ctx context.Context, ids []uuid.UUID) (int64, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	result, err := r.db.ExecContext(ctx, `
	UPDATE bids SET status = 'expired'
	WHERE id = ANY($1) AND status = 'active'
	`, pq.Array(raw))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure and deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
