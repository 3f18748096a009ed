package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/citystay/auction_engine/internal/core/domain"
	"github.com/citystay/auction_engine/internal/core/ports"
)

const (
	positionsCacheTTL = 30 * time.Second
	expiredBatchSize  = 100
)

type PlaceBidRequest struct {
	OwnerID        string  `json:"owner_id"`
	ListingID      string  `json:"listing_id"`
	Scope          string  `json:"scope"`
	TargetPosition int     `json:"target_position"`
	Amount         float64 `json:"amount,omitempty"`
}

type PlaceBidResponse struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	BookingID  string  `json:"booking_id"`
	AmountPaid float64 `json:"amount_paid"`
	ExpiresAt  string  `json:"expires_at"`
}

type PositionsResponse struct {
	Scope     string                  `json:"scope"`
	Positions []domain.PositionStatus `json:"positions"`
}

// AuctionService runs one engine configuration. The two production variants
// (displacing step-schedule and first-come top-20) are separate instances
// sharing the same repositories.
type AuctionService struct {
	cfg         domain.EngineConfig
	listingRepo ports.ListingRepository
	bidRepo     ports.BidRepository
	notifier    ports.Notifier
	cache       *redis.Client
}

func NewAuctionService(cfg domain.EngineConfig, listingRepo ports.ListingRepository, bidRepo ports.BidRepository, notifier ports.Notifier, cache *redis.Client) *AuctionService {
	return &AuctionService{
		cfg:         cfg,
		listingRepo: listingRepo,
		bidRepo:     bidRepo,
		notifier:    notifier,
		cache:       cache,
	}
}

func (s *AuctionService) PlaceBid(ctx context.Context, req PlaceBidRequest) (*PlaceBidResponse, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return nil, &domain.ValidationError{Message: "invalid owner id"}
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return nil, &domain.ValidationError{Message: "invalid listing id"}
	}

	if req.Scope == "" {
		return nil, &domain.ValidationError{Message: "scope is required"}
	}

	now := s.cfg.Clock()

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.OwnerID != ownerID {
		return nil, domain.ErrNotOwned
	}

	if s.cfg.MinSubscriptionDays > 0 {
		daysLeft := listing.SubscriptionDaysLeft(now)
		if daysLeft < s.cfg.MinSubscriptionDays {
			return nil, &domain.SubscriptionError{DaysLeft: daysLeft, Required: s.cfg.MinSubscriptionDays}
		}
	}

	var total int
	if s.cfg.Pricing.Dynamic() {
		total, err = s.listingRepo.CountEligible(ctx, req.Scope)
		if err != nil {
			return nil, fmt.Errorf("failed to count eligible listings: %w", err)
		}
	}

	slots := s.cfg.Pricing.Slots(total)

	price, err := s.cfg.Pricing.Price(req.TargetPosition, slots)
	if err != nil {
		return nil, err
	}

	// First-come engines charge the table price; displacing engines take the
	// offered amount, which must cover at least the asking price.
	amount := price
	if s.cfg.Mode == domain.ModeDisplacing {
		if req.Amount > 0 {
			amount = req.Amount
		}
		if amount < price {
			return nil, &domain.BidTooLowError{Offered: amount, Minimum: price}
		}
	}

	result, err := s.bidRepo.Allocate(ctx, domain.AllocationRequest{
		BidID:        uuid.New(),
		ListingID:    listingID,
		OwnerID:      ownerID,
		Pool:         s.cfg.Pool,
		Scope:        req.Scope,
		Position:     req.TargetPosition,
		Amount:       amount,
		MinIncrement: s.cfg.MinIncrement,
		Mode:         s.cfg.Mode,
		Window:       s.cfg.Window(now),
		ExpiresAt:    s.cfg.ExpiresAt(now),
		Description:  fmt.Sprintf("Position #%d in %s", req.TargetPosition, req.Scope),
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePositions(ctx, req.Scope)

	if result.Displaced != nil {
		s.notifyOutbid(ctx, req.Scope, amount, result.Displaced, now)
	}

	return &PlaceBidResponse{
		Success:    true,
		Message:    fmt.Sprintf("Position #%d booked in %s", req.TargetPosition, req.Scope),
		BookingID:  result.Bid.ID.String(),
		AmountPaid: amount,
		ExpiresAt:  result.Bid.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (s *AuctionService) GetPositions(ctx context.Context, scope string) (*PositionsResponse, error) {
	if scope == "" {
		return nil, &domain.ValidationError{Message: "scope is required"}
	}

	if cached := s.cachedPositions(ctx, scope); cached != nil {
		return cached, nil
	}

	now := s.cfg.Clock()

	var total int
	var err error
	if s.cfg.Pricing.Dynamic() {
		total, err = s.listingRepo.CountEligible(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to count eligible listings: %w", err)
		}
	}

	slots := s.cfg.Pricing.Slots(total)

	occupants, err := s.bidRepo.ActiveByScope(ctx, s.cfg.Pool, scope, s.cfg.Window(now))
	if err != nil {
		return nil, fmt.Errorf("failed to load occupancy for %s: %w", scope, err)
	}

	byPosition := make(map[int]domain.Occupancy, len(occupants))
	for _, occ := range occupants {
		byPosition[occ.Position] = occ
	}

	positions := make([]domain.PositionStatus, 0, slots)
	for rank := 1; rank <= slots; rank++ {
		price, err := s.cfg.Pricing.Price(rank, slots)
		if err != nil {
			return nil, err
		}

		status := domain.PositionStatus{Position: rank, Price: price}
		if occ, ok := byPosition[rank]; ok {
			status.IsBooked = true
			booking := occ
			status.Booking = &booking
		}

		positions = append(positions, status)
	}

	resp := &PositionsResponse{Scope: scope, Positions: positions}
	s.storePositions(ctx, scope, resp)

	return resp, nil
}

// RunBackgroundSweeper lazily flips lapsed bids to expired. Readers never
// depend on it: occupancy queries filter by the epoch window, so a lapsed
// bid reads as free before the sweep lands.
func (s *AuctionService) RunBackgroundSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Expiry sweeper started: checking lapsed bids every %s", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Expiry sweeper stopped.")
			return
		case <-ticker.C:
			s.SweepExpired(ctx)
		}
	}
}

func (s *AuctionService) SweepExpired(ctx context.Context) {
	ids, err := s.bidRepo.FindExpired(ctx, expiredBatchSize)
	if err != nil {
		log.Printf("Error fetching expired bids: %v", err)
		return
	}

	if len(ids) == 0 {
		return
	}

	n, err := s.bidRepo.MarkExpired(ctx, ids)
	if err != nil {
		log.Printf("Failed to expire %d bids: %v", len(ids), err)
		return
	}

	log.Printf("Expired %d bids, positions released.", n)
}

func (s *AuctionService) cacheKey(scope string) string {
	return fmt.Sprintf("positions:%s:%s", s.cfg.Pool, scope)
}

func (s *AuctionService) cachedPositions(ctx context.Context, scope string) *PositionsResponse {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, s.cacheKey(scope)).Result()
	if err != nil {
		return nil
	}

	var resp PositionsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}

	return &resp
}

func (s *AuctionService) storePositions(ctx context.Context, scope string, resp *PositionsResponse) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, s.cacheKey(scope), data, positionsCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache positions for %s: %v", scope, err)
	}
}

func (s *AuctionService) invalidatePositions(ctx context.Context, scope string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, s.cacheKey(scope)).Err(); err != nil {
		log.Printf("Failed to invalidate positions cache for %s: %v", scope, err)
	}
}

func (s *AuctionService) notifyOutbid(ctx context.Context, scope string, newAmount float64, displaced *domain.DisplacedBid, now time.Time) {
	if s.notifier == nil {
		return
	}

	event := domain.OutbidEvent{
		EventID:   uuid.New().String(),
		Scope:     scope,
		Position:  displaced.Position,
		OwnerID:   displaced.OwnerID,
		ListingID: displaced.ListingID,
		OldAmount: displaced.Amount,
		NewAmount: newAmount,
		Timestamp: now,
	}

	if err := s.notifier.PublishOutbid(ctx, event); err != nil {
		log.Printf("Failed to publish outbid event for bid %s: %v", displaced.BidID, err)
	}
}
