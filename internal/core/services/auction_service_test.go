package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/citystay/auction_engine/internal/core/domain"
	"github.com/citystay/auction_engine/internal/core/ports/mocks"
	"github.com/citystay/auction_engine/internal/core/services"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func displacingConfig() domain.EngineConfig {
	schedule := domain.DefaultStepSchedule()
	return domain.EngineConfig{
		Pool:         "auction",
		Mode:         domain.ModeDisplacing,
		Epoch:        domain.EpochRolling,
		Pricing:      schedule,
		ValidityDays: 30,
		MinIncrement: schedule.Step,
		Now:          func() time.Time { return testNow },
	}
}

func top20Config() domain.EngineConfig {
	return domain.EngineConfig{
		Pool:                "top20",
		Mode:                domain.ModeFirstCome,
		Epoch:               domain.EpochRolling,
		Pricing:             domain.DefaultTop20Table(),
		ValidityDays:        30,
		MinSubscriptionDays: 30,
		Now:                 func() time.Time { return testNow },
	}
}

func ownedListing(ownerID uuid.UUID, scope string) *domain.Listing {
	expires := testNow.AddDate(0, 0, 60)
	return &domain.Listing{
		ID:                    uuid.New(),
		OwnerID:               ownerID,
		Scope:                 scope,
		Title:                 "Hotel Arbat Plaza",
		Position:              7,
		SubscriptionExpiresAt: &expires,
	}
}

func TestPlaceBid_Success_Displacing(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	mockNotifier := mocks.NewNotifier(t)

	db, mockRedis := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, mockNotifier, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	mockListingRepo.On("CountEligible", ctx, "moscow").Return(10, nil)

	bidID := uuid.New()
	mockBidRepo.On("Allocate", ctx, mock.MatchedBy(func(req domain.AllocationRequest) bool {
		return req.Pool == "auction" &&
			req.Scope == "moscow" &&
			req.Position == 1 &&
			req.Amount == 100.0 &&
			req.Mode == domain.ModeDisplacing &&
			req.ExpiresAt.Equal(testNow.AddDate(0, 0, 30))
	})).Return(&domain.AllocationResult{
		Bid: domain.Bid{
			ID:        bidID,
			Status:    domain.BidActive,
			ExpiresAt: testNow.AddDate(0, 0, 30),
		},
	}, nil)

	cacheKey := fmt.Sprintf("positions:%s:%s", "auction", "moscow")
	mockRedis.ExpectDel(cacheKey).SetVal(1)

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
		Amount:         100,
	})

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.True(t, resp.Success)
		assert.Equal(t, bidID.String(), resp.BookingID)
		assert.Equal(t, 100.0, resp.AmountPaid)
	}

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPlaceBid_Fail_NotOwned(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	listing := ownedListing(uuid.New(), "moscow")

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        uuid.New().String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
		Amount:         100,
	})

	assert.ErrorIs(t, err, domain.ErrNotOwned)
	assert.Nil(t, resp)
	mockBidRepo.AssertNotCalled(t, "Allocate", mock.Anything, mock.Anything)
}

func TestPlaceBid_Fail_ListingNotFound(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	listingID := uuid.New()

	mockListingRepo.On("GetByID", ctx, listingID).Return(nil, domain.ErrListingNotFound)

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        uuid.New().String(),
		ListingID:      listingID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
	})

	assert.ErrorIs(t, err, domain.ErrListingNotFound)
	assert.Nil(t, resp)
}

func TestPlaceBid_Fail_SubscriptionRequired_BeforeMoney(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(top20Config(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")
	expires := testNow.AddDate(0, 0, 12)
	listing.SubscriptionExpiresAt = &expires

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
	})

	var subErr *domain.SubscriptionError
	assert.ErrorAs(t, err, &subErr)
	assert.Equal(t, 12, subErr.DaysLeft)
	assert.Equal(t, 30, subErr.Required)
	assert.Nil(t, resp)
	// The rejection happens before any money is touched.
	mockBidRepo.AssertNotCalled(t, "Allocate", mock.Anything, mock.Anything)
}

func TestPlaceBid_Fail_NoSubscriptionAtAll(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(top20Config(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")
	listing.SubscriptionExpiresAt = nil

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	_, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
	})

	var subErr *domain.SubscriptionError
	assert.ErrorAs(t, err, &subErr)
	assert.Equal(t, -1, subErr.DaysLeft)
}

func TestPlaceBid_Fail_InvalidPosition_Top20(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(top20Config(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 21,
	})

	var posErr *domain.InvalidPositionError
	assert.ErrorAs(t, err, &posErr)
	assert.Equal(t, 20, posErr.Slots)
	assert.Nil(t, resp)
}

func TestPlaceBid_Fail_BelowAskingPrice(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	mockListingRepo.On("CountEligible", ctx, "moscow").Return(10, nil)

	// Rank 1 of 10 asks 65; offering less never reaches the allocation.
	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
		Amount:         60,
	})

	var lowErr *domain.BidTooLowError
	assert.ErrorAs(t, err, &lowErr)
	assert.Equal(t, 65.0, lowErr.Minimum)
	assert.Nil(t, resp)
	mockBidRepo.AssertNotCalled(t, "Allocate", mock.Anything, mock.Anything)
}

func TestPlaceBid_Fail_BidTooLow_ReportsMinimum(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	mockListingRepo.On("CountEligible", ctx, "moscow").Return(10, nil)

	// Occupant holds the slot at 100; matching it exactly is not enough.
	mockBidRepo.On("Allocate", ctx, mock.Anything).Return(nil, &domain.BidTooLowError{Offered: 100, Minimum: 105})

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
		Amount:         100,
	})

	var lowErr *domain.BidTooLowError
	assert.ErrorAs(t, err, &lowErr)
	assert.Equal(t, 105.0, lowErr.Minimum)
	assert.Nil(t, resp)
}

func TestPlaceBid_Fail_PositionTaken_Top20(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(top20Config(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	mockBidRepo.On("Allocate", ctx, mock.MatchedBy(func(req domain.AllocationRequest) bool {
		// The table price is charged; the caller cannot choose an amount.
		return req.Pool == "top20" && req.Amount == 3000.0 && req.Mode == domain.ModeFirstCome
	})).Return(nil, domain.ErrPositionTaken)

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
		Amount:         9999,
	})

	assert.ErrorIs(t, err, domain.ErrPositionTaken)
	assert.Nil(t, resp)
}

func TestPlaceBid_Fail_InsufficientFunds(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(top20Config(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	mockBidRepo.On("Allocate", ctx, mock.Anything).Return(nil, &domain.InsufficientFundsError{Required: 3000, Available: 1200})

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
	})

	var fundsErr *domain.InsufficientFundsError
	assert.ErrorAs(t, err, &fundsErr)
	assert.Equal(t, 3000.0, fundsErr.Required)
	assert.Equal(t, 1200.0, fundsErr.Available)
	assert.Nil(t, resp)
}

func TestPlaceBid_DisplacementPublishesOutbidEvent(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, mockRedis := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, mockNotifier, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")
	displacedOwner := uuid.New()
	displacedListing := uuid.New()

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	mockListingRepo.On("CountEligible", ctx, "moscow").Return(10, nil)

	mockBidRepo.On("Allocate", ctx, mock.Anything).Return(&domain.AllocationResult{
		Bid: domain.Bid{ID: uuid.New(), ExpiresAt: testNow.AddDate(0, 0, 30)},
		Displaced: &domain.DisplacedBid{
			BidID:     uuid.New(),
			ListingID: displacedListing,
			OwnerID:   displacedOwner,
			Position:  1,
			Amount:    100,
		},
	}, nil)

	cacheKey := fmt.Sprintf("positions:%s:%s", "auction", "moscow")
	mockRedis.ExpectDel(cacheKey).SetVal(1)

	mockNotifier.On("PublishOutbid", ctx, mock.MatchedBy(func(event domain.OutbidEvent) bool {
		return event.OwnerID == displacedOwner &&
			event.ListingID == displacedListing &&
			event.OldAmount == 100.0 &&
			event.NewAmount == 105.0 &&
			event.Position == 1
	})).Return(nil)

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
		Amount:         105,
	})

	assert.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestPlaceBid_RebidSupersedesWithoutOutbidEvent(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, mockRedis := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, mockNotifier, db)

	ctx := context.Background()
	ownerID := uuid.New()
	listing := ownedListing(ownerID, "moscow")

	mockListingRepo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	mockListingRepo.On("CountEligible", ctx, "moscow").Return(10, nil)

	// The listing raises its own bid on a slot it already holds: the prior
	// row is cancelled and nobody is displaced, so no event goes out.
	priorBidID := uuid.New()
	mockBidRepo.On("Allocate", ctx, mock.Anything).Return(&domain.AllocationResult{
		Bid: domain.Bid{
			ID:        uuid.New(),
			Status:    domain.BidActive,
			ExpiresAt: testNow.AddDate(0, 0, 30),
		},
		Superseded: &priorBidID,
	}, nil)

	cacheKey := fmt.Sprintf("positions:%s:%s", "auction", "moscow")
	mockRedis.ExpectDel(cacheKey).SetVal(1)

	resp, err := service.PlaceBid(ctx, services.PlaceBidRequest{
		OwnerID:        ownerID.String(),
		ListingID:      listing.ID.String(),
		Scope:          "moscow",
		TargetPosition: 1,
		Amount:         110,
	})

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.True(t, resp.Success)
	}
	mockNotifier.AssertNotCalled(t, "PublishOutbid", mock.Anything, mock.Anything)
}

func TestPlaceBid_Fail_InvalidIDs(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, nil, db)

	_, err := service.PlaceBid(context.Background(), services.PlaceBidRequest{
		OwnerID:        "not-a-uuid",
		ListingID:      uuid.New().String(),
		Scope:          "moscow",
		TargetPosition: 1,
	})

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestGetPositions_BuildsFullProjection(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, mockRedis := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	cacheKey := fmt.Sprintf("positions:%s:%s", "auction", "moscow")
	mockRedis.ExpectGet(cacheKey).RedisNil()

	mockListingRepo.On("CountEligible", ctx, "moscow").Return(5, nil)

	occupant := domain.Occupancy{
		BidID:        uuid.New(),
		ListingID:    uuid.New(),
		ListingTitle: "Nevsky Apart-Hotel",
		OwnerID:      uuid.New(),
		Position:     2,
		Amount:       40,
		ExpiresAt:    testNow.AddDate(0, 0, 10),
	}
	mockBidRepo.On("ActiveByScope", ctx, "auction", "moscow", mock.Anything).Return([]domain.Occupancy{occupant}, nil)

	mockRedis.Regexp().ExpectSet(cacheKey, `.+`, 30*time.Second).SetVal("OK")

	resp, err := service.GetPositions(ctx, "moscow")

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.Len(t, resp.Positions, 5)

		// Rank 5 of 5 costs the base price.
		assert.Equal(t, 20.0, resp.Positions[4].Price)
		assert.False(t, resp.Positions[4].IsBooked)

		assert.True(t, resp.Positions[1].IsBooked)
		if assert.NotNil(t, resp.Positions[1].Booking) {
			assert.Equal(t, occupant.BidID, resp.Positions[1].Booking.BidID)
		}
	}

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestGetPositions_CacheHitSkipsRepositories(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, mockRedis := redismock.NewClientMock()

	service := services.NewAuctionService(top20Config(), mockListingRepo, mockBidRepo, nil, db)

	cached := `{"scope":"moscow","positions":[{"position":1,"price":3000,"is_booked":false}]}`
	cacheKey := fmt.Sprintf("positions:%s:%s", "top20", "moscow")
	mockRedis.ExpectGet(cacheKey).SetVal(cached)

	resp, err := service.GetPositions(context.Background(), "moscow")

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.Len(t, resp.Positions, 1)
		assert.Equal(t, 3000.0, resp.Positions[0].Price)
	}

	mockBidRepo.AssertNotCalled(t, "ActiveByScope", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockListingRepo.AssertNotCalled(t, "CountEligible", mock.Anything, mock.Anything)
}

func TestSweepExpired_MarksBatch(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mockBidRepo.On("FindExpired", ctx, 100).Return(ids, nil)
	mockBidRepo.On("MarkExpired", ctx, ids).Return(int64(2), nil)

	service.SweepExpired(ctx)
}

func TestSweepExpired_NothingToDo(t *testing.T) {
	mockListingRepo := mocks.NewListingRepository(t)
	mockBidRepo := mocks.NewBidRepository(t)
	db, _ := redismock.NewClientMock()

	service := services.NewAuctionService(displacingConfig(), mockListingRepo, mockBidRepo, nil, db)

	ctx := context.Background()
	mockBidRepo.On("FindExpired", ctx, 100).Return(nil, nil)

	service.SweepExpired(ctx)
	mockBidRepo.AssertNotCalled(t, "MarkExpired", mock.Anything, mock.Anything)
}
