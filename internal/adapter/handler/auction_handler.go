package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/citystay/auction_engine/internal/core/domain"
	"github.com/citystay/auction_engine/internal/core/services"
)

type AuctionHandler struct {
	auction *services.AuctionService
	top20   *services.AuctionService
	ledger  *services.LedgerService
}

func NewAuctionHandler(auction, top20 *services.AuctionService, ledger *services.LedgerService) *AuctionHandler {
	return &AuctionHandler{auction: auction, top20: top20, ledger: ledger}
}

// Routes mounts the two engine variants side by side, the way the platform
// exposes them: the open displacing auction and the fixed top-20 pool.
func (h *AuctionHandler) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auction/positions", h.positions(h.auction)).Methods(http.MethodGet)
	api.HandleFunc("/auction/bids", h.placeBid(h.auction)).Methods(http.MethodPost)
	api.HandleFunc("/top20/positions", h.positions(h.top20)).Methods(http.MethodGet)
	api.HandleFunc("/top20/bids", h.placeBid(h.top20)).Methods(http.MethodPost)

	api.HandleFunc("/owners/{id}/balance", h.Balance).Methods(http.MethodGet)
	api.HandleFunc("/owners/{id}/transactions", h.Transactions).Methods(http.MethodGet)
	api.HandleFunc("/owners/{id}/deposit", h.Deposit).Methods(http.MethodPost)

	r.Use(loggingMiddleware)

	return r
}

func (h *AuctionHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *AuctionHandler) positions(svc *services.AuctionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := r.URL.Query().Get("scope")
		if scope == "" {
			respondError(w, http.StatusBadRequest, "invalid_request", "scope parameter required", nil)
			return
		}

		resp, err := svc.GetPositions(r.Context(), scope)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, resp)
	}
}

func (h *AuctionHandler) placeBid(svc *services.AuctionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.PlaceBidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid json body", nil)
			return
		}

		resp, err := svc.PlaceBid(r.Context(), req)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, resp)
	}
}

func (h *AuctionHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.Balances(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, balance)
}

func (h *AuctionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.ledger.History(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"transactions": entries})
}

func (h *AuctionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid json body", nil)
		return
	}

	resp, err := h.ledger.Deposit(r.Context(), mux.Vars(r)["id"], body.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// writeDomainError maps the failure taxonomy to HTTP codes. Every business
// failure carries a machine-checkable reason; financial ones also report
// their numeric shortfall or minimum.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var subErr *domain.SubscriptionError
	var posErr *domain.InvalidPositionError
	var lowErr *domain.BidTooLowError
	var fundsErr *domain.InsufficientFundsError

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, domain.ErrListingNotFound):
		respondError(w, http.StatusNotFound, "listing_not_found", err.Error(), nil)
	case errors.Is(err, domain.ErrOwnerNotFound):
		respondError(w, http.StatusNotFound, "owner_not_found", err.Error(), nil)
	case errors.Is(err, domain.ErrNotOwned):
		respondError(w, http.StatusForbidden, "not_owned", err.Error(), nil)
	case errors.Is(err, domain.ErrPositionTaken):
		respondError(w, http.StatusBadRequest, "position_already_booked", err.Error(), nil)
	case errors.As(err, &subErr):
		respondError(w, http.StatusBadRequest, "subscription_required", err.Error(), map[string]interface{}{
			"days_left":     subErr.DaysLeft,
			"required_days": subErr.Required,
		})
	case errors.As(err, &posErr):
		respondError(w, http.StatusBadRequest, "invalid_position", err.Error(), map[string]interface{}{
			"max_position": posErr.Slots,
		})
	case errors.As(err, &lowErr):
		respondError(w, http.StatusBadRequest, "bid_too_low", err.Error(), map[string]interface{}{
			"minimum": lowErr.Minimum,
		})
	case errors.As(err, &fundsErr):
		respondError(w, http.StatusBadRequest, "insufficient_funds", err.Error(), map[string]interface{}{
			"required":  fundsErr.Required,
			"available": fundsErr.Available,
		})
	default:
		log.Printf("Request failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal server error", nil)
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, reason, message string, details map[string]interface{}) {
	payload := map[string]interface{}{
		"error":  message,
		"reason": reason,
	}
	for k, v := range details {
		payload[k] = v
	}

	respondJSON(w, statusCode, payload)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
	})
}
