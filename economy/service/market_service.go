// economy/service/market_service.go
package service

import (
	"context"
	"log"

	"github.com/Ftotnem/ECONOMY-SERVICES/economy/store"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
)

// MarketService encapsulates the business logic for player stalls and the
// global market view.
type MarketService struct {
	marketStore *store.MarketStore
}

// NewMarketService creates a new MarketService instance.
func NewMarketService(ms *store.MarketStore) *MarketService {
	return &MarketService{
		marketStore: ms,
	}
}

// ListAll aggregates every priced stall entry into per-item listings with
// offers sorted cheapest first.
func (s *MarketService) ListAll(ctx context.Context) ([]models.Listing, error) {
	return s.marketStore.ListAll(ctx)
}

// GetStall returns a seller's stall. Sellers with no stall get an empty one.
func (s *MarketService) GetStall(ctx context.Context, sellerUUID string) (*models.ItemStore, error) {
	return s.marketStore.GetStall(ctx, sellerUUID)
}

// Stock lists goods for sale, or restocks and re-prices an existing entry.
func (s *MarketService) Stock(ctx context.Context, sellerUUID, itemID string, count uint64, unitPrice models.Coins) error {
	if err := s.marketStore.Stock(ctx, sellerUUID, itemID, count, unitPrice); err != nil {
		return err
	}
	log.Printf("INFO: Player %s stocked %d x %s at %s coins each", sellerUUID, count, itemID, unitPrice)
	return nil
}

// Unlist takes an item off sale without removing the goods from the stall.
func (s *MarketService) Unlist(ctx context.Context, sellerUUID, itemID string) error {
	if err := s.marketStore.Unlist(ctx, sellerUUID, itemID); err != nil {
		return err
	}
	log.Printf("INFO: Player %s unlisted %s", sellerUUID, itemID)
	return nil
}

// Buy purchases count units of an item from a seller's stall. Coins and goods
// change hands in one atomic commit; returns the total cost paid.
func (s *MarketService) Buy(ctx context.Context, buyerUUID, sellerUUID, itemID string, count uint64) (models.Coins, error) {
	totalCost, err := s.marketStore.Buy(ctx, buyerUUID, sellerUUID, itemID, count)
	if err != nil {
		return 0, err
	}
	log.Printf("INFO: Player %s bought %d x %s from %s for %s coins", buyerUUID, count, itemID, sellerUUID, totalCost)
	return totalCost, nil
}
