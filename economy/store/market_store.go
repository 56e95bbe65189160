// economy/store/market_store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/Ftotnem/ECONOMY-SERVICES/shared/kv"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
	"github.com/google/uuid"
)

// MarketStore manages per-seller stalls and the cross-player purchase flow.
// Listings are aggregated at read time from a stall scan and are allowed to
// be stale; Buy re-validates stock, price and balances at commit time, so a
// shopper acting on an outdated listing gets a clean rejection, never an
// inconsistent sale.
type MarketStore struct {
	kvStore kv.Store
	coord   *kv.Coordinator
	now     func() time.Time
}

// NewMarketStore creates a new MarketStore instance.
func NewMarketStore(kvStore kv.Store, coord *kv.Coordinator) *MarketStore {
	return &MarketStore{
		kvStore: kvStore,
		coord:   coord,
		now:     time.Now,
	}
}

// ListAll scans every stall and groups sellable entries (count and price
// both positive) by item. O(n) in seller count; the snapshot has no
// cross-stall consistency, which is acceptable for a browse view.
func (ms *MarketStore) ListAll(ctx context.Context) ([]models.Listing, error) {
	offers := make(map[string][]models.Offer)
	err := ms.kvStore.Scan(ctx, StallScanPrefix, func(key string, value []byte) error {
		var stall models.ItemStore
		if err := json.Unmarshal(value, &stall); err != nil {
			return fmt.Errorf("malformed stall record %s: %w", key, err)
		}
		if stall.SellerUUID == "" {
			stall.SellerUUID = ExtractKeyID(key)
		}
		for _, item := range stall.Items {
			if item.Count == 0 || item.UnitPrice == 0 {
				continue
			}
			offers[item.ItemID] = append(offers[item.ItemID], models.Offer{
				SellerUUID: stall.SellerUUID,
				Count:      item.Count,
				UnitPrice:  item.UnitPrice,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan market stalls: %w", err)
	}

	listings := make([]models.Listing, 0, len(offers))
	for itemID, itemOffers := range offers {
		sort.Slice(itemOffers, func(i, j int) bool {
			if itemOffers[i].UnitPrice != itemOffers[j].UnitPrice {
				return itemOffers[i].UnitPrice < itemOffers[j].UnitPrice
			}
			return itemOffers[i].SellerUUID < itemOffers[j].SellerUUID
		})
		listings = append(listings, models.Listing{ItemID: itemID, Offers: itemOffers})
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].ItemID < listings[j].ItemID })
	return listings, nil
}

// GetStall returns a seller's stall; a player without one reads as empty.
func (ms *MarketStore) GetStall(ctx context.Context, sellerUUID string) (*models.ItemStore, error) {
	stall, _, err := ms.readStall(ctx, sellerUUID)
	if err != nil {
		return nil, err
	}
	return stall, nil
}

// Stock adds count units of an item to the seller's stall at the given unit
// price. Restocking an existing entry adds to its count and re-prices the
// whole entry.
func (ms *MarketStore) Stock(ctx context.Context, sellerUUID, itemID string, count uint64, unitPrice models.Coins) error {
	if count == 0 || unitPrice == 0 {
		return ErrInvalidAmount
	}
	return ms.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		stall, ver, err := ms.readStall(ctx, sellerUUID)
		if err != nil {
			return nil, err
		}
		if i := stall.Item(itemID); i >= 0 {
			newCount := stall.Items[i].Count + count
			if newCount < stall.Items[i].Count {
				return nil, fmt.Errorf("stock overflow for item %s", itemID)
			}
			stall.Items[i].Count = newCount
			stall.Items[i].UnitPrice = unitPrice
		} else {
			stall.Items = append(stall.Items, models.StallItem{ItemID: itemID, Count: count, UnitPrice: unitPrice})
		}

		tx := ms.kvStore.Atomic()
		if err := ms.stageStall(tx, stall, ver); err != nil {
			return nil, err
		}
		return tx, nil
	})
}

// Unlist takes an item off sale by clearing its price. The goods stay in the
// stall and can be re-priced later with Stock.
func (ms *MarketStore) Unlist(ctx context.Context, sellerUUID, itemID string) error {
	return ms.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		stall, ver, err := ms.readStall(ctx, sellerUUID)
		if err != nil {
			return nil, err
		}
		i := stall.Item(itemID)
		if i < 0 || stall.Items[i].UnitPrice == 0 {
			return nil, ErrListingNotFound
		}
		stall.Items[i].UnitPrice = 0

		tx := ms.kvStore.Atomic()
		if err := ms.stageStall(tx, stall, ver); err != nil {
			return nil, err
		}
		return tx, nil
	})
}

// Buy purchases count units of an item from a seller's stall. One commit
// mutates four records: buyer balance, seller balance, seller stall and
// buyer stall (plus the two observational history keys), and every one of
// them is version-checked against the same read pass. A concurrent second
// buyer or a seller re-pricing mid-purchase therefore forces a retry from
// fresh reads rather than a partial sale. Returns the total cost.
func (ms *MarketStore) Buy(ctx context.Context, buyerUUID, sellerUUID, itemID string, count uint64) (models.Coins, error) {
	if buyerUUID == sellerUUID {
		return 0, ErrSelfTrade
	}
	if count == 0 {
		return 0, ErrInvalidAmount
	}

	var totalCost models.Coins
	err := ms.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		sellerStall, sellerStallVer, err := ms.readStall(ctx, sellerUUID)
		if err != nil {
			return nil, err
		}
		i := sellerStall.Item(itemID)
		if i < 0 || sellerStall.Items[i].UnitPrice == 0 {
			return nil, ErrListingNotFound
		}
		entry := sellerStall.Items[i]
		if entry.Count < count {
			return nil, ErrInsufficientStock
		}
		if entry.UnitPrice != 0 && count > math.MaxUint64/uint64(entry.UnitPrice) {
			return nil, fmt.Errorf("purchase cost overflow for item %s", itemID)
		}
		totalCost = entry.UnitPrice * models.Coins(count)

		buyerBalance, buyerVer, err := readBalance(ctx, ms.kvStore, buyerUUID)
		if err != nil {
			return nil, err
		}
		if buyerBalance < totalCost {
			return nil, ErrInsufficientFunds
		}
		sellerBalance, sellerVer, err := readBalance(ctx, ms.kvStore, sellerUUID)
		if err != nil {
			return nil, err
		}
		newSellerBalance := sellerBalance + totalCost
		if newSellerBalance < sellerBalance {
			return nil, fmt.Errorf("balance overflow for player %s", sellerUUID)
		}
		buyerStall, buyerStallVer, err := ms.readStall(ctx, buyerUUID)
		if err != nil {
			return nil, err
		}
		buyerHistory, buyerHistVer, err := readHistory(ctx, ms.kvStore, buyerUUID)
		if err != nil {
			return nil, err
		}
		sellerHistory, sellerHistVer, err := readHistory(ctx, ms.kvStore, sellerUUID)
		if err != nil {
			return nil, err
		}

		// Decrement or drop the seller's entry.
		if entry.Count == count {
			sellerStall.Items = slices.Delete(sellerStall.Items, i, i+1)
		} else {
			sellerStall.Items[i].Count -= count
		}
		// Credit the goods to the buyer's stall, unpriced (not for sale).
		if j := buyerStall.Item(itemID); j >= 0 {
			buyerStall.Items[j].Count += count
		} else {
			buyerStall.Items = append(buyerStall.Items, models.StallItem{ItemID: itemID, Count: count})
		}

		tx := ms.kvStore.Atomic()
		stageBalance(tx, buyerUUID, buyerVer, buyerBalance-totalCost)
		stageBalance(tx, sellerUUID, sellerVer, newSellerBalance)
		if err := ms.stageStall(tx, sellerStall, sellerStallVer); err != nil {
			return nil, err
		}
		if err := ms.stageStall(tx, buyerStall, buyerStallVer); err != nil {
			return nil, err
		}
		buyRecord := ms.newTransaction(models.TxMarketBuy, -int64(totalCost), buyerBalance-totalCost,
			fmt.Sprintf("Bought %dx %s from %s", count, itemID, sellerUUID))
		if err := stageHistory(tx, buyerUUID, buyerHistVer, buyerHistory, buyRecord); err != nil {
			return nil, err
		}
		sellRecord := ms.newTransaction(models.TxMarketSell, int64(totalCost), newSellerBalance,
			fmt.Sprintf("Sold %dx %s to %s", count, itemID, buyerUUID))
		if err := stageHistory(tx, sellerUUID, sellerHistVer, sellerHistory, sellRecord); err != nil {
			return nil, err
		}
		return tx, nil
	})
	if err != nil {
		return 0, err
	}
	return totalCost, nil
}

// readStall loads a seller's stall; an absent key reads as an empty stall at
// the key's reported version, which keeps check-on-absence working for
// first-time sellers.
func (ms *MarketStore) readStall(ctx context.Context, sellerUUID string) (*models.ItemStore, kv.Version, error) {
	data, ver, err := ms.kvStore.Get(ctx, stallKey(sellerUUID))
	if err == kv.ErrKeyNotFound {
		return &models.ItemStore{SellerUUID: sellerUUID}, ver, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read stall for seller %s: %w", sellerUUID, err)
	}
	var stall models.ItemStore
	if err := json.Unmarshal(data, &stall); err != nil {
		return nil, 0, fmt.Errorf("malformed stall record for seller %s: %w", sellerUUID, err)
	}
	return &stall, ver, nil
}

// stageStall adds the check-and-set for a stall record to the transaction.
func (ms *MarketStore) stageStall(tx kv.Tx, stall *models.ItemStore, ver kv.Version) error {
	data, err := json.Marshal(stall)
	if err != nil {
		return fmt.Errorf("failed to marshal stall for seller %s: %w", stall.SellerUUID, err)
	}
	tx.Check(stallKey(stall.SellerUUID), ver)
	tx.Set(stallKey(stall.SellerUUID), data)
	return nil
}

func (ms *MarketStore) newTransaction(kind models.TransactionKind, amount int64, resulting models.Coins, description string) models.Transaction {
	return models.Transaction{
		ID:               uuid.NewString(),
		Timestamp:        ms.now(),
		Kind:             kind,
		Amount:           amount,
		ResultingBalance: resulting,
		Description:      description,
	}
}
