package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Ftotnem/ECONOMY-SERVICES/shared/kv"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
)

func newTestMarketStore(maxAttempts int) (*MarketStore, *AccountStore, *kv.MemoryStore) {
	ms := kv.NewMemoryStore()
	coord := kv.NewCoordinator(maxAttempts)
	return NewMarketStore(ms, coord), NewAccountStore(ms, coord), ms
}

func TestStockAndRestock(t *testing.T) {
	mkt, _, _ := newTestMarketStore(4)
	ctx := context.Background()

	if err := mkt.Stock(ctx, "seller", "iron_ingot", 10, 5); err != nil {
		t.Fatalf("stock: %v", err)
	}
	// Restocking adds to the count and re-prices the whole entry.
	if err := mkt.Stock(ctx, "seller", "iron_ingot", 5, 7); err != nil {
		t.Fatalf("restock: %v", err)
	}

	stall, err := mkt.GetStall(ctx, "seller")
	if err != nil {
		t.Fatalf("get stall: %v", err)
	}
	if len(stall.Items) != 1 {
		t.Fatalf("items = %v", stall.Items)
	}
	if stall.Items[0].Count != 15 || stall.Items[0].UnitPrice != 7 {
		t.Fatalf("entry = %+v, want count 15 price 7", stall.Items[0])
	}
}

func TestStockRejectsZeroes(t *testing.T) {
	mkt, _, _ := newTestMarketStore(4)
	ctx := context.Background()

	if err := mkt.Stock(ctx, "seller", "dirt", 0, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero count: %v", err)
	}
	if err := mkt.Stock(ctx, "seller", "dirt", 1, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero price: %v", err)
	}
}

func TestUnlist(t *testing.T) {
	mkt, _, _ := newTestMarketStore(4)
	ctx := context.Background()

	if err := mkt.Unlist(ctx, "seller", "ghost"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("unlist absent: %v", err)
	}

	if err := mkt.Stock(ctx, "seller", "iron_ingot", 10, 5); err != nil {
		t.Fatalf("stock: %v", err)
	}
	if err := mkt.Unlist(ctx, "seller", "iron_ingot"); err != nil {
		t.Fatalf("unlist: %v", err)
	}

	// The goods stay in the stall, just without a price.
	stall, _ := mkt.GetStall(ctx, "seller")
	if len(stall.Items) != 1 || stall.Items[0].Count != 10 || stall.Items[0].UnitPrice != 0 {
		t.Fatalf("items after unlist = %v, want 10 unpriced iron_ingot", stall.Items)
	}
	listings, err := mkt.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("listings after unlist = %v", listings)
	}

	// An unpriced entry is not on sale, so unlisting it again misses.
	if err := mkt.Unlist(ctx, "seller", "iron_ingot"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("unlist unpriced: %v", err)
	}

	// Re-pricing through Stock puts the goods back on sale.
	if err := mkt.Stock(ctx, "seller", "iron_ingot", 2, 7); err != nil {
		t.Fatalf("restock: %v", err)
	}
	stall, _ = mkt.GetStall(ctx, "seller")
	if len(stall.Items) != 1 || stall.Items[0].Count != 12 || stall.Items[0].UnitPrice != 7 {
		t.Fatalf("items after re-pricing = %v, want 12 at 7", stall.Items)
	}
}

func TestBuyExactExchange(t *testing.T) {
	mkt, as, _ := newTestMarketStore(4)
	ctx := context.Background()

	mustDeposit(t, as, "buyer", 100)
	if err := mkt.Stock(ctx, "seller", "iron_ingot", 10, 5); err != nil {
		t.Fatalf("stock: %v", err)
	}

	totalCost, err := mkt.Buy(ctx, "buyer", "seller", "iron_ingot", 4)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if totalCost != 20 {
		t.Fatalf("cost = %s, want 20", totalCost)
	}

	// Coins moved exactly: the buyer paid what the seller received.
	if got := mustBalance(t, as, "buyer"); got != 80 {
		t.Fatalf("buyer = %s, want 80", got)
	}
	if got := mustBalance(t, as, "seller"); got != 20 {
		t.Fatalf("seller = %s, want 20", got)
	}

	// Goods moved exactly too.
	sellerStall, _ := mkt.GetStall(ctx, "seller")
	if sellerStall.Items[0].Count != 6 {
		t.Fatalf("seller stock = %+v, want count 6", sellerStall.Items[0])
	}
	buyerStall, _ := mkt.GetStall(ctx, "buyer")
	if len(buyerStall.Items) != 1 || buyerStall.Items[0].Count != 4 {
		t.Fatalf("buyer stall = %v", buyerStall.Items)
	}
	// Bought goods default to not-for-sale.
	if buyerStall.Items[0].UnitPrice != 0 {
		t.Fatalf("bought goods priced at %s", buyerStall.Items[0].UnitPrice)
	}

	// Both ledgers carry the trade.
	buyerAcct, _ := as.GetAccount(ctx, "buyer")
	sellerAcct, _ := as.GetAccount(ctx, "seller")
	if buyerAcct.History[0].Kind != models.TxMarketBuy || buyerAcct.History[0].Amount != -20 {
		t.Fatalf("buyer record = %+v", buyerAcct.History[0])
	}
	if sellerAcct.History[0].Kind != models.TxMarketSell || sellerAcct.History[0].Amount != 20 {
		t.Fatalf("seller record = %+v", sellerAcct.History[0])
	}
}

func TestBuyLastUnitsRemovesEntry(t *testing.T) {
	mkt, as, _ := newTestMarketStore(4)
	ctx := context.Background()

	mustDeposit(t, as, "buyer", 100)
	if err := mkt.Stock(ctx, "seller", "gold", 3, 10); err != nil {
		t.Fatalf("stock: %v", err)
	}
	if _, err := mkt.Buy(ctx, "buyer", "seller", "gold", 3); err != nil {
		t.Fatalf("buy: %v", err)
	}
	stall, _ := mkt.GetStall(ctx, "seller")
	if len(stall.Items) != 0 {
		t.Fatalf("sold-out entry still present: %v", stall.Items)
	}
}

func TestBuyValidation(t *testing.T) {
	mkt, as, _ := newTestMarketStore(4)
	ctx := context.Background()

	mustDeposit(t, as, "buyer", 10)
	if err := mkt.Stock(ctx, "seller", "iron_ingot", 5, 4); err != nil {
		t.Fatalf("stock: %v", err)
	}

	if _, err := mkt.Buy(ctx, "buyer", "buyer", "iron_ingot", 1); !errors.Is(err, ErrSelfTrade) {
		t.Fatalf("self trade: %v", err)
	}
	if _, err := mkt.Buy(ctx, "buyer", "seller", "iron_ingot", 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero count: %v", err)
	}
	if _, err := mkt.Buy(ctx, "buyer", "seller", "unknown", 1); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("unknown item: %v", err)
	}
	if _, err := mkt.Buy(ctx, "buyer", "seller", "iron_ingot", 6); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("over stock: %v", err)
	}
	if _, err := mkt.Buy(ctx, "buyer", "seller", "iron_ingot", 3); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("over budget: %v", err)
	}

	// Nothing changed after the failed attempts.
	if got := mustBalance(t, as, "buyer"); got != 10 {
		t.Fatalf("buyer = %s, want 10", got)
	}
	stall, _ := mkt.GetStall(ctx, "seller")
	if stall.Items[0].Count != 5 {
		t.Fatalf("stock = %+v, want 5", stall.Items[0])
	}
}

func TestUnpricedGoodsAreNotBuyable(t *testing.T) {
	mkt, as, _ := newTestMarketStore(4)
	ctx := context.Background()

	mustDeposit(t, as, "buyer", 100)
	mustDeposit(t, as, "reseller", 100)
	if err := mkt.Stock(ctx, "seller", "gem", 2, 10); err != nil {
		t.Fatalf("stock: %v", err)
	}
	if _, err := mkt.Buy(ctx, "reseller", "seller", "gem", 1); err != nil {
		t.Fatalf("first buy: %v", err)
	}

	// The reseller holds the gem unpriced; nobody can buy it from them.
	if _, err := mkt.Buy(ctx, "buyer", "reseller", "gem", 1); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("bought unpriced goods: %v", err)
	}

	// Unpriced entries stay out of the market view as well.
	listings, err := mkt.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, l := range listings {
		for _, o := range l.Offers {
			if o.SellerUUID == "reseller" {
				t.Fatalf("unpriced goods listed: %+v", o)
			}
		}
	}
}

func TestConcurrentBuyersNeverOversell(t *testing.T) {
	mkt, as, _ := newTestMarketStore(50)
	ctx := context.Background()

	if err := mkt.Stock(ctx, "seller", "diamond", 5, 10); err != nil {
		t.Fatalf("stock: %v", err)
	}
	const buyers = 8
	for i := 0; i < buyers; i++ {
		mustDeposit(t, as, buyerName(i), 100)
	}

	// Eight buyers fight over five diamonds, two apiece.
	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			_, err := mkt.Buy(ctx, buyer, "seller", "diamond", 2)
			results <- err
		}(buyerName(i))
	}
	wg.Wait()
	close(results)

	sold := uint64(0)
	for err := range results {
		switch {
		case err == nil:
			sold += 2
		case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrListingNotFound), errors.Is(err, kv.ErrTxConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if sold > 5 {
		t.Fatalf("sold %d of 5 diamonds", sold)
	}

	// The seller's coins match the goods that actually left the stall.
	stall, _ := mkt.GetStall(ctx, "seller")
	remaining := uint64(0)
	if len(stall.Items) > 0 {
		remaining = stall.Items[0].Count
	}
	if remaining != 5-sold {
		t.Fatalf("remaining stock = %d, want %d", remaining, 5-sold)
	}
	if got := mustBalance(t, as, "seller"); got != models.Coins(10*sold) {
		t.Fatalf("seller proceeds = %s, want %d", got, 10*sold)
	}
}

func buyerName(i int) string {
	return "buyer-" + string(rune('a'+i))
}

func TestListAllAggregatesAndSorts(t *testing.T) {
	mkt, _, _ := newTestMarketStore(4)
	ctx := context.Background()

	if err := mkt.Stock(ctx, "s1", "iron_ingot", 10, 7); err != nil {
		t.Fatalf("stock: %v", err)
	}
	if err := mkt.Stock(ctx, "s2", "iron_ingot", 4, 5); err != nil {
		t.Fatalf("stock: %v", err)
	}
	if err := mkt.Stock(ctx, "s1", "coal", 20, 1); err != nil {
		t.Fatalf("stock: %v", err)
	}

	listings, err := mkt.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("listings = %v", listings)
	}
	// Items sorted by id, offers cheapest first.
	if listings[0].ItemID != "coal" || listings[1].ItemID != "iron_ingot" {
		t.Fatalf("item order = %s, %s", listings[0].ItemID, listings[1].ItemID)
	}
	iron := listings[1]
	if len(iron.Offers) != 2 {
		t.Fatalf("iron offers = %v", iron.Offers)
	}
	if iron.Offers[0].SellerUUID != "s2" || iron.Offers[0].UnitPrice != 5 {
		t.Fatalf("cheapest offer = %+v", iron.Offers[0])
	}
	if iron.Offers[1].SellerUUID != "s1" || iron.Offers[1].UnitPrice != 7 {
		t.Fatalf("second offer = %+v", iron.Offers[1])
	}
}
