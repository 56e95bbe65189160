// shared/models/market.go
package models

// StallItem is one kind of item a seller has put up, with its asking price
// per unit. Count 0 or UnitPrice 0 means the entry is not for sale and is
// skipped when listings are aggregated.
type StallItem struct {
	ItemID    string `json:"itemId"`
	Count     uint64 `json:"count"`
	UnitPrice Coins  `json:"unitPrice"`
}

// ItemStore is a seller's market stall: the per-player record holding
// everything they currently offer. One record per player, keyed by seller.
type ItemStore struct {
	SellerUUID string      `json:"sellerUuid"`
	Items      []StallItem `json:"items"`
}

// Item returns the index of the entry for itemID, or -1.
func (s *ItemStore) Item(itemID string) int {
	for i, it := range s.Items {
		if it.ItemID == itemID {
			return i
		}
	}
	return -1
}

// Offer is one seller's position inside an aggregated listing.
type Offer struct {
	SellerUUID string `json:"sellerUuid"`
	Count      uint64 `json:"count"`
	UnitPrice  Coins  `json:"unitPrice"`
}

// Listing is the read-time aggregate of every offer for one item across all
// stalls. It is never stored: listings are rebuilt from a stall scan on each
// request and may be stale the moment they are returned, which is fine
// because a purchase re-validates everything at commit time.
type Listing struct {
	ItemID string  `json:"itemId"`
	Offers []Offer `json:"offers"`
}
