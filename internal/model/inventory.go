package model

import "time"

// RestockThreshold is the stock level at or below which an item is
// considered in need of restocking.
const RestockThreshold = 0.25

// InventoryItem is a tracked household consumable. Quantity is a fill level
// in [0, 1] rather than a unit count.
type InventoryItem struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Subcategory     string      `json:"subcategory"`
	Quantity        float64     `json:"quantity"`
	IsCustom        bool        `json:"is_custom"`
	PurchaseHistory []time.Time `json:"purchase_history,omitempty"`
	LastUpdated     time.Time   `json:"last_updated"`
	CreatedAt       time.Time   `json:"created_at"`
}

// NeedsRestocking reports whether the item's stock level is at or below the
// restock threshold. Derived, never stored.
func (i *InventoryItem) NeedsRestocking() bool {
	return i.Quantity <= RestockThreshold
}

// Clone returns a deep copy safe to hand to callers outside the catalog.
func (i *InventoryItem) Clone() InventoryItem {
	c := *i
	if i.PurchaseHistory != nil {
		c.PurchaseHistory = make([]time.Time, len(i.PurchaseHistory))
		copy(c.PurchaseHistory, i.PurchaseHistory)
	}
	return c
}
