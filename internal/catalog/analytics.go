package catalog

import (
	"sort"
	"time"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/taxonomy"
)

// Stats are recomputed on demand and never cached.
type Stats struct {
	TotalItems        int     `json:"total_items"`
	LowStockCount     int     `json:"low_stock_count"`
	AverageStockLevel float64 `json:"average_stock_level"`
	ActiveCategories  int     `json:"active_categories"`
}

func (c *Catalog) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{TotalItems: len(c.items)}
	if len(c.items) == 0 {
		return stats
	}

	var sum float64
	cats := make(map[taxonomy.Category]struct{})
	for _, item := range c.items {
		sum += item.Quantity
		if item.NeedsRestocking() {
			stats.LowStockCount++
		}
		cats[taxonomy.CategoryOf(taxonomy.Subcategory(item.Subcategory))] = struct{}{}
	}
	stats.AverageStockLevel = sum / float64(len(c.items))
	stats.ActiveCategories = len(cats)
	return stats
}

// ItemsNeedingAttention returns all items at or below the restock threshold,
// most depleted first. This ordering feeds shopping-list generation, so it
// must stay stable for equal quantities.
func (c *Catalog) ItemsNeedingAttention() []model.InventoryItem {
	c.mu.Lock()
	var out []model.InventoryItem
	for _, item := range c.items {
		if item.NeedsRestocking() {
			out = append(out, item.Clone())
		}
	}
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity < out[j].Quantity
	})
	return out
}

// Freshness classifies an item's age against its category threshold.
type Freshness string

const (
	FreshnessFresh      Freshness = "fresh"
	FreshnessNearExpiry Freshness = "near_expiry"
	FreshnessExpired    Freshness = "expired"
)

// nearExpiryFraction is the share of the staleness threshold at which an
// item starts counting as near-expiry.
const nearExpiryFraction = 0.8

// FreshnessOf classifies one item at the given instant.
func FreshnessOf(item model.InventoryItem, now time.Time) Freshness {
	threshold := taxonomy.StaleThreshold(taxonomy.CategoryOf(taxonomy.Subcategory(item.Subcategory)))
	age := now.Sub(item.LastUpdated)
	switch {
	case age >= threshold:
		return FreshnessExpired
	case float64(age) >= nearExpiryFraction*float64(threshold):
		return FreshnessNearExpiry
	default:
		return FreshnessFresh
	}
}

// Expired returns items whose age has reached their category threshold.
func (c *Catalog) Expired(now time.Time) []model.InventoryItem {
	return c.filterFreshness(now, FreshnessExpired)
}

// NearExpiry returns items at 80% or more of their threshold but not yet
// expired.
func (c *Catalog) NearExpiry(now time.Time) []model.InventoryItem {
	return c.filterFreshness(now, FreshnessNearExpiry)
}

// UrgentAttention is the union of expired and near-expiry items.
func (c *Catalog) UrgentAttention(now time.Time) []model.InventoryItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.InventoryItem
	for _, item := range c.items {
		if f := FreshnessOf(*item, now); f == FreshnessExpired || f == FreshnessNearExpiry {
			out = append(out, item.Clone())
		}
	}
	return out
}

func (c *Catalog) filterFreshness(now time.Time, want Freshness) []model.InventoryItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.InventoryItem
	for _, item := range c.items {
		if FreshnessOf(*item, now) == want {
			out = append(out, item.Clone())
		}
	}
	return out
}

// MostFrequentlyRestocked returns the item with the longest purchase
// history. The second return is false on an empty catalog.
func (c *Catalog) MostFrequentlyRestocked() (model.InventoryItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *model.InventoryItem
	for _, item := range c.items {
		if best == nil || len(item.PurchaseHistory) > len(best.PurchaseHistory) {
			best = item
		}
	}
	if best == nil {
		return model.InventoryItem{}, false
	}
	return best.Clone(), true
}

// LeastUsed returns the item with the oldest last-updated timestamp.
func (c *Catalog) LeastUsed() (model.InventoryItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *model.InventoryItem
	for _, item := range c.items {
		if best == nil || item.LastUpdated.Before(best.LastUpdated) {
			best = item
		}
	}
	if best == nil {
		return model.InventoryItem{}, false
	}
	return best.Clone(), true
}
