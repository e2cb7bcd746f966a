package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/taxonomy"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// Recommendation is one advisory message derived from current catalog state.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

const (
	criticalStockLevel = 0.10
	imbalanceShare     = 0.6
	imbalanceMinItems  = 5
	routeMinAisles     = 4
	bulkWindow         = 30 * 24 * time.Hour
	bulkMinRestocks    = 3
)

// Recommendations generates prioritized advisory messages. Generation order
// is fixed; the stable sort afterwards only lifts higher tiers, preserving
// the generation order within a tier.
func (c *Catalog) Recommendations(now time.Time) []Recommendation {
	c.mu.Lock()
	items := make([]model.InventoryItem, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item.Clone())
	}
	c.mu.Unlock()

	var recs []Recommendation
	add := func(p Priority, format string, args ...any) {
		recs = append(recs, Recommendation{Priority: p, Message: fmt.Sprintf(format, args...)})
	}

	var expiredKitchen, expiredOther, nearExpiry, critical []model.InventoryItem
	for _, item := range items {
		cat := taxonomy.CategoryOf(taxonomy.Subcategory(item.Subcategory))
		switch FreshnessOf(item, now) {
		case FreshnessExpired:
			if taxonomy.Kitchen(cat) {
				expiredKitchen = append(expiredKitchen, item)
			} else {
				expiredOther = append(expiredOther, item)
			}
		case FreshnessNearExpiry:
			nearExpiry = append(nearExpiry, item)
		}
		if item.Quantity <= criticalStockLevel {
			critical = append(critical, item)
		}
	}

	if len(expiredKitchen) > 0 {
		add(PriorityHigh, "%d kitchen item(s) past their freshness window: %s. Check before your next meal.",
			len(expiredKitchen), itemNames(expiredKitchen))
	}
	if len(expiredOther) > 0 {
		add(PriorityMedium, "%d item(s) haven't been updated past their staleness window: %s.",
			len(expiredOther), itemNames(expiredOther))
	}
	if len(nearExpiry) > 0 {
		add(PriorityMedium, "%d item(s) approaching their freshness window: %s.",
			len(nearExpiry), itemNames(nearExpiry))
	}
	if len(critical) > 0 {
		add(PriorityMedium, "%d item(s) critically low (10%% or less): %s.",
			len(critical), itemNames(critical))
	}

	if rec, ok := imbalanceRecommendation(items); ok {
		recs = append(recs, rec)
	}
	if rec, ok := routeRecommendation(items); ok {
		recs = append(recs, rec)
	}
	if rec, ok := bulkRecommendation(items, now); ok {
		recs = append(recs, rec)
	}

	if len(recs) == 0 {
		add(PriorityLow, "Stock levels look good. Nothing needs attention right now.")
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
	return recs
}

// imbalanceRecommendation fires when one category dominates the catalog.
func imbalanceRecommendation(items []model.InventoryItem) (Recommendation, bool) {
	if len(items) < imbalanceMinItems {
		return Recommendation{}, false
	}
	counts := make(map[taxonomy.Category]int)
	for _, item := range items {
		counts[taxonomy.CategoryOf(taxonomy.Subcategory(item.Subcategory))]++
	}
	if len(counts) < 2 {
		return Recommendation{}, false
	}
	var topCat taxonomy.Category
	top := 0
	for cat, n := range counts {
		if n > top {
			top, topCat = n, cat
		}
	}
	if float64(top)/float64(len(items)) <= imbalanceShare {
		return Recommendation{}, false
	}
	return Recommendation{
		Priority: PriorityLow,
		Message:  fmt.Sprintf("Your catalog leans heavily on the %s category. Consider tracking other areas of the house too.", topCat),
	}, true
}

// routeRecommendation fires when the restock run spans enough subcategories
// to be worth planning by aisle.
func routeRecommendation(items []model.InventoryItem) (Recommendation, bool) {
	aisles := make(map[string]struct{})
	for _, item := range items {
		if item.NeedsRestocking() {
			aisles[item.Subcategory] = struct{}{}
		}
	}
	if len(aisles) < routeMinAisles {
		return Recommendation{}, false
	}
	return Recommendation{
		Priority: PriorityLow,
		Message:  fmt.Sprintf("Your restock run spans %d aisles. The generated list is ordered by urgency; shop one aisle at a time to keep the trip short.", len(aisles)),
	}, true
}

// bulkRecommendation fires for items restocked repeatedly within the window.
func bulkRecommendation(items []model.InventoryItem, now time.Time) (Recommendation, bool) {
	cutoff := now.Add(-bulkWindow)
	for _, item := range items {
		recent := 0
		for _, at := range item.PurchaseHistory {
			if at.After(cutoff) {
				recent++
			}
		}
		if recent >= bulkMinRestocks {
			return Recommendation{
				Priority: PriorityLow,
				Message:  fmt.Sprintf("You've restocked %s %d times this month. Buying a larger size could save trips.", item.Name, recent),
			}, true
		}
	}
	return Recommendation{}, false
}

func itemNames(items []model.InventoryItem) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return strings.Join(names, ", ")
}
