package model

import "time"

// ShoppingItem is one entry on the shopping list. Non-temporary items carry
// a reference to the inventory item they restock; temporary ("misc") items
// never do.
type ShoppingItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	InventoryID *string   `json:"inventory_id,omitempty"`
	IsTemporary bool      `json:"is_temporary"`
	IsChecked   bool      `json:"is_checked"`
	CreatedAt   time.Time `json:"created_at"`
}

// Clone returns a copy safe to hand to callers outside the session.
func (i *ShoppingItem) Clone() ShoppingItem {
	c := *i
	if i.InventoryID != nil {
		id := *i.InventoryID
		c.InventoryID = &id
	}
	return c
}

// ShoppingState is the single process-wide workflow phase gating which
// shopping operations are legal.
type ShoppingState string

const (
	ShoppingStateEmpty      ShoppingState = "empty"
	ShoppingStateGenerating ShoppingState = "generating"
	ShoppingStateListReady  ShoppingState = "list_ready"
	ShoppingStateShopping   ShoppingState = "shopping"
)

// ParseShoppingState maps a stored value back to a ShoppingState. Unknown or
// empty values fall back to ShoppingStateEmpty so a corrupt or missing record
// never wedges the workflow.
func ParseShoppingState(s string) ShoppingState {
	switch ShoppingState(s) {
	case ShoppingStateGenerating, ShoppingStateListReady, ShoppingStateShopping:
		return ShoppingState(s)
	default:
		return ShoppingStateEmpty
	}
}
