// Package catalog owns the in-memory inventory and its derived signals.
//
// Mutations follow the optimistic discipline from the bridge package: the
// in-memory item changes and observers fire before any I/O, then the
// durable write is submitted and never awaited. The presentation layer
// never blocks on storage and never sees persistence errors.
package catalog

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/larder/internal/bridge"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/taxonomy"
)

var (
	ErrBlankName          = errors.New("name must not be blank")
	ErrUnknownSubcategory = errors.New("unknown subcategory")
)

// Event describes one logical change to the catalog.
type Event struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id"`
}

type Observer func(Event)

// Catalog is the exclusive owner of all inventory items. All mutating calls
// must come from a single logical mutator context; the mutex only guards
// against the bridge worker rebinding ids concurrently.
type Catalog struct {
	mu    sync.Mutex
	items []*model.InventoryItem
	byID  map[string]*model.InventoryItem

	store  *store.InventoryStore
	bridge *bridge.Bridge
	logger *slog.Logger
	now    func() time.Time

	observers    []Observer
	removeHooks  []func(itemID string)
	renameHooks  []func(itemID, newName string)
	reboundHooks []func(oldID, newID string)
}

func New(st *store.InventoryStore, b *bridge.Bridge, logger *slog.Logger) *Catalog {
	return &Catalog{
		byID:   make(map[string]*model.InventoryItem),
		store:  st,
		bridge: b,
		logger: logger,
		now:    time.Now,
	}
}

// Load rehydrates the catalog from the durable store. Called once at
// startup; a failure here is fatal to the caller.
func (c *Catalog) Load() error {
	items, err := c.store.FetchAll()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = c.items[:0]
	clear(c.byID)
	for i := range items {
		item := items[i]
		c.items = append(c.items, &item)
		c.byID[item.ID] = &item
	}
	return nil
}

// Subscribe registers an observer invoked exactly once per logical change.
func (c *Catalog) Subscribe(fn Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// OnItemRemoved registers a cascade hook fired after an item is deleted.
func (c *Catalog) OnItemRemoved(fn func(itemID string)) {
	c.mu.Lock()
	c.removeHooks = append(c.removeHooks, fn)
	c.mu.Unlock()
}

// OnItemRenamed registers a hook fired after an item is renamed, so
// denormalized copies of the name can follow.
func (c *Catalog) OnItemRenamed(fn func(itemID, newName string)) {
	c.mu.Lock()
	c.renameHooks = append(c.renameHooks, fn)
	c.mu.Unlock()
}

// OnItemRebound registers a hook fired when a durable id replaces an
// optimistic local id, so by-id references elsewhere can follow.
func (c *Catalog) OnItemRebound(fn func(oldID, newID string)) {
	c.mu.Lock()
	c.reboundHooks = append(c.reboundHooks, fn)
	c.mu.Unlock()
}

func (c *Catalog) notify(e Event) {
	c.mu.Lock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(e)
	}
}

// Items returns every item in creation order, as copies.
func (c *Catalog) Items() []model.InventoryItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.InventoryItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item.Clone())
	}
	return out
}

// Get returns a copy of the item with the given id.
func (c *Catalog) Get(id string) (model.InventoryItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.byID[id]
	if !ok {
		return model.InventoryItem{}, false
	}
	return item.Clone(), true
}

// ListByCategory filters items whose derived category matches. Pure, no
// side effects.
func (c *Catalog) ListByCategory(cat taxonomy.Category) []model.InventoryItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.InventoryItem
	for _, item := range c.items {
		if taxonomy.CategoryOf(taxonomy.Subcategory(item.Subcategory)) == cat {
			out = append(out, item.Clone())
		}
	}
	return out
}

// ListBySubcategory filters items by stored subcategory.
func (c *Catalog) ListBySubcategory(sub taxonomy.Subcategory) []model.InventoryItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.InventoryItem
	for _, item := range c.items {
		if taxonomy.Subcategory(item.Subcategory) == sub {
			out = append(out, item.Clone())
		}
	}
	return out
}

// AddCustomItem creates a user-defined item. The quantity is clamped to
// [0, 1]; blank names and subcategories outside the taxonomy are rejected.
func (c *Catalog) AddCustomItem(name string, sub taxonomy.Subcategory, quantity float64) (model.InventoryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.InventoryItem{}, ErrBlankName
	}
	if !taxonomy.Valid(sub) {
		return model.InventoryItem{}, ErrUnknownSubcategory
	}
	quantity = clamp01(quantity)

	now := c.now().UTC()
	item := &model.InventoryItem{
		ID:          uuid.NewString(),
		Name:        name,
		Subcategory: string(sub),
		Quantity:    quantity,
		IsCustom:    true,
		LastUpdated: now,
		CreatedAt:   now,
	}

	c.mu.Lock()
	c.items = append(c.items, item)
	c.byID[item.ID] = item
	c.mu.Unlock()

	c.notify(Event{Entity: "inventory", Action: "created", ID: item.ID})

	localID := item.ID
	c.bridge.Submit(bridge.Job{
		Entity: "inventory",
		Op:     "create",
		ID:     localID,
		Name:   name,
		Create: func() (string, error) {
			rec, err := c.store.Create(name, string(sub), quantity, true)
			if err != nil {
				return "", err
			}
			return rec.ID, nil
		},
		Rebind: c.rebind(localID),
	})

	return item.Clone(), nil
}

// UpdateQuantity clamps and applies a new stock level. Observers are always
// notified, even when only the derived restocking predicate changed.
func (c *Catalog) UpdateQuantity(id string, quantity float64) bool {
	quantity = clamp01(quantity)
	now := c.now().UTC()

	c.mu.Lock()
	item, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("update quantity for unknown item", "id", id)
		return false
	}
	item.Quantity = quantity
	item.LastUpdated = now
	name := item.Name
	c.mu.Unlock()

	c.notify(Event{Entity: "inventory", Action: "quantity_updated", ID: id})

	c.bridge.Submit(bridge.Job{
		Entity: "inventory",
		Op:     "update_quantity",
		ID:     id,
		Name:   name,
		Write: func(writeID string) error {
			return c.store.UpdateQuantity(writeID, quantity, now)
		},
		Lookup: c.lookupByName,
		Rebind: c.rebind(id),
	})
	return true
}

// RenameItem rejects blank names and propagates the new name to any
// shopping entry referencing this item via the rename hooks.
func (c *Catalog) RenameItem(id string, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrBlankName
	}

	c.mu.Lock()
	item, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("rename unknown item", "id", id)
		return nil
	}
	oldName := item.Name
	item.Name = newName
	hooks := make([]func(string, string), len(c.renameHooks))
	copy(hooks, c.renameHooks)
	c.mu.Unlock()

	c.notify(Event{Entity: "inventory", Action: "renamed", ID: id})
	for _, fn := range hooks {
		fn(id, newName)
	}

	// Reconciliation must look up the name the store still has.
	c.bridge.Submit(bridge.Job{
		Entity: "inventory",
		Op:     "update_name",
		ID:     id,
		Name:   oldName,
		Write: func(writeID string) error {
			return c.store.UpdateName(writeID, newName)
		},
		Lookup: c.lookupByName,
		Rebind: c.rebind(id),
	})
	return nil
}

// RemoveItem deletes an item. Registered cascade hooks run after the
// in-memory removal, so the shopping session sheds its reference before
// any observer can re-read the list.
func (c *Catalog) RemoveItem(id string) bool {
	c.mu.Lock()
	item, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("remove unknown item", "id", id)
		return false
	}
	name := item.Name
	delete(c.byID, id)
	for i, it := range c.items {
		if it.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	hooks := make([]func(string), len(c.removeHooks))
	copy(hooks, c.removeHooks)
	c.mu.Unlock()

	c.notify(Event{Entity: "inventory", Action: "removed", ID: id})
	for _, fn := range hooks {
		fn(id)
	}

	c.bridge.Submit(bridge.Job{
		Entity: "inventory",
		Op:     "delete",
		ID:     id,
		Name:   name,
		Write:  c.store.Delete,
		Lookup: c.lookupByName,
	})
	return true
}

// Restock sets the item to full and records the purchase. Called by the
// shopping session on trip completion, never by the presentation layer.
func (c *Catalog) Restock(id string) bool {
	now := c.now().UTC()

	c.mu.Lock()
	item, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("restock unknown item", "id", id)
		return false
	}
	item.Quantity = 1.0
	item.PurchaseHistory = append(item.PurchaseHistory, now)
	item.LastUpdated = now
	name := item.Name
	c.mu.Unlock()

	c.notify(Event{Entity: "inventory", Action: "restocked", ID: id})

	c.bridge.Submit(bridge.Job{
		Entity: "inventory",
		Op:     "restock",
		ID:     id,
		Name:   name,
		Write: func(writeID string) error {
			return c.store.Restock(writeID, now)
		},
		Lookup: c.lookupByName,
		Rebind: c.rebind(id),
	})
	return true
}

func (c *Catalog) lookupByName(name string) (string, error) {
	item, err := c.store.GetByName(name)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", nil
	}
	return item.ID, nil
}

// rebind returns a closure that overwrites the in-memory id with the
// durable id the store assigned. Runs on the bridge worker.
func (c *Catalog) rebind(oldID string) func(string) {
	return func(durableID string) {
		if durableID == oldID {
			return
		}
		c.mu.Lock()
		item, ok := c.byID[oldID]
		var hooks []func(string, string)
		if ok {
			delete(c.byID, oldID)
			item.ID = durableID
			c.byID[durableID] = item
			hooks = make([]func(string, string), len(c.reboundHooks))
			copy(hooks, c.reboundHooks)
		}
		c.mu.Unlock()

		for _, fn := range hooks {
			fn(oldID, durableID)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
