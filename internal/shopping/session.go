// Package shopping owns the shopping list and the four-state workflow that
// gates it.
//
// The workflow is a single process-wide value:
//
//	Empty -> Generating -> ListReady -> Shopping -> Empty
//
// with cancel returning to Empty from any non-Empty state. Operations called
// outside their legal states are no-ops. Completing a trip restocks every
// checked, non-temporary entry through the catalog; cancelling discards the
// list without touching it.
package shopping

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/larder/internal/bridge"
	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

var (
	ErrBlankName     = errors.New("name must not be blank")
	ErrAlreadyListed = errors.New("item is already on the list")
)

// Event describes one logical change to the shopping session.
type Event struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

type Observer func(Event)

// Session is the exclusive owner of the shopping list and workflow state.
type Session struct {
	mu    sync.Mutex
	state model.ShoppingState
	items []*model.ShoppingItem
	byID  map[string]*model.ShoppingItem

	catalog  *catalog.Catalog
	store    *store.ShoppingStore
	workflow *store.WorkflowStore
	bridge   *bridge.Bridge
	logger   *slog.Logger
	now      func() time.Time

	observers []Observer
}

// New creates a Session and wires it to the catalog's cascade, rename and
// rebind hooks.
func New(cat *catalog.Catalog, st *store.ShoppingStore, wf *store.WorkflowStore, b *bridge.Bridge, logger *slog.Logger) *Session {
	s := &Session{
		state:    model.ShoppingStateEmpty,
		byID:     make(map[string]*model.ShoppingItem),
		catalog:  cat,
		store:    st,
		workflow: wf,
		bridge:   b,
		logger:   logger,
		now:      time.Now,
	}
	cat.OnItemRemoved(s.handleCatalogRemoval)
	cat.OnItemRenamed(s.handleCatalogRename)
	cat.OnItemRebound(s.handleCatalogRebound)
	return s
}

// Load rehydrates the list and workflow state from the durable store so an
// unexpected restart resumes in the correct phase.
func (s *Session) Load() error {
	items, err := s.store.FetchAll()
	if err != nil {
		return err
	}
	state, err := s.workflow.GetState()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.items[:0]
	clear(s.byID)
	for i := range items {
		item := items[i]
		s.items = append(s.items, &item)
		s.byID[item.ID] = &item
	}
	s.state = state
	return nil
}

func (s *Session) Subscribe(fn Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Session) notify(e Event) {
	s.mu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(e)
	}
}

// State returns the current workflow state.
func (s *Session) State() model.ShoppingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Items returns the list in creation order, as copies.
func (s *Session) Items() []model.ShoppingItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ShoppingItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	return out
}

// StartGenerating snapshots the catalog's attention items (already ordered
// most-depleted-first) into a fresh list and enters Generating. Legal only
// from Empty.
func (s *Session) StartGenerating() bool {
	attention := s.catalog.ItemsNeedingAttention()
	now := s.now().UTC()

	s.mu.Lock()
	if s.state != model.ShoppingStateEmpty {
		s.mu.Unlock()
		s.logger.Debug("start generating refused", "state", s.state)
		return false
	}

	hadStale := len(s.items) > 0
	s.items = s.items[:0]
	clear(s.byID)

	var created []string
	for _, inv := range attention {
		invID := inv.ID
		item := &model.ShoppingItem{
			ID:          uuid.NewString(),
			Name:        inv.Name,
			InventoryID: &invID,
			CreatedAt:   now,
		}
		s.items = append(s.items, item)
		s.byID[item.ID] = item
		created = append(created, item.ID)
	}
	s.state = model.ShoppingStateGenerating
	s.mu.Unlock()

	s.notify(Event{Entity: "shopping", Action: "generation_started"})

	if hadStale {
		s.submitClearAll()
	}
	for _, id := range created {
		s.submitItemCreate(id)
	}
	s.submitState(model.ShoppingStateGenerating)
	return true
}

// Finalize freezes the list: no additions or removals past this point.
// Legal only from Generating.
func (s *Session) Finalize() bool {
	if !s.transition(model.ShoppingStateGenerating, model.ShoppingStateListReady) {
		return false
	}
	s.notify(Event{Entity: "shopping", Action: "finalized"})
	s.submitState(model.ShoppingStateListReady)
	return true
}

// StartShopping unlocks toggling. Legal only from ListReady.
func (s *Session) StartShopping() bool {
	if !s.transition(model.ShoppingStateListReady, model.ShoppingStateShopping) {
		return false
	}
	s.notify(Event{Entity: "shopping", Action: "shopping_started"})
	s.submitState(model.ShoppingStateShopping)
	return true
}

func (s *Session) transition(from, to model.ShoppingState) bool {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		s.logger.Debug("transition refused", "from", s.state, "to", to)
		return false
	}
	s.state = to
	s.mu.Unlock()
	return true
}

// AddMiscItem adds a temporary entry with no catalog binding. Legal while
// Generating and, for mid-trip plan changes, while Shopping. Returns nil
// without error when the state forbids it.
func (s *Session) AddMiscItem(name string) (*model.ShoppingItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBlankName
	}
	now := s.now().UTC()

	s.mu.Lock()
	if s.state != model.ShoppingStateGenerating && s.state != model.ShoppingStateShopping {
		s.mu.Unlock()
		s.logger.Debug("add misc item refused", "state", s.state)
		return nil, nil
	}
	item := &model.ShoppingItem{
		ID:          uuid.NewString(),
		Name:        name,
		IsTemporary: true,
		CreatedAt:   now,
	}
	s.items = append(s.items, item)
	s.byID[item.ID] = item
	s.mu.Unlock()

	s.notify(Event{Entity: "shopping", Action: "item_added", ID: item.ID})
	s.submitItemCreate(item.ID)

	out := item.Clone()
	return &out, nil
}

// AddCatalogItem adds a non-temporary entry bound to an inventory item, for
// ad-hoc additions beyond the generated list. Legal while Generating or
// Shopping. The same inventory item is never listed twice.
func (s *Session) AddCatalogItem(inventoryID string) (*model.ShoppingItem, error) {
	inv, ok := s.catalog.Get(inventoryID)
	if !ok {
		return nil, nil
	}
	now := s.now().UTC()

	s.mu.Lock()
	if s.state != model.ShoppingStateGenerating && s.state != model.ShoppingStateShopping {
		s.mu.Unlock()
		s.logger.Debug("add catalog item refused", "state", s.state)
		return nil, nil
	}
	for _, existing := range s.items {
		if existing.InventoryID != nil && *existing.InventoryID == inventoryID {
			s.mu.Unlock()
			return nil, ErrAlreadyListed
		}
	}
	invID := inv.ID
	item := &model.ShoppingItem{
		ID:          uuid.NewString(),
		Name:        inv.Name,
		InventoryID: &invID,
		CreatedAt:   now,
	}
	s.items = append(s.items, item)
	s.byID[item.ID] = item
	s.mu.Unlock()

	s.notify(Event{Entity: "shopping", Action: "item_added", ID: item.ID})
	s.submitItemCreate(item.ID)

	out := item.Clone()
	return &out, nil
}

// RemoveFromList drops an entry while the list is still being built. Legal
// only while Generating.
func (s *Session) RemoveFromList(id string) bool {
	s.mu.Lock()
	if s.state != model.ShoppingStateGenerating {
		s.mu.Unlock()
		s.logger.Debug("remove from list refused", "state", s.state)
		return false
	}
	item, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	name := item.Name
	s.removeLocked(id)
	s.mu.Unlock()

	s.notify(Event{Entity: "shopping", Action: "item_removed", ID: id})
	s.submitItemDelete(id, name)
	return true
}

// Toggle flips an entry's checked flag. Legal only while Shopping.
func (s *Session) Toggle(id string) bool {
	s.mu.Lock()
	if s.state != model.ShoppingStateShopping {
		s.mu.Unlock()
		s.logger.Debug("toggle refused", "state", s.state)
		return false
	}
	item, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	item.IsChecked = !item.IsChecked
	checked := item.IsChecked
	name := item.Name
	s.mu.Unlock()

	s.notify(Event{Entity: "shopping", Action: "item_toggled", ID: id})

	s.bridge.Submit(bridge.Job{
		Entity: "shopping",
		Op:     "set_checked",
		ID:     id,
		Name:   name,
		Write: func(writeID string) error {
			return s.store.SetChecked(writeID, checked)
		},
		Lookup: s.lookupByName,
		Rebind: s.rebind(id),
	})
	return true
}

// CompleteAndRestore finishes the trip: every checked, non-temporary entry
// restocks its inventory item; everything else is discarded. Clears the
// list and returns to Empty. Legal only from Shopping.
func (s *Session) CompleteAndRestore() bool {
	s.mu.Lock()
	if s.state != model.ShoppingStateShopping {
		s.mu.Unlock()
		s.logger.Debug("complete refused", "state", s.state)
		return false
	}
	var restockIDs []string
	for _, item := range s.items {
		if item.IsChecked && !item.IsTemporary && item.InventoryID != nil {
			restockIDs = append(restockIDs, *item.InventoryID)
		}
	}
	s.items = s.items[:0]
	clear(s.byID)
	s.state = model.ShoppingStateEmpty
	s.mu.Unlock()

	for _, invID := range restockIDs {
		s.catalog.Restock(invID)
	}

	s.notify(Event{Entity: "shopping", Action: "completed"})
	s.submitClearAll()
	s.submitState(model.ShoppingStateEmpty)
	return true
}

// Cancel discards the whole list without touching the catalog. Legal from
// any non-Empty state.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.state == model.ShoppingStateEmpty {
		s.mu.Unlock()
		s.logger.Debug("cancel refused, workflow already empty")
		return false
	}
	s.items = s.items[:0]
	clear(s.byID)
	s.state = model.ShoppingStateEmpty
	s.mu.Unlock()

	s.notify(Event{Entity: "shopping", Action: "cancelled"})
	s.submitClearAll()
	s.submitState(model.ShoppingStateEmpty)
	return true
}

// handleCatalogRemoval is the cascade rule: deleting an inventory item
// deletes any entry bound to it, and an emptied list forces the workflow
// back to Empty even though no workflow command ran.
func (s *Session) handleCatalogRemoval(inventoryID string) {
	type removal struct{ id, name string }

	s.mu.Lock()
	var removed []removal
	for _, item := range s.items {
		if item.InventoryID != nil && *item.InventoryID == inventoryID {
			removed = append(removed, removal{item.ID, item.Name})
		}
	}
	for _, r := range removed {
		s.removeLocked(r.id)
	}
	autoEmptied := len(removed) > 0 && len(s.items) == 0 && s.state != model.ShoppingStateEmpty
	if autoEmptied {
		s.state = model.ShoppingStateEmpty
	}
	s.mu.Unlock()

	for _, r := range removed {
		s.notify(Event{Entity: "shopping", Action: "item_removed", ID: r.id})
		s.submitItemDelete(r.id, r.name)
	}
	if autoEmptied {
		s.logger.Info("shopping list emptied by catalog deletion, workflow reset")
		s.notify(Event{Entity: "shopping", Action: "auto_emptied"})
		s.submitState(model.ShoppingStateEmpty)
	}
}

// handleCatalogRename keeps the denormalized name copies in sync.
func (s *Session) handleCatalogRename(inventoryID, newName string) {
	type rename struct{ id, oldName string }

	s.mu.Lock()
	var renamed []rename
	for _, item := range s.items {
		if item.InventoryID != nil && *item.InventoryID == inventoryID {
			renamed = append(renamed, rename{item.ID, item.Name})
			item.Name = newName
		}
	}
	s.mu.Unlock()

	for _, r := range renamed {
		s.notify(Event{Entity: "shopping", Action: "item_renamed", ID: r.id})
		oldName := r.oldName
		s.bridge.Submit(bridge.Job{
			Entity: "shopping",
			Op:     "update_name",
			ID:     r.id,
			Name:   oldName,
			Write: func(writeID string) error {
				return s.store.UpdateName(writeID, newName)
			},
			Lookup: s.lookupByName,
			Rebind: s.rebind(r.id),
		})
	}
}

// handleCatalogRebound follows inventory id rewrites so bindings never
// point at an id the catalog no longer knows.
func (s *Session) handleCatalogRebound(oldID, newID string) {
	s.mu.Lock()
	for _, item := range s.items {
		if item.InventoryID != nil && *item.InventoryID == oldID {
			bound := newID
			item.InventoryID = &bound
		}
	}
	s.mu.Unlock()
}

// removeLocked removes one item; caller holds s.mu.
func (s *Session) removeLocked(id string) {
	delete(s.byID, id)
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// submitItemCreate persists a new list entry. Name and binding are resolved
// when the job runs, not when it is submitted: the bridge is FIFO, so by
// then any inventory create this entry depends on has already been assigned
// its durable id.
func (s *Session) submitItemCreate(localID string) {
	s.mu.Lock()
	item, ok := s.byID[localID]
	if !ok {
		s.mu.Unlock()
		return
	}
	snapshot := item.Clone()
	s.mu.Unlock()

	s.bridge.Submit(bridge.Job{
		Entity: "shopping",
		Op:     "create",
		ID:     localID,
		Name:   snapshot.Name,
		Create: func() (string, error) {
			name, invID, temporary := snapshot.Name, snapshot.InventoryID, snapshot.IsTemporary
			s.mu.Lock()
			if current, ok := s.byID[localID]; ok {
				name = current.Name
				invID = current.InventoryID
				temporary = current.IsTemporary
			}
			s.mu.Unlock()

			rec, err := s.store.Create(name, invID, temporary)
			if err != nil {
				return "", err
			}
			return rec.ID, nil
		},
		Rebind: s.rebind(localID),
	})
}

func (s *Session) submitItemDelete(id, name string) {
	s.bridge.Submit(bridge.Job{
		Entity: "shopping",
		Op:     "delete",
		ID:     id,
		Name:   name,
		Write:  s.store.Delete,
		Lookup: s.lookupByName,
	})
}

func (s *Session) submitClearAll() {
	s.bridge.Submit(bridge.Job{
		Entity: "shopping",
		Op:     "delete_all",
		ID:     "all",
		Write: func(string) error {
			return s.store.DeleteAll()
		},
	})
}

// submitState persists a workflow transition. The bridge is FIFO, so the
// last transition's value is always the last write a restart can observe.
func (s *Session) submitState(state model.ShoppingState) {
	s.bridge.Submit(bridge.Job{
		Entity: "workflow",
		Op:     "set_state",
		ID:     "shopping_state",
		Write: func(string) error {
			return s.workflow.SetState(state)
		},
	})
}

func (s *Session) lookupByName(name string) (string, error) {
	item, err := s.store.GetByName(name)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", nil
	}
	return item.ID, nil
}

func (s *Session) rebind(oldID string) func(string) {
	return func(durableID string) {
		if durableID == oldID {
			return
		}
		s.mu.Lock()
		if item, ok := s.byID[oldID]; ok {
			delete(s.byID, oldID)
			item.ID = durableID
			s.byID[durableID] = item
		}
		s.mu.Unlock()
	}
}

