package store

import (
	"errors"
	"testing"

	"github.com/dukerupert/larder/internal/model"
)

func TestShoppingCRUD(t *testing.T) {
	is, ss, _ := setupTestDB(t)

	inv, _ := is.Create("Coffee", "beverage", 0.05, false)

	bound, err := ss.Create("Coffee", &inv.ID, false)
	if err != nil {
		t.Fatalf("create bound item: %v", err)
	}
	if bound.InventoryID == nil || *bound.InventoryID != inv.ID {
		t.Errorf("inventory_id = %v, want %s", bound.InventoryID, inv.ID)
	}
	if bound.IsTemporary || bound.IsChecked {
		t.Error("new item should be non-temporary and unchecked")
	}

	misc, err := ss.Create("Birthday candles", nil, true)
	if err != nil {
		t.Fatalf("create misc item: %v", err)
	}
	if misc.InventoryID != nil {
		t.Error("misc item must not reference inventory")
	}
	if !misc.IsTemporary {
		t.Error("misc item should be temporary")
	}

	if err := ss.SetChecked(bound.ID, true); err != nil {
		t.Fatalf("set checked: %v", err)
	}

	items, err := ss.FetchAll()
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != bound.ID || !items[0].IsChecked {
		t.Errorf("items[0] = %+v, want checked bound item first (creation order)", items[0])
	}

	if err := ss.Delete(misc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ss.DeleteAll(); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	items, _ = ss.FetchAll()
	if len(items) != 0 {
		t.Errorf("expected empty list, got %d", len(items))
	}
}

func TestShoppingMutationsOnMissingIDReturnNotFound(t *testing.T) {
	_, ss, _ := setupTestDB(t)

	if err := ss.SetChecked("nope", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetChecked err = %v, want ErrNotFound", err)
	}
	if err := ss.UpdateName("nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateName err = %v, want ErrNotFound", err)
	}
	if err := ss.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete err = %v, want ErrNotFound", err)
	}
}

func TestShoppingGetByName(t *testing.T) {
	_, ss, _ := setupTestDB(t)

	ss.Create("Tape", nil, true)
	second, _ := ss.Create("Tape", nil, true)

	got, err := ss.GetByName("Tape")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got == nil || got.ID != second.ID {
		t.Errorf("got %+v, want most recent %s", got, second.ID)
	}

	missing, _ := ss.GetByName("Nothing")
	if missing != nil {
		t.Error("expected nil for unknown name")
	}
}

func TestWorkflowStateRoundTrip(t *testing.T) {
	_, _, ws := setupTestDB(t)

	// Absent record defaults to empty
	state, err := ws.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state != model.ShoppingStateEmpty {
		t.Errorf("default state = %q, want empty", state)
	}

	if err := ws.SetState(model.ShoppingStateShopping); err != nil {
		t.Fatalf("set state: %v", err)
	}
	state, _ = ws.GetState()
	if state != model.ShoppingStateShopping {
		t.Errorf("state = %q, want shopping", state)
	}

	// Overwrite
	if err := ws.SetState(model.ShoppingStateEmpty); err != nil {
		t.Fatalf("set state: %v", err)
	}
	state, _ = ws.GetState()
	if state != model.ShoppingStateEmpty {
		t.Errorf("state = %q, want empty", state)
	}
}
