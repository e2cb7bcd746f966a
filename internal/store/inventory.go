package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/larder/internal/model"
)

// InventoryStore persists inventory items. It assigns durable ids itself;
// callers that assigned an optimistic local id are expected to mirror the
// durable id back (see the bridge package).
type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

const inventoryCols = `id, name, subcategory, quantity, is_custom, last_updated, created_at`

func scanInventoryItem(scanner interface{ Scan(...any) error }) (*model.InventoryItem, error) {
	var item model.InventoryItem
	var isCustom int

	err := scanner.Scan(
		&item.ID, &item.Name, &item.Subcategory, &item.Quantity,
		&isCustom, &item.LastUpdated, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.IsCustom = isCustom != 0
	return &item, nil
}

// FetchAll returns every inventory item with its purchase history attached,
// ordered by creation time.
func (s *InventoryStore) FetchAll() ([]model.InventoryItem, error) {
	rows, err := s.db.Query(`SELECT ` + inventoryCols + ` FROM inventory_items ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	index := make(map[string]int)
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		index[item.ID] = len(items)
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	history, err := s.db.Query(`SELECT item_id, restocked_at FROM restock_events ORDER BY restocked_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("fetch restock events: %w", err)
	}
	defer history.Close()

	for history.Next() {
		var itemID string
		var at time.Time
		if err := history.Scan(&itemID, &at); err != nil {
			return nil, fmt.Errorf("scan restock event: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].PurchaseHistory = append(items[i].PurchaseHistory, at)
		}
	}
	return items, history.Err()
}

func (s *InventoryStore) GetByID(id string) (*model.InventoryItem, error) {
	row := s.db.QueryRow(`SELECT `+inventoryCols+` FROM inventory_items WHERE id = ?`, id)
	item, err := scanInventoryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	if err := s.attachHistory(item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetByName returns the most recently created item with the given name, or
// nil when none exists. Secondary lookup for identity reconciliation.
func (s *InventoryStore) GetByName(name string) (*model.InventoryItem, error) {
	row := s.db.QueryRow(
		`SELECT `+inventoryCols+` FROM inventory_items WHERE name = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		name,
	)
	item, err := scanInventoryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item by name: %w", err)
	}
	return item, nil
}

func (s *InventoryStore) attachHistory(item *model.InventoryItem) error {
	rows, err := s.db.Query(
		`SELECT restocked_at FROM restock_events WHERE item_id = ? ORDER BY restocked_at ASC, id ASC`,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("fetch restock events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return fmt.Errorf("scan restock event: %w", err)
		}
		item.PurchaseHistory = append(item.PurchaseHistory, at)
	}
	return rows.Err()
}

// Create inserts a new inventory item and returns the stored record,
// including the durable id the store assigned.
func (s *InventoryStore) Create(name string, subcategory string, quantity float64, isCustom bool) (*model.InventoryItem, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	custom := 0
	if isCustom {
		custom = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO inventory_items (id, name, subcategory, quantity, is_custom, last_updated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, subcategory, quantity, custom, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert inventory item: %w", err)
	}

	return &model.InventoryItem{
		ID:          id,
		Name:        name,
		Subcategory: subcategory,
		Quantity:    quantity,
		IsCustom:    isCustom,
		LastUpdated: now,
		CreatedAt:   now,
	}, nil
}

func (s *InventoryStore) UpdateQuantity(id string, quantity float64, updatedAt time.Time) error {
	result, err := s.db.Exec(
		`UPDATE inventory_items SET quantity = ?, last_updated = ? WHERE id = ?`,
		quantity, updatedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	return checkFound(result)
}

func (s *InventoryStore) UpdateName(id string, name string) error {
	result, err := s.db.Exec(`UPDATE inventory_items SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	return checkFound(result)
}

// Restock sets the item to full, stamps last_updated, and appends one
// purchase-history event, atomically.
func (s *InventoryStore) Restock(id string, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin restock: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE inventory_items SET quantity = 1.0, last_updated = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("restock update: %w", err)
	}
	if err := checkFound(result); err != nil {
		return err
	}

	if _, err := tx.Exec(
		`INSERT INTO restock_events (item_id, restocked_at) VALUES (?, ?)`,
		id, at.UTC(),
	); err != nil {
		return fmt.Errorf("insert restock event: %w", err)
	}

	return tx.Commit()
}

func (s *InventoryStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}
	return checkFound(result)
}

func (s *InventoryStore) DeleteAll() error {
	if _, err := s.db.Exec(`DELETE FROM inventory_items`); err != nil {
		return fmt.Errorf("delete all inventory items: %w", err)
	}
	return nil
}

func checkFound(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
