package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/larder/internal/model"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

const shoppingCols = `id, name, inventory_id, is_temporary, is_checked, created_at`

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var inventoryID sql.NullString
	var temporary, checked int

	err := scanner.Scan(&item.ID, &item.Name, &inventoryID, &temporary, &checked, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	if inventoryID.Valid {
		item.InventoryID = &inventoryID.String
	}
	item.IsTemporary = temporary != 0
	item.IsChecked = checked != 0
	return &item, nil
}

func (s *ShoppingStore) FetchAll() ([]model.ShoppingItem, error) {
	rows, err := s.db.Query(`SELECT ` + shoppingCols + ` FROM shopping_items ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("fetch shopping items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetByName returns the most recently created shopping item with the given
// name, or nil. Secondary lookup for identity reconciliation.
func (s *ShoppingStore) GetByName(name string) (*model.ShoppingItem, error) {
	row := s.db.QueryRow(
		`SELECT `+shoppingCols+` FROM shopping_items WHERE name = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		name,
	)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item by name: %w", err)
	}
	return item, nil
}

func (s *ShoppingStore) Create(name string, inventoryID *string, isTemporary bool) (*model.ShoppingItem, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	var invID sql.NullString
	if inventoryID != nil {
		invID = sql.NullString{String: *inventoryID, Valid: true}
	}
	temporary := 0
	if isTemporary {
		temporary = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO shopping_items (id, name, inventory_id, is_temporary, is_checked, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		id, name, invID, temporary, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}

	item := &model.ShoppingItem{
		ID:          id,
		Name:        name,
		IsTemporary: isTemporary,
		CreatedAt:   now,
	}
	if inventoryID != nil {
		bound := *inventoryID
		item.InventoryID = &bound
	}
	return item, nil
}

func (s *ShoppingStore) SetChecked(id string, checked bool) error {
	val := 0
	if checked {
		val = 1
	}
	result, err := s.db.Exec(`UPDATE shopping_items SET is_checked = ? WHERE id = ?`, val, id)
	if err != nil {
		return fmt.Errorf("set checked: %w", err)
	}
	return checkFound(result)
}

func (s *ShoppingStore) UpdateName(id string, name string) error {
	result, err := s.db.Exec(`UPDATE shopping_items SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update shopping item name: %w", err)
	}
	return checkFound(result)
}

func (s *ShoppingStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM shopping_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return checkFound(result)
}

func (s *ShoppingStore) DeleteAll() error {
	if _, err := s.db.Exec(`DELETE FROM shopping_items`); err != nil {
		return fmt.Errorf("delete all shopping items: %w", err)
	}
	return nil
}
