package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/larder/internal/model"
)

const shoppingStateKey = "shopping_state"

// WorkflowStore persists the single process-wide shopping workflow state.
type WorkflowStore struct {
	db *sql.DB
}

func NewWorkflowStore(db *sql.DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

// GetState returns the persisted workflow state. Missing or unrecognized
// values come back as ShoppingStateEmpty.
func (s *WorkflowStore) GetState() (model.ShoppingState, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, shoppingStateKey).Scan(&value)
	if err == sql.ErrNoRows {
		return model.ShoppingStateEmpty, nil
	}
	if err != nil {
		return model.ShoppingStateEmpty, fmt.Errorf("get workflow state: %w", err)
	}
	return model.ParseShoppingState(value), nil
}

func (s *WorkflowStore) SetState(state model.ShoppingState) error {
	_, err := s.db.Exec(
		`INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		shoppingStateKey, string(state), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set workflow state: %w", err)
	}
	return nil
}
