package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/shopping"
)

type ShoppingHandler struct {
	session *shopping.Session
	logger  *slog.Logger
}

func NewShoppingHandler(s *shopping.Session, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{session: s, logger: logger}
}

type sessionResponse struct {
	State model.ShoppingState  `json:"state"`
	Items []model.ShoppingItem `json:"items"`
}

func (h *ShoppingHandler) sessionBody() sessionResponse {
	items := h.session.Items()
	if items == nil {
		items = []model.ShoppingItem{}
	}
	return sessionResponse{State: h.session.State(), Items: items}
}

// Get returns the current workflow state and list.
func (h *ShoppingHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionBody())
}

// Generate starts a new list from the restock candidates.
func (h *ShoppingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.session.StartGenerating, "cannot generate: a session is already in progress")
}

// Finalize freezes the list.
func (h *ShoppingHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.session.Finalize, "cannot finalize: no list is being generated")
}

// Start begins the in-store phase.
func (h *ShoppingHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.session.StartShopping, "cannot start shopping: list is not finalized")
}

// Complete finishes the trip and restocks checked items.
func (h *ShoppingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.session.CompleteAndRestore, "cannot complete: not currently shopping")
}

// Cancel discards the session from any active state.
func (h *ShoppingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.session.Cancel, "cannot cancel: no session in progress")
}

func (h *ShoppingHandler) transition(w http.ResponseWriter, op func() bool, refusedMsg string) {
	if !op() {
		writeError(w, http.StatusConflict, refusedMsg)
		return
	}
	writeJSON(w, http.StatusOK, h.sessionBody())
}

type shoppingItemRequest struct {
	Name        string `json:"name"`
	InventoryID string `json:"inventory_id"`
}

// AddItem adds either a catalog-bound entry (inventory_id set) or a
// temporary misc entry (name set).
func (h *ShoppingHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req shoppingItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var item *model.ShoppingItem
	var err error
	if req.InventoryID != "" {
		item, err = h.session.AddCatalogItem(req.InventoryID)
	} else {
		item, err = h.session.AddMiscItem(req.Name)
	}

	switch {
	case errors.Is(err, shopping.ErrBlankName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shopping.ErrAlreadyListed):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		h.logger.Error("add shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add item")
	case item == nil:
		writeError(w, http.StatusConflict, "items cannot be added in the current state")
	default:
		writeJSON(w, http.StatusCreated, item)
	}
}

func (h *ShoppingHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.session.RemoveFromList(r.PathValue("id")) {
		writeError(w, http.StatusConflict, "item cannot be removed in the current state")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle flips an entry's checked flag during the in-store phase.
func (h *ShoppingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if !h.session.Toggle(r.PathValue("id")) {
		writeError(w, http.StatusConflict, "item cannot be toggled in the current state")
		return
	}
	writeJSON(w, http.StatusOK, h.sessionBody())
}
