package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/taxonomy"
)

type InventoryHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewInventoryHandler(c *catalog.Catalog, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{catalog: c, logger: logger}
}

type inventoryItemRequest struct {
	Name        string  `json:"name"`
	Subcategory string  `json:"subcategory"`
	Quantity    float64 `json:"quantity"`
}

// List returns the catalog, optionally filtered by ?category= or
// ?subcategory=.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var items []model.InventoryItem
	switch {
	case r.URL.Query().Get("category") != "":
		items = h.catalog.ListByCategory(taxonomy.Category(r.URL.Query().Get("category")))
	case r.URL.Query().Get("subcategory") != "":
		items = h.catalog.ListBySubcategory(taxonomy.Subcategory(r.URL.Query().Get("subcategory")))
	default:
		items = h.catalog.Items()
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.catalog.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Create adds a custom item. When no subcategory is given, one is suggested
// from the name.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	sub := taxonomy.Subcategory(req.Subcategory)
	if req.Subcategory == "" {
		sub = taxonomy.Suggest(req.Name)
	}

	item, err := h.catalog.AddCustomItem(req.Name, sub, req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *InventoryHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id := r.PathValue("id")
	if !h.catalog.UpdateQuantity(id, req.Quantity) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	item, _ := h.catalog.Get(id)
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id := r.PathValue("id")
	if _, ok := h.catalog.Get(id); !ok {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if err := h.catalog.RenameItem(id, req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, _ := h.catalog.Get(id)
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.RemoveItem(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.catalog.Restock(id) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	item, _ := h.catalog.Get(id)
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Stats())
}

// Attention returns the restock candidates, most depleted first.
func (h *InventoryHandler) Attention(w http.ResponseWriter, r *http.Request) {
	items := h.catalog.ItemsNeedingAttention()
	if items == nil {
		items = []model.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Freshness groups items by how close they are to their staleness window.
func (h *InventoryHandler) Freshness(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	resp := map[string][]model.InventoryItem{
		"expired":     h.catalog.Expired(now),
		"near_expiry": h.catalog.NearExpiry(now),
	}
	for k, v := range resp {
		if v == nil {
			resp[k] = []model.InventoryItem{}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Recommendations(time.Now()))
}

// Insights surfaces the habit-derived outliers.
func (h *InventoryHandler) Insights(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{}
	if item, ok := h.catalog.MostFrequentlyRestocked(); ok {
		resp["most_frequently_restocked"] = item
	}
	if item, ok := h.catalog.LeastUsed(); ok {
		resp["least_used"] = item
	}
	writeJSON(w, http.StatusOK, resp)
}

// Subcategories lists the taxonomy in display order with derived categories.
func (h *InventoryHandler) Subcategories(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Subcategory taxonomy.Subcategory `json:"subcategory"`
		Category    taxonomy.Category    `json:"category"`
	}
	var out []entry
	for _, sub := range taxonomy.Subcategories() {
		out = append(out, entry{Subcategory: sub, Category: taxonomy.CategoryOf(sub)})
	}
	writeJSON(w, http.StatusOK, out)
}

// SuggestSubcategory previews the auto-categorization for a name, so the
// client can prefill the create form.
func (h *InventoryHandler) SuggestSubcategory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	sub := taxonomy.Suggest(name)
	writeJSON(w, http.StatusOK, map[string]string{
		"subcategory": string(sub),
		"category":    string(taxonomy.CategoryOf(sub)),
	})
}
