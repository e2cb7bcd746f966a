package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/model"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(db, backup.Config{}, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, data
}

func TestHealth(t *testing.T) {
	ts := setupServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
}

func TestInventoryLifecycleOverHTTP(t *testing.T) {
	ts := setupServer(t)

	// Create without subcategory: one is suggested from the name.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/inventory", map[string]any{
		"name":     "Milk",
		"quantity": 0.4,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", resp.StatusCode, body)
	}
	var created model.InventoryItem
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if created.Subcategory != "dairy" {
		t.Errorf("suggested subcategory = %q, want dairy", created.Subcategory)
	}

	// Blank name is rejected synchronously.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/inventory", map[string]any{"name": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank create status = %d, want 400", resp.StatusCode)
	}

	// Quantity update clamps and reflects immediately.
	resp, body = doJSON(t, http.MethodPut, ts.URL+"/api/inventory/"+created.ID+"/quantity", map[string]any{
		"quantity": 2.5,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, body %s", resp.StatusCode, body)
	}
	var updated model.InventoryItem
	json.Unmarshal(body, &updated)
	if updated.Quantity != 1.0 {
		t.Errorf("quantity = %v, want clamped 1.0", updated.Quantity)
	}

	// List shows the item.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/inventory", nil)
	var items []model.InventoryItem
	json.Unmarshal(body, &items)
	if len(items) != 1 {
		t.Fatalf("listed %d items, want 1: %s", len(items), body)
	}

	// Delete, then 404 on re-delete.
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/inventory/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/inventory/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestShoppingWorkflowOverHTTP(t *testing.T) {
	ts := setupServer(t)

	doJSON(t, http.MethodPost, ts.URL+"/api/inventory", map[string]any{
		"name": "Coffee", "subcategory": "beverage", "quantity": 0.05,
	})

	// Illegal transition first: finalize with no session.
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/shopping/finalize", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("finalize from empty status = %d, want 409", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/shopping/generate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", resp.StatusCode, body)
	}
	var sess struct {
		State model.ShoppingState  `json:"state"`
		Items []model.ShoppingItem `json:"items"`
	}
	json.Unmarshal(body, &sess)
	if sess.State != model.ShoppingStateGenerating {
		t.Errorf("state = %q, want generating", sess.State)
	}
	if len(sess.Items) != 1 || sess.Items[0].Name != "Coffee" {
		t.Fatalf("generated items = %+v, want [Coffee]", sess.Items)
	}

	// Misc item mid-generation.
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/shopping/items", map[string]any{
		"name": "Birthday candles",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add misc status = %d, body %s", resp.StatusCode, body)
	}

	doJSON(t, http.MethodPost, ts.URL+"/api/shopping/finalize", nil)
	doJSON(t, http.MethodPost, ts.URL+"/api/shopping/start", nil)

	// Check off the coffee entry.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/shopping", nil)
	json.Unmarshal(body, &sess)
	var coffeeID string
	for _, item := range sess.Items {
		if item.Name == "Coffee" {
			coffeeID = item.ID
		}
	}
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/shopping/items/"+coffeeID+"/check", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/shopping/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &sess)
	if sess.State != model.ShoppingStateEmpty || len(sess.Items) != 0 {
		t.Errorf("after complete: state %q items %d, want empty/0", sess.State, len(sess.Items))
	}

	// The checked item was restocked.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/inventory", nil)
	var items []model.InventoryItem
	json.Unmarshal(body, &items)
	if len(items) != 1 || items[0].Quantity != 1.0 {
		t.Errorf("inventory after trip = %+v, want Coffee at 1.0", items)
	}
}

func TestStatsAndRecommendationsRoutes(t *testing.T) {
	ts := setupServer(t)

	doJSON(t, http.MethodPost, ts.URL+"/api/inventory", map[string]any{
		"name": "Milk", "subcategory": "dairy", "quantity": 0.1,
	})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/inventory/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var stats struct {
		TotalItems    int `json:"total_items"`
		LowStockCount int `json:"low_stock_count"`
	}
	json.Unmarshal(body, &stats)
	if stats.TotalItems != 1 || stats.LowStockCount != 1 {
		t.Errorf("stats = %+v, body %s", stats, body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/inventory/recommendations", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recommendations status = %d", resp.StatusCode)
	}
	var recs []map[string]any
	if err := json.Unmarshal(body, &recs); err != nil || len(recs) == 0 {
		t.Errorf("recommendations body = %s", body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/subcategories/suggest?name=cheddar+cheese", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("suggest status = %d", resp.StatusCode)
	}
	var suggestion map[string]string
	json.Unmarshal(body, &suggestion)
	if suggestion["subcategory"] != "dairy" {
		t.Errorf("suggest = %v, want dairy", suggestion)
	}
}

func TestBackupRoutesDisabled(t *testing.T) {
	ts := setupServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/backups/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status route = %d", resp.StatusCode)
	}
	var status struct {
		State string `json:"state"`
	}
	json.Unmarshal(body, &status)
	if status.State != "disabled" {
		t.Errorf("backup state = %q, want disabled without config", status.State)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/backups", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("run-now without config status = %d, want 500", resp.StatusCode)
	}
}
