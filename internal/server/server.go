package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/bridge"
	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/middleware"
	"github.com/dukerupert/larder/internal/shopping"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	bridge        *bridge.Bridge
	catalog       *catalog.Catalog
	session       *shopping.Session
	inventoryH    *handler.InventoryHandler
	shoppingH     *handler.ShoppingHandler
	backupH       *handler.BackupHandler
	backupManager *backup.Manager
	logger        *slog.Logger
}

// New wires the stores, the write bridge, the in-memory catalog and
// shopping session, and the broadcast hub, then loads state from the
// database.
func New(db *sql.DB, backupCfg backup.Config, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))
	b := bridge.New(logger.With("component", "bridge"))

	inventoryStore := store.NewInventoryStore(db)
	shoppingStore := store.NewShoppingStore(db)
	workflowStore := store.NewWorkflowStore(db)
	backupStore := store.NewBackupStore(db)

	cat := catalog.New(inventoryStore, b, logger.With("component", "catalog"))
	session := shopping.New(cat, shoppingStore, workflowStore, b, logger.With("component", "shopping"))

	if err := cat.Load(); err != nil {
		return nil, err
	}
	if err := session.Load(); err != nil {
		return nil, err
	}

	// Every logical change fans out to connected clients.
	cat.Subscribe(func(e catalog.Event) {
		hub.Broadcast(ws.NewMessage(e.Entity, e.Action, e.ID, nil))
	})
	session.Subscribe(func(e shopping.Event) {
		hub.Broadcast(ws.NewMessage(e.Entity, e.Action, e.ID, map[string]any{
			"state": string(session.State()),
		}))
	})

	backupMgr := backup.NewManager(backupCfg, db, backupStore, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	}, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		bridge:        b,
		catalog:       cat,
		session:       session,
		inventoryH:    handler.NewInventoryHandler(cat, logger.With("component", "inventory")),
		shoppingH:     handler.NewShoppingHandler(session, logger.With("component", "shopping_handler")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		backupManager: backupMgr,
		logger:        logger,
	}, nil
}

// BackupManager returns the backup manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// Close drains the write bridge so no accepted mutation is lost on shutdown.
func (s *Server) Close() {
	s.bridge.Close()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Inventory API routes
	mux.HandleFunc("GET /api/inventory", s.inventoryH.List)
	mux.HandleFunc("POST /api/inventory", s.inventoryH.Create)
	mux.HandleFunc("GET /api/inventory/stats", s.inventoryH.Stats)
	mux.HandleFunc("GET /api/inventory/attention", s.inventoryH.Attention)
	mux.HandleFunc("GET /api/inventory/freshness", s.inventoryH.Freshness)
	mux.HandleFunc("GET /api/inventory/recommendations", s.inventoryH.Recommendations)
	mux.HandleFunc("GET /api/inventory/insights", s.inventoryH.Insights)
	mux.HandleFunc("GET /api/inventory/{id}", s.inventoryH.Get)
	mux.HandleFunc("PUT /api/inventory/{id}/quantity", s.inventoryH.UpdateQuantity)
	mux.HandleFunc("PUT /api/inventory/{id}/name", s.inventoryH.Rename)
	mux.HandleFunc("POST /api/inventory/{id}/restock", s.inventoryH.Restock)
	mux.HandleFunc("DELETE /api/inventory/{id}", s.inventoryH.Delete)

	// Taxonomy routes
	mux.HandleFunc("GET /api/subcategories", s.inventoryH.Subcategories)
	mux.HandleFunc("GET /api/subcategories/suggest", s.inventoryH.SuggestSubcategory)

	// Shopping workflow routes
	mux.HandleFunc("GET /api/shopping", s.shoppingH.Get)
	mux.HandleFunc("POST /api/shopping/generate", s.shoppingH.Generate)
	mux.HandleFunc("POST /api/shopping/finalize", s.shoppingH.Finalize)
	mux.HandleFunc("POST /api/shopping/start", s.shoppingH.Start)
	mux.HandleFunc("POST /api/shopping/complete", s.shoppingH.Complete)
	mux.HandleFunc("POST /api/shopping/cancel", s.shoppingH.Cancel)
	mux.HandleFunc("POST /api/shopping/items", s.shoppingH.AddItem)
	mux.HandleFunc("DELETE /api/shopping/items/{id}", s.shoppingH.RemoveItem)
	mux.HandleFunc("POST /api/shopping/items/{id}/check", s.shoppingH.Toggle)

	// Backup routes
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backups", s.backupH.RunNow)
	mux.HandleFunc("POST /api/backups/{id}/restore", s.backupH.Restore)
	mux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)

	// WebSocket feed
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
