package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	store   *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, store: bs, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.store.List(50)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

// RunNow triggers an immediate backup.
func (h *BackupHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	id, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("manual backup failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	record, err := h.store.GetByID(id)
	if err != nil || record == nil {
		writeError(w, http.StatusInternalServerError, "backup record missing")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Restore replaces the live database with the chosen backup. On success the
// process exits and is expected to be restarted by its supervisor, so the
// response is only sent on failure.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.manager.Restore(r.Context(), id); err != nil {
		h.logger.Error("restore failed", "backup_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// Download streams the encrypted backup object.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	body, size, err := h.manager.Download(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="backup-%d.db.enc"`, id))
	if size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("backup download interrupted", "backup_id", id, "error", err)
	}
}
