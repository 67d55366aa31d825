package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"restora/internal/auth"
	"restora/internal/service"
)

type FolderHandler struct {
	Folders *service.FolderService
	Logger  *zap.SugaredLogger
}

func NewFolderHandler(folders *service.FolderService, logger *zap.SugaredLogger) *FolderHandler {
	return &FolderHandler{Folders: folders, Logger: logger}
}

// Tree handles GET /api/folders and returns the owner's nested folder tree.
func (h *FolderHandler) Tree(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	tree, err := h.Folders.Tree(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": tree})
}

type folderCreateRequest struct {
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id"`
	SortOrder int     `json:"sort_order"`
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req folderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folder, err := h.Folders.Create(r.Context(), userID, req.Name, req.ParentID, req.SortOrder)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

type folderPatchRequest struct {
	Name      *string `json:"name"`
	ParentID  *string `json:"parent_id"`
	SortOrder *int    `json:"sort_order"`
}

func (h *FolderHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req folderPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := service.FolderUpdate{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	}
	if req.ParentID != nil {
		if *req.ParentID == "" {
			update.ClearParent = true
		} else {
			update.ParentID = req.ParentID
		}
	}

	folder, err := h.Folders.Update(r.Context(), userID, chi.URLParam(r, "id"), update)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if err := h.Folders.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
