package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"restora/internal/auth"
	"restora/internal/config"
	"restora/internal/service"
)

type PhotoHandler struct {
	Library *service.LibraryService
	Logger  *zap.SugaredLogger
	Config  *config.Config
}

func NewPhotoHandler(library *service.LibraryService, logger *zap.SugaredLogger, cfg *config.Config) *PhotoHandler {
	return &PhotoHandler{Library: library, Logger: logger, Config: cfg}
}

// readImageFile pulls one uploaded file out of a multipart form, enforcing
// the configured size cap.
func (h *PhotoHandler) readImageFile(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field \""+field+"\"")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.Logger.Warnw("read upload", "field", field, "error", err)
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return nil, "", false
	}
	if int64(len(data)) > h.Config.MaxUploadBytes() {
		writeError(w, http.StatusBadRequest, "file too large")
		return nil, "", false
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, true
}

// Upload handles POST /api/photos: multipart with an "image" field plus
// optional "title" and "folder_id" values.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadBytes()+1024*1024)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	data, mimeType, ok := h.readImageFile(w, r, "image")
	if !ok {
		return
	}

	var folderID *string
	if f := r.FormValue("folder_id"); f != "" {
		folderID = &f
	}

	view, err := h.Library.Upload(r.Context(), userID, data, mimeType, r.FormValue("title"), folderID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// List handles GET /api/photos. "folder" may be a folder id or the literal
// "root" for photos outside any folder.
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	q := r.URL.Query()
	params := service.ListPhotosParams{
		FavoritesOnly: q.Get("favorites") == "true",
		Limit:         intParam(q.Get("limit")),
		Offset:        intParam(q.Get("offset")),
	}
	switch folder := q.Get("folder"); folder {
	case "":
	case "root":
		params.RootOnly = true
	default:
		params.FolderID = &folder
	}

	views, err := h.Library.ListPhotos(r.Context(), userID, params)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"photos": views})
}

func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	view, err := h.Library.GetPhoto(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type photoPatchRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Favorite     *bool   `json:"favorite"`
	Rating       *int    `json:"rating"`
	FolderID     *string `json:"folder_id"`
	CapturedDate *string `json:"captured_date"`
	AssignedDate *string `json:"assigned_date"`
}

func (h *PhotoHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req photoPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := service.PhotoUpdate{
		Title:       req.Title,
		Description: req.Description,
		Favorite:    req.Favorite,
		Rating:      req.Rating,
	}
	if req.FolderID != nil {
		if *req.FolderID == "" {
			update.ClearFolder = true
		} else {
			update.FolderID = req.FolderID
		}
	}
	if req.CapturedDate != nil {
		t, err := time.Parse(time.RFC3339, *req.CapturedDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid captured_date")
			return
		}
		update.CapturedDate = &t
	}
	if req.AssignedDate != nil {
		t, err := time.Parse(time.RFC3339, *req.AssignedDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid assigned_date")
			return
		}
		update.AssignedDate = &t
	}

	view, err := h.Library.UpdatePhoto(r.Context(), userID, chi.URLParam(r, "id"), update)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if err := h.Library.DeletePhoto(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type enhanceRequest struct {
	VersionID    string `json:"version_id"`
	Instructions string `json:"instructions"`
}

// Enhance handles POST /api/photos/{id}/enhance. The model call runs inside
// the request; the response carries the new version and its job id.
func (h *PhotoHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req enhanceRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	result, err := h.Library.Enhance(r.Context(), userID, chi.URLParam(r, "id"), service.EnhanceParams{
		VersionID:    req.VersionID,
		Instructions: req.Instructions,
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// EnhanceStateless handles POST /api/enhance: multipart in, restored image
// out as base64, nothing persisted.
func (h *PhotoHandler) EnhanceStateless(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserID(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadBytes()+1024*1024)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	data, mimeType, ok := h.readImageFile(w, r, "image")
	if !ok {
		return
	}

	result, err := h.Library.EnhanceStateless(r.Context(), data, mimeType, r.FormValue("instructions"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mime_type": result.MimeType,
		"image":     base64.StdEncoding.EncodeToString(result.Data),
	})
}

// SaveToLibrary handles POST /api/save-to-library: multipart with
// "original" and "enhanced" files from a client-side enhancement.
func (h *PhotoHandler) SaveToLibrary(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 2*h.Config.MaxUploadBytes()+1024*1024)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	original, origMime, ok := h.readImageFile(w, r, "original")
	if !ok {
		return
	}
	enhanced, enhMime, ok := h.readImageFile(w, r, "enhanced")
	if !ok {
		return
	}

	view, err := h.Library.SaveToLibrary(r.Context(), userID, service.SaveToLibraryParams{
		Original:     original,
		OriginalMime: origMime,
		Enhanced:     enhanced,
		EnhancedMime: enhMime,
		Title:        r.FormValue("title"),
		Instructions: r.FormValue("instructions"),
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}
