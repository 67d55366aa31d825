package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"restora/internal/auth"
	"restora/internal/service"
)

type JobHandler struct {
	Library *service.LibraryService
	Logger  *zap.SugaredLogger
}

func NewJobHandler(library *service.LibraryService, logger *zap.SugaredLogger) *JobHandler {
	return &JobHandler{Library: library, Logger: logger}
}

// List handles GET /api/jobs with optional status, limit and offset query
// parameters. Input/output versions carry fresh signed URLs.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	q := r.URL.Query()
	jobs, err := h.Library.ListJobs(r.Context(), userID, service.ListJobsParams{
		Status: q.Get("status"),
		Limit:  intParam(q.Get("limit")),
		Offset: intParam(q.Get("offset")),
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}
