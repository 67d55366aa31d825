package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"restora/internal/auth"
	"restora/internal/config"
	"restora/internal/repo"
	"restora/internal/service"
)

type Handler struct {
	Router chi.Router
}

// NewHandler wires every route. /auth/* is public; everything under /api
// requires a bearer token. Enhancement endpoints get a tight per-IP rate
// limit because each request blocks on the external model.
func NewHandler(
	library *service.LibraryService,
	folders *service.FolderService,
	meta *service.MetaService,
	profiles repo.ProfileRepository,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	userHandler := NewUserHandler(profiles, logger, cfg)
	photoHandler := NewPhotoHandler(library, logger, cfg)
	folderHandler := NewFolderHandler(folders, logger)
	jobHandler := NewJobHandler(library, logger)
	metaHandler := NewMetaHandler(meta, logger)

	// OAuth login
	r.Get("/auth/{provider}", userHandler.BeginAuth)
	r.Get("/auth/{provider}/callback", userHandler.Callback)
	r.Post("/logout/{provider}", userHandler.Logout)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.UserMiddleware(cfg.AuthSecret))
		r.Use(httprate.Limit(
			120,
			1*time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			httprate.WithLimitHandler(rateLimited),
		))

		r.Get("/profile", userHandler.GetProfile)

		r.Route("/photos", func(r chi.Router) {
			r.Post("/", photoHandler.Upload)
			r.Get("/", photoHandler.List)
			r.Get("/{id}", photoHandler.Get)
			r.Patch("/{id}", photoHandler.Patch)
			r.Delete("/{id}", photoHandler.Delete)

			r.With(enhanceLimit()).Post("/{id}/enhance", photoHandler.Enhance)

			r.Get("/{id}/tags", metaHandler.PhotoTags)
			r.Post("/{id}/tags", metaHandler.TagPhoto)
			r.Delete("/{id}/tags/{tagId}", metaHandler.UntagPhoto)

			r.Get("/{id}/comments", metaHandler.ListComments)
			r.Post("/{id}/comments", metaHandler.AddComment)
		})

		r.With(enhanceLimit()).Post("/enhance", photoHandler.EnhanceStateless)
		r.Post("/save-to-library", photoHandler.SaveToLibrary)

		r.Route("/folders", func(r chi.Router) {
			r.Get("/", folderHandler.Tree)
			r.Post("/", folderHandler.Create)
			r.Patch("/{id}", folderHandler.Patch)
			r.Delete("/{id}", folderHandler.Delete)
		})

		r.Get("/jobs", jobHandler.List)

		r.Get("/tags", metaHandler.ListTags)
		r.Post("/tags", metaHandler.CreateTag)

		r.Delete("/comments/{id}", metaHandler.DeleteComment)
	})

	return &Handler{Router: r}
}

func enhanceLimit() func(next http.Handler) http.Handler {
	return httprate.Limit(
		10,
		1*time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(rateLimited),
	)
}

// rateLimited keeps 429s on the JSON failure envelope like every other
// error response.
func rateLimited(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}
