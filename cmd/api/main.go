package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"

	"restora/internal/config"
	"restora/internal/handlers"
	"restora/internal/repo"
	"restora/internal/restore"
	"restora/internal/service"
	"restora/internal/storage"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() {
		_ = logger.Sync()
	}()

	// OAuth provider and the session store gothic needs for the handshake
	goth.UseProviders(google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.CallbackURL))
	store := sessions.NewCookieStore([]byte(cfg.AuthSecret))
	store.MaxAge(86400)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	gothic.Store = store

	db, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	blobStore, err := storage.NewS3Store(context.Background(), storage.S3Config{
		Endpoint:        cfg.S3BaseEndpoint(),
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.AccessKeyID,
		AccessKeySecret: cfg.AccessKeySecret,
		Bucket:          cfg.BucketName,
	})
	if err != nil {
		sugar.Fatalw("failed to initialize blob store", "error", err)
	}

	model := restore.NewHTTPClient(cfg.ModelAPIURL, cfg.ModelAPIKey, cfg.ModelName)

	signTTL := time.Duration(cfg.SignedURLTTL) * time.Second
	library := service.NewLibraryService(db, blobStore, model, sugar, signTTL, cfg.ModelName, cfg.ModelVersion)
	folders := service.NewFolderService(db, sugar)
	meta := service.NewMetaService(db, sugar)
	profiles := repo.NewProfileRepository(db)

	h := handlers.NewHandler(library, folders, meta, profiles, sugar, cfg)

	sugar.Infow("starting API server", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, h.Router); err != nil {
		sugar.Fatalw("server failed", "error", err)
	}
}
