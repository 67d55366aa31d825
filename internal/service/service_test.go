package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"restora/internal/repo"
	"restora/internal/restore"
	"restora/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// fakeModel is a scripted restore.Client.
type fakeModel struct {
	result           *restore.Result
	err              error
	calls            int
	lastInstructions string
}

func (f *fakeModel) Restore(_ context.Context, _ []byte, _ string, instructions string) (*restore.Result, error) {
	f.calls++
	f.lastInstructions = instructions
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func restoredImage(data []byte) *fakeModel {
	return &fakeModel{result: &restore.Result{Data: data, MimeType: "image/png"}}
}

func refusal(text string) *fakeModel {
	return &fakeModel{result: &restore.Result{Text: text}}
}

type testEnv struct {
	db    *gorm.DB
	store *storage.MemStore
	model *fakeModel
	lib   *LibraryService
}

func newTestEnv(t *testing.T, model *fakeModel) *testEnv {
	t.Helper()
	db := newTestDB(t)
	store := storage.NewMemStore()
	lib := NewLibraryService(db, store, model, zap.NewNop().Sugar(), 15*time.Minute, "test-model", "1.0")
	return &testEnv{db: db, store: store, model: model, lib: lib}
}
