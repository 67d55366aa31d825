package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"restora/internal/auth"
	"restora/internal/config"
	"restora/internal/repo"
	"restora/internal/restore"
	"restora/internal/service"
	"restora/internal/storage"
)

type fakeModel struct {
	result *restore.Result
	err    error
}

func (f *fakeModel) Restore(context.Context, []byte, string, string) (*restore.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type testServer struct {
	srv   *httptest.Server
	token string
	db    *gorm.DB
}

func newTestServer(t *testing.T, model restore.Client) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))

	cfg := &config.Config{AuthSecret: "test-secret", MaxUploadMB: 25}
	logger := zap.NewNop().Sugar()
	store := storage.NewMemStore()

	library := service.NewLibraryService(db, store, model, logger, 15*time.Minute, "test-model", "1.0")
	folders := service.NewFolderService(db, logger)
	meta := service.NewMetaService(db, logger)
	profiles := repo.NewProfileRepository(db)

	h := NewHandler(library, folders, meta, profiles, logger, cfg)
	srv := httptest.NewServer(h.Router)
	t.Cleanup(srv.Close)

	token, err := auth.IssueToken("owner-1", cfg.AuthSecret)
	require.NoError(t, err)

	return &testServer{srv: srv, token: token, db: db}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	return res
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}

// multipartImage builds a multipart body with image file fields plus plain
// values.
func multipartImage(t *testing.T, files map[string][]byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for field, data := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="photo.jpg"`, field))
		header.Set("Content-Type", "image/jpeg")
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func (ts *testServer) uploadPhoto(t *testing.T, title string) map[string]any {
	t.Helper()
	body, contentType := multipartImage(t, map[string][]byte{"image": []byte("cat.jpg bytes")}, map[string]string{"title": title})
	res := ts.do(t, http.MethodPost, "/api/photos", ts.token, body, contentType)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var photo map[string]any
	decodeBody(t, res, &photo)
	return photo
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	ts := newTestServer(t, &fakeModel{})
	res := ts.do(t, http.MethodGet, "/api/photos", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// the rejection uses the same JSON envelope as every other failure
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	var body map[string]any
	decodeBody(t, res, &body)
	assert.NotEmpty(t, body["error"])
}

func TestUploadAndGetPhoto(t *testing.T) {
	ts := newTestServer(t, &fakeModel{})
	photo := ts.uploadPhoto(t, "cat")

	assert.Equal(t, "cat", photo["title"])
	versions := photo["versions"].([]any)
	require.Len(t, versions, 1)
	v := versions[0].(map[string]any)
	assert.Equal(t, true, v["is_original"])
	assert.NotEmpty(t, v["url"])

	res := ts.do(t, http.MethodGet, "/api/photos/"+photo["id"].(string), ts.token, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var fetched map[string]any
	decodeBody(t, res, &fetched)
	assert.Equal(t, photo["id"], fetched["id"])
}

func TestUpload_MissingFileIs400(t *testing.T) {
	ts := newTestServer(t, &fakeModel{})
	body, contentType := multipartImage(t, nil, map[string]string{"title": "no file"})
	res := ts.do(t, http.MethodPost, "/api/photos", ts.token, body, contentType)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetPhoto_OtherOwnerIs404(t *testing.T) {
	ts := newTestServer(t, &fakeModel{})
	photo := ts.uploadPhoto(t, "private")

	otherToken, err := auth.IssueToken("owner-2", "test-secret")
	require.NoError(t, err)

	res := ts.do(t, http.MethodGet, "/api/photos/"+photo["id"].(string), otherToken, nil, "")
	defer res.Body.Close()
	// not-found, never forbidden: existence must not leak
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestEnhance_EndToEnd(t *testing.T) {
	ts := newTestServer(t, &fakeModel{result: &restore.Result{Data: []byte("restored"), MimeType: "image/png"}})
	photo := ts.uploadPhoto(t, "cat")
	originalID := photo["versions"].([]any)[0].(map[string]any)["id"].(string)

	res := ts.do(t, http.MethodPost, "/api/photos/"+photo["id"].(string)+"/enhance", ts.token,
		bytes.NewBufferString(`{"instructions":"fix the tear"}`), "application/json")
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var result map[string]any
	decodeBody(t, res, &result)
	version := result["version"].(map[string]any)
	assert.Equal(t, false, version["is_original"])
	assert.Equal(t, "Enhanced v1", version["label"])
	assert.Equal(t, originalID, version["parent_version_id"])
	assert.NotEmpty(t, result["job_id"])

	// the job shows up succeeded in the jobs listing
	res = ts.do(t, http.MethodGet, "/api/jobs?status=succeeded", ts.token, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var jobs map[string]any
	decodeBody(t, res, &jobs)
	require.Len(t, jobs["jobs"].([]any), 1)
}

func TestEnhance_RefusalIs422(t *testing.T) {
	ts := newTestServer(t, &fakeModel{result: &restore.Result{Text: "content policy refusal"}})
	photo := ts.uploadPhoto(t, "cat")

	res := ts.do(t, http.MethodPost, "/api/photos/"+photo["id"].(string)+"/enhance", ts.token, nil, "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	var body map[string]any
	decodeBody(t, res, &body)
	assert.Contains(t, body["error"], "content policy refusal")

	// the failure is on the ledger
	res = ts.do(t, http.MethodGet, "/api/jobs?status=failed", ts.token, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var jobs map[string]any
	decodeBody(t, res, &jobs)
	require.Len(t, jobs["jobs"].([]any), 1)
}

func TestDeletePhoto_RemovedFromListings(t *testing.T) {
	ts := newTestServer(t, &fakeModel{})
	photo := ts.uploadPhoto(t, "doomed")

	res := ts.do(t, http.MethodDelete, "/api/photos/"+photo["id"].(string), ts.token, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res = ts.do(t, http.MethodGet, "/api/photos", ts.token, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var listing map[string]any
	decodeBody(t, res, &listing)
	assert.Empty(t, listing["photos"])

	// direct lookup still works and shows the marker
	res = ts.do(t, http.MethodGet, "/api/photos/"+photo["id"].(string), ts.token, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var fetched map[string]any
	decodeBody(t, res, &fetched)
	assert.NotEmpty(t, fetched["deleted_at"])
}

func TestSaveToLibrary_EndToEnd(t *testing.T) {
	ts := newTestServer(t, &fakeModel{})
	body, contentType := multipartImage(t, map[string][]byte{
		"original": []byte("original pixels"),
		"enhanced": []byte("enhanced pixels"),
	}, map[string]string{"title": "grandma"})

	res := ts.do(t, http.MethodPost, "/api/save-to-library", ts.token, body, contentType)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var photo map[string]any
	decodeBody(t, res, &photo)
	require.Len(t, photo["versions"].([]any), 2)

	res = ts.do(t, http.MethodGet, "/api/jobs", ts.token, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var jobs map[string]any
	decodeBody(t, res, &jobs)
	list := jobs["jobs"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "succeeded", list[0].(map[string]any)["status"])
}

func TestFolders_CreateTreePatch(t *testing.T) {
	ts := newTestServer(t, &fakeModel{})

	res := ts.do(t, http.MethodPost, "/api/folders", ts.token,
		bytes.NewBufferString(`{"name":"Family"}`), "application/json")
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var folder map[string]any
	decodeBody(t, res, &folder)
	folderID := folder["id"].(string)
	assert.Equal(t, "Family", folder["name"])
	assert.NotContains(t, folder, "OwnerID")

	res = ts.do(t, http.MethodPost, "/api/folders", ts.token,
		bytes.NewBufferString(fmt.Sprintf(`{"name":"Weddings","parent_id":%q}`, folderID)), "application/json")
	require.Equal(t, http.StatusCreated, res.StatusCode)
	res.Body.Close()

	res = ts.do(t, http.MethodGet, "/api/folders", ts.token, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var tree map[string]any
	decodeBody(t, res, &tree)
	roots := tree["folders"].([]any)
	require.Len(t, roots, 1)
	children := roots[0].(map[string]any)["children"].([]any)
	require.Len(t, children, 1)
	assert.Equal(t, "Weddings", children[0].(map[string]any)["name"])

	// cycle through PATCH is rejected
	childID := children[0].(map[string]any)["id"].(string)
	res = ts.do(t, http.MethodPatch, "/api/folders/"+folderID, ts.token,
		bytes.NewBufferString(fmt.Sprintf(`{"parent_id":%q}`, childID)), "application/json")
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestTagsAndComments_EndToEnd(t *testing.T) {
	ts := newTestServer(t, &fakeModel{})
	photo := ts.uploadPhoto(t, "tagged")
	photoID := photo["id"].(string)

	res := ts.do(t, http.MethodPost, "/api/tags", ts.token,
		bytes.NewBufferString(`{"name":"family"}`), "application/json")
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var tag map[string]any
	decodeBody(t, res, &tag)
	assert.Equal(t, "family", tag["name"])
	assert.NotContains(t, tag, "OwnerID")

	res = ts.do(t, http.MethodPost, "/api/photos/"+photoID+"/tags", ts.token,
		bytes.NewBufferString(fmt.Sprintf(`{"tag_id":%q}`, tag["id"].(string))), "application/json")
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res = ts.do(t, http.MethodPost, "/api/photos/"+photoID+"/comments", ts.token,
		bytes.NewBufferString(`{"body":"lovely"}`), "application/json")
	require.Equal(t, http.StatusCreated, res.StatusCode)
	res.Body.Close()

	res = ts.do(t, http.MethodGet, "/api/photos/"+photoID+"/comments", ts.token, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var comments map[string]any
	decodeBody(t, res, &comments)
	assert.Len(t, comments["comments"].([]any), 1)
}
