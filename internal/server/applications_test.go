package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"protv/internal/intake"
	"protv/internal/metrics"
	"protv/pkg/types"

	"github.com/prometheus/client_golang/prometheus/testutil"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test doubles
// ==========================

type fakeStorage struct {
	mu        sync.Mutex
	pingErr   error
	failFiles map[string]bool
	uploads   []string
}

func (f *fakeStorage) CreateContainer(ctx context.Context, ownerID, ownerName string) (string, string, error) {
	return "folder-" + ownerID, "https://drive.google.com/drive/folders/mock-" + ownerID, nil
}

func (f *fakeStorage) Upload(ctx context.Context, encoded, fileName, folderRef, mimeType string) (*types.FileDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.uploads = append(f.uploads, fileName)
	if f.failFiles[fileName] {
		return nil, errors.New("upload rejected")
	}
	return &types.FileDescriptor{FileID: "id-" + fileName, FileName: fileName, MimeType: mimeType}, nil
}

func (f *fakeStorage) Ping(ctx context.Context) error {
	return f.pingErr
}

type fakeStore struct {
	mu        sync.Mutex
	insertErr error
	listErr   error
	inserted  []*types.Application
}

func (f *fakeStore) Insert(ctx context.Context, app *types.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, app)
	return nil
}

func (f *fakeStore) ApplicationBySubmissionID(ctx context.Context, submissionID string) (*types.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, app := range f.inserted {
		if app.SubmissionID == submissionID {
			return app, nil
		}
	}
	return nil, types.ErrApplicationNotFound
}

func (f *fakeStore) ListCollections(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []string{"applications"}, nil
}

type panickingSubmitter struct{}

func (panickingSubmitter) Submit(ctx context.Context, sub *intake.Submission) (*intake.Result, error) {
	panic("boom")
}

// ==========================
// Test helpers
// ==========================

const applicationJSON = `{"fullName":"Omar Haddad","nationality":"Jordanian","dateOfBirth":"02/11/1990",` +
	`"email":"omar@example.com","countryCode":"+962","phoneNumber":"790000000","hasQatarResidence":"no",` +
	`"passportNumber":"N123","passportExpiry":"01/01/2029","workedWithProtv":"no","lastProjectName":"",` +
	`"preferredWorkTypes":["editing"],"position":"Editor"}`

type testFile struct {
	field    string
	name     string
	mimeType string
	content  string
}

func testConfig() *types.Config {
	return &types.Config{ServerPort: 0, ReadTimeoutSec: 5, WriteTimeoutSec: 5, MaxUploadMB: 5}
}

func newTestServer(t *testing.T, storage *fakeStorage, store *fakeStore) *Service {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	svc, err := intake.New(logger, storage, store, nil)
	require.NoError(t, err)

	return New(testConfig(), logger, svc, store, storage)
}

func multipartRequest(t *testing.T, fields map[string]string, files ...testFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		header.Set("Content-Type", f.mimeType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/applications/submit", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(s *Service, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// ==========================
// Root and health
// ==========================

func TestRoot(t *testing.T) {
	s := newTestServer(t, &fakeStorage{}, &fakeStore{})

	for _, path := range []string{"/api", "/api/"} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "PROTV Application System API", decodeBody(t, rec)["message"])
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeStorage{}, &fakeStore{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "connected", body["google_drive"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHealth_StoreUnreachable(t *testing.T) {
	s := newTestServer(t, &fakeStorage{}, &fakeStore{listErr: errors.New("server selection timeout")})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Health check failed: server selection timeout", decodeBody(t, rec)["detail"])
}

func TestHealth_StorageUnreachable(t *testing.T) {
	s := newTestServer(t, &fakeStorage{pingErr: errors.New("no bucket")}, &fakeStore{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "disconnected", body["google_drive"])
}

// ==========================
// Submission
// ==========================

func TestSubmit_Success(t *testing.T) {
	storage := &fakeStorage{failFiles: map[string]bool{"passport.png": true}}
	store := &fakeStore{}
	s := newTestServer(t, storage, store)

	req := multipartRequest(t,
		map[string]string{"application_data": applicationJSON},
		testFile{field: "personal_photo", name: "me.jpg", mimeType: "image/jpeg", content: "jpeg"},
		testFile{field: "passport_copy", name: "passport.png", mimeType: "image/png", content: "png"},
		testFile{field: "cv", name: "cv.pdf", mimeType: "application/pdf", content: "pdf"},
	)

	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Application submitted successfully to PROTV!", body["message"])
	assert.Regexp(t, `^PROTV-\d{8}-[0-9A-Z]{8}$`, body["application_id"])

	require.Len(t, store.inserted, 1)
	saved := store.inserted[0]
	assert.Equal(t, body["application_id"], saved.ApplicationID)
	assert.Equal(t, body["submission_id"], saved.SubmissionID)
	assert.Len(t, saved.Files, 2)
	assert.NotContains(t, saved.Files, types.SlotPassportCopy)
	assert.Equal(t, "image/jpeg", saved.Files[types.SlotPersonalPhoto].MimeType)
	require.NotNil(t, saved.PassportInfo)
	assert.Nil(t, saved.QatarResidenceInfo)
	assert.Equal(t, []string{"me.jpg", "passport.png", "cv.pdf"}, storage.uploads)
}

func TestSubmit_InvalidJSON(t *testing.T) {
	storage := &fakeStorage{}
	store := &fakeStore{}
	s := newTestServer(t, storage, store)

	req := multipartRequest(t,
		map[string]string{"application_data": "not json"},
		testFile{field: "cv", name: "cv.pdf", mimeType: "application/pdf", content: "pdf"},
	)

	rec := serve(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid application data format", decodeBody(t, rec)["detail"])
	assert.Empty(t, store.inserted)
	assert.Empty(t, storage.uploads)
}

func TestSubmit_InsertFailure(t *testing.T) {
	storage := &fakeStorage{}
	store := &fakeStore{insertErr: errors.New("not primary")}
	s := newTestServer(t, storage, store)

	req := multipartRequest(t,
		map[string]string{"application_data": applicationJSON},
		testFile{field: "cv", name: "cv.pdf", mimeType: "application/pdf", content: "pdf"},
	)

	rec := serve(s, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	detail, _ := decodeBody(t, rec)["detail"].(string)
	assert.True(t, strings.HasPrefix(detail, "Application submission failed: "))
	assert.Contains(t, detail, "not primary")
	assert.Equal(t, []string{"cv.pdf"}, storage.uploads)
}

func TestSubmit_MissingApplicationData(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, &fakeStorage{}, store)

	rec := serve(s, multipartRequest(t, map[string]string{"other": "x"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, store.inserted)
}

func TestSubmit_NotMultipart(t *testing.T) {
	s := newTestServer(t, &fakeStorage{}, &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/applications/submit", strings.NewReader(applicationJSON))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmit_IdempotencyHeader(t *testing.T) {
	storage := &fakeStorage{}
	store := &fakeStore{}
	s := newTestServer(t, storage, store)

	var ids []any
	for i := 0; i < 2; i++ {
		req := multipartRequest(t,
			map[string]string{"application_data": applicationJSON},
			testFile{field: "cv", name: "cv.pdf", mimeType: "application/pdf", content: "pdf"},
		)
		req.Header.Set("Idempotency-Key", "form-session-9")

		rec := serve(s, req)
		require.Equal(t, http.StatusOK, rec.Code)
		ids = append(ids, decodeBody(t, rec)["submission_id"])
	}

	assert.Equal(t, ids[0], ids[1])
	assert.Len(t, store.inserted, 1)
	assert.Len(t, storage.uploads, 1)
}

func TestSubmit_IdempotencyFormField(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, &fakeStorage{}, store)

	rec := serve(s, multipartRequest(t, map[string]string{
		"application_data": applicationJSON,
		"idempotency_key":  "abc",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, intake.NewSubmissionID("abc"), decodeBody(t, rec)["submission_id"])
}

func TestSubmit_WrongMethod(t *testing.T) {
	s := newTestServer(t, &fakeStorage{}, &fakeStore{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/applications/submit", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ==========================
// Middleware
// ==========================

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	s := newTestServer(t, &fakeStorage{}, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	req.Header.Set("Origin", "https://apply.protv.example")
	rec := serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://apply.protv.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/applications/submit", nil)
	preflight.Header.Set("Origin", "https://apply.protv.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflight.Header.Set("Access-Control-Request-Headers", "content-type")
	rec = serve(s, preflight)
	assert.Less(t, rec.Code, 300)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRecoverMiddleware(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s := New(testConfig(), logger, panickingSubmitter{}, &fakeStore{}, &fakeStorage{})

	rec := serve(s, multipartRequest(t, map[string]string{"application_data": applicationJSON}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeBody(t, rec)["detail"])

	var panicked bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "handler panicked" {
			panicked = true
		}
	}
	assert.True(t, panicked)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeStorage{}, &fakeStore{})

	serve(s, httptest.NewRequest(http.MethodGet, "/api/", nil))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "protv_http_requests_total")
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	storage := &fakeStorage{}
	store := &fakeStore{}
	s := newTestServer(t, storage, store)

	req := multipartRequest(t,
		map[string]string{"application_data": applicationJSON},
		testFile{field: "portfolio", name: "reel.mp4", mimeType: "video/mp4", content: strings.Repeat("x", 6<<20)},
	)

	rec := serve(s, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Upload exceeds 5 MB", decodeBody(t, rec)["detail"])
	assert.Empty(t, storage.uploads)
	assert.Empty(t, store.inserted)
}

func TestRequestMetrics_UnknownPathsShareOneSeries(t *testing.T) {
	s := newTestServer(t, &fakeStorage{}, &fakeStore{})

	// settle the series the known routes and the catch-all label produce
	serve(s, httptest.NewRequest(http.MethodGet, "/api/", nil))
	serve(s, httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))
	before := testutil.CollectAndCount(metrics.HTTPRequests)
	unmatchedBefore := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, unmatchedLabel, "404"))

	for i := range 50 {
		rec := serve(s, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/scan-%d", i), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, before, testutil.CollectAndCount(metrics.HTTPRequests))
	assert.Equal(t, unmatchedBefore+50, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, unmatchedLabel, "404")))
}

func TestMetricLabels(t *testing.T) {
	assert.Equal(t, "/api/health", metricPath("/api/health"))
	assert.Equal(t, unmatchedLabel, metricPath("/api/health/../../etc"))
	assert.Equal(t, http.MethodPost, metricMethod(http.MethodPost))
	assert.Equal(t, unmatchedLabel, metricMethod("PROPFIND"))
}

func TestServerTimeouts(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	config := &types.Config{ReadHeaderTimeoutSec: 10, ReadTimeoutSec: 300, WriteTimeoutSec: 360, MaxUploadMB: 50}

	s := New(config, logger, panickingSubmitter{}, &fakeStore{}, &fakeStorage{})

	assert.Equal(t, 10*time.Second, s.server.ReadHeaderTimeout)
	assert.Equal(t, 300*time.Second, s.server.ReadTimeout)
	assert.Equal(t, 360*time.Second, s.server.WriteTimeout)
}
