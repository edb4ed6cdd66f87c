package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenplanet/inventory-server/ai"
	"github.com/greenplanet/inventory-server/api/rest"
	"github.com/greenplanet/inventory-server/audit"
	"github.com/greenplanet/inventory-server/config"
	"github.com/greenplanet/inventory-server/email"
	"github.com/greenplanet/inventory-server/intake"
	"github.com/greenplanet/inventory-server/inventory"
	mw "github.com/greenplanet/inventory-server/middleware"
	"github.com/greenplanet/inventory-server/model"
	"github.com/greenplanet/inventory-server/pipeline"
	"github.com/greenplanet/inventory-server/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeUploader serves uploads from memory with deterministic URLs.
type fakeUploader struct {
	mu   sync.Mutex
	fail bool
	seen []string
}

func (f *fakeUploader) Upload(_ context.Context, name string, _ []byte, _ string) (string, error) {
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	f.mu.Lock()
	f.seen = append(f.seen, name)
	f.mu.Unlock()
	return "https://cdn.example.com/uploads/" + name, nil
}

// fakeExtractor returns canned descriptors.
type fakeExtractor struct {
	descs []ai.ItemDescriptor
	err   error
}

func (f *fakeExtractor) ExtractItems(_ context.Context, _ []string) ([]ai.ItemDescriptor, error) {
	return f.descs, f.err
}

// fakeDrafter returns canned text for drafts and answers.
type fakeDrafter struct {
	draft  string
	answer string
	err    error
}

func (f *fakeDrafter) DraftClaimEmail(_ context.Context, _ ai.DraftRequest, _ []model.Item) (string, error) {
	return f.draft, f.err
}

func (f *fakeDrafter) Answer(_ context.Context, _ string, _ []model.Item) (string, error) {
	return f.answer, f.err
}

// fakeMailer records sent messages.
type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	return nil
}

type testServer struct {
	r       *gin.Engine
	db      *gorm.DB
	inv     *inventory.Service
	up      *fakeUploader
	ex      *fakeExtractor
	drafter *fakeDrafter
	mailer  *fakeMailer
	audit   *audit.Service
}

// newTestServer wires the full authenticated API surface against an
// in-memory database with fake upload, extraction, drafting, and mail
// backends.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	sec := config.SecurityConfig{
		JWTSecret: "test-secret",
		JWTTTLH:   72 * time.Hour,
	}

	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })

	up := &fakeUploader{}
	ex := &fakeExtractor{}
	drafter := &fakeDrafter{draft: "Dear Claims Department,", answer: "You have 2 items."}
	mailer := &fakeMailer{}

	invSvc := inventory.NewService(db, ps, logger)
	analyzer := pipeline.NewAnalyzer(up, ex, invSvc, logger)
	staging := intake.NewRegistry()

	authH := rest.NewAuthHandler(db, c, sec, auditSvc)
	itemsH := rest.NewItemsHandler(invSvc, auditSvc, logger)
	intakeH := rest.NewIntakeHandler(staging, analyzer, auditSvc, logger)
	jobsH := rest.NewJobsHandler(db, auditSvc)
	reportsH := rest.NewReportsHandler(db, invSvc, drafter, mailer, auditSvc, logger)
	assistantH := rest.NewAssistantHandler(invSvc, drafter, logger)

	r := gin.New()
	api := r.Group("/api")

	api.POST("/auth/login", authH.Login)
	api.POST("/auth/logout", mw.Auth(sec, c), authH.Logout)
	api.POST("/auth/refresh", mw.Auth(sec, c), authH.Refresh)

	authed := api.Group("")
	authed.Use(mw.Auth(sec, c))
	authed.GET("/me", authH.Me)
	authed.PUT("/me", authH.UpdateProfile)
	authed.POST("/intake", intakeH.Stage)
	authed.GET("/intake", intakeH.List)
	authed.DELETE("/intake/:index", intakeH.Remove)
	authed.POST("/analyze", intakeH.Analyze)
	authed.GET("/items", itemsH.List)
	authed.PUT("/items/:id", itemsH.Update)
	authed.DELETE("/items/:id", itemsH.Delete)
	authed.GET("/jobs", jobsH.List)
	authed.POST("/jobs", jobsH.Create)
	authed.PUT("/jobs/:id", jobsH.Update)
	authed.GET("/reports/defaults", reportsH.Defaults)
	authed.POST("/reports/preview", reportsH.Preview)
	authed.POST("/reports/document", reportsH.Document)
	authed.POST("/reports/draft", reportsH.Draft)
	authed.POST("/reports/email", reportsH.SendEmail)
	authed.POST("/assistant", assistantH.Ask)

	return &testServer{
		r:       r,
		db:      db,
		inv:     invSvc,
		up:      up,
		ex:      ex,
		drafter: drafter,
		mailer:  mailer,
		audit:   auditSvc,
	}
}

func postJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func putJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doReq(r *gin.Engine, method, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type mpFile struct {
	name string
	data []byte
}

// postMultipart uploads files under the "images" field, in order.
func postMultipart(r *gin.Engine, path string, files []mpFile, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, _ := mpw.CreateFormFile("images", f.name)
		_, _ = fw.Write(f.data)
	}
	mpw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// login registers (or re-authenticates) the username and returns the
// bearer token plus the account ID.
func login(t *testing.T, r *gin.Engine, username string) (string, int64) {
	t.Helper()
	w := postJSON(r, "/api/auth/login", map[string]string{
		"username": username,
		"password": "pass1234",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	return resp["token"].(string), int64(resp["account_id"].(float64))
}

func jpegBytes() []byte {
	return append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{0}, 64)...)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
