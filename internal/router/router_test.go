package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourconsultingltd/ycl-backend/internal/config"
	"github.com/yourconsultingltd/ycl-backend/internal/database"
	"github.com/yourconsultingltd/ycl-backend/internal/handler"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/job"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/storage"
	"github.com/yourconsultingltd/ycl-backend/internal/model"
	"github.com/yourconsultingltd/ycl-backend/internal/server"
	"github.com/yourconsultingltd/ycl-backend/internal/service"
)

type memStore struct {
	mu           sync.Mutex
	err          error
	contacts     []*model.ContactSubmission
	applications []*model.JobApplication
	subs         map[string]*model.NewsletterSubscription
}

func (m *memStore) contactStore() service.ContactStore         { return contactStore{m} }
func (m *memStore) applicationStore() service.ApplicationStore { return applicationStore{m} }

type contactStore struct{ *memStore }

func (s contactStore) Create(_ context.Context, sub *model.ContactSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.contacts = append(s.contacts, sub)
	return nil
}

type applicationStore struct{ *memStore }

func (s applicationStore) Create(_ context.Context, app *model.JobApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.applications = append(s.applications, app)
	return nil
}

func (m *memStore) Exists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.subs[email]
	return ok, nil
}

func (m *memStore) Create(_ context.Context, email string, at time.Time) (*model.NewsletterSubscription, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	if _, ok := m.subs[email]; ok {
		return nil, false, nil
	}
	sub := &model.NewsletterSubscription{Email: email, SubscribedAt: at}
	m.subs[email] = sub
	return sub, true, nil
}

type dispatcher struct {
	mu    sync.Mutex
	tasks []string
}

func (d *dispatcher) Configured() bool { return true }

func (d *dispatcher) Enqueue(_ context.Context, task *asynq.Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task.Type())
	return nil
}

func (d *dispatcher) sent() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.tasks...)
}

type probe struct{ connected bool }

func (p probe) Connected() bool { return p.connected }

func (p probe) Ping(context.Context) error {
	if !p.connected {
		return context.DeadlineExceeded
	}
	return nil
}

type testApp struct {
	echo       *echo.Echo
	store      *memStore
	dispatcher *dispatcher
	uploadDir  string
}

func newTestApp(t *testing.T, configure ...func(*config.Config)) *testApp {
	t.Helper()

	cfg := config.Default()
	cfg.Server.CORSAllowedOrigins = config.DefaultCORSAllowedOrigins
	cfg.Observability.HealthChecks.Checks = config.DefaultHealthChecks
	for _, f := range configure {
		f(cfg)
	}

	log := zerolog.Nop()
	dir := t.TempDir()
	files, err := storage.NewLocal(dir)
	require.NoError(t, err)

	srv := &server.Server{Config: cfg, Logger: &log, Storage: files}

	store := &memStore{subs: map[string]*model.NewsletterSubscription{}}
	d := &dispatcher{}

	services := &service.Services{
		Contact:     service.NewContactService(store.contactStore(), d, &log),
		Application: service.NewApplicationService(store.applicationStore(), files, d, &log),
		Newsletter:  service.NewNewsletterService(store, d, &log),
		Health: service.NewHealthService(service.HealthDeps{
			Store:       probe{connected: false},
			Mail:        d,
			Checks:      cfg.Observability.HealthChecks,
			Environment: cfg.Primary.Env,
			Logger:      &log,
		}),
	}

	return &testApp{
		echo:       NewRouter(srv, handler.NewHandlers(srv, services)),
		store:      store,
		dispatcher: d,
		uploadDir:  dir,
	}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

type multipartFile struct {
	field, name, body string
}

func postMultipart(t *testing.T, path string, fields map[string]string, files []multipartFile, repeated ...[2]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, kv := range repeated {
		require.NoError(t, w.WriteField(kv[0], kv[1]))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestRoot(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body handler.Descriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "YCL Backend API is running", body.Message)
	assert.Equal(t, "1.0.0", body.Version)
	assert.Equal(t, "/api/health", body.Endpoints.Health)
	assert.Equal(t, "/api/newsletter", body.Endpoints.Newsletter)
}

func TestHealth_DisconnectedStore(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "disconnected", body["mongodb"])
	assert.Equal(t, "DEGRADED", body["status"])
	assert.Equal(t, "configured", body["email"])
	assert.Equal(t, "Backend is running", body["message"])
	assert.Contains(t, body, "timestamp")
}

func TestContact_RoundTrip(t *testing.T) {
	app := newTestApp(t)

	before := time.Now().UTC()
	rec := app.do(postJSON("/api/contact", `{
		"firstName": "Ada",
		"email": "ada@example.com",
		"budget": 1200.50,
		"services": ["audit", "training"],
		"meta": {"source": "footer"},
		"submittedAt": "1999-01-01"
	}`))
	after := time.Now().UTC()

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Contact form submitted successfully!", body["message"])
	assert.Equal(t, "saved", body["database"])
	assert.Equal(t, "queued", body["email"])

	require.Len(t, app.store.contacts, 1)
	sub := app.store.contacts[0]
	assert.Equal(t, "Ada", sub.Fields["firstName"])
	assert.Equal(t, json.Number("1200.50"), sub.Fields["budget"])
	assert.Equal(t, []any{"audit", "training"}, sub.Fields["services"])
	assert.Equal(t, map[string]any{"source": "footer"}, sub.Fields["meta"])
	assert.NotContains(t, sub.Fields, "submittedAt")
	assert.False(t, sub.SubmittedAt.Before(before))
	assert.False(t, sub.SubmittedAt.After(after))

	assert.Eventually(t, func() bool {
		return len(app.dispatcher.sent()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{job.TaskContactAck}, app.dispatcher.sent())
}

func TestContact_FormEncoded(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{"name": {"Bob"}, "topics": {"a", "b"}}
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := app.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no_recipient", decode(t, rec)["email"])

	require.Len(t, app.store.contacts, 1)
	assert.Equal(t, "Bob", app.store.contacts[0].Fields["name"])
	assert.Equal(t, []string{"a", "b"}, app.store.contacts[0].Fields["topics"])
}

func TestContact_MalformedJSON(t *testing.T) {
	app := newTestApp(t)

	for _, payload := range []string{`["not", "an", "object"]`, `{"email":"a@b.co"} trailing`} {
		rec := app.do(postJSON("/api/contact", payload))
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
		assert.Equal(t, false, decode(t, rec)["success"])
	}
	assert.Empty(t, app.store.contacts)
}

func TestContact_StoreFailure(t *testing.T) {
	t.Run("development shows detail", func(t *testing.T) {
		app := newTestApp(t)
		app.store.err = assert.AnError

		rec := app.do(postJSON("/api/contact", `{"email":"a@b.co"}`))
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Failed to process contact form.", body["message"])
		assert.Equal(t, assert.AnError.Error(), body["error"])
	})

	t.Run("production hides detail", func(t *testing.T) {
		app := newTestApp(t, func(c *config.Config) { c.Primary.Env = "production" })
		app.store.err = assert.AnError

		rec := app.do(postJSON("/api/contact", `{"email":"a@b.co"}`))
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, "Failed to process contact form.", body["message"])
		assert.NotContains(t, body, "error")
	})
}

func TestNewsletter_SubscribeTwice(t *testing.T) {
	app := newTestApp(t)

	first := app.do(postJSON("/api/newsletter", `{"email":"reader@example.com"}`))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	body := decode(t, first)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["alreadySubscribed"])
	assert.Equal(t, "Successfully subscribed to newsletter!", body["message"])

	second := app.do(postJSON("/api/newsletter", `{"email":"reader@example.com"}`))
	require.Equal(t, http.StatusOK, second.Code)
	body = decode(t, second)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["alreadySubscribed"])
	assert.Equal(t, "Email already subscribed.", body["message"])

	assert.Len(t, app.store.subs, 1)

	assert.Eventually(t, func() bool {
		return len(app.dispatcher.sent()) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestNewsletter_MissingEmail(t *testing.T) {
	app := newTestApp(t)

	for _, payload := range []string{`{}`, `{"email":"   "}`} {
		rec := app.do(postJSON("/api/newsletter", payload))
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Email is required.", body["message"])
	}
	assert.Empty(t, app.store.subs)
}

func TestNewsletter_Degraded(t *testing.T) {
	app := newTestApp(t)
	app.store.err = database.ErrUnavailable

	rec := app.do(postJSON("/api/newsletter", `{"email":"reader@example.com"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "not_connected", body["database"])
}

func TestApply_WithFiles(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(postMultipart(t, "/api/apply",
		map[string]string{"name": "Grace", "email": "grace@example.com", "position": "Engineer"},
		[]multipartFile{
			{field: "resume", name: "cv.pdf", body: "resume"},
			{field: "additionalDocs", name: "cover.docx", body: "cover"},
			{field: "additionalDocs", name: "refs.txt", body: "refs"},
		},
		[2]string{"skills", "go"}, [2]string{"skills", "sql"}, [2]string{"skills", "aws"},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "Application with files submitted successfully!", body["message"])
	assert.Equal(t, "saved", body["database"])

	require.Len(t, app.store.applications, 1)
	stored := app.store.applications[0]
	assert.Equal(t, "Grace", stored.Fields["name"])
	assert.Equal(t, "Engineer", stored.Fields["position"])
	assert.Equal(t, "grace@example.com", stored.Fields["email"])
	assert.Equal(t, []string{"go", "sql", "aws"}, stored.Fields["skills"])
	assert.Len(t, stored.Fields, 4)
	assert.NotContains(t, stored.Fields, "resume")
	assert.NotContains(t, stored.Fields, "additionalDocs")

	require.Len(t, stored.Files["resume"], 1)
	require.Len(t, stored.Files["additionalDocs"], 2)

	want := map[string]string{"cv.pdf": "resume", "cover.docx": "cover", "refs.txt": "refs"}
	seen := 0
	for _, refs := range stored.Files {
		for _, ref := range refs {
			content, ok := want[ref.OriginalName]
			require.True(t, ok, ref.OriginalName)
			assert.Equal(t, filepath.Ext(ref.OriginalName), filepath.Ext(ref.StoredName))

			got, err := os.ReadFile(filepath.Join(app.uploadDir, ref.StoredName))
			require.NoError(t, err)
			assert.Equal(t, content, string(got))
			seen++
		}
	}
	assert.Equal(t, 3, seen)

	// The stored file is served back under its stored name.
	ref := stored.Files["resume"][0]
	dl := app.do(httptest.NewRequest(http.MethodGet, "/uploads/"+ref.StoredName, nil))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "resume", dl.Body.String())
	assert.Equal(t, "application/pdf", dl.Header().Get(echo.HeaderContentType))
	assert.Contains(t, dl.Header().Get(echo.HeaderContentDisposition), "inline")
	assert.Equal(t, "nosniff", dl.Header().Get(echo.HeaderXContentTypeOptions))
}

func TestUploads_MarkupServedAsDownload(t *testing.T) {
	app := newTestApp(t)
	script := "<script>alert(document.cookie)</script>"

	rec := app.do(postMultipart(t, "/api/apply", map[string]string{"name": "x"}, []multipartFile{
		{field: "resume", name: "cv.html", body: script},
		{field: "additionalDocs", name: "logo.svg", body: "<svg onload=alert(1)/>"},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, app.store.applications, 1)

	for _, refs := range app.store.applications[0].Files {
		for _, ref := range refs {
			dl := app.do(httptest.NewRequest(http.MethodGet, "/uploads/"+ref.StoredName, nil))
			require.Equal(t, http.StatusOK, dl.Code)

			h := dl.Header()
			assert.Equal(t, "application/octet-stream", h.Get(echo.HeaderContentType), ref.OriginalName)
			assert.True(t, strings.HasPrefix(h.Get(echo.HeaderContentDisposition), "attachment"), ref.OriginalName)
			assert.Contains(t, h.Get(echo.HeaderContentSecurityPolicy), "sandbox")
			assert.Equal(t, "nosniff", h.Get(echo.HeaderXContentTypeOptions))
		}
	}
}

func TestApply_TooManyFiles(t *testing.T) {
	tests := []struct {
		name  string
		files []multipartFile
		field string
	}{
		{
			name: "six additional docs",
			files: []multipartFile{
				{"additionalDocs", "1.pdf", "x"}, {"additionalDocs", "2.pdf", "x"},
				{"additionalDocs", "3.pdf", "x"}, {"additionalDocs", "4.pdf", "x"},
				{"additionalDocs", "5.pdf", "x"}, {"additionalDocs", "6.pdf", "x"},
			},
			field: "additionalDocs",
		},
		{
			name:  "two resumes",
			files: []multipartFile{{"resume", "a.pdf", "x"}, {"resume", "b.pdf", "x"}},
			field: "resume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)

			rec := app.do(postMultipart(t, "/api/apply", map[string]string{"name": "x"}, tt.files))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			errors := body["errors"].([]any)
			require.Len(t, errors, 1)
			assert.Equal(t, tt.field, errors[0].(map[string]any)["field"])

			assert.Empty(t, app.store.applications)
			entries, err := os.ReadDir(app.uploadDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestApply_WithoutFiles(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(postMultipart(t, "/api/apply", map[string]string{"name": "x"}, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Application submitted successfully!", decode(t, rec)["message"])
}

func TestApply_BodyTooLarge(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.Server.BodyLimit = "1K" })

	rec := app.do(postMultipart(t, "/api/apply", nil, []multipartFile{
		{field: "resume", name: "cv.pdf", body: strings.Repeat("x", 4096)},
	}))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestUploads_NotFound(t *testing.T) {
	app := newTestApp(t)

	for _, name := range []string{"missing.pdf", ".hidden", "..%2F..%2Fetc%2Fpasswd"} {
		rec := app.do(httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, name)
	}
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Route not found", body["message"])
	assert.Equal(t, false, body["success"])
}

func TestRequestID(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := app.do(req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = app.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORS_Preflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)

	rec := app.do(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestRecoverFromPanic(t *testing.T) {
	app := newTestApp(t)
	app.echo.GET("/boom", func(echo.Context) error { panic("kaboom") })

	rec := app.do(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "goroutine")
}

func TestDocs_MissingStaticDir(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/docs", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "API docs not available", decode(t, rec)["message"])
}
