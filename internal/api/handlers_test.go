package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bridgesync/bridgesync/internal/auth"
	"github.com/bridgesync/bridgesync/internal/config"
	"github.com/bridgesync/bridgesync/internal/model"
	"github.com/bridgesync/bridgesync/internal/presenter"
	"github.com/bridgesync/bridgesync/internal/queue"
	"github.com/bridgesync/bridgesync/internal/repository"
	"github.com/bridgesync/bridgesync/internal/uploader"
)

type fakeUserStore struct {
	byEmail map[string]*repository.User
}

func (f *fakeUserStore) Create(_ context.Context, u *repository.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeObjectStore struct {
	objects map[string][]byte
}

func (f *fakeObjectStore) Put(_ context.Context, key string, reader io.Reader, _ int64, _ string, _ bool) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeObjectStore) SignURL(_ context.Context, key string, ttl time.Duration) (model.SignedAccessURL, error) {
	return model.SignedAccessURL{
		Key:       key,
		URL:       "https://store.local/" + key + "?sig=test",
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

type fakeUploadRepo struct {
	rows []model.UploadRecord
	now  time.Time
}

func (f *fakeUploadRepo) Insert(_ context.Context, rec *model.UploadRecord) error {
	f.now = f.now.Add(time.Second)
	rec.CreatedAt = f.now
	f.rows = append(f.rows, *rec)
	return nil
}

func (f *fakeUploadRepo) ListByOwner(_ context.Context, userID string) ([]model.UploadRecord, error) {
	var out []model.UploadRecord
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeProfileStore struct {
	byID map[string]*model.Profile
}

func (f *fakeProfileStore) Upsert(_ context.Context, p *model.Profile) error {
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProfileStore) Get(_ context.Context, id string) (*model.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeSummaryLister struct {
	summaries []model.Summary
}

func (f *fakeSummaryLister) List(context.Context) ([]model.Summary, error) {
	return f.summaries, nil
}

type fakeTaskStore struct {
	tasks    []model.Task
	statuses map[string]model.TaskStatus
}

func (f *fakeTaskStore) List(context.Context) ([]model.Task, error) {
	return f.tasks, nil
}

func (f *fakeTaskStore) ListAssignedTo(_ context.Context, userID string) ([]model.Task, error) {
	var out []model.Task
	for _, t := range f.tasks {
		if t.AssignedTo == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) SetStatus(_ context.Context, id string, status model.TaskStatus) error {
	for _, t := range f.tasks {
		if t.ID == id {
			f.statuses[id] = status
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeEnqueuer struct {
	payloads []queue.ProcessPayload
}

func (f *fakeEnqueuer) EnqueueProcess(_ context.Context, payload queue.ProcessPayload) error {
	f.payloads = append(f.payloads, payload)
	return nil
}

type testEnv struct {
	engine   *gin.Engine
	store    *fakeObjectStore
	uploads  *fakeUploadRepo
	profiles *fakeProfileStore
	tasks    *fakeTaskStore
	enqueuer *fakeEnqueuer
	auth     *auth.Service
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Address:      ":0",
		MaxFileSize:  1 << 20,
		AllowedTypes: []string{"audio/mpeg", "audio/wav"},
		SignedURLTTL: 3600 * time.Second,
		TokenTTL:     time.Hour,
	}

	authSvc := auth.NewService(&fakeUserStore{byEmail: map[string]*repository.User{}}, []byte("test-secret"), cfg.TokenTTL)
	store := &fakeObjectStore{objects: map[string][]byte{}}
	uploadRepo := &fakeUploadRepo{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	profiles := &fakeProfileStore{byID: map[string]*model.Profile{}}
	tasks := &fakeTaskStore{statuses: map[string]model.TaskStatus{}}
	enqueuer := &fakeEnqueuer{}

	orch := uploader.New(auth.ContextAccessor{}, store, uploadRepo, cfg.SignedURLTTL, nil)
	lister := presenter.New(uploadRepo, store, cfg.SignedURLTTL, nil)

	a := NewAPI(cfg, authSvc, profiles, orch, lister, &fakeSummaryLister{}, tasks, enqueuer, nil)
	return &testEnv{
		engine:   a.Engine(),
		store:    store,
		uploads:  uploadRepo,
		profiles: profiles,
		tasks:    tasks,
		enqueuer: enqueuer,
		auth:     authSvc,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signUpAs(t *testing.T, email string, role model.Role) (string, model.Principal) {
	t.Helper()
	sess, err := e.auth.SignUp(context.Background(), email, "password1")
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	if role.Valid() {
		e.profiles.byID[sess.Principal.ID] = &model.Profile{
			ID:    sess.Principal.ID,
			Name:  "Test User",
			Email: email,
			Role:  role,
		}
	}
	return sess.Token, sess.Principal
}

func audioForm(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestSignupLoginFlow(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", strings.NewReader(`{"email":"sales@example.com","password":"pw"}`), "application/json")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/signup", "", strings.NewReader(`{"email":"sales@example.com","password":"pw"}`), "application/json")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", strings.NewReader(`{"email":"sales@example.com","password":"wrong"}`), "application/json")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", strings.NewReader(`{"email":"sales@example.com","password":"pw"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	var sess auth.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess.Token == "" {
		t.Fatalf("expected a token")
	}
}

func TestUploadRequiresAuthAndRole(t *testing.T) {
	env := setupTestServer(t)
	body, formType := audioForm(t, "call.mp3", "audio/mpeg", "0123456789")

	rec := env.do(t, http.MethodPost, "/api/uploads", "", body, formType)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}

	devToken, _ := env.signUpAs(t, "dev@example.com", model.RoleDev)
	body, formType = audioForm(t, "call.mp3", "audio/mpeg", "0123456789")
	rec = env.do(t, http.MethodPost, "/api/uploads", devToken, body, formType)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("dev role: expected 403, got %d", rec.Code)
	}
	if len(env.uploads.rows) != 0 {
		t.Fatalf("expected no metadata writes on the failure path")
	}
}

func TestUploadAndList(t *testing.T) {
	env := setupTestServer(t)
	token, principal := env.signUpAs(t, "sales@example.com", model.RoleSales)

	body, formType := audioForm(t, "call.mp3", "audio/mpeg", "0123456789")
	rec := env.do(t, http.MethodPost, "/api/uploads", token, body, formType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d (%s)", rec.Code, rec.Body)
	}

	var result uploader.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	wantKey := principal.ID + "/call.mp3"
	if result.Record.FilePath != wantKey {
		t.Fatalf("expected key %q, got %q", wantKey, result.Record.FilePath)
	}
	if result.Signed.URL == "" {
		t.Fatalf("expected a signed url")
	}
	if len(env.enqueuer.payloads) != 1 || env.enqueuer.payloads[0].UploadID != result.Record.ID {
		t.Fatalf("expected one enqueued processing job for the upload")
	}

	body, formType = audioForm(t, "followup.mp3", "audio/mpeg", "abc")
	if rec := env.do(t, http.MethodPost, "/api/uploads", token, body, formType); rec.Code != http.StatusCreated {
		t.Fatalf("second upload: expected 201, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/uploads", token, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listResp struct {
		Uploads []presenter.PresentedUpload `json:"uploads"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(listResp.Uploads))
	}
	// Newest first.
	if listResp.Uploads[0].Record.FilePath != principal.ID+"/followup.mp3" {
		t.Fatalf("expected newest first, got %q", listResp.Uploads[0].Record.FilePath)
	}
	for _, u := range listResp.Uploads {
		if u.SignedURL == "" {
			t.Fatalf("expected signed url for %s", u.Record.ID)
		}
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	env := setupTestServer(t)
	token, _ := env.signUpAs(t, "sales@example.com", model.RoleSales)

	body, formType := audioForm(t, "notes.pdf", "application/pdf", "%PDF-1.4")
	rec := env.do(t, http.MethodPost, "/api/uploads", token, body, formType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(env.store.objects) != 0 {
		t.Fatalf("expected no stored objects")
	}
}

func TestProfileCompletion(t *testing.T) {
	env := setupTestServer(t)
	token, principal := env.signUpAs(t, "new@example.com", model.RoleUnknown)

	rec := env.do(t, http.MethodGet, "/api/profile", token, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before completion, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/api/profile", token, strings.NewReader(`{"name":"New User","role":"pm"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("put profile: expected 200, got %d (%s)", rec.Code, rec.Body)
	}

	stored, ok := env.profiles.byID[principal.ID]
	if !ok || stored.Role != model.RolePM || stored.Name != "New User" {
		t.Fatalf("unexpected stored profile %+v", stored)
	}

	rec = env.do(t, http.MethodPut, "/api/profile", token, strings.NewReader(`{"name":"New User","role":"boss"}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid role: expected 400, got %d", rec.Code)
	}
}

func TestMenuPerRole(t *testing.T) {
	env := setupTestServer(t)

	for _, tc := range []struct {
		email string
		role  model.Role
		want  int
	}{
		{"sales@example.com", model.RoleSales, 3},
		{"pm@example.com", model.RolePM, 4},
		{"dev@example.com", model.RoleDev, 3},
		{"fresh@example.com", model.RoleUnknown, 1},
	} {
		token, _ := env.signUpAs(t, tc.email, tc.role)
		rec := env.do(t, http.MethodGet, "/api/menu", token, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.email, rec.Code)
		}
		var resp struct {
			Items []struct {
				Href string `json:"href"`
			} `json:"items"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode menu: %v", err)
		}
		if len(resp.Items) != tc.want {
			t.Fatalf("%s: expected %d menu items, got %d", tc.email, tc.want, len(resp.Items))
		}
		if resp.Items[0].Href != "/" {
			t.Fatalf("%s: menu must start with home", tc.email)
		}
	}
}

func TestSummariesGatedToPM(t *testing.T) {
	env := setupTestServer(t)

	devToken, _ := env.signUpAs(t, "dev@example.com", model.RoleDev)
	if rec := env.do(t, http.MethodGet, "/api/summaries", devToken, nil, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("dev: expected 403, got %d", rec.Code)
	}

	pmToken, _ := env.signUpAs(t, "pm@example.com", model.RolePM)
	if rec := env.do(t, http.MethodGet, "/api/summaries", pmToken, nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("pm: expected 200, got %d", rec.Code)
	}
}

func TestTasksFilteredForDev(t *testing.T) {
	env := setupTestServer(t)
	pmToken, _ := env.signUpAs(t, "pm@example.com", model.RolePM)
	devToken, dev := env.signUpAs(t, "dev@example.com", model.RoleDev)

	env.tasks.tasks = []model.Task{
		{ID: "t1", Title: "Implement Dark Mode Toggle", AssignedTo: dev.ID, Status: model.TaskPending, Priority: model.PriorityHigh},
		{ID: "t2", Title: "Optimize Mobile Responsiveness", AssignedTo: "someone-else", Status: model.TaskPending, Priority: model.PriorityMedium},
	}

	rec := env.do(t, http.MethodGet, "/api/tasks", pmToken, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pm tasks: expected 200, got %d", rec.Code)
	}
	var resp struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	if len(resp.Tasks) != 2 {
		t.Fatalf("pm should see all tasks, got %d", len(resp.Tasks))
	}

	rec = env.do(t, http.MethodGet, "/api/tasks", devToken, nil, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].ID != "t1" {
		t.Fatalf("dev should see only assigned tasks, got %+v", resp.Tasks)
	}

	rec = env.do(t, http.MethodPatch, "/api/tasks/t1", devToken, strings.NewReader(`{"status":"in-progress"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d (%s)", rec.Code, rec.Body)
	}
	if env.tasks.statuses["t1"] != model.TaskInProgress {
		t.Fatalf("expected status update to in-progress")
	}

	rec = env.do(t, http.MethodPatch, "/api/tasks/t1", devToken, strings.NewReader(`{"status":"done"}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: expected 400, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	env := setupTestServer(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
