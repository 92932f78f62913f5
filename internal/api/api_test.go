package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resumeBuilder/internal/ai"
	"resumeBuilder/internal/auth"
	"resumeBuilder/internal/config"
	"resumeBuilder/internal/database"
	"resumeBuilder/internal/resume"
	"resumeBuilder/internal/store"
)

// memRedis 是 AuthRedis 的内存实现，只保存值与过期时长，不做真实过期。
type memRedis struct {
	mu     sync.Mutex
	values map[string]string
	ttl    map[string]time.Duration
}

func newMemRedis() *memRedis {
	return &memRedis{values: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.values[key], 10, 64)
	n++
	m.values[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	if ok {
		m.ttl[key] = expiration
	}
	return redis.NewBoolResult(ok, nil)
}

func (m *memRedis) TTL(_ context.Context, key string) *redis.DurationCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return redis.NewDurationResult(-2, nil)
	}
	if ttl, ok := m.ttl[key]; ok {
		return redis.NewDurationResult(ttl, nil)
	}
	return redis.NewDurationResult(-1, nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			n++
		}
		delete(m.values, key)
		delete(m.ttl, key)
	}
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case string:
		m.values[key] = v
	default:
		b, _ := json.Marshal(v)
		m.values[key] = string(b)
	}
	if expiration > 0 {
		m.ttl[key] = expiration
	}
	return redis.NewStatusResult("OK", nil)
}

type fakeAssistant struct {
	err     error
	summary string
	lastJD  string
}

func (f *fakeAssistant) GenerateSummary(context.Context, ai.SummaryRequest) (string, error) {
	return f.summary, f.err
}

func (f *fakeAssistant) EnhanceContent(_ context.Context, req ai.EnhanceRequest) (string, error) {
	return "1. " + req.Content, f.err
}

func (f *fakeAssistant) GenerateJobDescription(_ context.Context, req ai.JobDescriptionRequest) (string, error) {
	return "1. Led " + req.JobTitle + " work", f.err
}

func (f *fakeAssistant) SuggestSkills(context.Context, ai.SuggestSkillsRequest) ([]resume.Skill, error) {
	if f.err != nil {
		return nil, f.err
	}
	return ai.ParseSkills("Go, SQL"), nil
}

func (f *fakeAssistant) MatchJob(_ context.Context, req ai.MatchJobRequest) (ai.MatchResult, error) {
	f.lastJD = req.JobDescription
	if f.err != nil {
		return ai.MatchResult{}, f.err
	}
	return ai.MatchResult{Analysis: "Good match", MatchScore: 77}, nil
}

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
	// onEnqueue runs before EnqueueContext returns, like a worker picking the task up immediately.
	onEnqueue func(*asynq.Task)
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	if q.onEnqueue != nil {
		q.onEnqueue(task)
	}
	return &asynq.TaskInfo{ID: "task-" + strconv.Itoa(len(q.tasks)), Type: task.Type()}, nil
}

type fakeObjects struct {
	deletedPrefixes []string
	presigned       []string
}

func (o *fakeObjects) PresignedDownloadURL(_ context.Context, objectKey, fileName string, _ time.Duration) (string, error) {
	o.presigned = append(o.presigned, objectKey)
	return "https://files.example.test/" + objectKey + "?name=" + fileName, nil
}

func (o *fakeObjects) DeletePrefix(_ context.Context, prefix string) error {
	o.deletedPrefixes = append(o.deletedPrefixes, prefix)
	return nil
}

type testServer struct {
	router    *gin.Engine
	db        *gorm.DB
	store     *store.Store
	redis     *memRedis
	assistant *fakeAssistant
	queue     *fakeQueue
	objects   *fakeObjects
}

var (
	testKeysOnce sync.Once
	testPrivPEM  []byte
	testPubPEM   []byte
	testKeysErr  error
)

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	testKeysOnce.Do(func() {
		testPrivPEM, testPubPEM, testKeysErr = auth.GenerateKeyPEM(2048)
	})
	if testKeysErr != nil {
		t.Fatalf("GenerateKeyPEM: %v", testKeysErr)
	}
	authService, err := auth.NewAuthService(testPrivPEM, testPubPEM, time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	ts := &testServer{
		db:        db,
		store:     store.New(db),
		redis:     newMemRedis(),
		assistant: &fakeAssistant{summary: "Seasoned engineer."},
		queue:     &fakeQueue{},
		objects:   &fakeObjects{},
	}
	ts.router = NewRouter(&config.Config{}, nil)
	RegisterRoutes(ts.router, Deps{
		DB:             db,
		Auth:           authService,
		Redis:          ts.redis,
		Resumes:        ts.store,
		Assistant:      ts.assistant,
		Queue:          ts.queue,
		Objects:        ts.objects,
		LoginGuard:     LoginGuard{RateLimit: 100, RateWindow: time.Minute, LockThreshold: 3, LockTTL: time.Minute},
		ExportMaxRetry: 3,
		LinkTTL:        time.Minute,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": name, "email": email, "password": "secret123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	decode(t, rec, &resp)
	if resp.Token == "" {
		t.Fatalf("register returned no token: %s", rec.Body.String())
	}
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func msgOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Msg string `json:"msg"`
	}
	decode(t, rec, &body)
	return body.Msg
}

func validResume() gin.H {
	return gin.H{
		"title":        "Backend",
		"templateId":   "classic",
		"personalInfo": gin.H{"fullName": "Jane Doe", "email": "jane@example.com"},
		"summary":      "Builds reliable services.",
		"skills":       []gin.H{{"name": "Go", "level": "Advanced"}},
	}
}

func TestAuthMiddlewareMessages(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/resumes", "", nil)
	if rec.Code != http.StatusUnauthorized || msgOf(t, rec) != "No token, authorization denied" {
		t.Fatalf("missing token: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/api/resumes", "garbage", nil)
	if rec.Code != http.StatusUnauthorized || msgOf(t, rec) != "Token is not valid" {
		t.Fatalf("bad token: %d %s", rec.Code, rec.Body.String())
	}

	token := ts.register(t, "Jane", "jane@example.com")
	req := httptest.NewRequest(http.MethodGet, "/api/resumes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	bearer := httptest.NewRecorder()
	ts.router.ServeHTTP(bearer, req)
	if bearer.Code != http.StatusOK {
		t.Fatalf("bearer header rejected: %d %s", bearer.Code, bearer.Body.String())
	}
}

func TestRegisterLoginAndCurrentUser(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Jane", "Jane@Example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Other", "email": "jane@example.com", "password": "secret123"})
	if rec.Code != http.StatusBadRequest || msgOf(t, rec) != MsgUserExists {
		t.Fatalf("duplicate register: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "x@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "jane@example.com", "password": "wrong-pass"})
	if rec.Code != http.StatusBadRequest || msgOf(t, rec) != MsgInvalidCredentials {
		t.Fatalf("wrong password: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "JANE@example.com", "password": "secret123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var login tokenResponse
	decode(t, rec, &login)
	if login.TokenType != "Bearer" || login.ExpiresIn != 3600 || login.User.Email != "jane@example.com" {
		t.Fatalf("unexpected login response: %+v", login)
	}
	if _, ok := ts.redis.values["lock:login:fail:jane@example.com"]; ok {
		t.Fatalf("failure counter should be cleared after a successful login")
	}

	rec = ts.do(t, http.MethodGet, "/api/auth/user", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("current user: %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(strings.ToLower(rec.Body.String()), "password") {
		t.Fatalf("user response leaks password hash: %s", rec.Body.String())
	}
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Jane", "jane@example.com")

	for i := 0; i < 3; i++ {
		rec := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "jane@example.com", "password": "nope-nope"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: %d", i, rec.Code)
		}
	}

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "jane@example.com", "password": "secret123"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected lock, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Jane", "jane@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "jane@example.com", "password": "secret123"})
	var refresh string
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshTokenCookieName {
			refresh = c.Value
			if !c.HttpOnly {
				t.Fatalf("refresh cookie must be HttpOnly")
			}
		}
	}
	if refresh == "" {
		t.Fatalf("login did not set a refresh cookie")
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}
	var rotated string
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshTokenCookieName {
			rotated = c.Value
		}
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": refresh})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token accepted: %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/logout", "", gin.H{"refresh_token": rotated})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": rotated})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("logged out token accepted: %d", rec.Code)
	}
}

func TestResumeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Jane", "jane@example.com")

	rec := ts.do(t, http.MethodPost, "/api/resumes", token, gin.H{
		"personalInfo": gin.H{"fullName": "", "email": " "},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid create: %d %s", rec.Code, rec.Body.String())
	}
	var invalid struct {
		Msg    string                  `json:"msg"`
		Errors resume.ValidationErrors `json:"errors"`
	}
	decode(t, rec, &invalid)
	if len(invalid.Errors) < 2 {
		t.Fatalf("expected field errors for fullName and email, got %+v", invalid.Errors)
	}
	for _, fe := range invalid.Errors {
		if fe.Section() != "personalInfo" {
			t.Fatalf("unexpected section for %+v", fe)
		}
	}

	rec = ts.do(t, http.MethodPost, "/api/resumes", token, validResume())
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created resume.Document
	decode(t, rec, &created)
	if created.ID == "" || created.Experience == nil || created.MoreDetails.Languages == nil {
		t.Fatalf("created document not normalized: %+v", created)
	}

	rec = ts.do(t, http.MethodPut, "/api/resumes/"+created.ID, token, gin.H{"summary": "Ships things.", "id": "ignored"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	var updated resume.Document
	decode(t, rec, &updated)
	if updated.ID != created.ID || updated.Summary != "Ships things." || updated.Title != "Backend" {
		t.Fatalf("partial update: %+v", updated)
	}

	rec = ts.do(t, http.MethodGet, "/api/resumes", token, nil)
	var list []resume.Document
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list: %+v", list)
	}

	rec = ts.do(t, http.MethodDelete, "/api/resumes/"+created.ID, token, nil)
	if rec.Code != http.StatusOK || msgOf(t, rec) != MsgResumeRemoved {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
	if len(ts.objects.deletedPrefixes) != 1 || !strings.HasSuffix(ts.objects.deletedPrefixes[0], created.ID+"/") {
		t.Fatalf("export files not cleaned: %v", ts.objects.deletedPrefixes)
	}

	rec = ts.do(t, http.MethodGet, "/api/resumes/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound || msgOf(t, rec) != MsgResumeNotFound {
		t.Fatalf("get deleted: %d %s", rec.Code, rec.Body.String())
	}
}

func TestResumeOwnership(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.register(t, "Jane", "jane@example.com")
	other := ts.register(t, "Mallory", "mallory@example.com")

	rec := ts.do(t, http.MethodPost, "/api/resumes", owner, validResume())
	var created resume.Document
	decode(t, rec, &created)

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/resumes/" + created.ID, nil},
		{http.MethodPut, "/api/resumes/" + created.ID, gin.H{"summary": "mine now"}},
		{http.MethodDelete, "/api/resumes/" + created.ID, nil},
		{http.MethodGet, "/api/resumes/" + created.ID + "/render", nil},
	} {
		rec := ts.do(t, tc.method, tc.path, other, tc.body)
		if rec.Code != http.StatusUnauthorized || msgOf(t, rec) != MsgNotAuthorized {
			t.Fatalf("%s %s by non-owner: %d %s", tc.method, tc.path, rec.Code, rec.Body.String())
		}
	}

	rec = ts.do(t, http.MethodGet, "/api/resumes", other, nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("other user sees resumes: %s", rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/api/resumes/not-a-uuid", owner, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("malformed id: %d", rec.Code)
	}
}

func TestAIRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Jane", "jane@example.com")

	rec := ts.do(t, http.MethodPost, "/api/ai/generate-summary", token, gin.H{"skills": []gin.H{{"name": "Go"}}})
	var summary map[string]string
	decode(t, rec, &summary)
	if rec.Code != http.StatusOK || summary["summary"] != "Seasoned engineer." {
		t.Fatalf("summary: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/ai/suggest-skills", token, gin.H{"summary": "x"})
	var skills struct {
		Skills []resume.Skill `json:"skills"`
	}
	decode(t, rec, &skills)
	if len(skills.Skills) != 2 || skills.Skills[1].Level != resume.LevelIntermediate {
		t.Fatalf("skills: %+v", skills)
	}

	ts.assistant.lastJD = "stale"
	rec = ts.do(t, http.MethodPost, "/api/ai/match-job", token, gin.H{"resumeData": validResume()})
	if rec.Code != http.StatusOK || ts.assistant.lastJD != "" {
		t.Fatalf("match-job without description: %d %q", rec.Code, ts.assistant.lastJD)
	}

	rec = ts.do(t, http.MethodPost, "/api/ai/match-job", token, gin.H{"resumeData": validResume(), "jobDescription": "Go engineer"})
	var match ai.MatchResult
	decode(t, rec, &match)
	if match.MatchScore != 77 || ts.assistant.lastJD != "Go engineer" {
		t.Fatalf("match: %+v", match)
	}

	ts.assistant.err = &ai.UpstreamError{Op: ai.OpEnhance, Err: errors.New("quota exceeded")}
	rec = ts.do(t, http.MethodPost, "/api/ai/enhance-resume", token, gin.H{"section": "experience", "content": "did stuff"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("upstream failure: %d", rec.Code)
	}
	var failure map[string]string
	decode(t, rec, &failure)
	if failure["msg"] != MsgEnhanceFailed || failure["error"] != "quota exceeded" {
		t.Fatalf("failure body: %+v", failure)
	}

	// 缺少 content 也走到上游，错误仍是 500 而不是 400
	rec = ts.do(t, http.MethodPost, "/api/ai/enhance-resume", token, gin.H{"section": "experience"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("enhance without content: %d", rec.Code)
	}
	rec = ts.do(t, http.MethodPost, "/api/ai/match-job", token, gin.H{})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("match-job upstream failure: %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/ai/generate-summary", "", gin.H{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("ai without token: %d", rec.Code)
	}
}

func TestRenderRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Jane", "jane@example.com")

	rec := ts.do(t, http.MethodGet, "/api/templates", "", nil)
	var templates []map[string]string
	decode(t, rec, &templates)
	if len(templates) != len(resume.TemplateIDs) {
		t.Fatalf("templates: %+v", templates)
	}

	rec = ts.do(t, http.MethodPost, "/api/resumes", token, validResume())
	var created resume.Document
	decode(t, rec, &created)

	rec = ts.do(t, http.MethodGet, "/api/resumes/"+created.ID+"/preview?target=paper", token, nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("preview: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "Jane Doe") || !strings.Contains(rec.Body.String(), "@page") {
		t.Fatalf("paper preview missing content or page box")
	}

	rec = ts.do(t, http.MethodGet, "/api/resumes/"+created.ID+"/render?template=bogus", token, nil)
	var visual struct {
		TemplateID string `json:"templateId"`
	}
	decode(t, rec, &visual)
	if rec.Code != http.StatusOK || visual.TemplateID != resume.DefaultTemplateID {
		t.Fatalf("render with unknown template: %d %s", rec.Code, rec.Body.String())
	}

	// 草稿无需通过保存校验。
	rec = ts.do(t, http.MethodPost, "/api/resumes/preview", token, gin.H{"summary": "Draft only"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Draft only") {
		t.Fatalf("draft preview: %d %s", rec.Code, rec.Body.String())
	}
}

func TestExportRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Jane", "jane@example.com")

	rec := ts.do(t, http.MethodPost, "/api/resumes", token, validResume())
	var created resume.Document
	decode(t, rec, &created)

	rec = ts.do(t, http.MethodGet, "/api/resumes/"+created.ID+"/download-link", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("download before export: %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/resumes/"+created.ID+"/export?template=elegant", token, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	if len(ts.queue.tasks) != 1 || ts.queue.tasks[0].Type() != "resume:export" {
		t.Fatalf("queued tasks: %+v", ts.queue.tasks)
	}
	var payload struct {
		ResumeID   string `json:"resume_id"`
		TemplateID string `json:"template_id"`
	}
	if err := json.Unmarshal(ts.queue.tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.ResumeID != created.ID || payload.TemplateID != "elegant" {
		t.Fatalf("payload: %+v", payload)
	}

	ctx := context.Background()
	state, err := ts.store.GetExport(ctx, created.ID, created.OwnerID)
	if err != nil || state.Status != database.ExportPending {
		t.Fatalf("export state: %+v %v", state, err)
	}

	key := "exports/1/" + created.ID + "/file.pdf"
	if err := ts.store.SetExport(ctx, created.ID, database.ExportCompleted, key); err != nil {
		t.Fatalf("SetExport: %v", err)
	}
	rec = ts.do(t, http.MethodGet, "/api/resumes/"+created.ID+"/download-link", token, nil)
	var link map[string]any
	decode(t, rec, &link)
	if rec.Code != http.StatusOK || !strings.Contains(link["url"].(string), key) || !strings.Contains(link["url"].(string), "Backend.pdf") {
		t.Fatalf("download link: %d %v", rec.Code, link)
	}
}

func TestExportCompletedBeforeEnqueueReturns(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Jane", "jane@example.com")

	rec := ts.do(t, http.MethodPost, "/api/resumes", token, validResume())
	var created resume.Document
	decode(t, rec, &created)

	ctx := context.Background()
	key := "exports/1/" + created.ID + "/fast.pdf"
	ts.queue.onEnqueue = func(*asynq.Task) {
		if err := ts.store.SetExport(ctx, created.ID, database.ExportCompleted, key); err != nil {
			t.Errorf("SetExport: %v", err)
		}
	}

	rec = ts.do(t, http.MethodPost, "/api/resumes/"+created.ID+"/export", token, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	state, err := ts.store.GetExport(ctx, created.ID, created.OwnerID)
	if err != nil || state.Status != database.ExportCompleted || state.ObjectKey != key {
		t.Fatalf("export state: %+v %v", state, err)
	}
	rec = ts.do(t, http.MethodGet, "/api/resumes/"+created.ID+"/download-link", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download link: %d %s", rec.Code, rec.Body.String())
	}
}

func TestExportEnqueueFailure(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Jane", "jane@example.com")

	rec := ts.do(t, http.MethodPost, "/api/resumes", token, validResume())
	var created resume.Document
	decode(t, rec, &created)

	ts.queue.err = errors.New("redis down")
	rec = ts.do(t, http.MethodPost, "/api/resumes/"+created.ID+"/export", token, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	state, err := ts.store.GetExport(context.Background(), created.ID, created.OwnerID)
	if err != nil || state.Status != database.ExportFailed {
		t.Fatalf("export state: %+v %v", state, err)
	}
}

func TestDownloadFileName(t *testing.T) {
	cases := map[string]string{
		"Software Engineer": "Software-Engineer.pdf",
		"  ":                "resume.pdf",
		"C++ / Rust":        "C--Rust.pdf",
	}
	for in, want := range cases {
		if got := downloadFileName(in); got != want {
			t.Errorf("downloadFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
