// Package client 是简历服务的 HTTP 客户端。Session 显式创建、登录后绑定令牌、退出时销毁，
// 并实现 builder.Store 与 builder.Assistant。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"resumeBuilder/internal/ai"
	"resumeBuilder/internal/builder"
	"resumeBuilder/internal/render"
	"resumeBuilder/internal/resume"
)

// ErrNotLoggedIn is returned by authenticated calls made before Login or after Logout.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response. Error prefers the upstream detail, then the message.
type APIError struct {
	Status int
	Msg    string
	Detail string
	Fields resume.ValidationErrors
}

func (e *APIError) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Msg != "":
		return e.Msg
	default:
		return http.StatusText(e.Status)
	}
}

// User is the account bound to a session.
type User struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session 保存一个登录态。并发安全。
type Session struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
	user  User
}

// New creates a logged-out session for the API rooted at baseURL (e.g. http://localhost:5000/api).
// A cookie jar is attached when httpClient has none, so the refresh cookie survives between calls.
func New(baseURL string, httpClient *http.Client) (*Session, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		clone := *httpClient
		clone.Jar = jar
		httpClient = &clone
	}
	return &Session{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}, nil
}

type tokenResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Register creates an account and binds the session to it.
func (s *Session) Register(ctx context.Context, name, email, password string) (User, error) {
	var resp tokenResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := s.do(ctx, http.MethodPost, "/auth/register", false, body, &resp); err != nil {
		return User{}, err
	}
	s.bind(resp)
	return resp.User, nil
}

// Login binds the session to the account's access token.
func (s *Session) Login(ctx context.Context, email, password string) (User, error) {
	var resp tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.do(ctx, http.MethodPost, "/auth/login", false, body, &resp); err != nil {
		return User{}, err
	}
	s.bind(resp)
	return resp.User, nil
}

// Logout revokes the refresh token on the server and always drops the local token.
func (s *Session) Logout(ctx context.Context) error {
	if !s.LoggedIn() {
		return nil
	}
	err := s.do(ctx, http.MethodPost, "/auth/logout", false, nil, nil)

	s.mu.Lock()
	s.token = ""
	s.user = User{}
	s.mu.Unlock()
	return err
}

// LoggedIn reports whether a token is bound.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// User returns the bound account.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) bind(resp tokenResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = resp.Token
	s.user = resp.User
}

// List returns the user's resumes, most recently updated first.
func (s *Session) List(ctx context.Context) ([]resume.Document, error) {
	var docs []resume.Document
	err := s.do(ctx, http.MethodGet, "/resumes", true, nil, &docs)
	return docs, err
}

// Get fetches one resume.
func (s *Session) Get(ctx context.Context, id string) (resume.Document, error) {
	var doc resume.Document
	err := s.do(ctx, http.MethodGet, "/resumes/"+url.PathEscape(id), true, nil, &doc)
	return doc, err
}

// Create saves a new resume.
func (s *Session) Create(ctx context.Context, doc resume.Document) (resume.Document, error) {
	var created resume.Document
	err := s.do(ctx, http.MethodPost, "/resumes", true, doc, &created)
	return created, err
}

// Update replaces the content of an existing resume.
func (s *Session) Update(ctx context.Context, id string, doc resume.Document) (resume.Document, error) {
	var updated resume.Document
	err := s.do(ctx, http.MethodPut, "/resumes/"+url.PathEscape(id), true, doc, &updated)
	return updated, err
}

// Delete removes a resume.
func (s *Session) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/resumes/"+url.PathEscape(id), true, nil, nil)
}

// Templates lists the server's templates.
func (s *Session) Templates(ctx context.Context) ([]render.TemplateInfo, error) {
	var out []render.TemplateInfo
	err := s.do(ctx, http.MethodGet, "/templates", false, nil, &out)
	return out, err
}

// RequestExport queues a PDF export and returns the task id.
func (s *Session) RequestExport(ctx context.Context, id, templateID string) (string, error) {
	path := "/resumes/" + url.PathEscape(id) + "/export"
	if templateID != "" {
		path += "?template=" + url.QueryEscape(templateID)
	}
	var resp struct {
		TaskID string `json:"task_id"`
	}
	err := s.do(ctx, http.MethodPost, path, true, nil, &resp)
	return resp.TaskID, err
}

// DownloadLink returns a presigned URL for the last finished export.
func (s *Session) DownloadLink(ctx context.Context, id string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	err := s.do(ctx, http.MethodGet, "/resumes/"+url.PathEscape(id)+"/download-link", true, nil, &resp)
	return resp.URL, err
}

func (s *Session) GenerateSummary(ctx context.Context, req ai.SummaryRequest) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	err := s.do(ctx, http.MethodPost, "/ai/generate-summary", true, req, &resp)
	return resp.Summary, err
}

func (s *Session) EnhanceContent(ctx context.Context, req ai.EnhanceRequest) (string, error) {
	var resp struct {
		EnhancedContent string `json:"enhancedContent"`
	}
	err := s.do(ctx, http.MethodPost, "/ai/enhance-resume", true, req, &resp)
	return resp.EnhancedContent, err
}

func (s *Session) GenerateJobDescription(ctx context.Context, req ai.JobDescriptionRequest) (string, error) {
	var resp struct {
		Description string `json:"description"`
	}
	err := s.do(ctx, http.MethodPost, "/ai/generate-job-description", true, req, &resp)
	return resp.Description, err
}

func (s *Session) SuggestSkills(ctx context.Context, req ai.SuggestSkillsRequest) ([]resume.Skill, error) {
	var resp struct {
		Skills []resume.Skill `json:"skills"`
	}
	err := s.do(ctx, http.MethodPost, "/ai/suggest-skills", true, req, &resp)
	return resp.Skills, err
}

func (s *Session) MatchJob(ctx context.Context, req ai.MatchJobRequest) (ai.MatchResult, error) {
	var resp ai.MatchResult
	err := s.do(ctx, http.MethodPost, "/ai/match-job", true, req, &resp)
	return resp, err
}

// do sends one JSON request. out may be nil.
func (s *Session) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		s.mu.RLock()
		token := s.token
		s.mu.RUnlock()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("x-auth-token", token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Msg    string                  `json:"msg"`
			Error  string                  `json:"error"`
			Errors resume.ValidationErrors `json:"errors"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Msg = payload.Msg
			apiErr.Detail = payload.Error
			apiErr.Fields = payload.Errors
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

var (
	_ builder.Store     = (*Session)(nil)
	_ builder.Assistant = (*Session)(nil)
)
