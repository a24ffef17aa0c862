package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/homeservices/user-service/internal/application"
	"github.com/homeservices/user-service/internal/domain/entity"
	"github.com/homeservices/user-service/internal/domain/repository/repotest"
	"github.com/homeservices/user-service/internal/interface/middleware"
	"github.com/homeservices/user-service/pkg/apperror"
	"github.com/homeservices/user-service/pkg/helpers"
	"github.com/homeservices/user-service/pkg/response"
	"github.com/homeservices/user-service/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type memAvatars struct{ path string }

func (m *memAvatars) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.path = objectPath
	return "https://cdn.test/" + objectPath, nil
}

type testAPI struct {
	engine *gin.Engine
	store  *repotest.Store
	svc    *application.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := repotest.New()
	jwt := helpers.NewJWTManager("handler-secret")
	logger := helpers.NopLogger()
	svc := application.NewService(store, helpers.BcryptHasher{Cost: bcrypt.MinCost}, jwt, logger, "24h")
	svc.Avatars = &memAvatars{}
	authn := application.NewAuthenticator(store, jwt, logger)

	auth := NewAuthHandler(svc)
	users := NewUserHandler(svc)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RealIP())
	r.POST("/api/auth/register", auth.Register)
	r.POST("/api/auth/login", auth.Login)
	r.POST("/api/auth/refresh", auth.Refresh)

	g := r.Group("/api/users", middleware.Guard(logger, middleware.Authenticated(authn)))
	g.GET("/profile", users.GetProfile)
	g.PUT("/profile", users.UpdateProfile)
	g.DELETE("/profile", users.DeleteProfile)
	g.POST("/profile/avatar", users.UploadAvatar)

	admin := g.Group("/admin", middleware.Guard(logger, middleware.HasRole(entity.RoleAdmin)))
	admin.GET("/users", users.SearchUsers)
	admin.GET("/users/:id/activity", users.LoginActivity)

	return &testAPI{engine: r, store: store, svc: svc}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

type authEnvelope struct {
	Status  int                    `json:"status"`
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    application.AuthResult `json:"data"`
}

func (a *testAPI) register(t *testing.T, email string) application.AuthResult {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": email, "password": "s3cret-pass", "first_name": "Thabo", "last_name": "Nkosi",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var env authEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func problem(t *testing.T, w *httptest.ResponseRecorder) response.Problem {
	t.Helper()
	var p response.Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode problem: %v (%s)", err, w.Body.String())
	}
	return p
}

func TestRegisterEndpoint(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "Thabo@Example.com", "password": "s3cret-pass", "first_name": "Thabo", "last_name": "Nkosi",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("body mentions password: %s", w.Body.String())
	}
	var env authEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Message != "User registered successfully" || env.Data.User.Email != "thabo@example.com" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.Data.Tokens.TokenType != "Bearer" || env.Data.Tokens.AccessToken == "" {
		t.Fatalf("unexpected tokens %+v", env.Data.Tokens)
	}
}

func TestRegisterEndpointRejectsBadBodies(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/auth/register", "", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if p := problem(t, w); p.Type != apperror.TypeBase+"validation-error" || len(p.Errors) == 0 {
		t.Fatalf("unexpected %+v", p)
	}

	w = api.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"email": "a@b.co", "password": "s3cret-pass", "first_name": "A", "last_name": "Nkosi"})
	if p := problem(t, w); p.Detail != "first_name must be at least 2 characters long" {
		t.Fatalf("unexpected detail %q", p.Detail)
	}

	api.register(t, "dup@example.com")
	w = api.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "DUP@example.com", "password": "s3cret-pass", "first_name": "Thabo", "last_name": "Nkosi",
	})
	if w.Code != http.StatusConflict || problem(t, w).Type != apperror.TypeBase+"user-exists" {
		t.Fatalf("expected 409 user-exists, got %d %s", w.Code, w.Body.String())
	}
}

func TestLoginErrorsAreIdentical(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "thabo@example.com")

	wrong := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "thabo@example.com", "password": "wrong-password"})
	unknown := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ghost@example.com", "password": "s3cret-pass"})

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s, got %d and %d", wrong.Code, unknown.Code)
	}
	a, b := problem(t, wrong), problem(t, unknown)
	// the only per-request fields
	a.Timestamp, b.Timestamp = time.Time{}, time.Time{}
	a.RequestID, b.RequestID = "", ""
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Fatalf("login failures differ:\n%s\n%s", ja, jb)
	}
}

func TestLoginAndRefreshEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "thabo@example.com")

	w := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "thabo@example.com", "password": "s3cret-pass"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var env authEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if env.Data.User.LastLogin == nil {
		t.Fatal("expected last_login in login response")
	}

	w = api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": env.Data.Tokens.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}
	w = api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": env.Data.Tokens.AccessToken})
	if w.Code != http.StatusUnauthorized || problem(t, w).Type != apperror.TypeBase+"invalid-token" {
		t.Fatalf("expected invalid-token, got %d %s", w.Code, w.Body.String())
	}
}

func TestProfileLifecycle(t *testing.T) {
	api := newTestAPI(t)
	reg := api.register(t, "thabo@example.com")
	token := reg.Tokens.AccessToken

	if w := api.do(t, http.MethodGet, "/api/users/profile", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w := api.do(t, http.MethodGet, "/api/users/profile", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"email":"thabo@example.com"`) {
		t.Fatalf("get profile: %d %s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodPut, "/api/users/profile", token, map[string]any{"phone": "0821234567"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"first_name":"Thabo"`) || !strings.Contains(w.Body.String(), `"phone":"0821234567"`) {
		t.Fatalf("update profile: %d %s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodPut, "/api/users/profile", token, map[string]any{"phone": "12"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad phone, got %d", w.Code)
	}

	w = api.do(t, http.MethodDelete, "/api/users/profile", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Account deactivated successfully") {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodGet, "/api/users/profile", token, nil)
	if w.Code != http.StatusUnauthorized || problem(t, w).Type != apperror.TypeBase+"user-deactivated" {
		t.Fatalf("expected user-deactivated, got %d %s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "thabo@example.com", "password": "s3cret-pass"})
	if w.Code != http.StatusUnauthorized || problem(t, w).Type != apperror.TypeBase+"invalid-credentials" {
		t.Fatalf("expected invalid-credentials after deactivation, got %d %s", w.Code, w.Body.String())
	}
}

func TestAdminRoutesRequireRole(t *testing.T) {
	api := newTestAPI(t)
	reg := api.register(t, "thabo@example.com")

	w := api.do(t, http.MethodGet, "/api/users/admin/users?q=thabo", reg.Tokens.AccessToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if p := problem(t, w); p.Detail != "Access requires one of the following roles: admin" {
		t.Fatalf("unexpected detail %q", p.Detail)
	}
}

func TestAdminActivityValidatesID(t *testing.T) {
	api := newTestAPI(t)
	reg := api.register(t, "admin@example.com")

	if err := api.store.Promote(context.Background(), reg.User.ID, entity.RoleAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}

	w := api.do(t, http.MethodGet, "/api/users/admin/users/not-a-uuid/activity", reg.Tokens.AccessToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	p := problem(t, w)
	if len(p.Errors) != 1 || p.Errors[0].Field != "id" || p.Errors[0].Message != "must be a valid UUID" {
		t.Fatalf("unexpected errors %+v", p.Errors)
	}
}

func TestUploadAvatarEndpoint(t *testing.T) {
	api := newTestAPI(t)
	reg := api.register(t, "thabo@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="avatar"; filename="me.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("part: %v", err)
	}
	_, _ = part.Write([]byte("\xff\xd8\xff\xe0jpeg"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/users/profile/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+reg.Tokens.AccessToken)
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"avatar_url":"https://cdn.test/avatars/`+reg.User.ID+`/`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/users/profile/avatar", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+reg.Tokens.AccessToken)
	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler("user-service", "1.0.0", helpers.NopLogger())
	h.Deps["postgres"] = func(context.Context) error { return nil }

	r := gin.New()
	r.GET("/health", h.Check)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"postgres":"up"`) {
		t.Fatalf("healthy: %d %s", w.Code, w.Body.String())
	}

	h.Deps["redis"] = func(context.Context) error { return errors.New("refused") }
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), `"redis":"down"`) {
		t.Fatalf("unhealthy: %d %s", w.Code, w.Body.String())
	}
}
