package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/repository"
	"github.com/todoapp/todoapp-go/internal/service"
)

type testApp struct {
	handler http.Handler
	auth    *service.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	db, err := repository.NewDB(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "todos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(ctx, db, repository.DriverSQLite))

	tokens, err := crypto.NewTokenService(crypto.TokenConfig{Secret: "router-test-secret", TTL: 20 * time.Minute})
	require.NoError(t, err)

	return &testApp{
		handler: NewRouter(db, tokens),
		auth:    service.NewAuthService(repository.NewUserRepository(db), tokens),
	}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) register(t *testing.T, username, password string) model.UserResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":   username,
		"email":      username + "@example.com",
		"first_name": "First",
		"last_name":  "Last",
		"password":   password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user model.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp model.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (a *testApp) loginMultipart(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("username", username))
	require.NoError(t, mw.WriteField("password", password))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeTodo(t *testing.T, rec *httptest.ResponseRecorder) model.TodoResponse {
	t.Helper()
	var todo model.TodoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	return todo
}

func todoBody(title string, priority int, complete bool) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "from the router test",
		"priority":    priority,
		"complete":    complete,
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = app.do(t, http.MethodGet, "/healthy", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)

	alice := app.register(t, "alice", "pw123")
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, model.RoleUser, alice.Role)
	assert.NotContains(t, fmt.Sprint(alice), "pw123")

	rec := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "pw123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	token := app.login(t, "alice", "pw123")

	rec = app.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, alice.ID, me.ID)

	// JSON login is accepted as well.
	rec = app.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "alice", "password": "pw123"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestLoginMultipartForm(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw123")

	rec := app.loginMultipart(t, "alice", "pw123")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp model.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)

	rec = app.do(t, http.MethodGet, "/api/v1/users/me", resp.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.loginMultipart(t, "alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw123")

	wrongPassword := app.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "alice", "password": "nope"})
	unknownUser := app.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "ghost", "password": "pw123"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestTodoOwnership(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice", "pw123")
	app.register(t, "bob", "pw456")
	aliceToken := app.login(t, "alice", "pw123")
	bobToken := app.login(t, "bob", "pw456")

	rec := app.do(t, http.MethodPost, "/api/v1/todos", aliceToken, todoBody("Buy milk", 3, false))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeTodo(t, rec)
	assert.Equal(t, alice.ID, created.OwnerID)
	path := fmt.Sprintf("/api/v1/todos/%d", created.ID)

	rec = app.do(t, http.MethodGet, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decodeTodo(t, rec))

	// Foreign todos are indistinguishable from missing ones.
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, path, bobToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodPut, path, bobToken, todoBody("Stolen", 1, true)).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodDelete, path, bobToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/api/v1/todos/999", aliceToken, nil).Code)

	rec = app.do(t, http.MethodGet, "/api/v1/todos", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = app.do(t, http.MethodPut, path, aliceToken, todoBody("Buy oat milk", 5, true))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeTodo(t, rec)
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.Equal(t, 5, updated.Priority)
	assert.True(t, updated.Complete)
	assert.Equal(t, alice.ID, updated.OwnerID)

	assert.Equal(t, http.StatusNoContent, app.do(t, http.MethodDelete, path, aliceToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, path, aliceToken, nil).Code)
}

func TestTodoRequestErrors(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw123")
	token := app.login(t, "alice", "pw123")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/todos", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/todos", "not-a-token", nil, http.StatusUnauthorized},
		{"priority too high", http.MethodPost, "/api/v1/todos", token, todoBody("Valid title", 6, false), http.StatusBadRequest},
		{"title too short", http.MethodPost, "/api/v1/todos", token, todoBody("ab", 1, false), http.StatusBadRequest},
		{"non numeric id", http.MethodGet, "/api/v1/todos/abc", token, nil, http.StatusBadRequest},
		{"zero id", http.MethodGet, "/api/v1/todos/0", token, nil, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/v1/todos", token, "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw123")
	token := app.login(t, "alice", "pw123")

	rec := app.do(t, http.MethodPost, "/api/v1/todos", token, todoBody(strings.Repeat("x", 2<<20), 1, false))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw123")
	_, err := app.auth.CreateAdmin(context.Background(), model.CreateUserRequest{
		Username: "root",
		Email:    "root@example.com",
		Password: "admin-pass",
	})
	require.NoError(t, err)

	aliceToken := app.login(t, "alice", "pw123")
	adminToken := app.login(t, "root", "admin-pass")

	rec := app.do(t, http.MethodPost, "/api/v1/todos", aliceToken, todoBody("Alice todo", 2, false))
	require.Equal(t, http.StatusCreated, rec.Code)
	aliceTodo := decodeTodo(t, rec)

	rec = app.do(t, http.MethodPost, "/api/v1/todos", adminToken, todoBody("Admin todo", 1, false))
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/api/v1/admin/todos", aliceToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/api/v1/admin/todos", "", nil).Code)

	rec = app.do(t, http.MethodGet, "/api/v1/admin/todos", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []model.TodoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Less(t, all[0].ID, all[1].ID)

	adminPath := fmt.Sprintf("/api/v1/admin/todos/%d", aliceTodo.ID)
	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodDelete, adminPath, aliceToken, nil).Code)
	assert.Equal(t, http.StatusNoContent, app.do(t, http.MethodDelete, adminPath, adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodDelete, adminPath, adminToken, nil).Code)

	// The owner-scoped route never acts on another user's todo, even for admins.
	rec = app.do(t, http.MethodPost, "/api/v1/todos", aliceToken, todoBody("Second todo", 2, false))
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decodeTodo(t, rec)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/todos/%d", second.ID), adminToken, nil).Code)
}

func TestUserRoutes(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice", "pw123")
	bob := app.register(t, "bob", "pw456")
	_, err := app.auth.CreateAdmin(context.Background(), model.CreateUserRequest{
		Username: "root",
		Email:    "root@example.com",
		Password: "admin-pass",
	})
	require.NoError(t, err)

	aliceToken := app.login(t, "alice", "pw123")
	adminToken := app.login(t, "root", "admin-pass")

	rec := app.do(t, http.MethodPatch, "/api/v1/users/me", aliceToken, map[string]string{"first_name": "Alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, alice.Email, updated.Email)

	rec = app.do(t, http.MethodPatch, "/api/v1/users/me", aliceToken, map[string]string{"email": bob.Email})
	assert.Equal(t, http.StatusConflict, rec.Code)

	bobPath := fmt.Sprintf("/api/v1/users/%d", bob.ID)
	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodPatch, bobPath, aliceToken, map[string]string{"last_name": "X"}).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodPatch, bobPath, adminToken, map[string]string{"last_name": "Builder"}).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodPatch, "/api/v1/users/999", adminToken, map[string]string{"last_name": "X"}).Code)

	rec = app.do(t, http.MethodPut, "/api/v1/users/me/password", aliceToken, map[string]string{"old_password": "wrong", "new_password": "new-pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/v1/users/me/password", aliceToken, map[string]string{"old_password": "pw123", "new_password": "new-pw"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	app.login(t, "alice", "new-pw")
}

func TestCookieToken(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw123")
	token := app.login(t, "alice", "pw123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
