package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	userapp "github.com/oksasatya/go-ddd-user-admin/internal/application"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-admin/internal/infrastructure/memory"
	handlers "github.com/oksasatya/go-ddd-user-admin/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-admin/internal/router/modules"
	"github.com/oksasatya/go-ddd-user-admin/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-admin/pkg/validation"
)

type server struct {
	t       *testing.T
	engine  *gin.Engine
	store   *memory.Store
	token   string
	adminID int64
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()
	helpers.PasswordCost = bcrypt.MinCost

	store := memory.NewStore()
	for _, name := range []string{"admin", "editor", "user"} {
		store.AddRole(name)
	}
	hash, err := helpers.HashPassword("secret-pass")
	require.NoError(t, err)
	admin := &entity.User{Name: "Admin", Email: "admin@example.com", Password: hash}
	require.NoError(t, store.Users().Create(context.Background(), admin))

	logger := helpers.NewDiscardLogger()
	svc := userapp.NewService(store.Users(), store.Roles(), store.UserRoles(), userapp.Deps{Logger: logger})
	pwd := userapp.NewPasswordService(store.Users(), nil, logger, nil, time.Hour)

	jwt := helpers.NewJWTManager("handler-test-secret", time.Hour)
	token, _, err := jwt.GenerateAccessToken(admin.ID)
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.ErrorHandler(logger))
	modules.NewUserModule(handlers.NewUserHandler(svc, pwd, logger), jwt).Register(r.Group("/api"))

	return &server{t: t, engine: r, store: store, token: token, adminID: admin.ID}
}

func (s *server) do(method, path string, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (s *server) storeUser(name, email string, roles []int64) int64 {
	s.t.Helper()
	body := map[string]any{"name": name, "email": email, "password": "password1"}
	if roles != nil {
		body["roles"] = roles
	}
	status, out := s.do(http.MethodPost, "/api/users", body)
	require.Equal(s.t, http.StatusOK, status)
	require.Equal(s.t, float64(200), out["code"], out)
	return int64(out["data"].(map[string]any)["id"].(float64))
}

func roleIDs(t *testing.T, out map[string]any) []int64 {
	t.Helper()
	raw, ok := out["roles"].([]any)
	require.True(t, ok, "roles missing: %v", out)
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		ids = append(ids, int64(r.(map[string]any)["id"].(float64)))
	}
	return ids
}

func TestStoreAssignsRoles(t *testing.T) {
	s := newServer(t)
	id := s.storeUser("Jane", "jane@example.com", []int64{1, 3})

	status, out := s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(200), out["code"])
	assert.Equal(t, "success", out["msg"])
	assert.Equal(t, "jane@example.com", out["email"])
	assert.NotContains(t, out, "password")
	assert.Equal(t, []int64{1, 3}, roleIDs(t, out))
}

func TestStoreUnknownRoleAbortsButKeepsUser(t *testing.T) {
	s := newServer(t)
	status, _ := s.do(http.MethodPost, "/api/users", map[string]any{
		"name": "Ghost", "email": "ghost@example.com", "password": "password1", "roles": []int64{99},
	})
	assert.Equal(t, http.StatusNotFound, status)

	_, out := s.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, float64(2), out["total"])
}

func TestStoreDuplicateEmailIsBusinessFailure(t *testing.T) {
	s := newServer(t)
	s.storeUser("Jane", "jane@example.com", nil)

	status, out := s.do(http.MethodPost, "/api/users", map[string]any{
		"name": "Jane 2", "email": "JANE@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(4000), out["code"])
	assert.Equal(t, "operation failed", out["msg"])
}

func TestStoreRejectsInvalidPayload(t *testing.T) {
	s := newServer(t)
	status, out := s.do(http.MethodPost, "/api/users", map[string]any{
		"name": "", "email": "nope", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	details, ok := out["error"].(map[string]any)
	require.True(t, ok, out)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestUpdateSyncsOrDetachesRoles(t *testing.T) {
	s := newServer(t)
	id := s.storeUser("Jane", "jane@example.com", []int64{1, 3})
	path := fmt.Sprintf("/api/users/%d", id)

	_, out := s.do(http.MethodPut, path, map[string]any{"name": "Jane Doe", "roles": []int64{2, 3}})
	require.Equal(t, float64(200), out["code"], out)
	assert.Equal(t, float64(id), out["data"].(map[string]any)["id"])

	_, out = s.do(http.MethodGet, path, nil)
	assert.Equal(t, "Jane Doe", out["name"])
	assert.Equal(t, []int64{2, 3}, roleIDs(t, out))

	_, out = s.do(http.MethodPatch, path, map[string]any{"email": "jd@example.com"})
	require.Equal(t, float64(200), out["code"], out)

	_, out = s.do(http.MethodGet, path, nil)
	assert.Equal(t, "jd@example.com", out["email"])
	assert.Equal(t, "Jane Doe", out["name"])
	assert.Empty(t, roleIDs(t, out))
}

func TestUpdateMissingUser(t *testing.T) {
	s := newServer(t)
	status, _ := s.do(http.MethodPut, "/api/users/999", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDestroy(t *testing.T) {
	s := newServer(t)
	id := s.storeUser("Jane", "jane@example.com", []int64{2})
	path := fmt.Sprintf("/api/users/%d", id)

	status, out := s.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(200), out["code"])
	assert.Equal(t, float64(0), out["errno"])
	assert.Equal(t, "deleted successfully", out["msg"])

	status, _ = s.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, out = s.do(http.MethodDelete, "/api/users/999", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotContains(t, out, "errno")
}

func TestNonNumericIDIsNotFound(t *testing.T) {
	s := newServer(t)
	status, _ := s.do(http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIndexPaginatesByEleven(t *testing.T) {
	s := newServer(t)
	for i := 0; i < 12; i++ {
		s.storeUser(fmt.Sprintf("User %d", i), fmt.Sprintf("u%d@example.com", i), nil)
	}

	_, out := s.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, float64(13), out["total"])
	assert.Equal(t, float64(11), out["per_page"])
	assert.Equal(t, float64(1), out["current_page"])
	assert.Equal(t, float64(2), out["last_page"])
	assert.Len(t, out["data"], 11)

	_, out = s.do(http.MethodGet, "/api/users?page=2", nil)
	assert.Len(t, out["data"], 2)
	assert.Equal(t, float64(12), out["from"])
	assert.Equal(t, float64(13), out["to"])
}

func TestCreateAndEditForms(t *testing.T) {
	s := newServer(t)
	_, out := s.do(http.MethodGet, "/api/users/create", nil)
	assert.Equal(t, "create", out["method"])

	id := s.storeUser("Jane", "jane@example.com", []int64{3})
	_, out = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d/edit", id), nil)
	require.Equal(t, float64(200), out["code"], out)
	user := out["user"].(map[string]any)
	assert.Equal(t, "Jane", user["name"])
	assert.Equal(t, []int64{3}, roleIDs(t, user))
	assert.Equal(t, []int64{1, 2, 3}, roleIDs(t, out))
}

func TestPassword(t *testing.T) {
	s := newServer(t)
	tests := []struct {
		name string
		body map[string]any
		code float64
	}{
		{"missing field", map[string]any{"old_pwd": "secret-pass", "password": "new-password"}, 4001},
		{"mismatch", map[string]any{"old_pwd": "secret-pass", "password": "new-password", "repassword": "other-pass"}, 4002},
		{"wrong old", map[string]any{"old_pwd": "nope-nope", "password": "new-password", "repassword": "new-password"}, 4003},
		{"success", map[string]any{"old_pwd": "secret-pass", "password": "new-password", "repassword": "new-password"}, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := s.do(http.MethodPost, "/api/password", tt.body)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.code, out["code"])
		})
	}

	u, err := s.store.Users().FindByID(context.Background(), s.adminID)
	require.NoError(t, err)
	assert.True(t, helpers.CompareHashAndPassword(u.Password, "new-password"))
}

func TestSearchWithoutIndex(t *testing.T) {
	s := newServer(t)
	_, out := s.do(http.MethodGet, "/api/users/search", nil)
	assert.Equal(t, float64(4001), out["code"])

	_, out = s.do(http.MethodGet, "/api/users/search?q=jane", nil)
	assert.Equal(t, float64(200), out["code"])
	assert.Equal(t, []any{}, out["data"])
}

func TestRoutesRequireToken(t *testing.T) {
	s := newServer(t)
	s.token = ""
	status, out := s.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing access token", out["message"])
}

func TestIndexHugePageIsEmpty(t *testing.T) {
	s := newServer(t)
	status, out := s.do(http.MethodGet, "/api/users?page=4611686018427387905", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(200), out["code"])
	assert.Equal(t, float64(1), out["total"])
	assert.Equal(t, []any{}, out["data"])
	assert.Equal(t, float64(0), out["from"])
}

func TestPatchWithEmptyBodyDetachesRoles(t *testing.T) {
	s := newServer(t)
	id := s.storeUser("Jane", "jane@example.com", []int64{1, 2})
	path := fmt.Sprintf("/api/users/%d", id)

	status, out := s.do(http.MethodPatch, path, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, float64(200), out["code"], out)

	_, out = s.do(http.MethodGet, path, nil)
	assert.Equal(t, "Jane", out["name"])
	assert.Empty(t, roleIDs(t, out))
}
