package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"go-gin-gorm-auth/internal/core/auth"
	"go-gin-gorm-auth/internal/core/config"
	"go-gin-gorm-auth/internal/repo"
	"go-gin-gorm-auth/internal/service"
	"go-gin-gorm-auth/pkg/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	engine *gin.Engine
	store  *repo.MemoryUserRepo
	jwt    *auth.JWTer
	dbErr  error // 非 nil 时数据库检查失败
}

func newTestConfig() *config.Config {
	return &config.Config{
		App: config.App{
			Name:      "auth-test",
			Version:   "9.9.9",
			APIPrefix: "/api/v1",
			HTTP:      config.HTTP{RequestTimeoutSec: 5, MaxBodyBytes: 1 << 20, MaxConcurrency: 50},
			Admin:     config.AdminHTTP{APIKey: "admin-secret"},
		},
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	a := &testApp{store: repo.NewMemoryUserRepo()}
	j, err := auth.NewJWTer(testSecret, "HS256", "test", time.Hour)
	require.NoError(t, err)
	a.jwt = j

	hasher := utils.NewPasswordHasher(bcrypt.MinCost)
	health := service.NewHealthService("9.9.9", service.Check{
		Name: "database", Critical: true,
		Probe: func(context.Context) error { return a.dbErr },
	})
	a.engine = NewAPIEngine(zap.NewNop(), APIDeps{
		Config:   newTestConfig(),
		Resolver: service.NewCurrentUserResolver(j, a.store),
		Auth:     service.NewAuthService(a.store, hasher, j),
		Tokens:   j,
		Users:    service.NewUserService(a.store, hasher),
		Health:   health,
	})
	return a
}

func (a *testApp) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func (a *testApp) register(t *testing.T, email, password, name string) map[string]any {
	t.Helper()
	w := a.do(http.MethodPost, "/api/v1/users",
		`{"email":"`+email+`","password":"`+password+`","full_name":"`+name+`"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "bearer", body["token_type"])
	return body["access_token"].(string)
}

func TestRegister(t *testing.T) {
	a := newTestApp(t)
	u := a.register(t, "alice@example.com", "Secur3P@ss", "Alice")

	assert.True(t, utils.IsID(u["id"].(string)))
	assert.Equal(t, "alice@example.com", u["email"])
	assert.Equal(t, "Alice", u["full_name"])
	assert.NotEmpty(t, u["created_at"])
	assert.NotEmpty(t, u["updated_at"])
	assert.NotContains(t, u, "password")
	assert.NotContains(t, u, "hashed_password")
	assert.NotContains(t, u, "HashedPassword")

	w := a.do(http.MethodPost, "/api/v1/users",
		`{"email":"alice@example.com","password":"An0therPass","full_name":"Alice 2"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"detail":"Email alice@example.com is already registered"}`, w.Body.String())
}

func TestRegister_Validation(t *testing.T) {
	a := newTestApp(t)
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"bad email", `{"email":"nope","password":"Secur3P@ss","full_name":"A"}`, "email: value is not a valid email address"},
		{"short password", `{"email":"a@example.com","password":"short","full_name":"A"}`, "password: must be at least 8 characters"},
		{"missing name", `{"email":"a@example.com","password":"Secur3P@ss"}`, "full_name: field required"},
		{"long name", `{"email":"a@example.com","password":"Secur3P@ss","full_name":"` + strings.Repeat("x", 101) + `"}`, "full_name: must be at most 100 characters"},
		{"bad json", `{"email":`, "invalid JSON body"},
		{"wrong type", `{"email":1,"password":"Secur3P@ss","full_name":"A"}`, "email: invalid type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(http.MethodPost, "/api/v1/users", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.detail, decode(t, w)["detail"])
		})
	}
	users, err := a.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLogin(t *testing.T) {
	a := newTestApp(t)
	u := a.register(t, "alice@example.com", "Secur3P@ss", "Alice")
	tok := a.login(t, "alice@example.com", "Secur3P@ss")

	claims, err := a.jwt.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, u["id"], claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)

	for _, body := range []string{
		`{"email":"alice@example.com","password":"WrongPass1"}`,
		`{"email":"nobody@example.com","password":"Secur3P@ss"}`,
	} {
		w := a.do(http.MethodPost, "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"detail":"Incorrect email or password"}`, w.Body.String())
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	}

	w := a.do(http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerify(t *testing.T) {
	a := newTestApp(t)
	u := a.register(t, "alice@example.com", "Secur3P@ss", "Alice")
	tok := a.login(t, "alice@example.com", "Secur3P@ss")

	w := a.do(http.MethodPost, "/api/v1/auth/verify", "", tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, u["id"], body["sub"])
	assert.Equal(t, "alice@example.com", body["email"])
	exp, err := time.Parse(time.RFC3339, body["exp"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	w = a.do(http.MethodPost, "/api/v1/auth/verify", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/v1/auth/verify", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, w.Body.String())
}

func TestMe(t *testing.T) {
	a := newTestApp(t)
	u := a.register(t, "alice@example.com", "Secur3P@ss", "Alice")
	tok := a.login(t, "alice@example.com", "Secur3P@ss")

	w := a.do(http.MethodGet, "/api/v1/users/me", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, u["id"], me["id"])
	assert.NotContains(t, me, "hashed_password")

	w = a.do(http.MethodGet, "/api/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, w.Body.String())

	expired, err := a.jwt.Encode(u["id"].(string), "alice@example.com", time.Now().Add(-time.Second))
	require.NoError(t, err)
	w = a.do(http.MethodGet, "/api/v1/users/me", "", expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, w.Body.String())

	// 非 id 的 sub
	odd, err := a.jwt.Encode("alice@example.com", "alice@example.com", time.Now().Add(time.Hour))
	require.NoError(t, err)
	w = a.do(http.MethodGet, "/api/v1/users/me", "", odd)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 用户被删后 token 仍有效，但查不到人
	ok, err := a.store.Delete(context.Background(), u["id"].(string))
	require.NoError(t, err)
	require.True(t, ok)
	w = a.do(http.MethodGet, "/api/v1/users/me", "", tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"User not found"}`, w.Body.String())
}

func TestUpdateMe(t *testing.T) {
	a := newTestApp(t)
	u := a.register(t, "alice@example.com", "Secur3P@ss", "Alice")
	a.register(t, "bob@example.com", "Secur3P@ss", "Bob")
	tok := a.login(t, "alice@example.com", "Secur3P@ss")

	w := a.do(http.MethodPatch, "/api/v1/users/me", `{"full_name":"Alice Liddell"}`, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)
	assert.Equal(t, "Alice Liddell", got["full_name"])
	assert.Equal(t, "alice@example.com", got["email"])
	assert.Equal(t, u["id"], got["id"])
	assert.Equal(t, u["created_at"], got["created_at"])
	assert.NotEqual(t, u["updated_at"], got["updated_at"])

	w = a.do(http.MethodPatch, "/api/v1/users/me", `{"email":"bob@example.com"}`, tok)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPatch, "/api/v1/users/me", `{"full_name":""}`, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPatch, "/api/v1/users/me", `{"password":"short"}`, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPatch, "/api/v1/users/me", `{"full_name":"X"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateMe_Password(t *testing.T) {
	a := newTestApp(t)
	a.register(t, "alice@example.com", "Secur3P@ss", "Alice")
	tok := a.login(t, "alice@example.com", "Secur3P@ss")

	w := a.do(http.MethodPatch, "/api/v1/users/me", `{"password":"N3wSecur3P@ss"}`, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, decode(t, w), "password")

	w = a.do(http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"Secur3P@ss"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	a.login(t, "alice@example.com", "N3wSecur3P@ss")

	// 改邮箱后用新邮箱登录
	w = a.do(http.MethodPatch, "/api/v1/users/me", `{"email":"alice@wonderland.example"}`, tok)
	require.Equal(t, http.StatusOK, w.Code)
	a.login(t, "alice@wonderland.example", "N3wSecur3P@ss")
}

func TestIndex(t *testing.T) {
	a := newTestApp(t)
	w := a.do(http.MethodGet, "/api/v1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"auth-test","version":"9.9.9","user":null}`, w.Body.String())

	a.register(t, "alice@example.com", "Secur3P@ss", "Alice")
	tok := a.login(t, "alice@example.com", "Secur3P@ss")
	w = a.do(http.MethodGet, "/api/v1", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])

	// 无效 token 按匿名处理
	w = a.do(http.MethodGet, "/api/v1", "", "garbage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["user"])
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		w := a.do(http.MethodGet, path, "", "")
		require.Equal(t, http.StatusOK, w.Code, path)
		body := decode(t, w)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "9.9.9", body["version"])
		db := body["checks"].(map[string]any)["database"].(map[string]any)
		assert.Equal(t, "pass", db["status"])
	}

	a.dbErr = errors.New("connection refused")
	w := a.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"detail":"Service is currently unhealthy. Please check the logs for more details."}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestAPIEngine_Plumbing(t *testing.T) {
	a := newTestApp(t)

	w := a.do(http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, w.Body.String())

	w = a.do(http.MethodDelete, "/api/v1/users/me", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = a.do(http.MethodGet, "/health", "", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Process-Time"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = a.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAPIEngine_PerClientLimit(t *testing.T) {
	a := newTestApp(t)
	cfg := newTestConfig()
	a.engine = NewAPIEngine(zap.NewNop(), APIDeps{
		Config:  cfg,
		Limiter: newCountingLimiter(2),
		Health:  service.NewHealthService("x"),
	})
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", "", "").Code)
	w := a.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

type countingLimiter struct{ left int }

func newCountingLimiter(n int) *countingLimiter { return &countingLimiter{left: n} }

func (l *countingLimiter) Allow(context.Context, string) (bool, error) {
	l.left--
	return l.left >= 0, nil
}
