package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/service"
	"github.com/noah-isme/persona-chat-api/pkg/config"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
)

type stubStore struct{ err error }

func (s stubStore) Check() error { return s.err }

func newTestRouter(auth *fakeAuthService, users *fakeUserService, store StoreChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterParams{
		Config: &config.Config{
			Env:       config.EnvTest,
			APIPrefix: "/api",
			CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		},
		Auth:    auth,
		Users:   users,
		Metrics: service.NewMetricsService(),
		Store:   store,
	})
}

func TestRouterHealthAndReady(t *testing.T) {
	r := newTestRouter(&fakeAuthService{}, &fakeUserService{}, stubStore{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeEnvelope(t, rec).Data["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterReadyFailsWhenStoreUnavailable(t *testing.T) {
	r := newTestRouter(&fakeAuthService{}, &fakeUserService{}, stubStore{err: errors.New("gone")})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", decodeEnvelope(t, rec).Data["status"])
}

func TestRouterMetricsEndpoint(t *testing.T) {
	r := newTestRouter(&fakeAuthService{}, &fakeUserService{}, stubStore{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestRouterUserRoutesRequireBearer(t *testing.T) {
	r := newTestRouter(&fakeAuthService{}, &fakeUserService{}, stubStore{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, rec).Error.Code)
}

func TestRouterLockedAccountIsRejected(t *testing.T) {
	r := newTestRouter(&fakeAuthService{authErr: appErrors.ErrAccountLocked}, &fakeUserService{}, stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusLocked, rec.Code)
}

func TestRouterProfileWithBearer(t *testing.T) {
	users := &fakeUserService{user: &models.PublicUser{ID: "u-1", Email: "alice@example.com"}}
	r := newTestRouter(&fakeAuthService{claims: claimsFor("u-1")}, users, stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRouterStatsRequiresVerifiedEmail(t *testing.T) {
	auth := &fakeAuthService{
		claims: claimsFor("u-1"),
		user:   &models.PublicUser{ID: "u-1", EmailVerified: false},
	}
	r := newTestRouter(auth, &fakeUserService{stats: &models.UserStats{}}, stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/stats", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", decodeEnvelope(t, rec).Error.Code)

	auth.user.EmailVerified = true
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterLogoutUsesOptionalBearer(t *testing.T) {
	auth := &fakeAuthService{claims: claimsFor("u-1")}
	r := newTestRouter(auth, &fakeUserService{}, stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.Len(t, auth.logoutCalls, 1) {
		assert.Equal(t, "u-1", auth.logoutCalls[0].userID)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterChatRoutesRequireBearer(t *testing.T) {
	r := newTestRouter(&fakeAuthService{}, &fakeUserService{}, stubStore{})

	for _, target := range []struct{ method, path string }{
		{http.MethodGet, "/api/characters"},
		{http.MethodPost, "/api/characters"},
		{http.MethodGet, "/api/chat/conversations"},
		{http.MethodPost, "/api/chat/send-message"},
		{http.MethodDelete, "/api/chat/conversations/conv-1"},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(target.method, target.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target.path)
	}
}

func TestRouterChatRoutesWithBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	characters := &fakeCharacterService{}
	chat := &fakeChatService{}
	r := NewRouter(RouterParams{
		Config: &config.Config{
			Env:       config.EnvTest,
			APIPrefix: "/api",
			CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		},
		Auth:       &fakeAuthService{claims: claimsFor("u-7")},
		Users:      &fakeUserService{},
		Characters: characters,
		Chat:       chat,
		Metrics:    service.NewMetricsService(),
		Store:      stubStore{},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/characters?search=vic", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-7", characters.filter.UserID)

	req = jsonRequest(http.MethodPost, "/api/chat/send-message", `{"characterId":"spike","message":"go"}`)
	req.Header.Set("Authorization", "Bearer token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "spike", chat.sent.CharacterID)

	req = httptest.NewRequest(http.MethodGet, "/api/chat/conversations/conv-9/messages?limit=5&offset=5", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, chat.pageLimit)
	assert.Equal(t, 5, chat.pageOffset)
}
