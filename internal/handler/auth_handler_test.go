package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/persona-chat-api/internal/middleware"
	"github.com/noah-isme/persona-chat-api/internal/models"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
)

type fakeAuthService struct {
	loginResp    *models.LoginResponse
	loginErr     error
	lastLogin    models.LoginRequest
	registerResp *models.RegisterResponse
	registerErr  error
	refreshResp  *models.AuthTokens
	refreshErr   error
	resetErr     error
	forgotEmails []string
	verifyErr    error
	resendErr    error

	logoutCalls []struct{ token, userID string }

	claims  *models.TokenClaims
	authErr error
	user    *models.PublicUser
	userErr error
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastLogin = req
	return f.loginResp, f.loginErr
}

func (f *fakeAuthService) Register(context.Context, models.RegisterRequest) (*models.RegisterResponse, error) {
	return f.registerResp, f.registerErr
}

func (f *fakeAuthService) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.AuthTokens, error) {
	return f.refreshResp, f.refreshErr
}

func (f *fakeAuthService) Logout(_ context.Context, refreshToken, userID string) {
	f.logoutCalls = append(f.logoutCalls, struct{ token, userID string }{refreshToken, userID})
}

func (f *fakeAuthService) ForgotPassword(_ context.Context, req models.ForgotPasswordRequest) error {
	f.forgotEmails = append(f.forgotEmails, req.Email)
	return nil
}

func (f *fakeAuthService) UsePasswordResetToken(context.Context, models.ResetPasswordRequest) error {
	return f.resetErr
}

func (f *fakeAuthService) UseEmailVerificationToken(context.Context, models.VerifyEmailRequest) error {
	return f.verifyErr
}

func (f *fakeAuthService) ResendVerification(context.Context, models.ResendVerificationRequest) error {
	return f.resendErr
}

func (f *fakeAuthService) CurrentUser(context.Context, string) (*models.PublicUser, error) {
	return f.user, f.userErr
}

func (f *fakeAuthService) Authenticate(context.Context, string) (*models.TokenClaims, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.claims, nil
}

func (f *fakeAuthService) ValidateAccessToken(context.Context, string) (*models.TokenClaims, error) {
	if f.claims == nil {
		return nil, appErrors.ErrInvalidToken
	}
	return f.claims, nil
}

type testEnvelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Message string                 `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		RequestID string                 `json:"requestId"`
		Extra     map[string]interface{} `json:"extra"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func claimsFor(userID string) *models.TokenClaims {
	claims := &models.TokenClaims{Email: "alice@example.com", Type: models.TokenTypeAccess}
	claims.Subject = userID
	return claims
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeAuthService{loginResp: &models.LoginResponse{
		User:   models.PublicUser{ID: "u-1", Email: "alice@example.com"},
		Tokens: models.AuthTokens{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900},
	}}
	handler := NewAuthHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"Passw0rd!","rememberMe":true}`)
	c.Request.Header.Set("User-Agent", "tests")

	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "login successful", env.Message)
	assert.True(t, svc.lastLogin.RememberMe)
	assert.Equal(t, "tests", svc.lastLogin.UserAgent)
	tokens := env.Data["tokens"].(map[string]interface{})
	assert.Equal(t, "r", tokens["refreshToken"])
}

func TestAuthHandlerLoginLocked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{loginErr: appErrors.ErrAccountLocked})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"x"}`)

	handler.Login(c)

	assert.Equal(t, http.StatusLocked, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ACCOUNT_LOCKED", env.Error.Code)
}

func TestAuthHandlerRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/register", `{"email":`)

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestAuthHandlerRegisterCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{registerResp: &models.RegisterResponse{
		User: models.PublicUser{ID: "u-1", Email: "alice@example.com"},
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"Passw0rd!"}`)

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAuthHandlerRefreshWrapsTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{refreshResp: &models.AuthTokens{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 900}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/refresh", `{"refreshToken":"r1"}`)

	handler.Refresh(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	tokens := decodeEnvelope(t, rec).Data["tokens"].(map[string]interface{})
	assert.Equal(t, "a2", tokens["accessToken"])
}

func TestAuthHandlerRefreshExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{refreshErr: appErrors.ErrRefreshTokenExpired})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/refresh", `{"refreshToken":"r1"}`)

	handler.Refresh(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "REFRESH_TOKEN_EXPIRED", decodeEnvelope(t, rec).Error.Code)
}

func TestAuthHandlerLogoutWithoutBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeAuthService{}
	handler := NewAuthHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	c.Set(middleware.ContextUserKey, claimsFor("u-1"))

	handler.Logout(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.logoutCalls, 1)
	assert.Equal(t, "", svc.logoutCalls[0].token)
	assert.Equal(t, "u-1", svc.logoutCalls[0].userID)
}

func TestAuthHandlerLogoutWithToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeAuthService{}
	handler := NewAuthHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/logout", `{"refreshToken":"r1"}`)

	handler.Logout(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.logoutCalls, 1)
	assert.Equal(t, "r1", svc.logoutCalls[0].token)
	assert.Equal(t, "", svc.logoutCalls[0].userID)
}

func TestAuthHandlerForgotPasswordAlwaysSucceeds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeAuthService{}
	handler := NewAuthHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/forgot-password", `{"email":"ghost@example.com"}`)

	handler.ForgotPassword(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"ghost@example.com"}, svc.forgotEmails)
}

func TestAuthHandlerResetPasswordInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{resetErr: appErrors.ErrInvalidOrExpiredToken})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/reset-password", `{"token":"nope","newPassword":"Passw0rd!"}`)

	handler.ResetPassword(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_OR_EXPIRED_TOKEN", decodeEnvelope(t, rec).Error.Code)
}

func TestAuthHandlerResendAlreadyVerified(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{resendErr: appErrors.ErrEmailAlreadyVerified})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/auth/resend-verification", `{"email":"alice@example.com"}`)

	handler.ResendVerification(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMAIL_ALREADY_VERIFIED", decodeEnvelope(t, rec).Error.Code)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{user: &models.PublicUser{ID: "u-1", Email: "alice@example.com"}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, claimsFor("u-1"))

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	user := decodeEnvelope(t, rec).Data["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
}
