package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareWithoutRedisPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(nil, Rule{Name: "general", Max: 1, Window: time.Minute, Key: KeyByIP("general")}, nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestKeyFuncs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var ipKey, pathKey string
	r.POST("/api/auth/login", func(c *gin.Context) {
		ipKey = KeyByIP("auth")(c)
		pathKey = KeyByIPAndPath("auth")(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "rl:auth:ip:10.0.0.7", ipKey)
	assert.Equal(t, "rl:auth:path:/api/auth/login:ip:10.0.0.7", pathKey)
}

func TestSkipPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	skip := SkipPaths("/health", "/metrics")
	assert.True(t, skip(c))

	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	assert.False(t, skip(c))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 3, toInt(int64(3)))
	assert.Equal(t, 4, toInt("4"))
	assert.Equal(t, 0, toInt(nil))
}
