package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
	"github.com/noah-isme/persona-chat-api/pkg/middleware/requestid"
)

// Envelope represents the common response contract.
type Envelope struct {
	Success bool             `json:"success"`
	Data    interface{}      `json:"data,omitempty"`
	Message string           `json:"message,omitempty"`
	Error   *appErrors.Error `json:"error,omitempty"`
	Meta    Meta             `json:"meta"`
}

// Meta is attached to every response.
type Meta struct {
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"requestId,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}, message string, extra ...map[string]interface{}) {
	noStore(c)
	c.JSON(status, Envelope{Success: true, Data: data, Message: message, Meta: meta(c, extra...)})
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}, message string) {
	JSON(c, http.StatusOK, data, message)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, message string) {
	JSON(c, http.StatusCreated, data, message)
}

// Error sends an error response converting the error to the common structure.
// Internal causes are never serialised; other 5xx keep their code and message.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if appErr.Status == http.StatusInternalServerError {
		appErr = appErrors.Clone(appErrors.ErrInternal, "")
	}
	noStore(c)
	c.JSON(appErr.Status, Envelope{Success: false, Message: appErr.Message, Error: appErr, Meta: meta(c)})
}

// Abort writes the error and stops the middleware chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

func meta(c *gin.Context, extra ...map[string]interface{}) Meta {
	m := Meta{Timestamp: time.Now().UTC(), RequestID: requestid.Value(c)}
	if len(extra) > 0 && len(extra[0]) > 0 {
		m.Extra = extra[0]
	}
	return m
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
