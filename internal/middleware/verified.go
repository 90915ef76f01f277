package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/persona-chat-api/internal/models"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
	"github.com/noah-isme/persona-chat-api/pkg/response"
)

// UserLookup resolves the authenticated user.
type UserLookup interface {
	CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error)
}

// RequireVerifiedEmail rejects users that have not confirmed their email address.
// It must run after JWT.
func RequireVerifiedEmail(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}

		user, err := users.CurrentUser(c.Request.Context(), claims.UserID())
		if err != nil {
			response.Abort(c, err)
			return
		}
		if !user.EmailVerified {
			response.Abort(c, appErrors.ErrEmailNotVerified)
			return
		}
		c.Next()
	}
}
