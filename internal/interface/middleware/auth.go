package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-user-admin/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-admin/pkg/response"
)

// CtxUserIDKey holds the authenticated user id (int64) in the Gin context.
const CtxUserIDKey = "userID"

// Auth validates the bearer access token. When rdb is set it also rejects
// tokens issued before the user's last password change.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Fail(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}

		if rdb != nil && claims.IssuedAt != nil {
			changedAt, err := rdb.Get(c.Request.Context(), helpers.KeyPasswordChangedAt(claims.UserID)).Int64()
			if err == nil && claims.IssuedAt.Unix() < changedAt {
				response.Fail(c, http.StatusUnauthorized, "access token revoked", nil)
				return
			}
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

// accessToken reads "Authorization: Bearer <token>", falling back to the
// access_token cookie.
func accessToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if token, err := c.Cookie("access_token"); err == nil {
		return token
	}
	return ""
}
