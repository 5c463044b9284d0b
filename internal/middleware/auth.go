package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xby-111/bill/internal/models"
	"github.com/xby-111/bill/internal/service"
	"github.com/xby-111/bill/internal/util"

	"github.com/gin-gonic/gin"
)

// gin.Context 中保存当前用户和 token 负载的键
const (
	CurrentUserKey = "currentUser"
	ClaimsKey      = "claims"
)

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *util.Claims, error)
}

// abortUnauthorized 返回 401 并附带 Bearer 质询头
func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	util.AbortError(c, http.StatusUnauthorized, util.CodeAuth, msg)
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthMiddleware 校验 Authorization: Bearer <token>，并在 context 里放入当前用户
func AuthMiddleware(auth Authenticator, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthorized(c, "Not authenticated")
			return
		}

		user, claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if service.KindOf(err) == service.KindUnauthorized {
				abortUnauthorized(c, err.Error())
				return
			}
			log.ErrorContext(c.Request.Context(), "authenticate request", "error", err, "request_id", RequestID(c))
			util.AbortError(c, http.StatusInternalServerError, util.CodeServerErr, "Internal server error")
			return
		}

		c.Set(CurrentUserKey, user)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentClaims returns the token claims stored by AuthMiddleware, or nil.
func CurrentClaims(c *gin.Context) *util.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*util.Claims)
	return claims
}
