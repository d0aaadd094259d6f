package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-auth/internal/domain"
	resp "go-gin-gorm-auth/internal/transport/http/response"
)

const KeyUser = "currentUser"

type UserResolver interface {
	Require(ctx context.Context, token string) (*domain.User, error)
	Optional(ctx context.Context, token string) (*domain.User, error)
}

// BearerToken 取 Authorization: Bearer <token>，scheme 不区分大小写；其它 scheme 视为未携带
func BearerToken(c *gin.Context) string {
	ah := strings.TrimSpace(c.GetHeader("Authorization"))
	const prefix = "bearer "
	if len(ah) <= len(prefix) || !strings.EqualFold(ah[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(ah[len(prefix):])
}

// RequireUser 严格鉴权：失败直接 401/404
func RequireUser(r UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := r.Require(c.Request.Context(), BearerToken(c))
		if err != nil {
			resp.FromError(c, err)
			return
		}
		c.Set(KeyUser, u)
		c.Next()
	}
}

// OptionalUser 可选鉴权：无效凭证按匿名处理
func OptionalUser(r UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := r.Optional(c.Request.Context(), BearerToken(c))
		if err != nil {
			resp.FromError(c, err)
			return
		}
		if u != nil {
			c.Set(KeyUser, u)
		}
		c.Next()
	}
}

// CurrentUser 匿名时返回 nil
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(KeyUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
