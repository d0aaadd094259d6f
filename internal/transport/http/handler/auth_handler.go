package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/internal/feature/user"
	httpez "go-gin-gorm-auth/internal/transport/http/ez"
	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
)

type AuthHandler struct {
	auth   Authenticator
	tokens TokenDecoder
}

func NewAuthHandler(auth Authenticator, tokens TokenDecoder) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens}
}

// MountAPI POST /auth/login, POST /auth/verify
func (h *AuthHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)

	httpez.RegisterAction(ez, httpez.Action[user.LoginRequest, user.TokenResponse]{
		Method:  http.MethodPost,
		Path:    "/auth/login",
		Binder:  httpez.BindJSON,
		Handler: h.login,
	})
	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.TokenClaims]{
		Method:  http.MethodPost,
		Path:    "/auth/verify",
		Binder:  httpez.BindNone,
		Handler: h.verify,
	})
}

func (h *AuthHandler) login(c *gin.Context, in *user.LoginRequest) (user.TokenResponse, error) {
	tok, err := h.auth.AuthenticateUser(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		// 不区分“用户不存在”和“密码错误”，避免枚举邮箱
		var nf *domain.UserNotFoundError
		if errors.As(err, &nf) {
			return user.TokenResponse{}, &domain.AuthenticationError{}
		}
		return user.TokenResponse{}, err
	}
	return user.NewTokenResponse(tok), nil
}

func (h *AuthHandler) verify(c *gin.Context, _ *struct{}) (*domain.TokenClaims, error) {
	tok := mdw.BearerToken(c)
	if tok == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return h.tokens.Decode(tok)
}
