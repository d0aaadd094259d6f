package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/internal/feature/user"
	httpez "go-gin-gorm-auth/internal/transport/http/ez"
	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
)

type UserHandler struct {
	users    UserManager
	resolver mdw.UserResolver
}

func NewUserHandler(users UserManager, resolver mdw.UserResolver) *UserHandler {
	return &UserHandler{users: users, resolver: resolver}
}

// MountAPI POST /users, GET /users/me, PATCH /users/me
func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)
	authed := []gin.HandlerFunc{mdw.RequireUser(h.resolver)}

	httpez.RegisterAction(ez, httpez.Action[user.CreateRequest, *domain.UserPublic]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *user.CreateRequest) (*domain.UserPublic, error) {
			return h.users.CreateUser(c.Request.Context(), in.Email, in.Password, in.FullName)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.UserPublic]{
		Method:      http.MethodGet,
		Path:        "/users/me",
		Binder:      httpez.BindNone,
		Middlewares: authed,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.UserPublic, error) {
			// 鉴权中间件已按 token 加载过用户
			return mdw.CurrentUser(c).Public(), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[user.UpdateRequest, *domain.UserPublic]{
		Method:      http.MethodPatch,
		Path:        "/users/me",
		Binder:      httpez.BindJSON,
		Middlewares: authed,
		Handler: func(c *gin.Context, in *user.UpdateRequest) (*domain.UserPublic, error) {
			return h.users.UpdateUser(c.Request.Context(), mdw.CurrentUser(c).ID, in.Patch())
		},
	})
}
