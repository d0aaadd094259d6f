package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/internal/feature/user"
	httpez "go-gin-gorm-auth/internal/transport/http/ez"
)

type AdminHandler struct {
	users UserManager
}

func NewAdminHandler(users UserManager) *AdminHandler { return &AdminHandler{users: users} }

// MountAdmin 管理端用户接口；分组上已挂 API key 校验
func (h *AdminHandler) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g)

	// --- GET /users  用户列表 ---
	httpez.RegisterAction(ez, httpez.Action[struct{}, user.ListResponse]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (user.ListResponse, error) {
			items, err := h.users.ListUsers(c.Request.Context())
			if err != nil {
				return user.ListResponse{}, httpez.Internal("list users failed", err)
			}
			return user.ListResponse{Total: len(items), Items: items}, nil
		},
	})

	// --- GET /users/:id ---
	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.UserPublic]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.UserPublic, error) {
			return h.users.GetUser(c.Request.Context(), c.Param("id"))
		},
	})

	// --- DELETE /users/:id ---
	httpez.RegisterAction(ez, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
