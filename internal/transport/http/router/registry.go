package router

import "github.com/gin-gonic/gin"

// APIModule 模块可选择实现其中一个或两个接口
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// MountAllAPI 在 API 前缀分组上按顺序挂载模块
func MountAllAPI(api *gin.RouterGroup, mods ...APIModule) {
	for _, m := range mods {
		m.MountAPI(api)
	}
}

// MountAllAdmin 在 /admin/v1 上挂载模块
func MountAllAdmin(admin *gin.RouterGroup, mods ...AdminModule) {
	for _, m := range mods {
		m.MountAdmin(admin)
	}
}
