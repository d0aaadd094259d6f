package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
	resp "go-gin-gorm-auth/internal/transport/http/response"
)

type Options struct {
	Debug   bool
	Origins []string // 为空且非 debug 时不挂 CORS
}

// NewRouter 基础 engine：panic 恢复 + CORS + 统一 404/405
func NewRouter(l *zap.Logger, o Options) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(mdw.Recovery(l))
	if h := corsHandler(o); h != nil {
		r.Use(h)
	}
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "") })
	r.NoMethod(func(c *gin.Context) { resp.Abort(c, http.StatusMethodNotAllowed, "") })
	return r
}

func corsHandler(o Options) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", mdw.KeyRequestID},
		ExposeHeaders: []string{mdw.KeyRequestID, mdw.KeyProcessTime, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	switch {
	case o.Debug:
		// 本地调试放开所有来源；通配来源不能带凭证
		cfg.AllowAllOrigins = true
	case len(o.Origins) > 0:
		cfg.AllowOrigins = o.Origins
		cfg.AllowCredentials = true
	default:
		return nil
	}
	return cors.New(cfg)
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       rt,
		ReadHeaderTimeout: rt,
		WriteTimeout:      wt,
		IdleTimeout:       it,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }

// HumanURL 启动日志里打印可点击的地址
func HumanURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return "http://" + Addr(host, port)
}
