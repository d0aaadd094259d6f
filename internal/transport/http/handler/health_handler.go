package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-auth/internal/service"
	httpez "go-gin-gorm-auth/internal/transport/http/ez"
)

type HealthHandler struct {
	health HealthReporter
}

func NewHealthHandler(h HealthReporter) *HealthHandler { return &HealthHandler{health: h} }

// Mount GET /health；unhealthy 时 503，失败项写进 c.Errors 由访问日志输出
func (h *HealthHandler) Mount(g *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(g), httpez.Action[struct{}, service.HealthReport]{
		Method:  http.MethodGet,
		Path:    "/health",
		Binder:  httpez.BindNone,
		Handler: h.report,
	})
}

func (h *HealthHandler) report(c *gin.Context, _ *struct{}) (service.HealthReport, error) {
	rep := h.health.Report(c.Request.Context())
	if rep.Status == service.StatusUnhealthy {
		return rep, &httpez.AErr{
			Code: http.StatusServiceUnavailable,
			Err:  fmt.Errorf("unhealthy: %s", failing(rep)),
		}
	}
	return rep, nil
}

func failing(rep service.HealthReport) string {
	var parts []string
	for name, r := range rep.Checks {
		if r.Status == service.CheckFail {
			parts = append(parts, name+"="+r.Message)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
