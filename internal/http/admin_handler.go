package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"planning-poker/internal/service"
)

// AdminHandler expone estadisticas agregadas.
type AdminHandler struct {
	logger   *zap.Logger
	adminSvc *service.AdminService
}

func NewAdminHandler(logger *zap.Logger, adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{logger: logger, adminSvc: adminSvc}
}

// Stats maneja GET /admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminSvc.Stats(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, "load stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Conflicts maneja GET /admin/conflicts.
func (h *AdminHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.adminSvc.Conflicts(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, "load conflicts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}

// UserStats maneja GET /admin/users-stats.
func (h *AdminHandler) UserStats(c *gin.Context) {
	stats, err := h.adminSvc.UserStats(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, "load user stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": stats})
}
