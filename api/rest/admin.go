package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/greenplanet/inventory-server/audit"
	"github.com/greenplanet/inventory-server/model"
	"github.com/greenplanet/inventory-server/scheduler"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles operator-only REST endpoints.
// Routes should be protected by the IPWhitelist middleware.
type AdminHandler struct {
	db     *gorm.DB
	audit  *audit.Service
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, au *audit.Service, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, audit: au, sched: sched, logger: logger}
}

// Metrics returns server health counters.
// GET /admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var accounts, items, jobs int64
	h.db.Model(&model.Account{}).Count(&accounts)
	h.db.Model(&model.Item{}).Count(&items)
	h.db.Model(&model.Job{}).Count(&jobs)
	c.JSON(http.StatusOK, gin.H{
		"accounts":        accounts,
		"items":           items,
		"jobs":            jobs,
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// AuditLog returns the newest audit entries.
// GET /admin/audit?limit=100
func (h *AdminHandler) AuditLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs, "count": len(logs)})
}

// DisableAccount disables or re-enables an account.
// POST /admin/accounts/:id/disable
func (h *AdminHandler) DisableAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Disable bool `json:"disable"`
	}
	_ = c.ShouldBindJSON(&req)

	status := 1
	if req.Disable {
		status = 0
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	h.logger.Info("account status changed",
		zap.Int64("account_id", accountID),
		zap.Int("status", status))
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}
