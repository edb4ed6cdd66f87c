package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/greenplanet/inventory-server/audit"
	mw "github.com/greenplanet/inventory-server/middleware"
	"github.com/greenplanet/inventory-server/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobsHandler handles restoration job REST endpoints.
type JobsHandler struct {
	db    *gorm.DB
	audit *audit.Service
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(db *gorm.DB, au *audit.Service) *JobsHandler {
	return &JobsHandler{db: db, audit: au}
}

// List handles GET /api/jobs. Jobs come back newest-first with status
// counts for the dashboard.
func (h *JobsHandler) List(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	var jobs []model.Job
	err := h.db.WithContext(c.Request.Context()).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&jobs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	stats := gin.H{"active": 0, "in_progress": 0, "completed": 0, "urgent": 0}
	for _, j := range jobs {
		switch j.JobStatus {
		case model.JobStatusActive:
			stats["active"] = stats["active"].(int) + 1
		case model.JobStatusInProgress:
			stats["in_progress"] = stats["in_progress"].(int) + 1
		case model.JobStatusCompleted:
			stats["completed"] = stats["completed"].(int) + 1
		}
		if j.Priority == model.PriorityUrgent {
			stats["urgent"] = stats["urgent"].(int) + 1
		}
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "stats": stats})
}

type createJobRequest struct {
	Title    string         `json:"title" binding:"required,max=255"`
	Priority string         `json:"priority"`
	Metadata datatypes.JSON `json:"metadata"`
}

// Create handles POST /api/jobs. The creator's display name is recorded
// as both assignee and supervisor; reassignment happens later.
func (h *JobsHandler) Create(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	priority := model.PriorityMedium
	if req.Priority != "" {
		priority = model.Priority(req.Priority)
		if !priority.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
			return
		}
	}

	var acc model.Account
	if err := h.db.First(&acc, accountID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	displayName := acc.FullName
	if displayName == "" {
		displayName = acc.Username
	}

	job := model.Job{
		AccountID:  accountID,
		Title:      req.Title,
		JobStatus:  model.JobStatusActive,
		Priority:   priority,
		AssignedTo: displayName,
		Supervisor: displayName,
		Metadata:   req.Metadata,
	}
	if err := h.db.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if h.audit != nil {
		h.audit.Log(audit.AuditEntry{
			TraceID:   mw.GetTraceID(c),
			AccountID: &accountID,
			Action:    audit.ActionJobCreate,
			Request:   req,
			Response:  map[string]int64{"job_id": job.ID},
			IP:        c.ClientIP(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

type updateJobRequest struct {
	JobStatus *string `json:"job_status"`
	Priority  *string `json:"priority"`
}

// Update handles PUT /api/jobs/:id, changing status or priority.
func (h *JobsHandler) Update(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := make(map[string]interface{})
	if req.JobStatus != nil {
		if !model.JobStatus(*req.JobStatus).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job status"})
			return
		}
		fields["job_status"] = *req.JobStatus
	}
	if req.Priority != nil {
		if !model.Priority(*req.Priority).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
			return
		}
		fields["priority"] = *req.Priority
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	res := h.db.Model(&model.Job{}).
		Where("id = ? AND account_id = ?", id, accountID).
		Updates(fields)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	var job model.Job
	if err := h.db.First(&job, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}
