package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/greenplanet/inventory-server/audit"
	"github.com/greenplanet/inventory-server/intake"
	mw "github.com/greenplanet/inventory-server/middleware"
	"github.com/greenplanet/inventory-server/pipeline"
	"go.uber.org/zap"
)

// IntakeHandler handles image staging and the analysis trigger.
type IntakeHandler struct {
	reg      *intake.Registry
	analyzer *pipeline.Analyzer
	audit    *audit.Service
	logger   *zap.Logger
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(reg *intake.Registry, analyzer *pipeline.Analyzer, au *audit.Service, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{reg: reg, analyzer: analyzer, audit: au, logger: logger}
}

type stagedFile struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Size int    `json:"size"`
}

func stagedSnapshot(s *intake.Staging) []stagedFile {
	files := s.Files()
	out := make([]stagedFile, len(files))
	for i, f := range files {
		out[i] = stagedFile{Name: f.Name, MIME: f.MIME, Size: len(f.Data)}
	}
	return out
}

// Stage handles POST /api/intake. Accepts multipart form uploads under
// the "images" field. Valid files are staged even when others in the
// same batch are rejected; the aggregate rejection message comes back
// alongside whatever was accepted.
func (h *IntakeHandler) Stage(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form upload"})
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no images provided"})
		return
	}

	files := make([]intake.File, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read %s", fh.Filename)})
			return
		}
		data, err := io.ReadAll(io.LimitReader(src, intake.MaxFileSize+1))
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read %s", fh.Filename)})
			return
		}
		files = append(files, intake.File{Name: fh.Filename, Data: data})
	}

	staging := h.reg.For(accountID)
	addErr := staging.Add(files...)

	resp := gin.H{"staged": stagedSnapshot(staging)}
	var verr *intake.ValidationError
	if errors.As(addErr, &verr) {
		resp["error"] = verr.Error()
		if len(verr.Rejected) == len(files) {
			c.JSON(http.StatusBadRequest, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// List handles GET /api/intake.
func (h *IntakeHandler) List(c *gin.Context) {
	staging := h.reg.For(mw.GetAccountID(c))
	c.JSON(http.StatusOK, gin.H{"staged": stagedSnapshot(staging)})
}

// Remove handles DELETE /api/intake/:index.
func (h *IntakeHandler) Remove(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}
	staging := h.reg.For(mw.GetAccountID(c))
	if err := staging.Remove(idx); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no staged file at that index"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"staged": stagedSnapshot(staging)})
}

// Analyze handles POST /api/analyze. Runs the full pipeline over the
// staged files. On success staging is cleared; on failure the staged
// files are kept so the user can retry without re-uploading.
func (h *IntakeHandler) Analyze(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	staging := h.reg.For(accountID)
	files := staging.Files()
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no images staged"})
		return
	}

	res, err := h.analyzer.Analyze(c.Request.Context(), accountID, files)
	if err != nil {
		h.logger.Error("analysis failed",
			zap.Int64("account_id", accountID),
			zap.Int("images", len(files)),
			zap.Error(err))
		if h.audit != nil {
			h.audit.Log(audit.AuditEntry{
				TraceID:   mw.GetTraceID(c),
				AccountID: &accountID,
				Action:    audit.ActionAnalyze,
				Request:   map[string]int{"images": len(files)},
				Error:     err.Error(),
				IP:        c.ClientIP(),
			})
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to analyze images. Please try again with clearer photos.",
		})
		return
	}

	staging.Clear()

	message := "Analysis complete, but no new items were identified."
	if len(res.Items) > 0 {
		message = fmt.Sprintf("Successfully analyzed and added %d items to your inventory!", len(res.Items))
	}

	if h.audit != nil {
		h.audit.Log(audit.AuditEntry{
			TraceID:   mw.GetTraceID(c),
			AccountID: &accountID,
			Action:    audit.ActionAnalyze,
			Request:   map[string]int{"images": len(files)},
			Response:  map[string]int{"items": len(res.Items)},
			IP:        c.ClientIP(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"items":   res.Items,
	})
}
