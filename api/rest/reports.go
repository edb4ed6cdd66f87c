package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenplanet/inventory-server/ai"
	"github.com/greenplanet/inventory-server/audit"
	"github.com/greenplanet/inventory-server/email"
	"github.com/greenplanet/inventory-server/inventory"
	mw "github.com/greenplanet/inventory-server/middleware"
	"github.com/greenplanet/inventory-server/model"
	"github.com/greenplanet/inventory-server/report"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportsHandler renders inventory reports and sends claim emails.
type ReportsHandler struct {
	db      *gorm.DB
	inv     *inventory.Service
	drafter ai.Drafter
	mailer  email.Mailer
	audit   *audit.Service
	logger  *zap.Logger
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(db *gorm.DB, inv *inventory.Service, drafter ai.Drafter, mailer email.Mailer, au *audit.Service, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{db: db, inv: inv, drafter: drafter, mailer: mailer, audit: au, logger: logger}
}

// Defaults handles GET /api/reports/defaults: the prefilled report
// form, with the account's company profile overlaid.
func (h *ReportsHandler) Defaults(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	data := report.DefaultData(time.Now())

	var acc model.Account
	if err := h.db.First(&acc, accountID).Error; err == nil {
		data.FillFromAccount(&acc)
	}
	c.JSON(http.StatusOK, gin.H{"report": data})
}

// loadReportData binds the form and overlays profile fields onto
// whatever the caller left blank.
func (h *ReportsHandler) loadReportData(c *gin.Context) (report.Data, []model.Item, bool) {
	accountID := mw.GetAccountID(c)

	data := report.DefaultData(time.Now())
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return report.Data{}, nil, false
	}
	if data.Title == "" {
		data.Title = "Personal Property Inventory Report"
	}
	if data.Purpose == "" {
		data.Purpose = "Insurance Claim Documentation"
	}
	if data.ReportDate == "" {
		data.ReportDate = time.Now().Format("2006-01-02")
	}

	var acc model.Account
	if err := h.db.First(&acc, accountID).Error; err == nil {
		data.FillFromAccount(&acc)
	}

	items, err := h.inv.List(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return report.Data{}, nil, false
	}
	return data, items, true
}

// Preview handles POST /api/reports/preview.
func (h *ReportsHandler) Preview(c *gin.Context) {
	data, items, ok := h.loadReportData(c)
	if !ok {
		return
	}
	html, err := report.RenderPreview(data, items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html})
}

// Document handles POST /api/reports/document: the print-formatted
// report the browser hands to its print dialog.
func (h *ReportsHandler) Document(c *gin.Context) {
	data, items, ok := h.loadReportData(c)
	if !ok {
		return
	}
	html, err := report.RenderDocument(data, items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

// Draft handles POST /api/reports/draft: asks the model for a claim
// cover email the user can edit before sending.
func (h *ReportsHandler) Draft(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req ai.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var acc model.Account
	if err := h.db.First(&acc, accountID).Error; err == nil {
		if req.OwnerName == "" {
			req.OwnerName = acc.CompanyName
		}
		if req.OwnerAddress == "" {
			req.OwnerAddress = acc.CompanyAddress
		}
	}

	items, err := h.inv.List(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	draft, err := h.drafter.DraftClaimEmail(c.Request.Context(), req, items)
	if err != nil {
		h.logger.Error("draft generation failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate email draft. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

type sendEmailRequest struct {
	InsuranceEmail string `json:"insurance_email"`
	PolicyNumber   string `json:"policy_number"`
	Cover          string `json:"cover" binding:"required"`
	FromName       string `json:"from_name"`
}

// SendEmail handles POST /api/reports/email: the edited cover plus the
// deterministic inventory table, delivered to the insurance company.
func (h *ReportsHandler) SendEmail(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.InsuranceEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter the insurance company email address."})
		return
	}

	items, err := h.inv.List(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	body, err := report.RenderEmailBody(req.Cover, items, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	msg := email.Message{
		To:       req.InsuranceEmail,
		Subject:  email.ClaimSubject(req.PolicyNumber),
		HTML:     body,
		FromName: req.FromName,
	}
	if err := h.mailer.Send(c.Request.Context(), msg); err != nil {
		h.logger.Error("claim email delivery failed",
			zap.String("to", req.InsuranceEmail),
			zap.Error(err))
		if h.audit != nil {
			h.audit.Log(audit.AuditEntry{
				TraceID:   mw.GetTraceID(c),
				AccountID: &accountID,
				Action:    audit.ActionEmailSend,
				Request:   map[string]string{"to": req.InsuranceEmail, "policy": req.PolicyNumber},
				Error:     err.Error(),
				IP:        c.ClientIP(),
			})
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send email. Please try again."})
		return
	}

	if h.audit != nil {
		h.audit.Log(audit.AuditEntry{
			TraceID:   mw.GetTraceID(c),
			AccountID: &accountID,
			Action:    audit.ActionEmailSend,
			Request:   map[string]string{"to": req.InsuranceEmail, "policy": req.PolicyNumber},
			Response:  map[string]int{"items": len(items)},
			IP:        c.ClientIP(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"message": "Claim email sent successfully."})
}
