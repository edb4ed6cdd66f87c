package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/greenplanet/inventory-server/audit"
	"github.com/greenplanet/inventory-server/inventory"
	mw "github.com/greenplanet/inventory-server/middleware"
	"go.uber.org/zap"
)

// ItemsHandler handles inventory item REST endpoints.
type ItemsHandler struct {
	inv    *inventory.Service
	audit  *audit.Service
	logger *zap.Logger
}

// NewItemsHandler creates a new ItemsHandler.
func NewItemsHandler(inv *inventory.Service, au *audit.Service, logger *zap.Logger) *ItemsHandler {
	return &ItemsHandler{inv: inv, audit: au, logger: logger}
}

// List handles GET /api/items. Optional query params: category filters
// to one category ("all" means no filter), q searches name, description
// and brand.
func (h *ItemsHandler) List(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	items, err := h.inv.List(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	items = inventory.FilterByCategory(items, c.Query("category"))
	items = inventory.Search(items, c.Query("q"))

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"count":       len(items),
		"total_value": inventory.TotalValue(items),
	})
}

// Update handles PUT /api/items/:id. Absent fields are left unchanged.
func (h *ItemsHandler) Update(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var upd inventory.ItemUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.inv.Update(c.Request.Context(), accountID, id, upd)
	if errors.Is(err, inventory.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.audit != nil {
		h.audit.Log(audit.AuditEntry{
			TraceID:   mw.GetTraceID(c),
			AccountID: &accountID,
			Action:    audit.ActionItemUpdate,
			Request:   upd,
			Response:  map[string]int64{"item_id": id},
			IP:        c.ClientIP(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// Delete handles DELETE /api/items/:id.
func (h *ItemsHandler) Delete(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	err = h.inv.Delete(c.Request.Context(), accountID, id)
	if errors.Is(err, inventory.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if h.audit != nil {
		h.audit.Log(audit.AuditEntry{
			TraceID:   mw.GetTraceID(c),
			AccountID: &accountID,
			Action:    audit.ActionItemDelete,
			Request:   map[string]int64{"item_id": id},
			IP:        c.ClientIP(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
