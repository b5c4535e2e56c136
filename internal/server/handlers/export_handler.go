package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams the inventory and the audit log as xlsx downloads.
type ExportHandler struct {
	inv    InventoryService
	logger *zap.Logger
	now    func() time.Time
}

// NewExportHandler constructs the HTTP handler adapter.
func NewExportHandler(inv InventoryService, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{inv: inv, logger: logger, now: time.Now}
}

// Items downloads every record with the import-compatible header.
func (h *ExportHandler) Items(c *gin.Context) {
	items, err := h.inv.ListItems(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "export items", err)
		return
	}

	h.attach(c, "inventory_backup")
	if err := spreadsheet.WriteItems(c.Writer, items); err != nil {
		h.logger.Error("failed writing items export", zap.Error(err))
	}
}

// Transactions downloads the audit log, newest first.
func (h *ExportHandler) Transactions(c *gin.Context) {
	entries, err := h.inv.ListTransactions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "export transactions", err)
		return
	}

	h.attach(c, "transactions")
	if err := spreadsheet.WriteTransactions(c.Writer, entries); err != nil {
		h.logger.Error("failed writing transactions export", zap.Error(err))
	}
}

func (h *ExportHandler) attach(c *gin.Context, name string) {
	filename := fmt.Sprintf("%s_%s.xlsx", name, h.now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)
}
