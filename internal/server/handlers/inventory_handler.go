package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/domain/models"
	"github.com/mamadbah2/treadstock/internal/service/inventory"
)

const recentTransactions = 20

// InventoryService is the mutation and listing surface used by the handlers.
type InventoryService interface {
	AddStock(ctx context.Context, in inventory.AddStockInput) (int64, error)
	RemoveStockByID(ctx context.Context, in inventory.RemoveByIDInput) error
	RemoveStockBySignature(ctx context.Context, in inventory.RemoveBySignatureInput) error
	ListItems(ctx context.Context) ([]models.StockRecord, error)
	ListTransactions(ctx context.Context) ([]models.AuditEntry, error)
	ItemHistory(ctx context.Context, itemID int64) ([]models.AuditEntry, error)
	MergeByIdentifierThenSignature(ctx context.Context, rows []models.CanonicalRow) (models.ImportResult, error)
	ReplaceAll(ctx context.Context, rows []models.CanonicalRow, confirmed bool) (models.ImportResult, error)
}

// ReportingService provides the read-only views.
type ReportingService interface {
	Stats(ctx context.Context) (models.Stats, error)
	Search(ctx context.Context, q string) ([]models.StockRecord, error)
	LowStock(ctx context.Context) ([]models.StockRecord, error)
	Threshold() int
}

// InventoryHandler serves the inventory page, the stock forms and the
// JSON stock endpoints.
type InventoryHandler struct {
	inv           InventoryService
	reports       ReportingService
	sheetsEnabled bool
	logger        *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(inv InventoryService, reports ReportingService, sheetsEnabled bool, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{inv: inv, reports: reports, sheetsEnabled: sheetsEnabled, logger: logger}
}

type addStockForm struct {
	ID       string `form:"id"`
	Size     string `form:"tyre_size"`
	Company  string `form:"company"`
	Series   string `form:"series"`
	Quantity string `form:"qty"`
	Note     string `form:"note"`
}

type removeStockForm struct {
	Mode     string `form:"mode"`
	ID       string `form:"id"`
	Size     string `form:"tyre_size"`
	Company  string `form:"company"`
	Series   string `form:"series"`
	Quantity string `form:"qty"`
	Reason   string `form:"reason"`
	Note     string `form:"note"`
}

// Index renders the inventory page.
func (h *InventoryHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	q := strings.TrimSpace(c.Query("q"))

	items, err := h.reports.Search(ctx, q)
	if err != nil {
		h.renderFailure(c, err)
		return
	}
	stats, err := h.reports.Stats(ctx)
	if err != nil {
		h.renderFailure(c, err)
		return
	}
	low, err := h.reports.LowStock(ctx)
	if err != nil {
		h.renderFailure(c, err)
		return
	}
	entries, err := h.inv.ListTransactions(ctx)
	if err != nil {
		h.renderFailure(c, err)
		return
	}
	if len(entries) > recentTransactions {
		entries = entries[:recentTransactions]
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Flash":         popFlash(c),
		"Query":         q,
		"Items":         items,
		"Stats":         stats,
		"LowStock":      low,
		"Threshold":     h.reports.Threshold(),
		"Transactions":  entries,
		"Reasons":       models.RemovalReasons,
		"SheetsEnabled": h.sheetsEnabled,
	})
}

// AddStockForm handles the add-stock form and redirects back to the page.
func (h *InventoryHandler) AddStockForm(c *gin.Context) {
	var form addStockForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, h.logger, "add stock", models.NewValidationError("form", err.Error()))
		return
	}

	in, err := form.input()
	if err != nil {
		redirectWithError(c, h.logger, "add stock", err)
		return
	}

	id, err := h.inv.AddStock(c.Request.Context(), in)
	if err != nil {
		redirectWithError(c, h.logger, "add stock", err)
		return
	}

	setFlash(c, flashSuccess, fmt.Sprintf("Added %d units. Item ID: %d", in.Quantity, id))
	c.Redirect(http.StatusSeeOther, "/")
}

// RemoveStockForm handles the removal form, by identifier or by signature.
func (h *InventoryHandler) RemoveStockForm(c *gin.Context) {
	var form removeStockForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, h.logger, "remove stock", models.NewValidationError("form", err.Error()))
		return
	}

	qty, err := parseQuantity(form.Quantity)
	if err != nil {
		redirectWithError(c, h.logger, "remove stock", err)
		return
	}
	reason := reasonOrDefault(form.Reason)
	note := models.OptionalString(form.Note)

	var message string
	if form.Mode == "signature" {
		sig := models.Signature{
			Size:    strings.TrimSpace(form.Size),
			Company: models.OptionalString(form.Company),
			Series:  models.OptionalString(form.Series),
		}
		err = h.inv.RemoveStockBySignature(c.Request.Context(), inventory.RemoveBySignatureInput{Signature: sig, Quantity: qty, Reason: reason, Note: note})
		message = fmt.Sprintf("Removed %d units (%s).", qty, sig)
	} else {
		var id *int64
		id, err = models.OptionalID(form.ID)
		if err == nil && id == nil {
			err = models.NewValidationError("id", "is required")
		}
		if err == nil {
			err = h.inv.RemoveStockByID(c.Request.Context(), inventory.RemoveByIDInput{ID: *id, Quantity: qty, Reason: reason, Note: note})
			message = fmt.Sprintf("Removed %d units from ID %d.", qty, *id)
		}
	}
	if err != nil {
		redirectWithError(c, h.logger, "remove stock", err)
		return
	}

	setFlash(c, flashSuccess, message)
	c.Redirect(http.StatusSeeOther, "/")
}

// ListItems returns items matching the optional q parameter.
func (h *InventoryHandler) ListItems(c *gin.Context) {
	items, err := h.reports.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, "list items", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// LowStock returns items at or below the threshold.
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.reports.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list low stock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threshold": h.reports.Threshold(), "items": items})
}

// Stats returns the quick stats.
func (h *InventoryHandler) Stats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "load stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListTransactions returns the audit log, newest first.
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	entries, err := h.inv.ListTransactions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list transactions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

// ItemHistory returns the audit entries of one identifier.
func (h *InventoryHandler) ItemHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, h.logger, "item history", models.NewValidationError("id", "must be a whole number"))
		return
	}
	entries, err := h.inv.ItemHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "item history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": id, "transactions": entries})
}

// AddStock records a stock-in from a JSON body.
func (h *InventoryHandler) AddStock(c *gin.Context) {
	var in inventory.AddStockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.logger, "add stock", models.NewValidationError("body", err.Error()))
		return
	}

	id, err := h.inv.AddStock(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "add stock", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "added": in.Quantity})
}

// RemoveByID records a stock-out addressed by identifier.
func (h *InventoryHandler) RemoveByID(c *gin.Context) {
	var in inventory.RemoveByIDInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.logger, "remove stock", models.NewValidationError("body", err.Error()))
		return
	}
	in.Reason = reasonOrDefault(string(in.Reason))

	if err := h.inv.RemoveStockByID(c.Request.Context(), in); err != nil {
		respondError(c, h.logger, "remove stock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": in.ID, "removed": in.Quantity, "reason": in.Reason})
}

// RemoveBySignature records a stock-out addressed by signature.
func (h *InventoryHandler) RemoveBySignature(c *gin.Context) {
	var in inventory.RemoveBySignatureInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.logger, "remove stock", models.NewValidationError("body", err.Error()))
		return
	}
	in.Reason = reasonOrDefault(string(in.Reason))

	if err := h.inv.RemoveStockBySignature(c.Request.Context(), in); err != nil {
		respondError(c, h.logger, "remove stock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signature": in.Signature, "removed": in.Quantity, "reason": in.Reason})
}

func (h *InventoryHandler) renderFailure(c *gin.Context, err error) {
	status := statusFor(err)
	logRequestError(h.logger, "render inventory", status, err)
	c.String(status, "Error reading inventory: %s", publicMessage(err, status))
}

func (f addStockForm) input() (inventory.AddStockInput, error) {
	id, err := models.OptionalID(f.ID)
	if err != nil {
		return inventory.AddStockInput{}, err
	}
	qty, err := parseQuantity(f.Quantity)
	if err != nil {
		return inventory.AddStockInput{}, err
	}
	return inventory.AddStockInput{
		ID:       id,
		Size:     strings.TrimSpace(f.Size),
		Company:  models.OptionalString(f.Company),
		Series:   models.OptionalString(f.Series),
		Quantity: qty,
		Note:     models.OptionalString(f.Note),
	}, nil
}

func parseQuantity(value string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, models.NewValidationError("qty", "must be a whole number")
	}
	return qty, nil
}

// Removals default to a sale, like the form's first option.
func reasonOrDefault(value string) models.Reason {
	if strings.TrimSpace(value) == "" {
		return models.ReasonSale
	}
	return models.Reason(strings.TrimSpace(value))
}
