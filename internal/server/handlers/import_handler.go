package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/domain/models"
	"github.com/mamadbah2/treadstock/internal/service/staging"
	"github.com/mamadbah2/treadstock/internal/spreadsheet"
)

const previewRows = 20

// Stager holds parsed imports between preview and confirmation.
type Stager interface {
	Stage(mode models.ImportMode, source string, rows []models.CanonicalRow) staging.PendingImport
	Peek(token string) (staging.PendingImport, error)
	Take(token string) (staging.PendingImport, error)
}

// SheetReader reads a range of the configured Google spreadsheet.
type SheetReader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// ImportOptions configures the import sources. Sheets is nil when Google
// Sheets is not configured.
type ImportOptions struct {
	Sheets         SheetReader
	ImportRange    string
	LocalFile      string
	MaxUploadBytes int64
}

// ImportHandler serves spreadsheet imports: the two-step HTML flow and the
// one-shot JSON endpoints.
type ImportHandler struct {
	inv        InventoryService
	stager     Stager
	opts       ImportOptions
	normalizer *spreadsheet.Normalizer
	logger     *zap.Logger
}

// NewImportHandler constructs the HTTP handler adapter.
func NewImportHandler(inv InventoryService, stager Stager, opts ImportOptions, logger *zap.Logger) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{
		inv:        inv,
		stager:     stager,
		opts:       opts,
		normalizer: spreadsheet.NewNormalizer(logger.Named("normalizer")),
		logger:     logger,
	}
}

// UploadForm parses an uploaded workbook and renders the preview.
func (h *ImportHandler) UploadForm(c *gin.Context) {
	mode, err := models.ParseImportMode(c.PostForm("mode"))
	if err != nil {
		redirectWithError(c, h.logger, "stage upload", err)
		return
	}

	table, source, err := h.readUpload(c)
	if err != nil {
		redirectWithError(c, h.logger, "stage upload", err)
		return
	}
	h.stageAndPreview(c, mode, source, table)
}

// SheetForm reads the configured import range and renders the preview.
func (h *ImportHandler) SheetForm(c *gin.Context) {
	mode, err := models.ParseImportMode(c.PostForm("mode"))
	if err != nil {
		redirectWithError(c, h.logger, "stage sheet", err)
		return
	}
	if h.opts.Sheets == nil {
		redirectWithError(c, h.logger, "stage sheet", models.NewValidationError("sheet", "Google Sheets is not configured"))
		return
	}

	values, err := h.opts.Sheets.ReadRange(c.Request.Context(), h.opts.ImportRange)
	if err != nil {
		redirectWithError(c, h.logger, "stage sheet", err)
		return
	}
	h.stageAndPreview(c, mode, "Google Sheet "+h.opts.ImportRange, spreadsheet.FromSheetValues(values))
}

// LocalForm reads the workbook kept next to the application and renders
// the preview.
func (h *ImportHandler) LocalForm(c *gin.Context) {
	mode, err := models.ParseImportMode(c.PostForm("mode"))
	if err != nil {
		redirectWithError(c, h.logger, "stage local file", err)
		return
	}

	f, err := os.Open(h.opts.LocalFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = models.NewValidationError("file", fmt.Sprintf("no %s found in app folder", filepath.Base(h.opts.LocalFile)))
		}
		redirectWithError(c, h.logger, "stage local file", err)
		return
	}
	defer func() { _ = f.Close() }()

	table, err := spreadsheet.ReadXLSX(f)
	if err != nil {
		redirectWithError(c, h.logger, "stage local file", err)
		return
	}
	h.stageAndPreview(c, mode, h.opts.LocalFile, table)
}

// Confirm executes a staged import. Replace imports also need
// confirm_replace=yes; without it the preview is shown again.
func (h *ImportHandler) Confirm(c *gin.Context) {
	token := c.PostForm("token")

	pending, err := h.stager.Peek(token)
	if err != nil {
		redirectWithError(c, h.logger, "confirm import", fmt.Errorf("import expired or already confirmed, upload it again: %w", err))
		return
	}

	confirmed := c.PostForm("confirm_replace") == "yes"
	if pending.Mode == models.ImportReplace && !confirmed {
		h.logger.Warn("replace import not confirmed", zap.String("token", token))
		h.renderPreview(c, http.StatusBadRequest, pending, "Tick the confirmation box to replace the whole inventory and its history.")
		return
	}

	pending, err = h.stager.Take(token)
	if err != nil {
		redirectWithError(c, h.logger, "confirm import", err)
		return
	}

	ctx := c.Request.Context()
	switch pending.Mode {
	case models.ImportReplace:
		result, err := h.inv.ReplaceAll(ctx, pending.Rows, confirmed)
		if err != nil {
			redirectWithError(c, h.logger, "replace import", err)
			return
		}
		setFlash(c, flashSuccess, fmt.Sprintf("Inventory replaced with %d rows from %s.", result.Replaced, pending.Source))
	default:
		result, err := h.inv.MergeByIdentifierThenSignature(ctx, pending.Rows)
		if err != nil {
			logRequestError(h.logger, "merge import", statusFor(err), err)
			setFlash(c, flashError, fmt.Sprintf("Import stopped: %s. %d earlier rows were saved.", publicMessage(err, statusFor(err)), result.Rows))
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		setFlash(c, flashSuccess, mergeSummary(result))
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// MergeAPI merges an uploaded workbook in one request.
func (h *ImportHandler) MergeAPI(c *gin.Context) {
	rows, source, err := h.uploadRows(c)
	if err != nil {
		respondError(c, h.logger, "merge import", err)
		return
	}

	result, err := h.inv.MergeByIdentifierThenSignature(c.Request.Context(), rows)
	if err != nil {
		status := statusFor(err)
		logRequestError(h.logger, "merge import", status, err)
		c.JSON(status, gin.H{"error": publicMessage(err, status), "result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "result": result})
}

// ReplaceAPI replaces the inventory with an uploaded workbook. The request
// must carry confirm=true.
func (h *ImportHandler) ReplaceAPI(c *gin.Context) {
	rows, source, err := h.uploadRows(c)
	if err != nil {
		respondError(c, h.logger, "replace import", err)
		return
	}

	result, err := h.inv.ReplaceAll(c.Request.Context(), rows, c.PostForm("confirm") == "true")
	if err != nil {
		respondError(c, h.logger, "replace import", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "result": result})
}

func (h *ImportHandler) stageAndPreview(c *gin.Context, mode models.ImportMode, source string, table spreadsheet.Table) {
	rows, err := h.normalizer.Normalize(table)
	if err != nil {
		redirectWithError(c, h.logger, "stage import", err)
		return
	}

	pending := h.stager.Stage(mode, source, rows)
	h.logger.Info("import staged", zap.String("source", source), zap.String("mode", string(mode)), zap.Int("rows", len(rows)))
	h.renderPreview(c, http.StatusOK, pending, "")
}

func (h *ImportHandler) renderPreview(c *gin.Context, status int, pending staging.PendingImport, problem string) {
	preview := pending.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	c.HTML(status, "preview.html", gin.H{
		"Pending": pending,
		"Count":   len(pending.Rows),
		"Preview": preview,
		"Replace": pending.Mode == models.ImportReplace,
		"Problem": problem,
	})
}

func (h *ImportHandler) uploadRows(c *gin.Context) ([]models.CanonicalRow, string, error) {
	table, source, err := h.readUpload(c)
	if err != nil {
		return nil, "", err
	}
	rows, err := h.normalizer.Normalize(table)
	if err != nil {
		return nil, "", err
	}
	return rows, source, nil
}

func (h *ImportHandler) readUpload(c *gin.Context) (spreadsheet.Table, string, error) {
	tooLarge := models.NewValidationError("file", fmt.Sprintf("must be at most %d bytes", h.opts.MaxUploadBytes))

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return spreadsheet.Table{}, "", tooLarge
		}
		return spreadsheet.Table{}, "", models.NewValidationError("file", "an .xlsx upload is required")
	}
	if h.opts.MaxUploadBytes > 0 && header.Size > h.opts.MaxUploadBytes {
		return spreadsheet.Table{}, "", tooLarge
	}

	f, err := header.Open()
	if err != nil {
		return spreadsheet.Table{}, "", fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := spreadsheet.ReadXLSX(f)
	if err != nil {
		return spreadsheet.Table{}, "", err
	}
	return table, header.Filename, nil
}

func mergeSummary(r models.ImportResult) string {
	return fmt.Sprintf("Merge/Upsert import completed: %d rows (%d updated, %d inserted, %d merged by signature, %d new).",
		r.Rows, r.Updated, r.Inserted, r.MergedBySignature, r.Created)
}
