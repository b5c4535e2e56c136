package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/server/handlers"
	"github.com/mamadbah2/treadstock/internal/server/web"
)

const requestIDHeader = "X-Request-ID"

// multipartOverhead leaves room for boundaries and form fields around the file.
const multipartOverhead = 64 << 10

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Inventory *handlers.InventoryHandler
	Imports   *handlers.ImportHandler
	Exports   *handlers.ExportHandler
	Alerts    *handlers.AlertHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, maxUploadBytes int64, logger *zap.Logger) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.MaxMultipartMemory = maxUploadBytes
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/", h.Inventory.Index)
	r.POST("/stock/add", h.Inventory.AddStockForm)
	r.POST("/stock/remove", h.Inventory.RemoveStockForm)
	upload := limitBody(maxUploadBytes)

	r.POST("/import/upload", upload, h.Imports.UploadForm)
	r.POST("/import/sheet", h.Imports.SheetForm)
	r.POST("/import/local", h.Imports.LocalForm)
	r.POST("/import/confirm", h.Imports.Confirm)
	r.GET("/export/items.xlsx", h.Exports.Items)
	r.GET("/export/transactions.xlsx", h.Exports.Transactions)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/items", h.Inventory.ListItems)
		api.GET("/items/low-stock", h.Inventory.LowStock)
		api.GET("/items/:id/transactions", h.Inventory.ItemHistory)
		api.GET("/stats", h.Inventory.Stats)
		api.GET("/transactions", h.Inventory.ListTransactions)
		api.POST("/stock/add", h.Inventory.AddStock)
		api.POST("/stock/remove/id", h.Inventory.RemoveByID)
		api.POST("/stock/remove/signature", h.Inventory.RemoveBySignature)
		api.POST("/imports/merge", upload, h.Imports.MergeAPI)
		api.POST("/imports/replace", upload, h.Imports.ReplaceAPI)
		api.POST("/alerts/low-stock", h.Alerts.LowStock)
		api.POST("/alerts/send", h.Alerts.SendMessage)
	}

	logger.Info("router initialized")
	return r, nil
}

// requestIDMiddleware propagates or assigns a request id.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// limitBody caps the request body so oversized uploads fail while parsing
// instead of being buffered to disk.
func limitBody(maxUploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+multipartOverhead)
		}
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")))
	}
}
