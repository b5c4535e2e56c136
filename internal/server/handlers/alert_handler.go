package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/domain/models"
	service "github.com/mamadbah2/treadstock/internal/service/whatsapp"
)

// AlertHandler triggers WhatsApp notifications on demand.
type AlertHandler struct {
	svc    service.AlertService
	logger *zap.Logger
}

// NewAlertHandler constructs the HTTP handler adapter. A nil service
// answers 503 on every route.
func NewAlertHandler(svc service.AlertService, logger *zap.Logger) *AlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertHandler{svc: svc, logger: logger}
}

// LowStock sends the low-stock digest now.
func (h *AlertHandler) LowStock(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	count, err := h.svc.SendLowStockAlert(c.Request.Context())
	if err != nil {
		h.logger.Error("failed sending low-stock alert", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send alert"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"items": count, "sent": count > 0})
}

// SendMessage lets operators push a manual notification.
func (h *AlertHandler) SendMessage(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}

func (h *AlertHandler) enabled(c *gin.Context) bool {
	if h.svc != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "WhatsApp alerts are not configured"})
	return false
}
