package whatsapp

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/config"
	"github.com/mamadbah2/treadstock/internal/domain/models"
	client "github.com/mamadbah2/treadstock/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// DigestSource renders the current low-stock digest.
type DigestSource interface {
	LowStockDigest(ctx context.Context) (string, int, error)
}

// AlertService describes the notifications the scheduler and the HTTP layer
// can trigger.
type AlertService interface {
	SendLowStockAlert(ctx context.Context) (int, error)
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	digest DigestSource
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, digest DigestSource, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:    cfg,
		client: client,
		digest: digest,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendLowStockAlert sends the low-stock digest to the configured recipient
// and returns the number of items listed. Nothing is sent when no item is low.
func (s *MetaWhatsAppService) SendLowStockAlert(ctx context.Context) (int, error) {
	body, count, err := s.digest.LowStockDigest(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		s.logger.Debug("no low-stock items, alert skipped")
		return 0, nil
	}

	if err := s.SendOutbound(ctx, models.OutboundMessageRequest{To: s.cfg.AlertTo, Message: body}); err != nil {
		return 0, err
	}

	s.logger.Info("low-stock alert sent", zap.Int("items", count))
	return count, nil
}

// SendOutbound pushes a text message to one recipient.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if req.To == "" {
		return errors.New("send outbound: recipient is empty")
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	return err
}
