package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

type fakeAlerts struct {
	count int
	err   error
	sent  []models.OutboundMessageRequest
}

func (f *fakeAlerts) SendLowStockAlert(context.Context) (int, error) {
	return f.count, f.err
}

func (f *fakeAlerts) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req)
	return nil
}

func alertEngine(h *AlertHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/alerts/low-stock", h.LowStock)
	r.POST("/alerts/send", h.SendMessage)
	return r
}

func TestAlertHandler(t *testing.T) {
	t.Parallel()

	svc := &fakeAlerts{count: 3}
	r := alertEngine(NewAlertHandler(svc, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/alerts/low-stock", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"items":3,"sent":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/alerts/send", strings.NewReader(`{"to":"224","message":"restock 155 70 R13"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, svc.sent, 1)
	assert.Equal(t, "restock 155 70 R13", svc.sent[0].Message)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/alerts/send", strings.NewReader(`{"to":"224"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertHandler_Failures(t *testing.T) {
	t.Parallel()

	r := alertEngine(NewAlertHandler(&fakeAlerts{err: errors.New("meta down")}, nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/alerts/low-stock", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	r = alertEngine(NewAlertHandler(nil, nil))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/alerts/send", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
