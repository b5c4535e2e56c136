package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

const flashCookie = "flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

// setFlash stores a one-shot message for the next page render.
func setFlash(c *gin.Context, kind, message string) {
	c.SetCookie(flashCookie, kind+"|"+message, 60, "/", "", false, true)
}

// popFlash reads and clears the pending message, if any.
func popFlash(c *gin.Context) *models.FlashMessage {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)

	kind, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &models.FlashMessage{Kind: kind, Message: message}
}
