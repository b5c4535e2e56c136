package models

// OutboundMessageRequest represents a text message pushed to a WhatsApp recipient.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// FlashMessage is shown at the top of the inventory page after a form post.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
