package service

import (
	"strings"

	"cropchain/internal/assistant/models"
)

const (
	replyTrack      = "To track a batch, you can either scan the QR code or search by batch ID (format: CROP-YYYY-XXX) on the Track Batch page. This will show you the complete supply chain journey."
	replyQR         = "QR codes are generated automatically when you create a batch. Consumers can scan these codes to see the complete farm-to-fork journey of their products."
	replyCreate     = "To create a new batch, go to the 'Add Batch' page and fill in the farmer details, crop information, and harvest date. The system will generate a unique batch ID and QR code."
	replyBlockchain = "CropChain uses blockchain technology to create immutable records. Once data is recorded, it cannot be changed, ensuring transparency and trust in the supply chain."
	replyGreeting   = "I'm CropAssistant! I can help you with batch tracking, QR codes, supply chain processes, and navigating CropChain. What would you like to know?"
)

// Fallback answers from keyword rules, checked in order. It is the default
// mode when no model is configured.
func Fallback(message string) models.Reply {
	lower := strings.ToLower(message)
	has := func(s string) bool { return strings.Contains(lower, s) }

	var text string
	switch {
	case has("batch") && (has("track") || has("find")):
		text = replyTrack
	case has("qr") || has("scan"):
		text = replyQR
	case has("create") || has("add"):
		text = replyCreate
	case has("blockchain") || has("immutable"):
		text = replyBlockchain
	default:
		text = replyGreeting
	}
	return models.Reply{Success: true, Message: text, Fallback: true}
}
