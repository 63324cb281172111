package handler

import (
	"strings"
	"unicode/utf8"

	dErrors "cropchain/pkg/domain-errors"
)

const maxMessageLength = 2000

type ChatRequest struct {
	Message string `json:"message"`
}

func (r *ChatRequest) Normalize() {
	r.Message = strings.TrimSpace(r.Message)
}

func (r *ChatRequest) Validate() error {
	if r.Message == "" {
		return dErrors.New(dErrors.CodeValidation, "message is required")
	}
	if utf8.RuneCountInString(r.Message) > maxMessageLength {
		return dErrors.Newf(dErrors.CodeValidation, "message must be at most %d characters", maxMessageLength)
	}
	return nil
}
