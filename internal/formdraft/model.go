package formdraft

import (
	"errors"

	"tmi-forms-api/internal/form"
)

var (
	ErrDraftsDisabled = errors.New("template drafting is not configured")
	ErrEmptyPrompt    = errors.New("prompt is required")
	ErrEmptyResponse  = errors.New("no response from Gemini")
)

const defaultModel = "gemini-2.5-flash"

type DraftRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// Draft is an unsaved template proposal. Violations list what has to be
// fixed before it could be published.
type Draft struct {
	Template   *form.Template
	Violations []form.StructuralViolation
}
