package formdraft

import (
	"context"

	"google.golang.org/genai"
)

// Generator is the slice of the Gemini client the drafter uses.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ Generator = (*genai.Models)(nil)

type DraftServiceAPI interface {
	Draft(ctx context.Context, prompt string) (Draft, error)
}

var _ DraftServiceAPI = (*DraftService)(nil)
