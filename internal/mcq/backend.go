package mcq

import (
	"context"

	"github.com/studyloop/studyloop-backend/internal/openai"
)

// openAIBackend generates questions through the structured-output path of
// the OpenAI-compatible client, falling back to plain text generation when
// the endpoint rejects json_schema formatting.
type openAIBackend struct {
	client openai.Client
}

func NewOpenAIBackend(client openai.Client) Backend {
	return &openAIBackend{client: client}
}

func (b *openAIBackend) GenerateQuestions(ctx context.Context, system, user string, schema map[string]any) (Result, error) {
	obj, err := b.client.GenerateJSON(ctx, system, user, "mcq_batch", schema)
	if err == nil {
		return Result{Structured: obj}, nil
	}

	// Some OpenAI-compatible servers do not implement structured outputs.
	// The prompt already demands bare JSON, so raw text plus fence stripping
	// still works there.
	text, textErr := b.client.GenerateText(ctx, system, user)
	if textErr != nil {
		return Result{}, err
	}
	return Result{Raw: text}, nil
}
