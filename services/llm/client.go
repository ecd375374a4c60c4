package llm

import "context"

type GenerationParams struct {
	// System sets the system instruction for this call. Each pipeline
	// stage carries its own system prompt, so it is per-call rather
	// than per-client.
	System      string   `json:"system"`
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}
