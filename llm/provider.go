// Package llm generates free-text answers from retrieved context.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/unirag/campus-rag/config"
)

// Provider generates a completion for a fully built prompt.
type Provider interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// NewProvider returns nil and no error when generation is disabled.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
