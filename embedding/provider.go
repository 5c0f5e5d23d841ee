// Package embedding turns text into vectors for similarity search.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/unirag/campus-rag/config"
)

// Provider is safe for concurrent use.
type Provider interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// NewProvider builds the configured provider.
func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
