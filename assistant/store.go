package assistant

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/vectordb"
	"github.com/unirag/campus-rag/vectordb/memory"
	"github.com/unirag/campus-rag/vectordb/milvus"
	"github.com/unirag/campus-rag/vectordb/qdrant"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore connects the configured vector store. The returned closer
// releases the connection and is never nil.
func OpenStore(ctx context.Context, cfg *config.Config) (vectordb.Provider, io.Closer, error) {
	switch strings.ToLower(cfg.VectorDB.Provider) {
	case "qdrant":
		return qdrant.New(cfg.VectorDB, cfg.HTTP), nopCloser{}, nil
	case "milvus":
		s, err := milvus.New(ctx, cfg.VectorDB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect milvus: %w", err)
		}
		return s, s, nil
	case "memory", "":
		if cfg.VectorDB.Snapshot == "" {
			return memory.New(), nopCloser{}, nil
		}
		s, err := memory.LoadFile(cfg.VectorDB.Snapshot)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported vectordb provider: %s", cfg.VectorDB.Provider)
	}
}
