package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
vectordb:
  provider: milvus
  host: milvus.internal
  port: 19530
collections:
  schedule: lessons
  documents: [news, pages]
schedule:
  teacher_match: all
  payload_layout: nested
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "milvus", cfg.VectorDB.Provider)
	assert.Equal(t, "milvus.internal:19530", cfg.VectorDB.Address())
	assert.Equal(t, []string{"news", "pages"}, cfg.Collections.Documents)
	assert.Equal(t, TeacherMatchAll, cfg.Schedule.TeacherMatch)
	assert.Equal(t, LayoutNested, cfg.Schedule.PayloadLayout)
	// untouched sections keep their defaults
	assert.Equal(t, 500, cfg.Schedule.PageSize)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":   "sk-shared",
		"LLM_API_KEY":      "sk-llm",
		"VECTORDB_HOST":    "qdrant",
		"VECTORDB_PORT":    "6334",
		"VECTORDB_API_KEY": "  ",
		"LOG_LEVEL":        "debug",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, lookup))
	assert.Equal(t, "sk-shared", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-llm", cfg.LLM.APIKey)
	assert.Equal(t, "http://qdrant:6334", cfg.VectorDB.BaseURL())
	assert.Empty(t, cfg.VectorDB.APIKey, "blank values are ignored")
	assert.Equal(t, "debug", cfg.Log.Level)

	env["VECTORDB_PORT"] = "not-a-port"
	assert.Error(t, ApplyEnv(Default(), lookup))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = ""
	cfg.VectorDB.Provider = "chroma"
	cfg.Collections.Documents = []string{"a", "a"}
	cfg.Schedule.PageSize = 1000
	cfg.Schedule.TeacherMatch = "some"
	cfg.Schedule.PayloadLayout = "inline"
	cfg.Retrieval.TopK = 0
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = ""
	cfg.HTTP = &HTTPClientConfig{RateLimitRPS: -1}

	err := cfg.Validate()
	require.Error(t, err)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	for _, field := range []string{
		"embedding.provider",
		"vectordb.provider",
		"collections.documents[1]",
		"schedule.page_size",
		"schedule.teacher_match",
		"schedule.payload_layout",
		"retrieval.top_k",
		"llm.model",
		"http.rate_limit_rps",
	} {
		assert.True(t, verrs.Has(field), field)
	}
}
