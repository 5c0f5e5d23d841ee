package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML file over Default(), applies environment overrides and
// validates the result. An empty path loads defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides secrets and endpoints from the environment. Provider
// specific keys win over OPENAI_API_KEY.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}

	str(&cfg.Log.Level, "LOG_LEVEL")
	str(&cfg.Embedding.APIKey, "EMBEDDING_API_KEY", "OPENAI_API_KEY")
	str(&cfg.Embedding.BaseURL, "EMBEDDING_BASE_URL", "OPENAI_BASE_URL")
	str(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	str(&cfg.LLM.Provider, "LLM_PROVIDER")
	str(&cfg.LLM.APIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	str(&cfg.LLM.BaseURL, "LLM_BASE_URL", "OPENAI_BASE_URL")
	str(&cfg.LLM.Model, "LLM_MODEL")
	str(&cfg.VectorDB.Provider, "VECTORDB_PROVIDER")
	str(&cfg.VectorDB.Host, "VECTORDB_HOST")
	str(&cfg.VectorDB.APIKey, "VECTORDB_API_KEY")
	str(&cfg.VectorDB.Username, "VECTORDB_USERNAME")
	str(&cfg.VectorDB.Password, "VECTORDB_PASSWORD")
	str(&cfg.Retrieval.Rerank.APIKey, "RERANK_API_KEY")

	if v, ok := lookup("VECTORDB_PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("VECTORDB_PORT: %w", err)
		}
		cfg.VectorDB.Port = port
	}
	return nil
}
