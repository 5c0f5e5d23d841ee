package config

import (
	"fmt"
	"time"
)

// Config represents the main configuration structure for the assistant
type Config struct {
	Log         LogConfig         `json:"log" yaml:"log"`
	Server      ServerConfig      `json:"server" yaml:"server"`
	LLM         LLMConfig         `json:"llm" yaml:"llm"`
	Embedding   EmbeddingConfig   `json:"embedding" yaml:"embedding"`
	VectorDB    VectorDBConfig    `json:"vectordb" yaml:"vectordb"`
	Collections CollectionsConfig `json:"collections" yaml:"collections"`
	Schedule    ScheduleConfig    `json:"schedule" yaml:"schedule"`
	Retrieval   RetrievalConfig   `json:"retrieval" yaml:"retrieval"`
	Router      RouterConfig      `json:"router" yaml:"router"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	Metrics     MetricsConfig     `json:"metrics" yaml:"metrics"`
	// HTTP holds options for outbound HTTP calls (vector store REST API, router service).
	HTTP *HTTPClientConfig `json:"http,omitempty" yaml:"http,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"` // debug, info, warn, error
}

// ServerConfig names the MCP server.
type ServerConfig struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// LLMConfig defines configuration for Large Language Models. An empty
// provider disables answer generation.
type LLMConfig struct {
	Provider    string  `json:"provider" yaml:"provider"` // Available options: openai, "" (disabled)
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TimeoutMs   int     `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// EmbeddingConfig defines configuration for embedding models
type EmbeddingConfig struct {
	Provider   string `json:"provider" yaml:"provider"` // Available options: openai
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	TimeoutMs  int    `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// VectorDBConfig defines configuration for vector databases
type VectorDBConfig struct {
	Provider string        `json:"provider" yaml:"provider"` // Available options: qdrant, milvus, memory
	Scheme   string        `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Host     string        `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int           `json:"port,omitempty" yaml:"port,omitempty"`
	Database string        `json:"database,omitempty" yaml:"database,omitempty"`
	Username string        `json:"username,omitempty" yaml:"username,omitempty"`
	Password string        `json:"password,omitempty" yaml:"password,omitempty"`
	APIKey   string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Snapshot string        `json:"snapshot,omitempty" yaml:"snapshot,omitempty"` // memory provider: JSON file to load
	Mapping  MappingConfig `json:"mapping,omitempty" yaml:"mapping,omitempty"`
}

// MappingConfig names the stored fields for schema-bound stores (milvus).
type MappingConfig struct {
	IDField       string   `json:"id_field,omitempty" yaml:"id_field,omitempty"`
	VectorField   string   `json:"vector_field,omitempty" yaml:"vector_field,omitempty"`
	PayloadFields []string `json:"payload_fields,omitempty" yaml:"payload_fields,omitempty"`
	MetricType    string   `json:"metric_type,omitempty" yaml:"metric_type,omitempty"` // IP, L2, COSINE
	// ArrayFields are payload paths stored as arrays. Substring filters on
	// them are checked after the query instead of inside it.
	ArrayFields []string `json:"array_fields,omitempty" yaml:"array_fields,omitempty"`
}

// Address returns host:port.
func (v VectorDBConfig) Address() string {
	if v.Port == 0 {
		return v.Host
	}
	return fmt.Sprintf("%s:%d", v.Host, v.Port)
}

// BaseURL returns the REST endpoint of the store.
func (v VectorDBConfig) BaseURL() string {
	scheme := v.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + v.Address()
}

// CollectionsConfig lists the schedule collection and the general document
// collections. Document collections are merged in the listed order.
type CollectionsConfig struct {
	Schedule  string   `json:"schedule" yaml:"schedule"`
	Documents []string `json:"documents" yaml:"documents"`
}

const (
	TeacherMatchAny = "any"
	TeacherMatchAll = "all"
)

// Payload layouts of stored schedule points. Nested keeps lesson fields
// under "metadata"; flat stores them at the top level.
const (
	LayoutNested = "nested"
	LayoutFlat   = "flat"
	LayoutBoth   = "both"
)

// ScheduleConfig bounds the filtered scan and the vector fallback.
type ScheduleConfig struct {
	PageSize    int `json:"page_size" yaml:"page_size"`
	MaxPages    int `json:"max_pages" yaml:"max_pages"`
	ScanLimit   int `json:"scan_limit" yaml:"scan_limit"`
	VectorLimit int `json:"vector_limit" yaml:"vector_limit"`
	// TeacherMatch combines several teacher candidates: "any" or "all".
	TeacherMatch string `json:"teacher_match" yaml:"teacher_match"`
	// PayloadLayout selects the filtered field paths: "nested", "flat" or "both".
	PayloadLayout string `json:"payload_layout" yaml:"payload_layout"`
}

// RetrievalConfig holds document search and timeout settings.
type RetrievalConfig struct {
	TopK             int     `json:"top_k" yaml:"top_k"`
	Threshold        float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	StoreTimeoutMs   int     `json:"store_timeout_ms" yaml:"store_timeout_ms"`
	RequestTimeoutMs int     `json:"request_timeout_ms" yaml:"request_timeout_ms"`
	// ContextTokens caps the context handed to the LLM.
	ContextTokens int `json:"context_tokens" yaml:"context_tokens"`
	// Fusion merges document collections: "dedup" (default) or "rrf".
	Fusion string `json:"fusion,omitempty" yaml:"fusion,omitempty"`
	RRFK   int    `json:"rrf_k,omitempty" yaml:"rrf_k,omitempty"`
	// Rerank reorders merged documents before truncation; off by default.
	Rerank RerankConfig `json:"rerank,omitempty" yaml:"rerank,omitempty"`
}

// RerankConfig selects a document reranker: "" (none), "keyword" or "model".
type RerankConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

func (r RetrievalConfig) StoreTimeout() time.Duration {
	return time.Duration(r.StoreTimeoutMs) * time.Millisecond
}

func (r RetrievalConfig) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutMs) * time.Millisecond
}

// RouterConfig optionally points at an external intent classifier. The
// rule-based router is always used as the fallback.
type RouterConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"` // rules (default), http
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// CacheConfig controls the L1 answer cache and the embedding cache.
type CacheConfig struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	Capacity          int  `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	TTLSeconds        int  `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	EmbeddingCapacity int  `json:"embedding_capacity,omitempty" yaml:"embedding_capacity,omitempty"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Listen  string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// HTTPClientConfig defines common options for outbound HTTP calls.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry                  int      `json:"retry,omitempty" yaml:"retry,omitempty"`
	BackoffMinMs           int      `json:"backoff_min_ms,omitempty" yaml:"backoff_min_ms,omitempty"`
	BackoffMaxMs           int      `json:"backoff_max_ms,omitempty" yaml:"backoff_max_ms,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
	// RateLimitRPS caps requests per second per client; 0 disables the limit.
	RateLimitRPS   float64 `json:"rate_limit_rps,omitempty" yaml:"rate_limit_rps,omitempty"`
	RateLimitBurst int     `json:"rate_limit_burst,omitempty" yaml:"rate_limit_burst,omitempty"`
}

// Default returns a configuration that runs against a local Qdrant and an
// OpenAI-compatible embedding endpoint.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Name: "campus-rag", Version: "1.0.0"},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   1024,
			TimeoutMs:   30000,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			TimeoutMs:  10000,
		},
		VectorDB: VectorDBConfig{
			Provider: "qdrant",
			Scheme:   "http",
			Host:     "localhost",
			Port:     6333,
			Mapping: MappingConfig{
				IDField:       "id",
				VectorField:   "vector",
				PayloadFields: []string{"text", "type", "document_id", "source_url", "metadata"},
				MetricType:    "IP",
				ArrayFields:   []string{"metadata.teacher", "metadata.groups", "teacher", "groups"},
			},
		},
		Collections: CollectionsConfig{
			Schedule:  "schedules_embeddings",
			Documents: []string{"text_embeddings", "schedules_embeddings"},
		},
		Schedule: ScheduleConfig{
			PageSize:      500,
			MaxPages:      20,
			ScanLimit:     1000,
			VectorLimit:   20,
			TeacherMatch:  TeacherMatchAny,
			PayloadLayout: LayoutBoth,
		},
		Retrieval: RetrievalConfig{
			TopK:             5,
			StoreTimeoutMs:   5000,
			RequestTimeoutMs: 30000,
			ContextTokens:    3000,
			Fusion:           "dedup",
		},
		Router: RouterConfig{Provider: "rules"},
		Cache: CacheConfig{
			Enabled:           true,
			Capacity:          512,
			TTLSeconds:        300,
			EmbeddingCapacity: 1024,
		},
		Metrics: MetricsConfig{Listen: ":9090"},
		HTTP: &HTTPClientConfig{
			TimeoutMs:              5000,
			Retry:                  1,
			BackoffMinMs:           100,
			BackoffMaxMs:           800,
			MaxConsecutiveFailures: 5,
			CircuitOpenSeconds:     5,
		},
	}
}
