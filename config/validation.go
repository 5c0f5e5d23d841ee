package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Message))
	}
	return b.String()
}

// Has reports whether a field failed validation.
func (errs ValidationErrors) Has(field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the complete configuration
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateLLM()...)
	errs = append(errs, c.validateVectorDB()...)
	errs = append(errs, c.validateCollections()...)
	errs = append(errs, c.validateSchedule()...)
	errs = append(errs, c.validateRetrieval()...)

	switch c.Router.Provider {
	case "", "rules":
	case "http", "hybrid":
		if c.Router.Endpoint == "" {
			errs = append(errs, ValidationError{
				Field:   "router.endpoint",
				Message: fmt.Sprintf("router endpoint is required when provider is %s", c.Router.Provider),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "router.provider",
			Message: fmt.Sprintf("unknown router provider %q", c.Router.Provider),
		})
	}

	if h := c.HTTP; h != nil && (h.RateLimitRPS < 0 || h.RateLimitBurst < 0) {
		errs = append(errs, ValidationError{
			Field:   "http.rate_limit_rps",
			Message: "http rate limit and burst must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateEmbedding validates embedding configuration
func (c *Config) validateEmbedding() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(c.Embedding.Provider) {
	case "openai":
	case "":
		errs = append(errs, ValidationError{
			Field:   "embedding.provider",
			Message: "embedding provider is required",
		})
	default:
		errs = append(errs, ValidationError{
			Field:   "embedding.provider",
			Message: fmt.Sprintf("unsupported embedding provider %q", c.Embedding.Provider),
		})
	}

	if c.Embedding.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "embedding.model",
			Message: "embedding model is required",
		})
	}

	if c.Embedding.Dimensions < 0 {
		errs = append(errs, ValidationError{
			Field:   "embedding.dimensions",
			Message: fmt.Sprintf("embedding dimensions must be non-negative, got %d", c.Embedding.Dimensions),
		})
	}

	return errs
}

func (c *Config) validateLLM() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(c.LLM.Provider) {
	case "":
		return nil
	case "openai":
	default:
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unsupported llm provider %q", c.LLM.Provider),
		})
	}

	if c.LLM.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "llm.model",
			Message: "llm model is required when a provider is set",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "llm.temperature",
			Message: fmt.Sprintf("llm.temperature must be in [0, 2], got %.2f", c.LLM.Temperature),
		})
	}

	return errs
}

// validateVectorDB validates vector database configuration
func (c *Config) validateVectorDB() ValidationErrors {
	var errs ValidationErrors

	if c.VectorDB.Provider == "" {
		errs = append(errs, ValidationError{
			Field:   "vectordb.provider",
			Message: "vectordb provider is required",
		})
	}

	// Provider-specific validations
	switch strings.ToLower(c.VectorDB.Provider) {
	case "milvus", "qdrant":
		if c.VectorDB.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "vectordb.host",
				Message: fmt.Sprintf("vectordb host is required for %s provider", c.VectorDB.Provider),
			})
		}
	case "memory", "":
	default:
		errs = append(errs, ValidationError{
			Field:   "vectordb.provider",
			Message: fmt.Sprintf("unsupported vectordb provider %q", c.VectorDB.Provider),
		})
	}

	if c.VectorDB.Port < 0 || c.VectorDB.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "vectordb.port",
			Message: fmt.Sprintf("vectordb port %d is out of range", c.VectorDB.Port),
		})
	}

	return errs
}

func (c *Config) validateCollections() ValidationErrors {
	var errs ValidationErrors

	if c.Collections.Schedule == "" {
		errs = append(errs, ValidationError{
			Field:   "collections.schedule",
			Message: "schedule collection is required",
		})
	}

	if len(c.Collections.Documents) == 0 {
		errs = append(errs, ValidationError{
			Field:   "collections.documents",
			Message: "at least one document collection is required",
		})
	}
	seen := make(map[string]bool, len(c.Collections.Documents))
	for i, name := range c.Collections.Documents {
		if name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("collections.documents[%d]", i),
				Message: "document collection name must not be empty",
			})
			continue
		}
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("collections.documents[%d]", i),
				Message: fmt.Sprintf("document collection %q is listed twice", name),
			})
		}
		seen[name] = true
	}

	return errs
}

func (c *Config) validateSchedule() ValidationErrors {
	var errs ValidationErrors

	if c.Schedule.PageSize <= 0 || c.Schedule.PageSize > 500 {
		errs = append(errs, ValidationError{
			Field:   "schedule.page_size",
			Message: fmt.Sprintf("schedule.page_size must be in [1, 500], got %d", c.Schedule.PageSize),
		})
	}

	if c.Schedule.MaxPages <= 0 {
		errs = append(errs, ValidationError{
			Field:   "schedule.max_pages",
			Message: fmt.Sprintf("schedule.max_pages must be positive, got %d", c.Schedule.MaxPages),
		})
	}

	if c.Schedule.ScanLimit <= 0 {
		errs = append(errs, ValidationError{
			Field:   "schedule.scan_limit",
			Message: fmt.Sprintf("schedule.scan_limit must be positive, got %d", c.Schedule.ScanLimit),
		})
	}

	if c.Schedule.VectorLimit <= 0 || c.Schedule.VectorLimit > 100 {
		errs = append(errs, ValidationError{
			Field:   "schedule.vector_limit",
			Message: fmt.Sprintf("schedule.vector_limit must be in [1, 100], got %d", c.Schedule.VectorLimit),
		})
	}

	switch c.Schedule.TeacherMatch {
	case TeacherMatchAny, TeacherMatchAll:
	default:
		errs = append(errs, ValidationError{
			Field:   "schedule.teacher_match",
			Message: fmt.Sprintf("schedule.teacher_match must be %q or %q, got %q", TeacherMatchAny, TeacherMatchAll, c.Schedule.TeacherMatch),
		})
	}

	switch c.Schedule.PayloadLayout {
	case LayoutNested, LayoutFlat, LayoutBoth:
	default:
		errs = append(errs, ValidationError{
			Field:   "schedule.payload_layout",
			Message: fmt.Sprintf("schedule.payload_layout must be %q, %q or %q, got %q", LayoutNested, LayoutFlat, LayoutBoth, c.Schedule.PayloadLayout),
		})
	}

	return errs
}

func (c *Config) validateRetrieval() ValidationErrors {
	var errs ValidationErrors

	if c.Retrieval.TopK <= 0 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.top_k",
			Message: fmt.Sprintf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK),
		})
	}

	if c.Retrieval.TopK > 100 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.top_k",
			Message: fmt.Sprintf("retrieval.top_k %d is too large (max recommended: 100)", c.Retrieval.TopK),
		})
	}

	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 1 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.threshold",
			Message: fmt.Sprintf("retrieval.threshold must be in [0, 1], got %.2f", c.Retrieval.Threshold),
		})
	}

	switch strings.ToLower(c.Retrieval.Fusion) {
	case "", "dedup", "rrf":
	default:
		errs = append(errs, ValidationError{
			Field:   "retrieval.fusion",
			Message: fmt.Sprintf("unknown fusion strategy %q", c.Retrieval.Fusion),
		})
	}

	switch strings.ToLower(c.Retrieval.Rerank.Provider) {
	case "", "keyword":
	case "model":
		if c.Retrieval.Rerank.Endpoint == "" {
			errs = append(errs, ValidationError{
				Field:   "retrieval.rerank.endpoint",
				Message: "retrieval.rerank.endpoint is required for the model reranker",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "retrieval.rerank.provider",
			Message: fmt.Sprintf("unknown reranker %q", c.Retrieval.Rerank.Provider),
		})
	}

	if c.Retrieval.StoreTimeoutMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.store_timeout_ms",
			Message: "retrieval.store_timeout_ms must be positive",
		})
	}

	if c.Retrieval.RequestTimeoutMs > 0 && c.Retrieval.RequestTimeoutMs < c.Retrieval.StoreTimeoutMs {
		errs = append(errs, ValidationError{
			Field:   "retrieval.request_timeout_ms",
			Message: fmt.Sprintf("retrieval.request_timeout_ms (%d) must not be below store_timeout_ms (%d)", c.Retrieval.RequestTimeoutMs, c.Retrieval.StoreTimeoutMs),
		})
	}

	return errs
}
