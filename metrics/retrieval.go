package metrics

import (
	"encoding/json"
	"time"

	"github.com/unirag/campus-rag/common/logger"
)

// RetrievalMetrics is the per-request record written as one JSON log line.
type RetrievalMetrics struct {
	QueryID   string    `json:"query_id"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`

	// Routing
	QueryType string         `json:"query_type"`
	Strategy  string         `json:"strategy"`
	Reason    string         `json:"reason,omitempty"`
	Criteria  map[string]int `json:"criteria,omitempty"` // category -> candidate count

	// Retrieval
	RetrieverMetrics map[string]RetrieverStats `json:"retriever_metrics"`
	TotalRetrieved   int                       `json:"total_retrieved"`
	ScannedRecords   int                       `json:"scanned_records,omitempty"`
	ScanPages        int                       `json:"scan_pages,omitempty"`
	Status           string                    `json:"status"`
	FailedSources    []string                  `json:"failed_sources,omitempty"`

	// Answer
	CacheHit    bool   `json:"cache_hit"`
	Generation  string `json:"generation,omitempty"` // generated, fallback, skipped
	AnswerChars int    `json:"answer_chars"`

	TotalLatencyMs int64  `json:"total_latency_ms"`
	Success        bool   `json:"success"`
	ErrorMsg       string `json:"error_msg,omitempty"`
}

// RetrieverStats describes one retrieval call.
type RetrieverStats struct {
	Type        string  `json:"type"`
	LatencyMs   int64   `json:"latency_ms"`
	ResultCount int     `json:"result_count"`
	AvgScore    float64 `json:"avg_score,omitempty"`
	TopScore    float64 `json:"top_score,omitempty"`
}

func NewRetrievalMetrics(queryID, query string) *RetrievalMetrics {
	return &RetrievalMetrics{
		QueryID:          queryID,
		Query:            query,
		Timestamp:        time.Now(),
		RetrieverMetrics: make(map[string]RetrieverStats),
	}
}

// Log writes the record as JSON.
func (m *RetrievalMetrics) Log() {
	if data, err := json.Marshal(m); err == nil {
		logger.Infof("[RAG_METRICS] %s", string(data))
	}
}

// AddRetrieverStats adds or merges the stats of a retriever type.
func (m *RetrievalMetrics) AddRetrieverStats(stats RetrieverStats) {
	if m.RetrieverMetrics == nil {
		m.RetrieverMetrics = make(map[string]RetrieverStats)
	}

	key := stats.Type
	if existing, ok := m.RetrieverMetrics[key]; ok {
		existing.LatencyMs += stats.LatencyMs
		existing.ResultCount += stats.ResultCount
		if stats.TopScore > existing.TopScore {
			existing.TopScore = stats.TopScore
		}
		existing.AvgScore = (existing.AvgScore + stats.AvgScore) / 2
		m.RetrieverMetrics[key] = existing
	} else {
		m.RetrieverMetrics[key] = stats
	}
}

// RecordRoute stores the routing decision.
func (m *RetrievalMetrics) RecordRoute(queryType, strategy, reason string, criteria map[string]int) {
	m.QueryType = queryType
	m.Strategy = strategy
	m.Reason = reason
	m.Criteria = criteria
}

// Finish stamps the total latency and the outcome.
func (m *RetrievalMetrics) Finish(start time.Time, status string, err error) {
	m.TotalLatencyMs = time.Since(start).Milliseconds()
	m.Status = status
	m.Success = err == nil
	if err != nil {
		m.ErrorMsg = err.Error()
	}
}

// ScoreStats returns the mean and the maximum of scores.
func ScoreStats(scores []float64) (avg, top float64) {
	if len(scores) == 0 {
		return 0, 0
	}
	top = scores[0]
	var sum float64
	for _, s := range scores {
		sum += s
		if s > top {
			top = s
		}
	}
	return sum / float64(len(scores)), top
}
