package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	retrievalLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campus_rag_retrieval_latency_ms",
		Help:    "Latency of retrieval calls in milliseconds",
		Buckets: []float64{10, 25, 50, 75, 100, 150, 200, 300, 500, 800, 1200, 2500, 5000},
	}, []string{"strategy"})

	retrievalResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campus_rag_retrieval_results",
		Help:    "Number of results returned by a retrieval strategy",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"strategy"})

	retrievalOutcome = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_rag_retrieval_total",
		Help: "Retrieval outcomes by strategy and status (ok/empty/partial/failed)",
	}, []string{"strategy", "status"})

	routeDecision = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_rag_route_total",
		Help: "Routing decisions by query type and strategy",
	}, []string{"query_type", "strategy"})

	scannedRecords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "campus_rag_schedule_scanned_records",
		Help:    "Records scanned by one filtered schedule search",
		Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	collectionErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_rag_collection_errors_total",
		Help: "Store errors per collection",
	}, []string{"collection"})

	generation = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_rag_generation_total",
		Help: "Answer generation outcomes (generated/fallback/skipped)",
	}, []string{"outcome"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_rag_cache_lookups_total",
		Help: "L1 cache lookups by result (hit/miss)",
	}, []string{"result"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// ObserveRetrieval records latency, result size and outcome of a strategy.
func ObserveRetrieval(strategy, status string, start time.Time, results int) {
	ensureRegistered()
	dur := time.Since(start).Milliseconds()
	retrievalLatency.WithLabelValues(strategy).Observe(float64(dur))
	retrievalResults.WithLabelValues(strategy).Observe(float64(results))
	retrievalOutcome.WithLabelValues(strategy, status).Inc()
}

// IncRoute counts a routing decision.
func IncRoute(queryType, strategy string) {
	ensureRegistered()
	routeDecision.WithLabelValues(queryType, strategy).Inc()
}

// ObserveScan records how many records a filtered scan read.
func ObserveScan(records int) {
	ensureRegistered()
	scannedRecords.Observe(float64(records))
}

// IncCollectionError counts a failed store call.
func IncCollectionError(collection string) {
	ensureRegistered()
	collectionErrors.WithLabelValues(collection).Inc()
}

// IncGeneration counts an answer generation outcome.
func IncGeneration(outcome string) {
	ensureRegistered()
	generation.WithLabelValues(outcome).Inc()
}

// IncCache counts a cache lookup.
func IncCache(hit bool) {
	ensureRegistered()
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// Collectors exposes all collectors for external registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		retrievalLatency, retrievalResults, retrievalOutcome, routeDecision,
		scannedRecords, collectionErrors, generation, cacheLookups,
	}
}
