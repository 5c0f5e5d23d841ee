// Package assistant answers campus questions end to end: route, retrieve,
// normalise, format and, for general questions, generate.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unirag/campus-rag/cache"
	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/embedding"
	"github.com/unirag/campus-rag/extractor"
	"github.com/unirag/campus-rag/llm"
	"github.com/unirag/campus-rag/metrics"
	"github.com/unirag/campus-rag/post"
	"github.com/unirag/campus-rag/retriever"
	"github.com/unirag/campus-rag/router"
	"github.com/unirag/campus-rag/schedule"
	"github.com/unirag/campus-rag/vectordb"
)

// Generation outcomes recorded in metrics.
const (
	GenerationSkipped   = "skipped"
	GenerationGenerated = "generated"
	GenerationFallback  = "fallback"
)

// Deps are the collaborators of an Assistant. Only Store is required; the
// rest are built from the configuration when nil.
type Deps struct {
	Store    vectordb.Provider
	Embed    embedding.Provider
	LLM      llm.Provider
	Router   router.Router
	Reranker post.Reranker
	Tokens   post.TokenCounter
}

// Response is the outcome of one question. Lessons and Documents are never
// nil; Text is never empty.
type Response struct {
	QueryID    string              `json:"query_id"`
	QueryType  router.QueryType    `json:"query_type"`
	Strategy   router.Strategy     `json:"strategy"`
	Criteria   extractor.Criteria  `json:"criteria"`
	Lessons    []schedule.Lesson   `json:"lessons"`
	Documents  []vectordb.Document `json:"documents"`
	Text       string              `json:"text"`
	Status     retriever.Status    `json:"status"`
	Generation string              `json:"generation"`
	CacheHit   bool                `json:"cache_hit"`
}

// Assistant is safe for concurrent use.
type Assistant struct {
	cfg       *config.Config
	router    router.Router
	schedule  *retriever.ScheduleRetriever
	documents *retriever.DocumentRetriever
	llm       llm.Provider
	reranker  post.Reranker
	tokens    post.TokenCounter
	l1Cache   cache.Cache[Response]
}

// New wires an Assistant. cfg must already be validated.
func New(cfg *config.Config, deps Deps) (*Assistant, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Store == nil {
		return nil, errors.New("assistant: vector store is required")
	}

	embed := deps.Embed
	if embed == nil {
		p, err := embedding.NewProvider(cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("create embedding provider failed, err: %w", err)
		}
		embed = p
		if cfg.Cache.Enabled && cfg.Cache.EmbeddingCapacity > 0 {
			embed = embedding.NewCachedProvider(p, cfg.Embedding.Model, cfg.Cache.EmbeddingCapacity, 0)
		}
	}

	gen := deps.LLM
	if gen == nil {
		p, err := llm.NewProvider(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider failed, err: %w", err)
		}
		gen = p
	}

	rt := deps.Router
	if rt == nil {
		rt = router.NewRouter(cfg.Router, cfg.HTTP)
	}

	rr := deps.Reranker
	if rr == nil {
		p, err := post.NewReranker(cfg.Retrieval.Rerank, cfg.HTTP)
		if err != nil {
			return nil, fmt.Errorf("create reranker failed, err: %w", err)
		}
		rr = p
	}

	docs, err := retriever.NewDocumentRetriever(deps.Store, embed, cfg)
	if err != nil {
		return nil, fmt.Errorf("create document retriever failed, err: %w", err)
	}

	a := &Assistant{
		cfg:       cfg,
		router:    rt,
		schedule:  retriever.NewScheduleRetriever(deps.Store, embed, cfg),
		documents: docs,
		llm:       gen,
		reranker:  rr,
		tokens:    deps.Tokens,
	}
	if cfg.Cache.Enabled && cfg.Cache.Capacity > 0 {
		a.l1Cache = cache.NewLRU[Response](cfg.Cache.Capacity, cfg.Cache.TTL())
	}
	return a, nil
}

// Classify routes a question without retrieving anything.
func (a *Assistant) Classify(ctx context.Context, question string) *router.RoutingDecision {
	d, err := a.router.Route(ctx, question)
	if err != nil || d == nil {
		logger.Warnf("assistant: router failed, using rules: %v", err)
		d, _ = router.NewRuleBasedRouter(nil).Route(ctx, question)
	}
	return d
}

// SearchSchedule runs a filtered scan with caller supplied criteria.
func (a *Assistant) SearchSchedule(ctx context.Context, c extractor.Criteria, limit int) retriever.LessonResult {
	ctx, cancel := a.withRequestTimeout(ctx)
	defer cancel()
	return a.schedule.SearchFiltered(ctx, c.Sanitize(), limit)
}

// SearchDocuments runs the general-document retrieval.
func (a *Assistant) SearchDocuments(ctx context.Context, question string, topK int) retriever.DocumentResult {
	ctx, cancel := a.withRequestTimeout(ctx)
	defer cancel()
	if topK <= 0 {
		topK = a.cfg.Retrieval.TopK
	}
	return a.documents.Search(ctx, question, topK)
}

func (a *Assistant) withRequestTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := a.cfg.Retrieval.RequestTimeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// cacheKey collapses whitespace only. Extraction is case-sensitive, so
// questions that differ in case must not share an answer.
func cacheKey(question string) string {
	return cache.Key("answer", strings.Join(strings.Fields(question), " "))
}

// Answer never fails: every error degrades to a partial or "not found"
// answer and is reported through Status and the metrics log line.
func (a *Assistant) Answer(ctx context.Context, question string) Response {
	start := time.Now()
	queryID := uuid.NewString()
	rec := metrics.NewRetrievalMetrics(queryID, question)
	log := logger.WithContext(map[string]interface{}{"query_id": queryID})

	ctx, cancel := a.withRequestTimeout(ctx)
	defer cancel()

	key := cacheKey(question)
	if a.l1Cache != nil {
		if cached, ok := a.l1Cache.Get(key); ok {
			metrics.IncCache(true)
			cached.QueryID = queryID
			cached.CacheHit = true
			rec.CacheHit = true
			rec.RecordRoute(string(cached.QueryType), string(cached.Strategy), "cache", criteriaCounts(cached.Criteria))
			rec.TotalRetrieved = len(cached.Lessons) + len(cached.Documents)
			rec.AnswerChars = len([]rune(cached.Text))
			rec.Finish(start, string(cached.Status), nil)
			rec.Log()
			log.Debugf("served from cache")
			return cached
		}
		metrics.IncCache(false)
	}

	decision := a.Classify(ctx, question)
	metrics.IncRoute(string(decision.QueryType), string(decision.Strategy))
	rec.RecordRoute(string(decision.QueryType), string(decision.Strategy), decision.Reason, criteriaCounts(decision.Criteria))
	log.Infof("route type=%s strategy=%s", decision.QueryType, decision.Strategy)

	resp := Response{
		QueryID:    queryID,
		QueryType:  decision.QueryType,
		Strategy:   decision.Strategy,
		Criteria:   decision.Criteria,
		Lessons:    []schedule.Lesson{},
		Documents:  []vectordb.Document{},
		Generation: GenerationSkipped,
	}

	var err error
	switch decision.Strategy {
	case router.StrategyFiltered, router.StrategyVectorFallback:
		err = a.answerSchedule(ctx, question, decision, &resp, rec)
	default:
		err = a.answerGeneral(ctx, question, &resp, rec)
	}

	rec.TotalRetrieved = len(resp.Lessons) + len(resp.Documents)
	rec.Generation = resp.Generation
	rec.AnswerChars = len([]rune(resp.Text))
	rec.Finish(start, string(resp.Status), err)
	rec.Log()

	if a.l1Cache != nil && resp.Status == retriever.StatusOK {
		a.l1Cache.Set(key, resp, 0)
	}
	return resp
}

func (a *Assistant) answerSchedule(ctx context.Context, question string, d *router.RoutingDecision, resp *Response, rec *metrics.RetrievalMetrics) error {
	callStart := time.Now()
	var res retriever.LessonResult
	if d.Strategy == router.StrategyFiltered {
		res = a.schedule.SearchFiltered(ctx, d.Criteria, a.cfg.Schedule.ScanLimit)
	} else {
		res = a.schedule.SearchVector(ctx, question, a.cfg.Schedule.VectorLimit)
	}

	scores := make([]float64, 0, len(res.Lessons))
	for _, l := range res.Lessons {
		if l.HasScore {
			scores = append(scores, l.Score)
		}
	}
	avg, top := metrics.ScoreStats(scores)
	rec.AddRetrieverStats(metrics.RetrieverStats{
		Type:        string(d.Strategy),
		LatencyMs:   time.Since(callStart).Milliseconds(),
		ResultCount: len(res.Lessons),
		AvgScore:    avg,
		TopScore:    top,
	})
	rec.ScannedRecords = res.Scanned
	rec.ScanPages = res.Pages
	if res.Err != nil {
		rec.FailedSources = append(rec.FailedSources, a.cfg.Collections.Schedule)
	}

	resp.Lessons = res.Lessons
	resp.Status = res.Status
	resp.Text = post.FormatSchedule(res.Lessons)
	return res.Err
}

func (a *Assistant) answerGeneral(ctx context.Context, question string, resp *Response, rec *metrics.RetrievalMetrics) error {
	topK := a.cfg.Retrieval.TopK
	candidates := topK
	if a.reranker != nil {
		candidates = topK * 3
	}

	callStart := time.Now()
	res := a.documents.Search(ctx, question, candidates)
	docs := res.Documents
	if a.reranker != nil && len(docs) > 0 {
		reranked, err := a.reranker.Rerank(ctx, question, docs, topK)
		if err != nil {
			logger.Warnf("assistant: rerank failed: %v", err)
		}
		docs = reranked
	}
	if len(docs) > topK {
		docs = docs[:topK]
	}

	scores := make([]float64, len(docs))
	for i, d := range docs {
		scores[i] = d.Score
	}
	avg, top := metrics.ScoreStats(scores)
	rec.AddRetrieverStats(metrics.RetrieverStats{
		Type:        string(router.StrategyDocuments),
		LatencyMs:   time.Since(callStart).Milliseconds(),
		ResultCount: len(docs),
		AvgScore:    avg,
		TopScore:    top,
	})
	rec.FailedSources = append(rec.FailedSources, res.FailedCollections...)

	resp.Documents = docs
	resp.Status = res.Status
	resp.Text = post.FormatDocuments(docs)

	if a.llm == nil || len(docs) == 0 {
		return res.Err
	}

	counter := a.tokens
	if counter == nil {
		counter = post.DefaultCounter()
	}
	contextText := post.ContextBuilder{Counter: counter, MaxTokens: a.cfg.Retrieval.ContextTokens}.Build(docs)
	answer, err := a.llm.GenerateCompletion(ctx, llm.BuildPrompt(question, contextText))
	answer = strings.TrimSpace(answer)
	switch {
	case err != nil:
		logger.Warnf("assistant: generation failed, returning documents: %v", err)
		resp.Generation = GenerationFallback
	case answer == "":
		logger.Warnf("assistant: empty generation, returning documents")
		resp.Generation = GenerationFallback
	default:
		resp.Text = answer
		resp.Generation = GenerationGenerated
	}
	metrics.IncGeneration(resp.Generation)
	return res.Err
}

func criteriaCounts(c extractor.Criteria) map[string]int {
	out := map[string]int{}
	add := func(name string, values []string) {
		if len(values) > 0 {
			out[name] = len(values)
		}
	}
	add("groups", c.Groups)
	add("rooms", c.Rooms)
	add("teachers", c.Teachers)
	add("days", c.Days)
	add("time_slots", c.TimeSlots)
	return out
}
