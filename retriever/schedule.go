package retriever

import (
	"context"
	"errors"
	"time"

	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/embedding"
	"github.com/unirag/campus-rag/extractor"
	"github.com/unirag/campus-rag/metrics"
	"github.com/unirag/campus-rag/schedule"
	"github.com/unirag/campus-rag/vectordb"
)

// ScheduleRetriever searches the schedule collection either by metadata
// filter or by similarity.
type ScheduleRetriever struct {
	Store      vectordb.Provider
	Embed      embedding.Provider
	Collection string

	PageSize     int
	MaxPages     int
	ScanLimit    int
	TeacherMatch string
	Layout       string
	StoreTimeout time.Duration
}

// NewScheduleRetriever takes its bounds from cfg.Schedule and cfg.Retrieval.
func NewScheduleRetriever(store vectordb.Provider, embed embedding.Provider, cfg *config.Config) *ScheduleRetriever {
	return &ScheduleRetriever{
		Store:        store,
		Embed:        embed,
		Collection:   cfg.Collections.Schedule,
		PageSize:     cfg.Schedule.PageSize,
		MaxPages:     cfg.Schedule.MaxPages,
		ScanLimit:    cfg.Schedule.ScanLimit,
		TeacherMatch: cfg.Schedule.TeacherMatch,
		Layout:       cfg.Schedule.PayloadLayout,
		StoreTimeout: cfg.Retrieval.StoreTimeout(),
	}
}

func (r *ScheduleRetriever) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.StoreTimeout > 0 {
		return context.WithTimeout(ctx, r.StoreTimeout)
	}
	return context.WithCancel(ctx)
}

// SearchFiltered scans every record matching c, up to limit records read.
// Empty criteria never degrade to an unfiltered scan. A store error or a
// cancelled context stops the scan; what was accumulated is still returned.
func (r *ScheduleRetriever) SearchFiltered(ctx context.Context, c extractor.Criteria, limit int) LessonResult {
	start := time.Now()
	if !c.HasFilter() {
		return LessonResult{Lessons: []schedule.Lesson{}, Status: StatusEmpty}
	}
	if limit <= 0 {
		limit = r.ScanLimit
	}
	pageSize := r.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 500
	}
	maxPages := r.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	filter := BuildFilter(c, FilterOptions{TeacherMatch: r.TeacherMatch, Layout: r.Layout})
	logger.Debugf("schedule: filtered scan on %s: %s", r.Collection, vectordb.String(filter))

	res := LessonResult{}
	var raw []schedule.Lesson
	var scanErr error
	token := ""
	for res.Pages < maxPages && res.Scanned < limit {
		if err := ctx.Err(); err != nil {
			scanErr = err
			break
		}
		size := pageSize
		if remaining := limit - res.Scanned; remaining < size {
			size = remaining
		}

		callCtx, cancel := r.withTimeout(ctx)
		points, next, err := r.Store.Scan(callCtx, r.Collection, filter, size, token)
		cancel()
		res.Pages++
		if err != nil {
			scanErr = err
			metrics.IncCollectionError(r.Collection)
			logger.Warnf("schedule: scan page %d of %s failed: %v", res.Pages, r.Collection, err)
			break
		}

		res.Scanned += len(points)
		for _, p := range points {
			l := schedule.FromPayload(p.Payload)
			if l.SourceFamily == schedule.FamilyUnknown {
				res.Dropped++
				continue
			}
			raw = append(raw, l)
		}
		if next == "" {
			break
		}
		token = next
	}
	if scanErr == nil && token != "" && (res.Pages >= maxPages || res.Scanned >= limit) {
		logger.Debugf("schedule: scan of %s stopped at bounds (pages=%d records=%d)", r.Collection, res.Pages, res.Scanned)
	}

	res.Lessons = schedule.Normalize(raw)
	res.Err = scanErr
	res.Status = statusOf(len(res.Lessons), scanErr)
	metrics.ObserveScan(res.Scanned)
	metrics.ObserveRetrieval("filtered", string(res.Status), start, len(res.Lessons))
	return res
}

// SearchVector is the fallback for schedule questions without usable
// criteria: a top-limit similarity search carrying the score into each
// lesson for tie-breaking.
func (r *ScheduleRetriever) SearchVector(ctx context.Context, question string, limit int) LessonResult {
	start := time.Now()
	res := LessonResult{Lessons: []schedule.Lesson{}}
	if limit <= 0 {
		limit = 10
	}
	if r.Embed == nil {
		res.Err = errors.New("no embedding provider")
		res.Status = StatusFailed
		return res
	}

	vec, err := r.Embed.GetEmbedding(ctx, question)
	if err != nil {
		logger.Warnf("schedule: embedding failed: %v", err)
		res.Err = err
		res.Status = StatusFailed
		metrics.ObserveRetrieval("vector_fallback", string(res.Status), start, 0)
		return res
	}

	callCtx, cancel := r.withTimeout(ctx)
	hits, err := r.Store.SimilaritySearch(callCtx, r.Collection, vec, limit)
	cancel()
	if err != nil {
		metrics.IncCollectionError(r.Collection)
		logger.Warnf("schedule: similarity search on %s failed: %v", r.Collection, err)
		res.Err = err
		res.Status = StatusFailed
		metrics.ObserveRetrieval("vector_fallback", string(res.Status), start, 0)
		return res
	}

	res.Scanned = len(hits)
	raw := make([]schedule.Lesson, 0, len(hits))
	for _, h := range hits {
		l := schedule.FromPayload(h.Payload)
		if l.SourceFamily == schedule.FamilyUnknown {
			res.Dropped++
			continue
		}
		l.Score, l.HasScore = h.Score, true
		raw = append(raw, l)
	}
	res.Lessons = schedule.Normalize(raw)
	res.Status = statusOf(len(res.Lessons), nil)
	metrics.ObserveRetrieval("vector_fallback", string(res.Status), start, len(res.Lessons))
	return res
}
