// Package router decides how a question is answered: a schedule lookup by
// metadata filter, a schedule similarity fallback, or general document
// retrieval.
package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/unirag/campus-rag/common/httpx"
	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/extractor"
)

// QueryType is the coarse intent of a question.
type QueryType string

const (
	QuerySchedule QueryType = "schedule"
	QueryGeneral  QueryType = "general"
)

// Strategy names the retrieval path chosen for a question.
type Strategy string

const (
	StrategyFiltered       Strategy = "filtered"
	StrategyVectorFallback Strategy = "vector_fallback"
	StrategyDocuments      Strategy = "documents"
)

// RoutingDecision represents the routing decision for a query
type RoutingDecision struct {
	QueryType  QueryType          `json:"query_type"`
	Strategy   Strategy           `json:"strategy"`
	Criteria   extractor.Criteria `json:"criteria"`
	Confidence float64            `json:"confidence"` // [0, 1]
	Reason     string             `json:"reason"`
}

// Router determines the retrieval path for a given query
type Router interface {
	Route(ctx context.Context, query string) (*RoutingDecision, error)
}

// Classify maps criteria to a query type: any schedule keyword or any
// extracted category makes it a schedule question.
func Classify(c extractor.Criteria) QueryType {
	if c.HasSignal() {
		return QuerySchedule
	}
	return QueryGeneral
}

// StrategyFor picks the retrieval path for a query type and its criteria.
func StrategyFor(qt QueryType, c extractor.Criteria) Strategy {
	switch {
	case qt != QuerySchedule:
		return StrategyDocuments
	case c.HasFilter():
		return StrategyFiltered
	default:
		return StrategyVectorFallback
	}
}

// RuleBasedRouter implements routing from the extracted criteria alone.
type RuleBasedRouter struct {
	extractor *extractor.Extractor
}

// NewRuleBasedRouter uses the default extractor when ex is nil.
func NewRuleBasedRouter(ex *extractor.Extractor) *RuleBasedRouter {
	if ex == nil {
		ex = extractor.Default()
	}
	return &RuleBasedRouter{extractor: ex}
}

// Route applies rule-based logic to determine routing
func (r *RuleBasedRouter) Route(ctx context.Context, query string) (*RoutingDecision, error) {
	c := r.extractor.Extract(query)
	return decide(c), nil
}

func decide(c extractor.Criteria) *RoutingDecision {
	d := &RoutingDecision{Criteria: c, QueryType: Classify(c)}
	d.Strategy = StrategyFor(d.QueryType, c)

	switch d.Strategy {
	case StrategyFiltered:
		d.Confidence = 0.9
		d.Reason = "extracted " + strings.Join(categories(c), ", ")
	case StrategyVectorFallback:
		d.Confidence = 0.6
		d.Reason = "schedule keyword without usable criteria"
	default:
		d.Confidence = 0.7
		d.Reason = "no schedule signal"
	}

	logger.Debugf("router: rule-based decision - type=%s strategy=%s reason=%s", d.QueryType, d.Strategy, d.Reason)
	return d
}

func categories(c extractor.Criteria) []string {
	var out []string
	for _, cat := range []struct {
		name   string
		values []string
	}{
		{"groups", c.Groups},
		{"rooms", c.Rooms},
		{"teachers", c.Teachers},
		{"days", c.Days},
		{"time slots", c.TimeSlots},
	} {
		if len(cat.values) > 0 {
			out = append(out, cat.name)
		}
	}
	return out
}

// HTTPRouter asks an external intent classifier whether a question without
// extracted criteria is about the timetable. A question with any criterion
// is a schedule question and never reaches the service, so the service can
// only upgrade GENERAL to SCHEDULE. Criteria always come from the local
// extractor.
//
// Request:  {"query":"..."}
// Response: {"query_type":"schedule","confidence":0.82,"reason":"..."}
type HTTPRouter struct {
	Endpoint string
	Client   *httpx.Client
	rules    *RuleBasedRouter
}

// NewHTTPRouter creates a new HTTP-based router
func NewHTTPRouter(endpoint string, ex *extractor.Extractor, httpCfg *config.HTTPClientConfig) *HTTPRouter {
	return &HTTPRouter{
		Endpoint: endpoint,
		Client:   httpx.NewFromConfig(httpCfg),
		rules:    NewRuleBasedRouter(ex),
	}
}

type routeRequest struct {
	Query string `json:"query"`
}

type routeResponse struct {
	QueryType  string  `json:"query_type"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Route calls the external service for questions the rules classify as
// general and keeps the rule decision when the service is unreachable or
// answers with an unknown type.
func (r *HTTPRouter) Route(ctx context.Context, query string) (*RoutingDecision, error) {
	decision, _ := r.rules.Route(ctx, query)
	if decision.QueryType == QuerySchedule {
		return decision, nil
	}

	var resp routeResponse
	if err := r.Client.DoJSON(ctx, http.MethodPost, r.Endpoint, nil, routeRequest{Query: query}, &resp); err != nil {
		logger.Warnf("router: HTTP classifier failed, using rules: %v", err)
		return decision, nil
	}

	qt := QueryType(strings.ToLower(strings.TrimSpace(resp.QueryType)))
	if qt != QuerySchedule && qt != QueryGeneral {
		logger.Warnf("router: HTTP classifier returned unknown type %q, using rules", resp.QueryType)
		return decision, nil
	}

	decision.QueryType = qt
	decision.Strategy = StrategyFor(qt, decision.Criteria)
	decision.Confidence = resp.Confidence
	decision.Reason = resp.Reason
	if decision.Reason == "" {
		decision.Reason = "external classifier"
	}
	logger.Infof("router: decision from HTTP service - type=%s strategy=%s confidence=%.2f",
		decision.QueryType, decision.Strategy, decision.Confidence)
	return decision, nil
}

// HybridRouter combines a primary router with a rule-based fallback
type HybridRouter struct {
	Primary  Router
	Fallback Router
}

// NewHybridRouter creates a hybrid router
func NewHybridRouter(primary, fallback Router) *HybridRouter {
	if fallback == nil {
		fallback = NewRuleBasedRouter(nil)
	}
	return &HybridRouter{
		Primary:  primary,
		Fallback: fallback,
	}
}

// Route tries primary router, falls back to secondary on failure
func (r *HybridRouter) Route(ctx context.Context, query string) (*RoutingDecision, error) {
	if r.Primary != nil {
		decision, err := r.Primary.Route(ctx, query)
		if err == nil && decision != nil {
			return decision, nil
		}
		logger.Warnf("router: primary router failed, using fallback: %v", err)
	}

	if r.Fallback != nil {
		return r.Fallback.Route(ctx, query)
	}

	// Classifier uncertainty means a general question.
	return &RoutingDecision{
		QueryType:  QueryGeneral,
		Strategy:   StrategyDocuments,
		Criteria:   extractor.NewCriteria(),
		Confidence: 0.5,
		Reason:     "all routers unavailable",
	}, nil
}

// NewRouter creates a router based on configuration
func NewRouter(cfg config.RouterConfig, httpCfg *config.HTTPClientConfig) Router {
	switch cfg.Provider {
	case "http":
		if cfg.Endpoint != "" {
			return NewHTTPRouter(cfg.Endpoint, nil, httpCfg)
		}
		return NewRuleBasedRouter(nil)
	case "hybrid":
		var primary Router
		if cfg.Endpoint != "" {
			primary = NewHTTPRouter(cfg.Endpoint, nil, httpCfg)
		}
		return NewHybridRouter(primary, NewRuleBasedRouter(nil))
	default:
		return NewRuleBasedRouter(nil)
	}
}
