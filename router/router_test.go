package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/extractor"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, QueryGeneral, Classify(extractor.NewCriteria()))

	c := extractor.NewCriteria()
	c.HasScheduleKeyword = true
	assert.Equal(t, QuerySchedule, Classify(c))

	c = extractor.NewCriteria()
	c.Rooms = []string{"52-17"}
	assert.Equal(t, QuerySchedule, Classify(c))
}

func TestRuleBasedRouter_Route(t *testing.T) {
	tests := []struct {
		query    string
		wantType QueryType
		want     Strategy
	}{
		{"schedule for group 4318", QuerySchedule, StrategyFiltered},
		{"room 52-17", QuerySchedule, StrategyFiltered},
		{"What classes are on Monday", QuerySchedule, StrategyFiltered},
		{"show me the timetable", QuerySchedule, StrategyVectorFallback},
		{"who is the rector of the university", QueryGeneral, StrategyDocuments},
		{"", QueryGeneral, StrategyDocuments},
	}
	r := NewRuleBasedRouter(nil)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d, err := r.Route(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, d.QueryType)
			assert.Equal(t, tt.want, d.Strategy)
			assert.NotEmpty(t, d.Reason)
			assert.NotNil(t, d.Criteria.Groups)
		})
	}
}

func TestRuleBasedRouter_Reason(t *testing.T) {
	d, _ := NewRuleBasedRouter(nil).Route(context.Background(), "Какая 2-я пара у группы 4318К в среду?")
	assert.Equal(t, "extracted groups, days, time slots", d.Reason)
}

func classifier(t *testing.T, status int, resp any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req routeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPRouter_OverridesType(t *testing.T) {
	srv := classifier(t, http.StatusOK, routeResponse{QueryType: "Schedule", Confidence: 0.82})
	defer srv.Close()

	r := NewHTTPRouter(srv.URL, nil, nil)
	d, err := r.Route(context.Background(), "what about Ivanov tomorrow")
	require.NoError(t, err)
	assert.Equal(t, QuerySchedule, d.QueryType)
	assert.Equal(t, StrategyVectorFallback, d.Strategy)
	assert.InDelta(t, 0.82, d.Confidence, 1e-9)
	assert.Equal(t, "external classifier", d.Reason)
}

func TestHTTPRouter_FallsBackToRules(t *testing.T) {
	srv := classifier(t, http.StatusBadRequest, map[string]string{"error": "nope"})
	defer srv.Close()

	d, err := NewHTTPRouter(srv.URL, nil, nil).Route(context.Background(), "schedule for group 4318")
	require.NoError(t, err)
	assert.Equal(t, StrategyFiltered, d.Strategy)

	unknown := classifier(t, http.StatusOK, routeResponse{QueryType: "weather"})
	defer unknown.Close()
	d, err = NewHTTPRouter(unknown.URL, nil, nil).Route(context.Background(), "who is the rector")
	require.NoError(t, err)
	assert.Equal(t, QueryGeneral, d.QueryType)
}

func TestHTTPRouter_CannotDowngradeExtractedCriteria(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(routeResponse{QueryType: "general", Confidence: 0.99})
	}))
	defer srv.Close()

	r := NewHTTPRouter(srv.URL, nil, nil)
	d, err := r.Route(context.Background(), "schedule for group 4318")
	require.NoError(t, err)
	assert.Equal(t, QuerySchedule, d.QueryType)
	assert.Equal(t, StrategyFiltered, d.Strategy)
	assert.Equal(t, []string{"4318"}, d.Criteria.Groups)
	assert.Zero(t, atomic.LoadInt32(&calls), "questions with criteria stay local")

	d, err = r.Route(context.Background(), "who is the rector")
	require.NoError(t, err)
	assert.Equal(t, QueryGeneral, d.QueryType)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

type failingRouter struct{}

func (failingRouter) Route(context.Context, string) (*RoutingDecision, error) {
	return nil, errors.New("down")
}

func TestHybridRouter(t *testing.T) {
	d, err := NewHybridRouter(failingRouter{}, nil).Route(context.Background(), "room 52-17")
	require.NoError(t, err)
	assert.Equal(t, StrategyFiltered, d.Strategy)

	h := &HybridRouter{Primary: failingRouter{}}
	d, err = h.Route(context.Background(), "room 52-17")
	require.NoError(t, err)
	assert.Equal(t, QueryGeneral, d.QueryType)
	assert.Equal(t, StrategyDocuments, d.Strategy)
}

func TestNewRouter(t *testing.T) {
	assert.IsType(t, &RuleBasedRouter{}, NewRouter(config.RouterConfig{}, nil))
	assert.IsType(t, &RuleBasedRouter{}, NewRouter(config.RouterConfig{Provider: "http"}, nil))
	assert.IsType(t, &HTTPRouter{}, NewRouter(config.RouterConfig{Provider: "http", Endpoint: "http://x"}, nil))
	assert.IsType(t, &HybridRouter{}, NewRouter(config.RouterConfig{Provider: "hybrid", Endpoint: "http://x"}, nil))
}
