// Package milvus implements vectordb.Provider on the Milvus Go SDK. Stored
// payload fields map to scalar columns plus one JSON "metadata" column.
package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/config"
	"github.com/unirag/campus-rag/vectordb"
)

// milvusClient is the subset of client.Client the store uses.
type milvusClient interface {
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string,
		vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int,
		sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	Query(ctx context.Context, collectionName string, partitionNames []string, expr string,
		outputFields []string, opts ...client.SearchQueryOptionFunc) (client.ResultSet, error)
	Close() error
}

type Store struct {
	c            milvusClient
	idField      string
	vectorField  string
	metric       entity.MetricType
	outputFields []string
	searchParam  entity.SearchParam
	compiler     Compiler
}

// New dials Milvus at cfg.Address().
func New(ctx context.Context, cfg config.VectorDBConfig) (*Store, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address(),
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus %s: %w", cfg.Address(), err)
	}
	logger.Infof("milvus: connected to %s (db=%q)", cfg.Address(), cfg.Database)
	return newStore(c, cfg.Mapping)
}

func newStore(c milvusClient, m config.MappingConfig) (*Store, error) {
	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, err
	}
	s := &Store{
		c:            c,
		idField:      m.IDField,
		vectorField:  m.VectorField,
		metric:       entity.MetricType(strings.ToUpper(m.MetricType)),
		outputFields: m.PayloadFields,
		searchParam:  sp,
	}
	if s.idField == "" {
		s.idField = "id"
	}
	if s.vectorField == "" {
		s.vectorField = "vector"
	}
	if s.metric == "" {
		s.metric = entity.IP
	}
	if len(s.outputFields) == 0 {
		s.outputFields = []string{"text", "type", "document_id", "source_url", "metadata"}
	}
	arrays := m.ArrayFields
	if len(arrays) == 0 {
		arrays = DefaultArrayFields
	}
	s.compiler = NewCompiler(arrays, append([]string{s.idField}, s.outputFields...))
	return s, nil
}

func (s *Store) Close() error { return s.c.Close() }

// SimilaritySearch returns hits ordered best first. L2 distances are
// negated so that a higher score is always better.
func (s *Store) SimilaritySearch(ctx context.Context, collection string, vector []float32, limit int) ([]vectordb.Hit, error) {
	results, err := s.c.Search(ctx, collection, nil, "", s.outputFields,
		[]entity.Vector{entity.FloatVector(vector)}, s.vectorField, s.metric, limit, s.searchParam)
	if err != nil {
		return nil, fmt.Errorf("milvus search %s: %w", collection, err)
	}
	var hits []vectordb.Hit
	for _, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("milvus search %s: %w", collection, res.Err)
		}
		for i := 0; i < res.ResultCount; i++ {
			score := float64(res.Scores[i])
			if s.metric == entity.L2 {
				score = -score
			}
			hits = append(hits, vectordb.Hit{
				ID:      columnID(res.IDs, i),
				Score:   score,
				Payload: rowPayload(res.Fields, i),
			})
		}
	}
	return hits, nil
}

// Scan uses Query with limit/offset. The token is the decimal offset.
// Rows are re-checked against filter, since the pushed-down expression
// may be wider than the filter itself. Pagination follows the raw rows, so
// a page can hold fewer points than pageSize while next is still set.
func (s *Store) Scan(ctx context.Context, collection string, filter vectordb.Expr, pageSize int, token string) ([]vectordb.Point, string, error) {
	expr, err := s.compiler.Compile(filter)
	if err != nil {
		return nil, "", err
	}
	var offset int64
	if token != "" {
		offset, err = strconv.ParseInt(token, 10, 64)
		if err != nil || offset < 0 {
			return nil, "", fmt.Errorf("invalid scan token %q", token)
		}
	}

	rs, err := s.c.Query(ctx, collection, nil, expr, s.outputFields,
		client.WithLimit(int64(pageSize)), client.WithOffset(offset))
	if err != nil {
		return nil, "", fmt.Errorf("milvus query %s: %w", collection, err)
	}

	rows := resultLen(rs)
	idCol := rs.GetColumn(s.idField)
	points := make([]vectordb.Point, 0, rows)
	for i := 0; i < rows; i++ {
		id := ""
		if idCol != nil {
			id = columnID(idCol, i)
		}
		payload := rowPayload(rs, i)
		if !vectordb.Eval(filter, payload) {
			continue
		}
		points = append(points, vectordb.Point{ID: id, Payload: payload})
	}
	next := ""
	if rows == pageSize && rows > 0 {
		next = strconv.FormatInt(offset+int64(rows), 10)
	}
	return points, next, nil
}

func resultLen(rs client.ResultSet) int {
	if len(rs) == 0 {
		return 0
	}
	return rs[0].Len()
}

func columnID(col entity.Column, i int) string {
	if col == nil {
		return ""
	}
	v, err := col.Get(i)
	if err != nil {
		return ""
	}
	return fmt.Sprint(v)
}

// rowPayload rebuilds the payload map of row i; JSON columns are decoded.
func rowPayload(rs client.ResultSet, i int) map[string]any {
	payload := make(map[string]any, len(rs))
	for _, col := range rs {
		v, err := col.Get(i)
		if err != nil {
			continue
		}
		if raw, ok := v.([]byte); ok && col.Type() == entity.FieldTypeJSON {
			var decoded any
			if err := json.Unmarshal(raw, &decoded); err != nil {
				logger.Debugf("milvus: undecodable JSON in %s: %v", col.Name(), err)
				continue
			}
			v = decoded
		}
		payload[col.Name()] = v
	}
	return payload
}
