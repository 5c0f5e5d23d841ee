// Package retriever runs the schedule and general-document searches against
// the vector store and reports an explicit outcome for each.
package retriever

import (
	"context"

	"github.com/unirag/campus-rag/schedule"
	"github.com/unirag/campus-rag/vectordb"
)

// Status separates "found nothing" from "could not search".
type Status string

const (
	StatusOK      Status = "ok"
	StatusEmpty   Status = "empty"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

func statusOf(n int, err error) Status {
	switch {
	case err != nil && n > 0:
		return StatusPartial
	case err != nil:
		return StatusFailed
	case n > 0:
		return StatusOK
	default:
		return StatusEmpty
	}
}

// DocumentHit is a general-document chunk in a result set.
type DocumentHit = vectordb.Document

// LessonResult is the outcome of a schedule search. Lessons is never nil.
type LessonResult struct {
	Lessons []schedule.Lesson
	Status  Status
	Err     error

	Scanned int // records read from the store
	Pages   int
	Dropped int // records outside the schedule source families
}

// DocumentResult is the outcome of a document search. Documents is never nil.
type DocumentResult struct {
	Documents []DocumentHit
	Status    Status
	Err       error
	// FailedCollections lists collections skipped because of store errors.
	FailedCollections []string
}

// Retriever searches one collection with a ready query vector.
type Retriever interface {
	Type() string
	Search(ctx context.Context, vector []float32, topK int) ([]DocumentHit, error)
}
