// Package search defines the vector index contract: embedding records,
// scoped filters, ranked results, and the capability interfaces.
package search

import (
	"context"
	"time"
)

// Metadata is the arbitrary JSON-compatible metadata attached to a record.
type Metadata map[string]any

// Record is one stored chunk embedding. Records are immutable once created
// and are removed only by fund-scoped or global Clear.
type Record struct {
	id         int64
	documentID *int64
	fundID     *int64
	content    string
	embedding  []float64
	metadata   Metadata
	createdAt  time.Time
}

// NewRecord creates a Record ready for insertion.
func NewRecord(documentID, fundID *int64, content string, embedding []float64, metadata Metadata) Record {
	return Record{
		documentID: copyID(documentID),
		fundID:     copyID(fundID),
		content:    content,
		embedding:  copyVector(embedding),
		metadata:   copyMetadata(metadata),
	}
}

// Restore reconstructs a Record from persisted state.
func Restore(id int64, documentID, fundID *int64, content string, embedding []float64, metadata Metadata, createdAt time.Time) Record {
	r := NewRecord(documentID, fundID, content, embedding, metadata)
	r.id = id
	r.createdAt = createdAt
	return r
}

// ID returns the record identifier (0 until persisted).
func (r Record) ID() int64 { return r.id }

// DocumentID returns the owning document id, or nil.
func (r Record) DocumentID() *int64 { return copyID(r.documentID) }

// FundID returns the owning fund id, or nil.
func (r Record) FundID() *int64 { return copyID(r.fundID) }

// Content returns the chunk text.
func (r Record) Content() string { return r.content }

// Embedding returns a copy of the embedding vector.
func (r Record) Embedding() []float64 { return copyVector(r.embedding) }

// Metadata returns a copy of the record metadata.
func (r Record) Metadata() Metadata { return copyMetadata(r.metadata) }

// CreatedAt returns the creation timestamp.
func (r Record) CreatedAt() time.Time { return r.createdAt }

// Filter restricts a similarity search by equality on document and fund ids.
// The zero Filter matches everything.
type Filter struct {
	documentID *int64
	fundID     *int64
}

// NewFilter creates an empty Filter.
func NewFilter() Filter { return Filter{} }

// WithDocumentID returns a Filter additionally requiring document_id = id.
func (f Filter) WithDocumentID(id int64) Filter {
	f.documentID = &id
	return f
}

// WithFundID returns a Filter additionally requiring fund_id = id.
func (f Filter) WithFundID(id int64) Filter {
	f.fundID = &id
	return f
}

// DocumentID returns the document filter, or nil when unset.
func (f Filter) DocumentID() *int64 { return copyID(f.documentID) }

// FundID returns the fund filter, or nil when unset.
func (f Filter) FundID() *int64 { return copyID(f.fundID) }

// IsEmpty reports whether the filter restricts nothing.
func (f Filter) IsEmpty() bool { return f.documentID == nil && f.fundID == nil }

// Result is one similarity-search hit. Score is a similarity (higher is
// better) derived from the store's distance metric.
type Result struct {
	id         int64
	documentID *int64
	fundID     *int64
	content    string
	metadata   Metadata
	score      float64
}

// NewResult creates a Result.
func NewResult(id int64, documentID, fundID *int64, content string, metadata Metadata, score float64) Result {
	return Result{
		id:         id,
		documentID: copyID(documentID),
		fundID:     copyID(fundID),
		content:    content,
		metadata:   copyMetadata(metadata),
		score:      score,
	}
}

// ID returns the record identifier.
func (r Result) ID() int64 { return r.id }

// DocumentID returns the owning document id, or nil.
func (r Result) DocumentID() *int64 { return copyID(r.documentID) }

// FundID returns the owning fund id, or nil.
func (r Result) FundID() *int64 { return copyID(r.fundID) }

// Content returns the chunk text.
func (r Result) Content() string { return r.content }

// Metadata returns the record metadata.
func (r Result) Metadata() Metadata { return copyMetadata(r.metadata) }

// Score returns the similarity score.
func (r Result) Score() float64 { return r.score }

// Embedder turns text into fixed-length vectors. The dimension is constant
// for the lifetime of a provider.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Index is the vector index contract.
//
// Add propagates insertion failures; callers must handle them, unlike the
// rest of the ingestion pipeline which records failure on the document
// instead of returning it. SimilaritySearch
// degrades gracefully: any internal failure yields an empty result list,
// never an error.
type Index interface {
	// Add embeds content and stores it with the given metadata. The
	// document_id and fund_id metadata keys, when present, are promoted to
	// filterable columns.
	Add(ctx context.Context, content string, metadata Metadata) error

	// SimilaritySearch embeds the query and returns at most k results
	// ordered by descending similarity, restricted by filter.
	SimilaritySearch(ctx context.Context, query string, k int, filter Filter) []Result

	// Clear deletes all records, or only those of the given fund.
	Clear(ctx context.Context, fundID *int64) error
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyVector(v []float64) []float64 {
	cp := make([]float64, len(v))
	copy(cp, v)
	return cp
}

func copyMetadata(m Metadata) Metadata {
	if m == nil {
		return nil
	}
	cp := make(Metadata, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
