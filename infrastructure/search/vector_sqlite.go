package search

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/internal/database"
	"github.com/fundsight/fundsight/internal/log"
)

// Float64Slice stores an embedding vector as a JSON array in a text column.
type Float64Slice []float64

// Scan implements sql.Scanner.
func (f *Float64Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	}
	return fmt.Errorf("cannot scan %T into Float64Slice", value)
}

// Value implements driver.Valuer.
func (f Float64Slice) Value() (driver.Value, error) {
	return json.Marshal([]float64(f))
}

type sqliteEmbeddingRow struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	DocumentID *int64
	FundID     *int64
	Content    string
	Metadata   map[string]any `gorm:"serializer:json"`
	Embedding  Float64Slice   `gorm:"type:text"`
	CreatedAt  time.Time
}

func (sqliteEmbeddingRow) TableName() string { return "document_embeddings" }

// SQLiteIndex is the search.Index backed by SQLite. Vectors are stored as
// JSON and ranked in process; fine at the corpus sizes a single deployment
// sees.
type SQLiteIndex struct {
	db       database.Database
	embedder search.Embedder
	logger   *log.Logger
}

// NewSQLiteIndex creates a SQLiteIndex.
func NewSQLiteIndex(db database.Database, embedder search.Embedder, logger *log.Logger) *SQLiteIndex {
	return &SQLiteIndex{db: db, embedder: embedder, logger: logger}
}

// EnsureSchema adds the text-typed embedding column to document_embeddings.
// The base table migration does not know about the column; each index owns
// its driver's vector representation.
func (s *SQLiteIndex) EnsureSchema(ctx context.Context) error {
	if err := s.db.Session(ctx).AutoMigrate(&sqliteEmbeddingRow{}); err != nil {
		return fmt.Errorf("add embedding column: %w", err)
	}
	return nil
}

// Add embeds content and stores it. Errors propagate to the caller.
func (s *SQLiteIndex) Add(ctx context.Context, content string, metadata search.Metadata) error {
	vectors, err := s.embedder.Embed(ctx, []string{content})
	if err != nil {
		return fmt.Errorf("embed content: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embed content: empty response")
	}
	row := sqliteEmbeddingRow{
		DocumentID: metadataID(metadata, "document_id"),
		FundID:     metadataID(metadata, "fund_id"),
		Content:    content,
		Metadata:   metadata,
		Embedding:  Float64Slice(vectors[0]),
	}
	if err := s.db.Session(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

// SimilaritySearch returns at most k results ordered by descending cosine
// similarity. Any failure yields an empty list.
func (s *SQLiteIndex) SimilaritySearch(ctx context.Context, query string, k int, filter search.Filter) []search.Result {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		s.logger.Warn("similarity search: embedding failed", "error", err)
		return []search.Result{}
	}
	queryVec := vectors[0]

	session := s.db.Session(ctx).Model(&sqliteEmbeddingRow{})
	if id := filter.DocumentID(); id != nil {
		session = session.Where("document_id = ?", *id)
	}
	if id := filter.FundID(); id != nil {
		session = session.Where("fund_id = ?", *id)
	}
	var rows []sqliteEmbeddingRow
	if err := session.Find(&rows).Error; err != nil {
		s.logger.Warn("similarity search: query failed", "error", err)
		return []search.Result{}
	}

	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = CosineSimilarity(queryVec, row.Embedding)
	}
	results := make([]search.Result, 0, k)
	for _, hit := range topK(scores, k) {
		row := rows[hit.index]
		results = append(results, search.NewResult(row.ID, row.DocumentID, row.FundID, row.Content, row.Metadata, hit.score))
	}
	return results
}

// Clear deletes all records, or only a fund's records when fundID is set.
func (s *SQLiteIndex) Clear(ctx context.Context, fundID *int64) error {
	session := s.db.Session(ctx)
	if fundID != nil {
		session = session.Where("fund_id = ?", *fundID)
	} else {
		session = session.Where("1 = 1")
	}
	if err := session.Delete(&sqliteEmbeddingRow{}).Error; err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	return nil
}

// metadataID pulls an integer id out of metadata, tolerating JSON numerics.
func metadataID(m search.Metadata, key string) *int64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case int64:
		return &n
	case int:
		id := int64(n)
		return &id
	case float64:
		id := int64(n)
		return &id
	}
	return nil
}
