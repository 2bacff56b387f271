package search

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/internal/database"
	"github.com/fundsight/fundsight/internal/log"
)

// PgVector renders an embedding in pgvector's literal form: [x,y,z].
type PgVector []float64

// Value implements driver.Valuer.
func (v PgVector) Value() (driver.Value, error) {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]", nil
}

// Scan implements sql.Scanner.
func (v *PgVector) Scan(value any) error {
	var s string
	switch raw := value.(type) {
	case []byte:
		s = string(raw)
	case string:
		s = raw
	case nil:
		*v = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into PgVector", value)
	}
	s = strings.Trim(s, "[]")
	if s == "" {
		*v = PgVector{}
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(PgVector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("parse vector component %d: %w", i, err)
		}
		out[i] = f
	}
	*v = out
	return nil
}

// PostgresIndex is the search.Index backed by pgvector. Ranking uses the
// cosine distance operator; score is 1 - distance.
type PostgresIndex struct {
	db        database.Database
	embedder  search.Embedder
	logger    *log.Logger
	dimension int
}

// NewPostgresIndex creates a PostgresIndex.
func NewPostgresIndex(db database.Database, embedder search.Embedder, logger *log.Logger, dimension int) *PostgresIndex {
	return &PostgresIndex{db: db, embedder: embedder, logger: logger, dimension: dimension}
}

// EnsureSchema installs the pgvector extension and converts the embedding
// column to the vector type at the configured dimension.
func (p *PostgresIndex) EnsureSchema(ctx context.Context) error {
	session := p.db.Session(ctx)
	if err := session.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("install pgvector: %w", err)
	}
	alter := fmt.Sprintf(
		"ALTER TABLE document_embeddings ADD COLUMN IF NOT EXISTS embedding vector(%d)",
		p.dimension,
	)
	if err := session.Exec(alter).Error; err != nil {
		return fmt.Errorf("add embedding column: %w", err)
	}
	return nil
}

// Add embeds content and stores it. Errors propagate to the caller.
func (p *PostgresIndex) Add(ctx context.Context, content string, metadata search.Metadata) error {
	vectors, err := p.embedder.Embed(ctx, []string{content})
	if err != nil {
		return fmt.Errorf("embed content: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embed content: empty response")
	}
	literal, err := PgVector(vectors[0]).Value()
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	metadataJSON, err := encodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	err = p.db.Session(ctx).Exec(
		`INSERT INTO document_embeddings (document_id, fund_id, content, metadata, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?::vector, NOW())`,
		metadataID(metadata, "document_id"),
		metadataID(metadata, "fund_id"),
		content,
		metadataJSON,
		literal,
	).Error
	if err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

type pgSearchRow struct {
	ID         int64
	DocumentID *int64
	FundID     *int64
	Content    string
	Metadata   []byte
	Distance   float64
}

// SimilaritySearch returns at most k results ordered by descending
// similarity. Any failure yields an empty list.
func (p *PostgresIndex) SimilaritySearch(ctx context.Context, query string, k int, filter search.Filter) []search.Result {
	vectors, err := p.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		p.logger.Warn("similarity search: embedding failed", "error", err)
		return []search.Result{}
	}
	literal, err := PgVector(vectors[0]).Value()
	if err != nil {
		p.logger.Warn("similarity search: encode failed", "error", err)
		return []search.Result{}
	}

	sql := `SELECT id, document_id, fund_id, content, metadata,
	               embedding <=> ?::vector AS distance
	        FROM document_embeddings
	        WHERE embedding IS NOT NULL`
	args := []any{literal}
	if id := filter.DocumentID(); id != nil {
		sql += " AND document_id = ?"
		args = append(args, *id)
	}
	if id := filter.FundID(); id != nil {
		sql += " AND fund_id = ?"
		args = append(args, *id)
	}
	sql += " ORDER BY distance ASC LIMIT ?"
	args = append(args, k)

	var rows []pgSearchRow
	if err := p.db.Session(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		p.logger.Warn("similarity search: query failed", "error", err)
		return []search.Result{}
	}

	results := make([]search.Result, 0, len(rows))
	for _, row := range rows {
		metadata, err := decodeMetadata(row.Metadata)
		if err != nil {
			p.logger.Warn("similarity search: bad metadata", "id", row.ID, "error", err)
			metadata = nil
		}
		results = append(results, search.NewResult(row.ID, row.DocumentID, row.FundID, row.Content, metadata, 1-row.Distance))
	}
	return results
}

// Clear deletes all records, or only a fund's records when fundID is set.
func (p *PostgresIndex) Clear(ctx context.Context, fundID *int64) error {
	session := p.db.Session(ctx)
	var err error
	if fundID != nil {
		err = session.Exec("DELETE FROM document_embeddings WHERE fund_id = ?", *fundID).Error
	} else {
		err = session.Exec("DELETE FROM document_embeddings").Error
	}
	if err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	return nil
}
