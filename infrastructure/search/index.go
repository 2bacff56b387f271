package search

import (
	"context"

	"github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/internal/database"
	"github.com/fundsight/fundsight/internal/log"
)

// NewIndex returns the search.Index for the database's driver: pgvector on
// PostgreSQL, in-process cosine ranking on SQLite.
func NewIndex(ctx context.Context, db database.Database, embedder search.Embedder, logger *log.Logger, dimension int) (search.Index, error) {
	if db.IsPostgres() {
		index := NewPostgresIndex(db, embedder, logger, dimension)
		if err := index.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return index, nil
	}
	index := NewSQLiteIndex(db, embedder, logger)
	if err := index.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return index, nil
}
