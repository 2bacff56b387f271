package persistence

import (
	"context"
	"fmt"

	"github.com/fundsight/fundsight/internal/database"
)

// Migrate creates or updates the schema for every table the system owns.
// The embedding vector column is managed separately by the vector store,
// since its type differs between SQLite and PostgreSQL.
func Migrate(ctx context.Context, db database.Database) error {
	session := db.Session(ctx)
	if err := session.AutoMigrate(
		&FundModel{},
		&DocumentModel{},
		&CapitalCallModel{},
		&DistributionModel{},
		&AdjustmentModel{},
		&TaskModel{},
		&EmbeddingModel{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
