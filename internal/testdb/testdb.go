// Package testdb provides an in-memory database for tests.
package testdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fundsight/fundsight/infrastructure/persistence"
	"github.com/fundsight/fundsight/internal/database"
)

// New returns a migrated in-memory SQLite database. Each call yields an
// isolated schema; the database is closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()

	// A named shared-cache DSN keeps the schema alive across the pooled
	// connections GORM opens.
	url := fmt.Sprintf("sqlite:///file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.NewDatabase(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, persistence.Migrate(context.Background(), db))
	return db
}
