//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/phrazzld/servertask/internal/platform/postgres"
	"github.com/phrazzld/servertask/internal/store"
	"github.com/phrazzld/servertask/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to DATABASE_URL and applies migrations, skipping the
// test when no database is configured.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test - DATABASE_URL environment variable required")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Error closing database connection: %v", err)
		}
	})

	require.NoError(t, postgres.Migrate(ctx, db, nil))
	return db
}

// TestPostgresTaskStore_Integration runs every subtest inside its own
// transaction, rolled back afterwards, so each one starts from an empty table.
func TestPostgresTaskStore_Integration(t *testing.T) {
	db := openTestDB(t)

	storetest.RunTaskStoreTests(t, func(t *testing.T) store.TaskStore {
		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = tx.Rollback()
		})

		_, err = tx.ExecContext(context.Background(), `DELETE FROM tasks`)
		require.NoError(t, err)

		return postgres.NewPostgresTaskStore(tx, nil)
	})
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, postgres.Migrate(context.Background(), db, nil))

	var exists bool
	err := db.QueryRowContext(context.Background(), `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = 'tasks'
	)`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists)
}
