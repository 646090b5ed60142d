package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// memoryDSN names a shared-cache in-memory database after the test so that the
// writer and reader pools see the same tables while parallel tests stay apart.
// WAL does not apply to in-memory databases, so journal_mode is left out.
func memoryDSN(t *testing.T) string {
	return fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		url.PathEscape(t.Name()),
	)
}

func openPool(t *testing.T, dsn string, maxConns int) *sql.DB {
	t.Helper()

	pool, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	pool.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { _ = pool.Close() })

	require.NoError(t, pool.PingContext(context.Background()))
	return pool
}

// setupTestDB returns a migrated in-memory DB shaped like the one NewDB opens.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := memoryDSN(t)
	db := &DB{
		Writer: openPool(t, dsn, 1),
		Reader: openPool(t, dsn, 4),
		path:   dsn,
	}

	_, err := RunMigrations(db.Writer)
	require.NoError(t, err)

	return db
}

func TestRunMigrations_ReportsVersionAndIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	version, err := RunMigrations(db.Writer)
	require.NoError(t, err)
	require.Equal(t, uint(2), version)

	var tables int
	err = db.Reader.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('repo_snapshots', 'cached_repos', 'ignored_repos')`,
	).Scan(&tables)
	require.NoError(t, err)
	require.Equal(t, 3, tables)
}
