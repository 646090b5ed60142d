package main

import (
	"context"
	"log/slog"

	sqliteadapter "github.com/ericfisherdev/repofeed/internal/adapter/driven/sqlite"
)

// openDB opens the database and applies pending migrations. The caller owns
// the returned DB and must close it.
func openDB(ctx context.Context, path string) (*sqliteadapter.DB, error) {
	db, err := sqliteadapter.NewDB(ctx, path)
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "path", path)

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("migrations complete", "schema_version", version)

	return db, nil
}

func closeDB(db *sqliteadapter.DB) {
	if err := db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
