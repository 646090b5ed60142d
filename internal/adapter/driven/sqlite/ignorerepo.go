package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IgnoreStore = (*IgnoreRepo)(nil)

// IgnoreRepo is the SQLite implementation of the IgnoreStore port interface.
type IgnoreRepo struct {
	db *DB
}

// NewIgnoreRepo creates a new IgnoreRepo backed by the given DB.
func NewIgnoreRepo(db *DB) *IgnoreRepo {
	return &IgnoreRepo{db: db}
}

// Ignore adds a repository name to the ignore list. Idempotent.
func (r *IgnoreRepo) Ignore(ctx context.Context, name string) error {
	key := normalizeName(name)
	if key == "" {
		return fmt.Errorf("ignore repository: empty name")
	}

	const query = `INSERT OR IGNORE INTO ignored_repos (name) VALUES (?)`
	if _, err := r.db.Writer.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("ignore repository %s: %w", key, err)
	}
	return nil
}

// Unignore removes a repository name from the ignore list.
func (r *IgnoreRepo) Unignore(ctx context.Context, name string) error {
	key := normalizeName(name)

	const query = `DELETE FROM ignored_repos WHERE name = ?`
	result, err := r.db.Writer.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("unignore repository %s: %w", key, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("unignore repository %s: %w", key, driven.ErrIgnoredRepoNotFound)
	}

	return nil
}

// List returns all ignored repositories ordered by name.
func (r *IgnoreRepo) List(ctx context.Context) ([]model.IgnoredRepo, error) {
	const query = `SELECT name, added_at FROM ignored_repos ORDER BY name`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ignored repositories: %w", err)
	}
	defer rows.Close()

	result := []model.IgnoredRepo{}
	for rows.Next() {
		var item model.IgnoredRepo
		var addedAt string
		if err := rows.Scan(&item.Name, &addedAt); err != nil {
			return nil, fmt.Errorf("scan ignored repository: %w", err)
		}
		item.AddedAt, err = parseTime(addedAt)
		if err != nil {
			return nil, fmt.Errorf("parse added_at for %s: %w", item.Name, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ignored repositories: %w", err)
	}
	return result, nil
}

// Names returns the ignored names as a set for O(1) lookup in the application layer.
func (r *IgnoreRepo) Names(ctx context.Context) (map[string]struct{}, error) {
	const query = `SELECT name FROM ignored_repos`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ignored names: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan ignored name: %w", err)
		}
		result[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ignored names: %w", err)
	}
	return result, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
