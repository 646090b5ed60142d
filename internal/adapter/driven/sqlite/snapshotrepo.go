package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotStore port interface.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save atomically replaces the stored snapshot. Previous snapshots and their
// repositories are removed in the same transaction.
func (r *SnapshotRepo) Save(ctx context.Context, snapshot model.RepoSnapshot) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	// cached_repos rows go with their snapshot via ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, `DELETE FROM repo_snapshots`); err != nil {
		return fmt.Errorf("delete previous snapshots: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO repo_snapshots (fetched_at) VALUES (?)`,
		formatTime(snapshot.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	snapshotID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}

	const insertQuery = `
		INSERT INTO cached_repos (
			snapshot_id, position, name, description, html_url, language,
			stargazers_count, forks_count, updated_at, created_at, topics, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, repo := range snapshot.Repos {
		topics := repo.Topics
		if topics == nil {
			topics = []string{}
		}
		topicsJSON, err := json.Marshal(topics)
		if err != nil {
			return fmt.Errorf("marshal topics for %s: %w", repo.Name, err)
		}

		status := repo.Status
		if status == "" {
			status = model.ProjectStatusCompleted
		}

		if _, err := tx.ExecContext(ctx, insertQuery,
			snapshotID, i, repo.Name, repo.Description, repo.HTMLURL, repo.Language,
			repo.Stars, repo.Forks, repo.UpdatedAt, repo.CreatedAt, string(topicsJSON), string(status),
		); err != nil {
			return fmt.Errorf("insert cached repo %s: %w", repo.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	return nil
}

// Latest returns the most recently saved snapshot, or nil, nil if none exists.
func (r *SnapshotRepo) Latest(ctx context.Context) (*model.RepoSnapshot, error) {
	var (
		snapshotID int64
		fetchedAt  string
	)

	err := r.db.Reader.QueryRowContext(ctx,
		`SELECT id, fetched_at FROM repo_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&snapshotID, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	snapshot := &model.RepoSnapshot{Repos: []model.BackendRepo{}}
	snapshot.FetchedAt, err = parseTime(fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("parse fetched_at: %w", err)
	}

	const query = `
		SELECT name, description, html_url, language, stargazers_count, forks_count,
		       updated_at, created_at, topics, status
		FROM cached_repos
		WHERE snapshot_id = ?
		ORDER BY position
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("list cached repos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			repo       model.BackendRepo
			topicsJSON string
			status     string
		)
		if err := rows.Scan(
			&repo.Name, &repo.Description, &repo.HTMLURL, &repo.Language,
			&repo.Stars, &repo.Forks, &repo.UpdatedAt, &repo.CreatedAt, &topicsJSON, &status,
		); err != nil {
			return nil, fmt.Errorf("scan cached repo: %w", err)
		}

		if err := json.Unmarshal([]byte(topicsJSON), &repo.Topics); err != nil {
			return nil, fmt.Errorf("unmarshal topics for %s: %w", repo.Name, err)
		}
		if repo.Topics == nil {
			repo.Topics = []string{}
		}
		repo.Status = model.ProjectStatus(status)

		snapshot.Repos = append(snapshot.Repos, repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached repos: %w", err)
	}

	return snapshot, nil
}
