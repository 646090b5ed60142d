package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
)

func TestIgnoreRepo_IgnoreAndNames(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIgnoreRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Ignore(ctx, "Dotfiles"))
	require.NoError(t, repo.Ignore(ctx, "  scratch-pad "))

	names, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.Contains(t, names, "dotfiles", "names should be stored lowercase")
	assert.Contains(t, names, "scratch-pad", "names should be trimmed")
}

func TestIgnoreRepo_DoubleIgnore_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIgnoreRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Ignore(ctx, "dotfiles"))
	// Second Ignore, differently cased, should not return an error.
	require.NoError(t, repo.Ignore(ctx, "DOTFILES"))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "dotfiles", items[0].Name)
	assert.False(t, items[0].AddedAt.IsZero())
}

func TestIgnoreRepo_Ignore_EmptyName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIgnoreRepo(db)

	err := repo.Ignore(context.Background(), "   ")
	assert.Error(t, err)
}

func TestIgnoreRepo_Unignore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIgnoreRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Ignore(ctx, "dotfiles"))
	require.NoError(t, repo.Unignore(ctx, "DotFiles"))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestIgnoreRepo_Unignore_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIgnoreRepo(db)

	err := repo.Unignore(context.Background(), "never-ignored")
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrIgnoredRepoNotFound)
}

func TestIgnoreRepo_List_OrderedByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIgnoreRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Ignore(ctx, "charlie"))
	require.NoError(t, repo.Ignore(ctx, "alpha"))
	require.NoError(t, repo.Ignore(ctx, "bravo"))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "alpha", items[0].Name)
	assert.Equal(t, "bravo", items[1].Name)
	assert.Equal(t, "charlie", items[2].Name)
}
