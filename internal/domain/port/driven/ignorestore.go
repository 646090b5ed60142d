package driven

import (
	"context"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

// IgnoreStore defines the driven port for managing the repository ignore list.
// Ignore is idempotent. Unignore returns ErrIgnoredRepoNotFound if the name is
// not on the list. Names are matched case-insensitively.
type IgnoreStore interface {
	Ignore(ctx context.Context, name string) error
	Unignore(ctx context.Context, name string) error
	List(ctx context.Context) ([]model.IgnoredRepo, error)
	Names(ctx context.Context) (map[string]struct{}, error)
}
