package driven

import (
	"context"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

// SnapshotStore persists the caching backend's latest repository snapshot.
// Latest returns nil, nil when no snapshot has been saved yet. Save replaces
// any previous snapshot.
type SnapshotStore interface {
	Latest(ctx context.Context) (*model.RepoSnapshot, error)
	Save(ctx context.Context, snapshot model.RepoSnapshot) error
}
