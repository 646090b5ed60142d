package driven

import (
	"context"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

// BackendFeed is the primary source of the feed resolver: the operator's
// caching backend. Implementations return an error for transport failures,
// non-OK statuses, payloads that do not match the envelope schema, and
// success=false answers. Entries that fail their own schema are dropped.
type BackendFeed interface {
	FetchRepos(ctx context.Context) (*model.BackendPayload, error)
}
