// Package store is the local read cache of the client. Threads and messages
// fetched from the server are written through into a sqlite database so the
// last-seen inbox state can be rendered offline.
package store

import (
	"context"

	"github.com/ospolov/go-dm-client/models"
)

// ThreadCache persists fetched threads and messages and serves them back for
// offline reads. The cache is strictly a mirror of server responses; nothing
// in it is authoritative.
type ThreadCache interface {
	// SaveThreads upserts the given inbox snapshot. Threads already cached
	// under the same thread_id are replaced.
	SaveThreads(ctx context.Context, threads []models.Thread) error

	// Threads returns all cached threads ordered by last activity, newest
	// first. An empty cache yields an empty slice, not an error.
	Threads(ctx context.Context) ([]models.Thread, error)

	// SaveMessages upserts the given thread items.
	SaveMessages(ctx context.Context, messages []models.Message) error

	// Messages returns the cached items of one thread ordered by timestamp,
	// newest first.
	Messages(ctx context.Context, threadID string) ([]models.Message, error)
}
