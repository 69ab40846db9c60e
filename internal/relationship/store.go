package relationship

import (
	"context"

	"github.com/mroshb/moodgram/internal/models"
)

// Store runs fn inside one atomic transaction. Either every write fn makes
// commits or none does. When a concurrent transaction invalidated what fn
// read, the store returns an error with code CONFLICT and the caller may
// retry with fresh reads.
type Store interface {
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transaction handle. All reads must happen before the first write.
type Tx interface {
	// GetEdges returns one entry per key, nil where no edge document exists.
	GetEdges(ctx context.Context, keys ...models.EdgeKey) ([]*models.Relationship, error)
	// PutEdge writes the full edge document.
	PutEdge(ctx context.Context, edge *models.Relationship) error
	// IncrementCounters adds delta to the user's counters, treating absent
	// fields as zero.
	IncrementCounters(ctx context.Context, userID string, delta models.Counters) error
}
