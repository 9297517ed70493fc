package interfaces

import (
	"context"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
)

// EntryRepository defines the interface for journal entry persistence
type EntryRepository interface {
	// Create persists a new entry
	Create(ctx context.Context, entry *model.Entry) (*model.Entry, error)

	// Get retrieves an entry by ID. Returns (nil, nil) when the entry
	// does not exist.
	Get(ctx context.Context, id types.EntryID) (*model.Entry, error)

	// List retrieves all entries, newest date first
	List(ctx context.Context) ([]*model.Entry, error)

	// Update overwrites an existing entry
	Update(ctx context.Context, entry *model.Entry) error

	// Delete removes an entry by ID
	Delete(ctx context.Context, id types.EntryID) error

	// FindByEmbedding performs vector similarity search using cosine
	// distance. Up to pool candidates are considered and at most limit
	// matches are returned, ordered by descending score. Entries without
	// an embedding are excluded. Score ties keep the index's native
	// return order.
	FindByEmbedding(ctx context.Context, embedding []float32, pool, limit int) ([]*model.EntryMatch, error)
}
