package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type entryRepository struct {
	mu      sync.RWMutex
	entries map[types.EntryID]*model.Entry
	// order preserves insertion sequence so equal-score matches come
	// back in a deterministic order
	order []types.EntryID
}

func newEntryRepository() *entryRepository {
	return &entryRepository{
		entries: make(map[types.EntryID]*model.Entry),
	}
}

func copyEntry(e *model.Entry) *model.Entry {
	copied := &model.Entry{
		ID:        e.ID,
		Title:     e.Title,
		Content:   e.Content,
		Date:      e.Date,
		Sentiment: e.Sentiment,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Emotions != nil {
		copied.Emotions = append([]string{}, e.Emotions...)
	}
	if e.Topics != nil {
		copied.Topics = append([]string{}, e.Topics...)
	}
	if e.KeyInsights != nil {
		copied.KeyInsights = append([]string{}, e.KeyInsights...)
	}
	if e.Embedding != nil {
		copied.Embedding = make([]float32, len(e.Embedding))
		copy(copied.Embedding, e.Embedding)
	}
	return copied
}

func (r *entryRepository) Create(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyEntry(entry)
	if created.ID == "" {
		created.ID = types.NewEntryID()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Date.IsZero() {
		created.Date = now
	}

	if _, exists := r.entries[created.ID]; !exists {
		r.order = append(r.order, created.ID)
	}
	r.entries[created.ID] = created
	return copyEntry(created), nil
}

func (r *entryRepository) Get(ctx context.Context, id types.EntryID) (*model.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, nil
	}
	return copyEntry(entry), nil
}

func (r *entryRepository) List(ctx context.Context) ([]*model.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Entry, 0, len(r.entries))
	for _, id := range r.order {
		result = append(result, copyEntry(r.entries[id]))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})

	return result, nil
}

func (r *entryRepository) Update(ctx context.Context, entry *model.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.entries[entry.ID]
	if !exists {
		return goerr.Wrap(ErrNotFound, "entry not found", goerr.V("entryID", entry.ID))
	}

	updated := copyEntry(entry)
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.entries[entry.ID] = updated
	return nil
}

func (r *entryRepository) Delete(ctx context.Context, id types.EntryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return goerr.Wrap(ErrNotFound, "entry not found", goerr.V("entryID", id))
	}

	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *entryRepository) FindByEmbedding(ctx context.Context, embedding []float32, pool, limit int) ([]*model.EntryMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := make([]*model.EntryMatch, 0, len(r.entries))
	for _, id := range r.order {
		e := r.entries[id]
		if !e.HasEmbedding() {
			continue
		}
		candidates = append(candidates, &model.EntryMatch{
			Entry: copyEntry(e),
			Score: cosineSimilarity(embedding, e.Embedding),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if pool < len(candidates) {
		candidates = candidates[:pool]
	}
	if limit < len(candidates) {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
