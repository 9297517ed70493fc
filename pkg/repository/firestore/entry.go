package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const entryCollection = "entries"

// distanceField receives the cosine distance of each vector search hit
const distanceField = "vector_distance"

// entryDoc is the Firestore document representation of model.Entry.
// Embedding is stored as firestore.Vector32 so that FindNearest vector
// search works.
type entryDoc struct {
	ID          types.EntryID      `firestore:"ID"`
	Title       string             `firestore:"Title"`
	Content     string             `firestore:"Content"`
	Date        time.Time          `firestore:"Date"`
	Emotions    []string           `firestore:"Emotions"`
	Sentiment   float64            `firestore:"Sentiment"`
	Topics      []string           `firestore:"Topics"`
	KeyInsights []string           `firestore:"KeyInsights"`
	Embedding   firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt   time.Time          `firestore:"CreatedAt"`
	UpdatedAt   time.Time          `firestore:"UpdatedAt"`
}

func toEntryDoc(e *model.Entry) *entryDoc {
	doc := &entryDoc{
		ID:          e.ID,
		Title:       e.Title,
		Content:     e.Content,
		Date:        e.Date,
		Emotions:    e.Emotions,
		Sentiment:   e.Sentiment,
		Topics:      e.Topics,
		KeyInsights: e.KeyInsights,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if len(e.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(e.Embedding)
	}
	return doc
}

func fromEntryDoc(d *entryDoc) *model.Entry {
	e := &model.Entry{
		ID:          d.ID,
		Title:       d.Title,
		Content:     d.Content,
		Date:        d.Date,
		Emotions:    d.Emotions,
		Sentiment:   d.Sentiment,
		Topics:      d.Topics,
		KeyInsights: d.KeyInsights,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if len(d.Embedding) > 0 {
		e.Embedding = []float32(d.Embedding)
	}
	return e
}

func docToEntry(doc *firestore.DocumentSnapshot) (*model.Entry, error) {
	var d entryDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromEntryDoc(&d), nil
}

type entryRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEntryRepository(client *firestore.Client) *entryRepository {
	return &entryRepository{
		client: client,
	}
}

func (r *entryRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + entryCollection)
}

func (r *entryRepository) Create(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	created := *entry
	now := time.Now().UTC()
	if created.ID == "" {
		created.ID = types.NewEntryID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Date.IsZero() {
		created.Date = now
	}

	docRef := r.collection().Doc(created.ID.String())
	if _, err := docRef.Set(ctx, toEntryDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create entry", goerr.V("entryID", created.ID))
	}

	return &created, nil
}

func (r *entryRepository) Get(ctx context.Context, id types.EntryID) (*model.Entry, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get entry", goerr.V("entryID", id))
	}

	entry, err := docToEntry(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal entry", goerr.V("entryID", id))
	}

	return entry, nil
}

func (r *entryRepository) List(ctx context.Context) ([]*model.Entry, error) {
	iter := r.collection().
		OrderBy("Date", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	entries := make([]*model.Entry, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate entries")
		}

		entry, err := docToEntry(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal entry")
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *entryRepository) Update(ctx context.Context, entry *model.Entry) error {
	docRef := r.collection().Doc(entry.ID.String())

	current, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "entry not found", goerr.V("entryID", entry.ID))
		}
		return goerr.Wrap(err, "failed to get entry", goerr.V("entryID", entry.ID))
	}

	updated := *entry
	updated.UpdatedAt = time.Now().UTC()
	if created, err := current.DataAt("CreatedAt"); err == nil {
		if t, ok := created.(time.Time); ok {
			updated.CreatedAt = t
		}
	}

	if _, err := docRef.Set(ctx, toEntryDoc(&updated)); err != nil {
		return goerr.Wrap(err, "failed to update entry", goerr.V("entryID", entry.ID))
	}

	return nil
}

func (r *entryRepository) Delete(ctx context.Context, id types.EntryID) error {
	docRef := r.collection().Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "entry not found", goerr.V("entryID", id))
		}
		return goerr.Wrap(err, "failed to get entry", goerr.V("entryID", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete entry", goerr.V("entryID", id))
	}

	return nil
}

func (r *entryRepository) FindByEmbedding(ctx context.Context, embedding []float32, pool, limit int) ([]*model.EntryMatch, error) {
	if limit > pool {
		pool = limit
	}

	vq := r.collection().FindNearest(
		"Embedding",
		firestore.Vector32(embedding),
		pool,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: distanceField},
	)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	matches := make([]*model.EntryMatch, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		entry, err := docToEntry(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal entry from vector search")
		}

		// Cosine distance is in [0, 2]; similarity is 1 - distance
		score := 0.0
		if d, ok := doc.Data()[distanceField].(float64); ok {
			score = 1 - d
		}

		matches = append(matches, &model.EntryMatch{Entry: entry, Score: score})
		if len(matches) >= limit {
			break
		}
	}

	return matches, nil
}
