package repository

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/okian/highlights/internal/domain/model"
)

const (
	defaultHighlightCollection  = "highlights"
	defaultPreferenceCollection = "userPreferences"
	defaultTxAttempts           = 5
)

// FirestoreStore implements Repository on Cloud Firestore.
type FirestoreStore struct {
	client      *firestore.Client
	highlights  string
	preferences string
	txAttempts  int
}

// preferenceDoc is the stored shape of a viewer's preference set.
type preferenceDoc struct {
	UserID      string                 `firestore:"userId"`
	Preferences []model.UserPreference `firestore:"preferences"`
}

// NewFirestoreStore wraps an existing client.
func NewFirestoreStore(client *firestore.Client, opts ...FirestoreOption) *FirestoreStore {
	s := &FirestoreStore{
		client:      client,
		highlights:  defaultHighlightCollection,
		preferences: defaultPreferenceCollection,
		txAttempts:  defaultTxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenFirestoreStore initializes a Firebase app from service-account JSON
// and returns a store over its Firestore client. Empty credentials use
// application default credentials.
func OpenFirestoreStore(ctx context.Context, projectID string, credentialsJSON []byte, opts ...FirestoreOption) (*FirestoreStore, error) {
	var clientOpts []option.ClientOption
	if len(credentialsJSON) > 0 {
		clientOpts = append(clientOpts, option.WithCredentialsJSON(credentialsJSON))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open firestore client: %w", err)
	}
	return NewFirestoreStore(client, opts...), nil
}

// Close closes the client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) doc(id string) *firestore.DocumentRef {
	return s.client.Collection(s.highlights).Doc(id)
}

// Get implements Store.
func (s *FirestoreStore) Get(ctx context.Context, id string) (model.EnrichedHighlight, error) {
	var h model.EnrichedHighlight
	snap, err := s.doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return h, ErrNotFound
	}
	if err != nil {
		return h, fmt.Errorf("get highlight %s: %w", id, err)
	}
	if err := snap.DataTo(&h); err != nil {
		return h, fmt.Errorf("decode highlight %s: %w", id, err)
	}
	return h, nil
}

// BatchPut implements Store.
func (s *FirestoreStore) BatchPut(ctx context.Context, hs []model.EnrichedHighlight) error {
	if err := validateBatch(hs); err != nil {
		return err
	}
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(hs))
	for _, h := range hs {
		job, err := bw.Set(s.doc(h.ID), h)
		if err != nil {
			bw.End()
			return fmt.Errorf("queue highlight %s: %w", h.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, fmt.Errorf("write highlight %s: %w", hs[i].ID, err))
		}
	}
	return errors.Join(errs...)
}

// Update implements Store inside a Firestore transaction.
func (s *FirestoreStore) Update(ctx context.Context, id string, fn func(*model.EnrichedHighlight) error) error {
	ref := s.doc(id)
	var fnErr error
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			fnErr = ErrNotFound
			return fnErr
		}
		if err != nil {
			return err
		}
		var h model.EnrichedHighlight
		if err := snap.DataTo(&h); err != nil {
			return err
		}
		if err := fn(&h); err != nil {
			fnErr = err
			return err
		}
		h.ID = id
		return tx.Set(ref, h)
	}, firestore.MaxAttempts(s.txAttempts))
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("update highlight %s: %w", id, err)
	}
	return nil
}

// Scan implements Store. Equality filters run server side; ordering and
// the limit are applied locally to avoid composite indexes.
func (s *FirestoreStore) Scan(ctx context.Context, f model.HighlightFilter) ([]model.EnrichedHighlight, error) {
	q := s.client.Collection(s.highlights).Query
	if f.SourceID != "" {
		q = q.Where("sourceId", "==", f.SourceID)
	}
	if f.ClipJobID != "" {
		q = q.Where("clip.jobId", "==", f.ClipJobID)
	}
	if f.ClipGenerated != nil {
		q = q.Where("clip.generated", "==", *f.ClipGenerated)
	}
	if f.EnrichmentComplete != nil {
		q = q.Where("enrichmentComplete", "==", *f.EnrichmentComplete)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	var out []model.EnrichedHighlight
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan highlights: %w", err)
		}
		var h model.EnrichedHighlight
		if err := snap.DataTo(&h); err != nil {
			return nil, fmt.Errorf("decode highlight %s: %w", snap.Ref.ID, err)
		}
		out = append(out, h)
	}
	sortHighlights(out)
	return applyLimit(out, f.Limit), nil
}

// Count implements Store with a server-side aggregation.
func (s *FirestoreStore) Count(ctx context.Context) (int, error) {
	res, err := s.client.Collection(s.highlights).NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count highlights: %w", err)
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count highlights: unexpected result %T", res["all"])
	}
	return int(v.GetIntegerValue()), nil
}

// Preferences implements PreferenceStore.
func (s *FirestoreStore) Preferences(ctx context.Context, userID string) ([]model.UserPreference, error) {
	snap, err := s.client.Collection(s.preferences).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return []model.UserPreference{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences for %s: %w", userID, err)
	}
	var doc preferenceDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode preferences for %s: %w", userID, err)
	}
	if doc.Preferences == nil {
		doc.Preferences = []model.UserPreference{}
	}
	return doc.Preferences, nil
}

// SetPreferences implements PreferenceStore.
func (s *FirestoreStore) SetPreferences(ctx context.Context, userID string, prefs []model.UserPreference) error {
	doc := preferenceDoc{UserID: userID, Preferences: ownPreferences(userID, prefs)}
	if _, err := s.client.Collection(s.preferences).Doc(userID).Set(ctx, doc); err != nil {
		return fmt.Errorf("set preferences for %s: %w", userID, err)
	}
	return nil
}
