package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/oneboxhq/onebox-backend/internal/models"
	"github.com/oneboxhq/onebox-backend/internal/store"
)

// MemoryStore is a stateful in-memory store.EmailStore for tests that
// care about dedup behavior across multiple pipeline calls. It records
// upsert counts per id so tests can assert at-most-once indexing.
type MemoryStore struct {
	mu          sync.Mutex
	provisioned bool
	docs        map[string]models.Email

	// UpsertCalls counts Upsert invocations per document id.
	UpsertCalls map[string]int

	// ResetCalls counts Reset invocations.
	ResetCalls int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:        make(map[string]models.Email),
		UpsertCalls: make(map[string]int),
	}
}

// Exists reports whether Provision has been called.
func (s *MemoryStore) Exists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provisioned, nil
}

// Provision marks the store as provisioned.
func (s *MemoryStore) Provision(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provisioned = true
	return nil
}

// Reset removes every document.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]models.Email)
	s.ResetCalls++
	return nil
}

// Get retrieves a document by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &doc, nil
}

// Upsert writes a document under its id.
func (s *MemoryStore) Upsert(ctx context.Context, email *models.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[email.ID] = *email
	s.UpsertCalls[email.ID]++
	return nil
}

// Search returns matching documents, newest first.
func (s *MemoryStore) Search(ctx context.Context, q store.SearchQuery) ([]models.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Email
	for _, doc := range s.docs {
		if q.Account != "" && doc.Account != q.Account {
			continue
		}
		if q.Folder != "" && doc.Folder != q.Folder {
			continue
		}
		if q.Label != "" && doc.Label != q.Label {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Stats returns aggregation buckets.
func (s *MemoryStore) Stats(ctx context.Context) (*models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &models.Stats{
		Labels:   bucketize(s.docs, func(e models.Email) string { return e.Label }),
		Accounts: bucketize(s.docs, func(e models.Email) string { return e.Account }),
		Folders:  bucketize(s.docs, func(e models.Email) string { return e.Folder }),
	}, nil
}

// FilteredStats returns label buckets for documents matching q.
func (s *MemoryStore) FilteredStats(ctx context.Context, q store.SearchQuery) (*store.FilteredStats, error) {
	matches, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Email, len(matches))
	for _, doc := range matches {
		byID[doc.ID] = doc
	}
	return &store.FilteredStats{
		Labels: bucketize(byID, func(e models.Email) string { return e.Label }),
		Total:  int64(len(matches)),
	}, nil
}

// Folders returns folder buckets.
func (s *MemoryStore) Folders(ctx context.Context) ([]models.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bucketize(s.docs, func(e models.Email) string { return e.Folder }), nil
}

// Count returns the number of documents.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.docs)), nil
}

func bucketize(docs map[string]models.Email, key func(models.Email) string) []models.Bucket {
	counts := make(map[string]int64)
	for _, doc := range docs {
		counts[key(doc)]++
	}

	buckets := make([]models.Bucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, models.Bucket{Key: k, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Count > buckets[j].Count })
	return buckets
}
