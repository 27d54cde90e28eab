// Package store is the index store for email documents: upsert-by-id,
// get-by-id, free-text search with exact-match filters, and keyword
// aggregations. It is the only resource shared across mailbox sessions;
// every write is an upsert keyed by the content-derived identity, so
// concurrent writes for the same identity converge.
package store

import (
	"context"
	"errors"

	"github.com/oneboxhq/onebox-backend/internal/models"
)

// Common store errors
var (
	// ErrNotFound is returned by Get when no document has the given id.
	// It is the only store error the indexing pipeline treats as
	// "proceed"; anything else aborts indexing of that one message.
	ErrNotFound = errors.New("document not found")
)

// SearchQuery describes one search or aggregation request: an optional
// free-text query matched against subject/text/from/to, plus exact
// filters. Zero-value fields are ignored.
type SearchQuery struct {
	Text    string
	Account string
	Folder  string
	Label   string
	Limit   int
}

// FilteredStats is the result of an aggregation over a filtered set.
type FilteredStats struct {
	Labels []models.Bucket `json:"labels"`
	Total  int64           `json:"total"`
}

// EmailStore defines the index store contract used by the ingestion
// pipeline and the read API.
type EmailStore interface {
	// Exists reports whether the index namespace has been provisioned.
	Exists(ctx context.Context) (bool, error)

	// Provision creates the index namespace and its schema. Safe to
	// call when the namespace already exists.
	Provision(ctx context.Context) error

	// Reset deletes every document (match-all delete-by-query). It
	// erases the cross-restart dedup memory: previously indexed
	// messages will be re-classified and re-notified on the next
	// backfill.
	Reset(ctx context.Context) error

	// Get retrieves a document by id, returning ErrNotFound when absent.
	Get(ctx context.Context, id string) (*models.Email, error)

	// Upsert writes a document under its id, overwriting any existing
	// document with the same id.
	Upsert(ctx context.Context, email *models.Email) error

	// Search returns matching documents sorted by date descending.
	Search(ctx context.Context, q SearchQuery) ([]models.Email, error)

	// Stats returns aggregation buckets by label, account and folder
	// over the whole index.
	Stats(ctx context.Context) (*models.Stats, error)

	// FilteredStats returns label buckets and a total count restricted
	// to documents matching q.
	FilteredStats(ctx context.Context, q SearchQuery) (*FilteredStats, error)

	// Folders returns the folder buckets over the whole index.
	Folders(ctx context.Context) ([]models.Bucket, error)

	// Count returns the number of documents in the index.
	Count(ctx context.Context) (int64, error)
}
