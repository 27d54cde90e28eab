// Package mocks provides shared test doubles for the index store,
// classifier and notification collaborators.
package mocks

import (
	"context"

	"github.com/oneboxhq/onebox-backend/internal/models"
	"github.com/oneboxhq/onebox-backend/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockEmailStore implements store.EmailStore
type MockEmailStore struct {
	mock.Mock
}

// Exists reports whether the index namespace has been provisioned
func (m *MockEmailStore) Exists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// Provision creates the index namespace
func (m *MockEmailStore) Provision(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Reset deletes every document
func (m *MockEmailStore) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Get retrieves a document by id
func (m *MockEmailStore) Get(ctx context.Context, id string) (*models.Email, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Email), args.Error(1)
}

// Upsert writes a document under its id
func (m *MockEmailStore) Upsert(ctx context.Context, email *models.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// Search returns matching documents
func (m *MockEmailStore) Search(ctx context.Context, q store.SearchQuery) ([]models.Email, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Email), args.Error(1)
}

// Stats returns aggregation buckets
func (m *MockEmailStore) Stats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

// FilteredStats returns filtered aggregation buckets
func (m *MockEmailStore) FilteredStats(ctx context.Context, q store.SearchQuery) (*store.FilteredStats, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.FilteredStats), args.Error(1)
}

// Folders returns folder buckets
func (m *MockEmailStore) Folders(ctx context.Context) ([]models.Bucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bucket), args.Error(1)
}

// Count returns the number of documents
func (m *MockEmailStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockClassifier implements classifier.Classifier
type MockClassifier struct {
	mock.Mock
}

// Classify assigns a label to an email
func (m *MockClassifier) Classify(ctx context.Context, subject, body string) string {
	args := m.Called(ctx, subject, body)
	return args.String(0)
}

// MockNotifier implements notify.Notifier
type MockNotifier struct {
	mock.Mock
}

// Notify delivers an alert about one indexed email
func (m *MockNotifier) Notify(ctx context.Context, email *models.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockBroadcaster implements pipeline.Broadcaster
type MockBroadcaster struct {
	mock.Mock
}

// BroadcastEmail pushes an indexed email to live subscribers
func (m *MockBroadcaster) BroadcastEmail(email *models.Email) {
	m.Called(email)
}
