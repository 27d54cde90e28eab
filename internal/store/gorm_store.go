package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oneboxhq/onebox-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSearchLimit caps result sets when the caller does not set one.
const DefaultSearchLimit = 50

// gormStore implements EmailStore using GORM
type gormStore struct {
	db *gorm.DB
}

// New creates an EmailStore backed by the given database handle.
func New(db *gorm.DB) EmailStore {
	return &gormStore{db: db}
}

// Exists reports whether the emails table has been created.
func (s *gormStore) Exists(ctx context.Context) (bool, error) {
	return s.db.WithContext(ctx).Migrator().HasTable(&models.Email{}), nil
}

// Provision creates the emails table and its indexes.
func (s *gormStore) Provision(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.Email{}); err != nil {
		return fmt.Errorf("failed to provision email index: %w", err)
	}
	return nil
}

// Reset deletes all documents from the index.
func (s *gormStore) Reset(ctx context.Context) error {
	result := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Email{})
	if result.Error != nil {
		return fmt.Errorf("failed to reset email index: %w", result.Error)
	}
	return nil
}

// Get retrieves a document by its identity token.
func (s *gormStore) Get(ctx context.Context, id string) (*models.Email, error) {
	var email models.Email
	result := s.db.WithContext(ctx).First(&email, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get email by id: %w", result.Error)
	}
	return &email, nil
}

// Upsert writes a document under its identity token, overwriting any
// prior document with the same token.
func (s *gormStore) Upsert(ctx context.Context, email *models.Email) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(email)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert email: %w", result.Error)
	}
	return nil
}

// Search returns documents matching the query, newest first.
func (s *gormStore) Search(ctx context.Context, q SearchQuery) ([]models.Email, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var emails []models.Email
	result := s.query(ctx, q).Order("date DESC").Limit(limit).Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to search emails: %w", result.Error)
	}
	return emails, nil
}

// Stats returns label/account/folder buckets over the whole index.
func (s *gormStore) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}

	for _, agg := range []struct {
		column string
		dest   *[]models.Bucket
	}{
		{"label", &stats.Labels},
		{"account", &stats.Accounts},
		{"folder", &stats.Folders},
	} {
		buckets, err := s.aggregate(ctx, s.db.WithContext(ctx).Model(&models.Email{}), agg.column)
		if err != nil {
			return nil, err
		}
		*agg.dest = buckets
	}

	return stats, nil
}

// FilteredStats returns label buckets and the total count for the
// documents matching q.
func (s *gormStore) FilteredStats(ctx context.Context, q SearchQuery) (*FilteredStats, error) {
	labels, err := s.aggregate(ctx, s.query(ctx, q), "label")
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.query(ctx, q).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count filtered emails: %w", err)
	}

	return &FilteredStats{Labels: labels, Total: total}, nil
}

// Folders returns the folder buckets over the whole index.
func (s *gormStore) Folders(ctx context.Context) ([]models.Bucket, error) {
	return s.aggregate(ctx, s.db.WithContext(ctx).Model(&models.Email{}), "folder")
}

// Count returns the total number of documents in the index.
func (s *gormStore) Count(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&models.Email{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count emails: %w", result.Error)
	}
	return count, nil
}

// query builds the base query for q: free text across subject, text,
// from and to, combined with exact-match filters.
func (s *gormStore) query(ctx context.Context, q SearchQuery) *gorm.DB {
	db := s.db.WithContext(ctx).Model(&models.Email{})

	if q.Text != "" && q.Text != "*" {
		// Case-insensitive match on both SQLite and Postgres.
		pattern := "%" + strings.ToLower(q.Text) + "%"
		db = db.Where(
			"LOWER(subject) LIKE ? OR LOWER(text) LIKE ? OR LOWER(from_addr) LIKE ? OR LOWER(to_addr) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if q.Account != "" {
		db = db.Where("account = ?", q.Account)
	}
	if q.Folder != "" {
		db = db.Where("folder = ?", q.Folder)
	}
	if q.Label != "" {
		db = db.Where("label = ?", q.Label)
	}

	return db
}

// aggregate runs a terms aggregation over one keyword column.
func (s *gormStore) aggregate(ctx context.Context, db *gorm.DB, column string) ([]models.Bucket, error) {
	var buckets []models.Bucket
	result := db.
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Scan(&buckets)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to aggregate by %s: %w", column, result.Error)
	}
	return buckets, nil
}
