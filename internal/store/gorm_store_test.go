package store

import (
	"context"
	"testing"
	"time"

	"github.com/oneboxhq/onebox-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStoreTestSuite is the test suite for the GORM-backed EmailStore
type GormStoreTestSuite struct {
	suite.Suite
	db    *gorm.DB
	store EmailStore
}

// SetupSuite runs once before all tests
func (s *GormStoreTestSuite) SetupSuite() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	s.db = db
	s.store = New(db)

	require.NoError(s.T(), s.store.Provision(context.Background()))
}

// TearDownSuite runs once after all tests
func (s *GormStoreTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test - clean up data
func (s *GormStoreTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM emails")
}

// TestGormStoreTestSuite runs the test suite
func TestGormStoreTestSuite(t *testing.T) {
	suite.Run(t, new(GormStoreTestSuite))
}

func (s *GormStoreTestSuite) email(id, account, from, subject, label string, date time.Time) *models.Email {
	return &models.Email{
		ID:      id,
		Account: account,
		Folder:  "INBOX",
		From:    from,
		To:      account,
		Subject: subject,
		Date:    date,
		Text:    "body of " + subject,
		Label:   label,
	}
}

// ==================== Provision / Exists Tests ====================

func (s *GormStoreTestSuite) TestExists_AfterProvision() {
	exists, err := s.store.Exists(context.Background())

	require.NoError(s.T(), err)
	assert.True(s.T(), exists)
}

func (s *GormStoreTestSuite) TestProvision_Idempotent() {
	err := s.store.Provision(context.Background())

	require.NoError(s.T(), err)
}

// ==================== Get / Upsert Tests ====================

func (s *GormStoreTestSuite) TestGet_NotFound() {
	_, err := s.store.Get(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")

	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *GormStoreTestSuite) TestUpsert_ThenGet() {
	ctx := context.Background()
	email := s.email("id-1", "user@example.com", "a@b.com", "Hello", "Interested", time.Now().UTC())

	require.NoError(s.T(), s.store.Upsert(ctx, email))

	got, err := s.store.Get(ctx, "id-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Hello", got.Subject)
	assert.Equal(s.T(), "Interested", got.Label)
}

func (s *GormStoreTestSuite) TestUpsert_SameIDIsIdempotent() {
	ctx := context.Background()
	email := s.email("id-1", "user@example.com", "a@b.com", "Hello", "Interested", time.Now().UTC())

	require.NoError(s.T(), s.store.Upsert(ctx, email))
	require.NoError(s.T(), s.store.Upsert(ctx, email))

	count, err := s.store.Count(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), count)
}

func (s *GormStoreTestSuite) TestUpsert_OverwritesExisting() {
	ctx := context.Background()
	require.NoError(s.T(), s.store.Upsert(ctx, s.email("id-1", "user@example.com", "a@b.com", "Hello", "Unknown", time.Now().UTC())))
	require.NoError(s.T(), s.store.Upsert(ctx, s.email("id-1", "user@example.com", "a@b.com", "Hello", "Interested", time.Now().UTC())))

	got, err := s.store.Get(ctx, "id-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Interested", got.Label)
}

// ==================== Reset Tests ====================

func (s *GormStoreTestSuite) TestReset_RemovesAllDocuments() {
	ctx := context.Background()
	require.NoError(s.T(), s.store.Upsert(ctx, s.email("id-1", "user@example.com", "a@b.com", "One", "Unknown", time.Now().UTC())))
	require.NoError(s.T(), s.store.Upsert(ctx, s.email("id-2", "user@example.com", "a@b.com", "Two", "Unknown", time.Now().UTC())))

	require.NoError(s.T(), s.store.Reset(ctx))

	count, err := s.store.Count(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), count)
}

// ==================== Search Tests ====================

func (s *GormStoreTestSuite) seedSearchData() {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(s.T(), s.store.Upsert(ctx, s.email("id-1", "a@example.com", "boss@corp.com", "Quarterly meeting", "Interested", base)))
	require.NoError(s.T(), s.store.Upsert(ctx, s.email("id-2", "a@example.com", "shop@deals.com", "Big discount inside", "Spam", base.Add(time.Hour))))
	require.NoError(s.T(), s.store.Upsert(ctx, s.email("id-3", "b@example.com", "boss@corp.com", "Meeting notes", "Interested", base.Add(2*time.Hour))))
}

func (s *GormStoreTestSuite) TestSearch_FreeText() {
	s.seedSearchData()

	emails, err := s.store.Search(context.Background(), SearchQuery{Text: "meeting"})

	require.NoError(s.T(), err)
	require.Len(s.T(), emails, 2)
	// Sorted by date descending
	assert.Equal(s.T(), "id-3", emails[0].ID)
	assert.Equal(s.T(), "id-1", emails[1].ID)
}

func (s *GormStoreTestSuite) TestSearch_TextMatchesFromAddress() {
	s.seedSearchData()

	emails, err := s.store.Search(context.Background(), SearchQuery{Text: "deals.com"})

	require.NoError(s.T(), err)
	require.Len(s.T(), emails, 1)
	assert.Equal(s.T(), "id-2", emails[0].ID)
}

func (s *GormStoreTestSuite) TestSearch_Filters() {
	s.seedSearchData()

	emails, err := s.store.Search(context.Background(), SearchQuery{
		Account: "a@example.com",
		Label:   "Interested",
	})

	require.NoError(s.T(), err)
	require.Len(s.T(), emails, 1)
	assert.Equal(s.T(), "id-1", emails[0].ID)
}

func (s *GormStoreTestSuite) TestSearch_WildcardMatchesAll() {
	s.seedSearchData()

	emails, err := s.store.Search(context.Background(), SearchQuery{Text: "*"})

	require.NoError(s.T(), err)
	assert.Len(s.T(), emails, 3)
}

func (s *GormStoreTestSuite) TestSearch_RespectsLimit() {
	s.seedSearchData()

	emails, err := s.store.Search(context.Background(), SearchQuery{Limit: 2})

	require.NoError(s.T(), err)
	assert.Len(s.T(), emails, 2)
}

// ==================== Aggregation Tests ====================

func (s *GormStoreTestSuite) TestStats_Buckets() {
	s.seedSearchData()

	stats, err := s.store.Stats(context.Background())

	require.NoError(s.T(), err)
	assert.Contains(s.T(), stats.Labels, models.Bucket{Key: "Interested", Count: 2})
	assert.Contains(s.T(), stats.Labels, models.Bucket{Key: "Spam", Count: 1})
	assert.Contains(s.T(), stats.Accounts, models.Bucket{Key: "a@example.com", Count: 2})
	assert.Contains(s.T(), stats.Folders, models.Bucket{Key: "INBOX", Count: 3})
}

func (s *GormStoreTestSuite) TestFilteredStats() {
	s.seedSearchData()

	stats, err := s.store.FilteredStats(context.Background(), SearchQuery{Account: "a@example.com"})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), stats.Total)
	assert.Contains(s.T(), stats.Labels, models.Bucket{Key: "Interested", Count: 1})
	assert.Contains(s.T(), stats.Labels, models.Bucket{Key: "Spam", Count: 1})
}

func (s *GormStoreTestSuite) TestFolders() {
	s.seedSearchData()

	folders, err := s.store.Folders(context.Background())

	require.NoError(s.T(), err)
	assert.Equal(s.T(), []models.Bucket{{Key: "INBOX", Count: 3}}, folders)
}
