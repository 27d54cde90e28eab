package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/oneboxhq/onebox-backend/internal/imap"
	"github.com/oneboxhq/onebox-backend/internal/models"
	"github.com/oneboxhq/onebox-backend/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubStatusProvider struct {
	statuses []imap.SessionStatus
}

func (s *stubStatusProvider) Statuses() []imap.SessionStatus {
	return s.statuses
}

func accountTestContext(path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAccountList_ReportsSessionStates(t *testing.T) {
	provider := &stubStatusProvider{statuses: []imap.SessionStatus{
		{Account: "alice@example.com", Host: "imap.example.com", Folder: "INBOX", State: "listening", HighWaterMark: 42},
		{Account: "bob@example.com", Host: "imap.example.com", Folder: "INBOX", State: "failed"},
	}}
	handler := NewAccountHandler(provider, new(mocks.MockEmailStore), slog.New(slog.DiscardHandler))

	c, rec := accountTestContext("/api/accounts")
	require.NoError(t, handler.List(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Data    []imap.SessionStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "listening", resp.Data[0].State)
	assert.Equal(t, "imap.example.com", resp.Data[0].Host)
	assert.Equal(t, uint32(42), resp.Data[0].HighWaterMark)
	assert.Equal(t, "failed", resp.Data[1].State)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestFolders_ReturnsBuckets(t *testing.T) {
	mockStore := new(mocks.MockEmailStore)
	mockStore.On("Folders", mock.Anything).Return([]models.Bucket{
		{Key: "INBOX", Count: 10},
		{Key: "Archive", Count: 3},
	}, nil)
	handler := NewAccountHandler(&stubStatusProvider{}, mockStore, slog.New(slog.DiscardHandler))

	c, rec := accountTestContext("/api/folders")
	require.NoError(t, handler.Folders(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "INBOX")
	assert.Contains(t, rec.Body.String(), "Archive")
	mockStore.AssertExpectations(t)
}

func TestFolders_StoreError(t *testing.T) {
	mockStore := new(mocks.MockEmailStore)
	mockStore.On("Folders", mock.Anything).Return(nil, errors.New("aggregation failed"))
	handler := NewAccountHandler(&stubStatusProvider{}, mockStore, slog.New(slog.DiscardHandler))

	c, rec := accountTestContext("/api/folders")
	require.NoError(t, handler.Folders(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
