package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oneboxhq/onebox-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interestedEmail() *models.Email {
	return &models.Email{
		ID:      "abc123",
		Account: "user@example.com",
		Folder:  "INBOX",
		From:    "recruiter@corp.com",
		Subject: "Job offer",
		Date:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Label:   "Interested",
	}
}

// TestSlackNotifier_PostsMessage tests the Slack payload format
func TestSlackNotifier_PostsMessage(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL)

	err := n.Notify(context.Background(), interestedEmail())

	require.NoError(t, err)
	assert.Contains(t, received["text"], "Job offer")
	assert.Contains(t, received["text"], "recruiter@corp.com")
}

// TestSlackNotifier_DisabledWhenUnconfigured tests that an empty URL is a no-op
func TestSlackNotifier_DisabledWhenUnconfigured(t *testing.T) {
	n := NewSlackNotifier("")

	assert.NoError(t, n.Notify(context.Background(), interestedEmail()))
}

// TestWebhookNotifier_PostsDocument tests the webhook payload
func TestWebhookNotifier_PostsDocument(t *testing.T) {
	var received struct {
		EventID string       `json:"event_id"`
		Email   models.Email `json:"email"`
		Label   string       `json:"label"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL)

	err := n.Notify(context.Background(), interestedEmail())

	require.NoError(t, err)
	assert.NotEmpty(t, received.EventID)
	assert.Equal(t, "abc123", received.Email.ID)
	assert.Equal(t, "Interested", received.Label)
}

// TestNotifier_ErrorStatus tests that non-2xx responses surface as errors
func TestNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL)

	err := n.Notify(context.Background(), interestedEmail())

	assert.Error(t, err)
}

// TestFanout_ContinuesPastFailure tests that one failing sink does not
// stop delivery to the others, and the fanout itself never errors
func TestFanout_ContinuesPastFailure(t *testing.T) {
	delivered := 0
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered++
	}))
	defer okServer.Close()

	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer badServer.Close()

	f := NewFanout(nil, NewWebhookNotifier(badServer.URL), NewWebhookNotifier(okServer.URL))

	err := f.Notify(context.Background(), interestedEmail())

	assert.NoError(t, err)
	assert.Equal(t, 1, delivered)
}
