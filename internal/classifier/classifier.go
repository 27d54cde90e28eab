// Package classifier labels emails by calling the external
// classification service. Classification failure never blocks
// indexing: any error maps to LabelUnknown.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Labels assigned by the classification service.
const (
	// LabelInterested marks messages that trigger notification side
	// effects.
	LabelInterested = "Interested"

	// LabelUnknown is the fallback label when the classification
	// service is unreachable or returns garbage.
	LabelUnknown = "Unknown"
)

// DefaultTimeout bounds one classification request.
const DefaultTimeout = 10 * time.Second

// Classifier assigns a label to an email based on its subject and body.
type Classifier interface {
	Classify(ctx context.Context, subject, body string) string
}

// HTTPClassifier calls a prediction endpoint with {subject, body} and
// reads back {label}.
type HTTPClassifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClassifier creates a Classifier backed by the given prediction
// endpoint.
func NewHTTPClassifier(url string, logger *slog.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		url:    url,
		client: &http.Client{Timeout: DefaultTimeout},
		logger: logger,
	}
}

type predictRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type predictResponse struct {
	Label string `json:"label"`
}

// Classify posts the subject and body to the prediction endpoint.
// On any failure it logs and returns LabelUnknown; it never returns an
// error to the pipeline.
func (c *HTTPClassifier) Classify(ctx context.Context, subject, body string) string {
	payload, err := json.Marshal(predictRequest{Subject: subject, Body: body})
	if err != nil {
		c.warn(subject, err)
		return LabelUnknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		c.warn(subject, err)
		return LabelUnknown
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.warn(subject, err)
		return LabelUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.warn(subject, fmt.Errorf("unexpected status %d", resp.StatusCode))
		return LabelUnknown
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.warn(subject, err)
		return LabelUnknown
	}

	if result.Label == "" {
		return LabelUnknown
	}
	return result.Label
}

func (c *HTTPClassifier) warn(subject string, err error) {
	if c.logger != nil {
		c.logger.Warn("classification failed, using fallback label",
			slog.String("subject", subject),
			slog.Any("error", err))
	}
}
