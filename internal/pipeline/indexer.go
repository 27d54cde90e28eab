// Package pipeline implements the index-one-message operation: compute
// the content identity, skip already-indexed messages, classify, fire
// notifications for interesting mail, and upsert into the index store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oneboxhq/onebox-backend/internal/classifier"
	"github.com/oneboxhq/onebox-backend/internal/identity"
	"github.com/oneboxhq/onebox-backend/internal/mailparse"
	"github.com/oneboxhq/onebox-backend/internal/models"
	"github.com/oneboxhq/onebox-backend/internal/notify"
	"github.com/oneboxhq/onebox-backend/internal/store"
)

// Broadcaster pushes a freshly indexed email to live subscribers.
type Broadcaster interface {
	BroadcastEmail(email *models.Email)
}

// Indexer routes parsed messages into the index store. It is safe to
// call concurrently from multiple mailbox sessions: writes are upserts
// keyed by content identity, so duplicate in-flight work converges.
type Indexer struct {
	store      store.EmailStore
	classifier classifier.Classifier
	notifier   notify.Notifier
	hub        Broadcaster
	logger     *slog.Logger
}

// Config holds the collaborators of an Indexer. Notifier and Hub are
// optional.
type Config struct {
	Store      store.EmailStore
	Classifier classifier.Classifier
	Notifier   notify.Notifier
	Hub        Broadcaster
	Logger     *slog.Logger
}

// New creates an Indexer.
func New(cfg Config) *Indexer {
	return &Indexer{
		store:      cfg.Store,
		classifier: cfg.Classifier,
		notifier:   cfg.Notifier,
		hub:        cfg.Hub,
		logger:     cfg.Logger,
	}
}

// IndexMessage indexes one parsed message for an account and folder.
// The operation is idempotent: a message whose identity is already in
// the store returns immediately without re-classification,
// re-notification or re-upsert.
//
// The returned error covers store failures only; classification and
// notification failures are recovered internally and never block the
// upsert. Callers treat any error as per-message: log and continue.
func (ix *Indexer) IndexMessage(ctx context.Context, account, folder string, msg *mailparse.ParsedEmail) error {
	id := identity.Compute(account, msg.From, msg.Subject, msg.Date)

	_, err := ix.store.Get(ctx, id)
	if err == nil {
		// Already indexed: the cross-restart dedup guarantee.
		if ix.logger != nil {
			ix.logger.Debug("email already indexed, skipping",
				slog.String("account", account),
				slog.String("subject", msg.Subject))
		}
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to check for existing email %q: %w", msg.Subject, err)
	}

	label := ix.classifier.Classify(ctx, msg.Subject, msg.Text)

	email := &models.Email{
		ID:      id,
		Account: account,
		Folder:  folder,
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Snippet: msg.Snippet(),
		Date:    msg.Date,
		Text:    msg.Text,
		HTML:    msg.HTML,
		Label:   label,
	}

	if label == classifier.LabelInterested && ix.notifier != nil {
		// Fire-and-forget: a failed delivery is logged by the notifier
		// and does not prevent the upsert.
		_ = ix.notifier.Notify(ctx, email)
	}

	if err := ix.store.Upsert(ctx, email); err != nil {
		return fmt.Errorf("failed to index email %q: %w", msg.Subject, err)
	}

	if ix.hub != nil {
		ix.hub.BroadcastEmail(email)
	}

	if ix.logger != nil {
		ix.logger.Info("email indexed",
			slog.String("account", account),
			slog.String("subject", msg.Subject),
			slog.String("label", label))
	}
	return nil
}
