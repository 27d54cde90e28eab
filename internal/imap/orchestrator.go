package imap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oneboxhq/onebox-backend/internal/models"
	"github.com/oneboxhq/onebox-backend/internal/store"
	"golang.org/x/sync/errgroup"
)

// Orchestrator provisions the email index once at startup and runs one
// mailbox session per configured account. Sessions are independent:
// one account failing to connect never stops the others.
type Orchestrator struct {
	store      store.EmailStore
	indexer    MessageIndexer
	dialer     Dialer
	accounts   []models.Account
	freshStart bool
	folder     string
	lookback   time.Duration
	logger     *slog.Logger

	group    errgroup.Group
	sessions []*Session
}

// OrchestratorConfig holds the collaborators of an Orchestrator.
type OrchestratorConfig struct {
	Store    store.EmailStore
	Indexer  MessageIndexer
	Dialer   Dialer
	Accounts []models.Account

	// FreshStart clears the index on startup when it already exists.
	// Off by default: clearing erases the cross-restart dedup memory,
	// so every previously indexed message is re-classified and
	// re-notified on the next backfill.
	FreshStart bool

	Folder   string
	Lookback time.Duration
	Logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		store:      cfg.Store,
		indexer:    cfg.Indexer,
		dialer:     cfg.Dialer,
		accounts:   cfg.Accounts,
		freshStart: cfg.FreshStart,
		folder:     cfg.Folder,
		lookback:   cfg.Lookback,
		logger:     cfg.Logger,
	}
}

// Start provisions the index and launches one session per account.
// It does not wait for any session's backfill: sessions run until ctx
// is cancelled. Call Wait to collect session results.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.provision(ctx); err != nil {
		return err
	}

	for _, account := range o.accounts {
		session := NewSession(SessionConfig{
			Account:  account,
			Folder:   o.folder,
			Dialer:   o.dialer,
			Indexer:  o.indexer,
			Lookback: o.lookback,
			Logger:   o.logger,
		})
		o.sessions = append(o.sessions, session)

		o.group.Go(func() error {
			if err := session.Run(ctx); err != nil {
				o.log().Error("mailbox session terminated",
					slog.String("account", session.account.User),
					slog.Any("error", err))
				return err
			}
			return nil
		})
	}

	return nil
}

// Wait blocks until every session has returned and reports the first
// session error, if any.
func (o *Orchestrator) Wait() error {
	return o.group.Wait()
}

// Sessions returns the running sessions, for status inspection.
func (o *Orchestrator) Sessions() []*Session {
	return o.sessions
}

// SessionStatus describes one mailbox session for the accounts API.
type SessionStatus struct {
	Account       string `json:"account"`
	Host          string `json:"host"`
	Folder        string `json:"folder"`
	State         string `json:"state"`
	HighWaterMark uint32 `json:"high_water_mark"`
}

// Statuses reports the current state of every session.
func (o *Orchestrator) Statuses() []SessionStatus {
	statuses := make([]SessionStatus, 0, len(o.sessions))
	for _, s := range o.sessions {
		statuses = append(statuses, SessionStatus{
			Account:       s.account.User,
			Host:          s.account.Host,
			Folder:        s.folder,
			State:         s.State().String(),
			HighWaterMark: s.HighWaterMark(),
		})
	}
	return statuses
}

// provision creates the index namespace if missing; when it already
// exists and FreshStart is set, all prior documents are cleared.
func (o *Orchestrator) provision(ctx context.Context) error {
	exists, err := o.store.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check email index: %w", err)
	}

	if !exists {
		if err := o.store.Provision(ctx); err != nil {
			return err
		}
		o.log().Info("email index created")
		return nil
	}

	o.log().Info("email index already exists")

	if o.freshStart {
		if err := o.store.Reset(ctx); err != nil {
			return fmt.Errorf("failed to clear email index: %w", err)
		}
		o.log().Warn("cleared email index on startup; previously indexed messages will be re-classified and re-notified")
	}

	return nil
}

func (o *Orchestrator) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}
