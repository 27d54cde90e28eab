package imap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oneboxhq/onebox-backend/internal/mailparse"
	"github.com/oneboxhq/onebox-backend/internal/models"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateConnecting State = iota
	StateBackfilling
	StateListening
	StateDraining
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateBackfilling:
		return "backfilling"
	case StateListening:
		return "listening"
	case StateDraining:
		return "draining"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultLookback is the historical window scanned at session start.
const DefaultLookback = 30 * 24 * time.Hour

// MessageIndexer routes one parsed message into the index.
// *pipeline.Indexer satisfies it.
type MessageIndexer interface {
	IndexMessage(ctx context.Context, account, folder string, msg *mailparse.ParsedEmail) error
}

// Session owns the connection lifecycle for one account: connect, run
// the 30-day backfill, then listen for server pushes and drain every
// message above the high-water-mark. A failed connect is terminal for
// the session and reported to the caller; it never affects sibling
// sessions.
//
// Dedup is layered: an in-session seen-set keyed by (account, UID)
// guards against overlapping fetch results within one connection, and
// the indexer's content-identity check against the store guards across
// reconnects and restarts. Both layers are kept deliberately.
type Session struct {
	account  models.Account
	folder   string
	dialer   Dialer
	indexer  MessageIndexer
	lookback time.Duration
	logger   *slog.Logger

	state atomic.Int32

	// drainMu serializes the fetch region of overlapping drain passes.
	drainMu sync.Mutex

	// seen holds (account, UID) keys processed in this connection.
	// It grows with mailbox volume for the session's lifetime and is
	// discarded on reconnect; cross-restart dedup is the store's job.
	seen map[string]struct{}

	// lastUID is the high-water-mark: the highest UID indexed in the
	// current connection.
	lastUID uint32
}

// SessionConfig holds the collaborators of a Session.
type SessionConfig struct {
	Account  models.Account
	Folder   string
	Dialer   Dialer
	Indexer  MessageIndexer
	Lookback time.Duration
	Logger   *slog.Logger
}

// NewSession creates a Session. Folder defaults to INBOX and lookback
// to 30 days.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	return &Session{
		account:  cfg.Account,
		folder:   cfg.Folder,
		dialer:   cfg.Dialer,
		indexer:  cfg.Indexer,
		lookback: cfg.Lookback,
		logger:   cfg.Logger,
		seen:     make(map[string]struct{}),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// HighWaterMark returns the highest UID indexed in this connection.
func (s *Session) HighWaterMark() uint32 {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()
	return s.lastUID
}

// Run connects, backfills and then listens until ctx is cancelled.
// It returns nil on shutdown and an error when the connection fails;
// the session is not restarted here, that policy belongs to the
// operator.
func (s *Session) Run(ctx context.Context) error {
	s.setState(StateConnecting)

	mbox, err := s.dialer.Dial(ctx, s.account, s.folder)
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to connect account %s: %w", s.account, err)
	}
	defer mbox.Close()

	s.log().Info("connected", slog.String("folder", s.folder))

	if err := s.backfill(ctx, mbox); err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("backfill failed for account %s: %w", s.account, err)
	}

	return s.listen(ctx, mbox)
}

// backfill scans all messages within the lookback window and routes
// them through the indexer. One bad message never stops the scan. The
// high-water-mark is advanced to the maximum UID observed.
func (s *Session) backfill(ctx context.Context, mbox Mailbox) error {
	s.setState(StateBackfilling)
	since := time.Now().Add(-s.lookback)

	s.log().Info("starting backfill", slog.Time("since", since))

	msgs, err := mbox.FetchSince(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to fetch backfill window: %w", err)
	}

	indexed := 0
	var maxUID uint32
	for _, raw := range msgs {
		if raw.UID > maxUID {
			maxUID = raw.UID
		}
		if s.handleMessage(ctx, raw) {
			indexed++
		}
	}

	s.drainMu.Lock()
	if maxUID > s.lastUID {
		s.lastUID = maxUID
	}
	s.drainMu.Unlock()

	s.log().Info("backfill complete",
		slog.Int("fetched", len(msgs)),
		slog.Int("indexed", indexed),
		slog.Uint64("high_water_mark", uint64(s.lastUID)))
	return nil
}

// listen waits for server-pushed change signals and drains on each.
// The updates channel is the session's only suspension point while
// idle; notifications arriving mid-drain coalesce into the next pass
// because the drain query is always "above the high-water-mark".
func (s *Session) listen(ctx context.Context, mbox Mailbox) error {
	for {
		s.setState(StateListening)

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-mbox.Updates():
			if !ok {
				s.setState(StateFailed)
				return fmt.Errorf("connection lost for account %s", s.account)
			}
			s.drain(ctx, mbox)
		}
	}
}

// drain fetches everything above the high-water-mark and indexes it.
// A fetch failure abandons the pass; the next notification retries.
func (s *Session) drain(ctx context.Context, mbox Mailbox) {
	s.setState(StateDraining)
	defer s.setState(StateListening)

	msgs, err := s.fetchAboveMark(ctx, mbox)
	if err != nil {
		s.log().Error("drain fetch failed, will retry on next notification", slog.Any("error", err))
		return
	}
	if len(msgs) == 0 {
		return
	}

	s.log().Info("draining new messages", slog.Int("count", len(msgs)))

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].UID < msgs[j].UID })

	// The mark advances contiguously: it stops at the first failed
	// message so that message is offered again on the next pass, while
	// later messages in the batch are still indexed now.
	stalled := false
	for _, raw := range msgs {
		if raw.UID <= s.HighWaterMark() {
			continue
		}
		if !s.handleMessage(ctx, raw) {
			stalled = true
			continue
		}
		if !stalled {
			s.advanceMark(raw.UID)
		}
	}
}

// fetchAboveMark materializes the result set for "UID greater than the
// high-water-mark" while holding the drain lock, so that overlapping
// passes never race on the fetch region. The lock is released before
// the slower parse/classify/index work runs.
func (s *Session) fetchAboveMark(ctx context.Context, mbox Mailbox) ([]RawMessage, error) {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()
	return mbox.FetchAfter(ctx, s.lastUID)
}

func (s *Session) advanceMark(uid uint32) {
	s.drainMu.Lock()
	if uid > s.lastUID {
		s.lastUID = uid
	}
	s.drainMu.Unlock()
}

// handleMessage parses and indexes one raw message. It reports whether
// the message was handed to the indexer successfully (or had already
// been processed in this connection). Failures are logged per message
// and never abort the surrounding loop; a failed message is not marked
// seen, so it is retried when offered again.
func (s *Session) handleMessage(ctx context.Context, raw RawMessage) bool {
	key := s.seenKey(raw.UID)
	if s.isSeen(raw.UID) {
		s.log().Debug("skipping duplicate message", slog.Uint64("uid", uint64(raw.UID)))
		return true
	}

	parsed, err := mailparse.Parse(bytes.NewReader(raw.Body))
	if err != nil {
		s.log().Warn("failed to parse message, skipping",
			slog.Uint64("uid", uint64(raw.UID)),
			slog.Any("error", err))
		return false
	}

	if err := s.indexer.IndexMessage(ctx, s.account.User, s.folder, parsed); err != nil {
		s.log().Error("failed to index message",
			slog.Uint64("uid", uint64(raw.UID)),
			slog.String("subject", parsed.Subject),
			slog.Any("error", err))
		return false
	}

	s.markSeen(key)
	return true
}

func (s *Session) seenKey(uid uint32) string {
	return fmt.Sprintf("%s-%d", s.account.User, uid)
}

func (s *Session) isSeen(uid uint32) bool {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()
	_, ok := s.seen[s.seenKey(uid)]
	return ok
}

func (s *Session) markSeen(key string) {
	s.drainMu.Lock()
	s.seen[key] = struct{}{}
	s.drainMu.Unlock()
}

func (s *Session) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger.With(slog.String("account", s.account.User))
}
