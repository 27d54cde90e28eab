package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	applog "github.com/oneboxhq/onebox-backend/internal/logger"
	"github.com/oneboxhq/onebox-backend/internal/models"
)

const dialTimeout = 30 * time.Second

// ClientDialer opens real IMAP connections using go-imap v2.
type ClientDialer struct {
	logger *slog.Logger
	secLog *applog.SecurityLogger
}

// NewClientDialer creates a ClientDialer.
func NewClientDialer(logger *slog.Logger) *ClientDialer {
	var secLog *applog.SecurityLogger
	if logger != nil {
		secLog = applog.NewSecurityLoggerWithHandler(logger.Handler())
	} else {
		secLog = applog.NewSecurityLogger()
	}
	return &ClientDialer{logger: logger, secLog: secLog}
}

// Dial connects to the account's server, authenticates, selects the
// folder, and starts IDLE so the server can push change notifications.
// Cancelling ctx aborts the connect and login sequence.
func (d *ClientDialer) Dial(ctx context.Context, account models.Account, folder string) (Mailbox, error) {
	updates := make(chan struct{}, 1)

	options := &imapclient.Options{
		TLSConfig: &tls.Config{ServerName: account.Host},
		UnilateralDataHandler: &imapclient.UnilateralDataHandler{
			Mailbox: func(data *imapclient.UnilateralDataMailbox) {
				if data.NumMessages == nil {
					return
				}
				// Coalesce bursts: one pending signal is enough, the
				// drain query covers everything above the mark.
				select {
				case updates <- struct{}{}:
				default:
				}
			},
		},
	}

	addr := account.Addr()

	conn, err := (&net.Dialer{Timeout: dialTimeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	var client *imapclient.Client
	if account.TLS {
		tlsConn := tls.Client(conn, &tls.Config{
			ServerName: account.Host,
			NextProtos: []string{"imap"},
		})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("TLS handshake with %s: %w", addr, err)
		}
		client = imapclient.New(tlsConn, options)
	} else {
		client, err = imapclient.NewStartTLS(conn, options)
		if err != nil {
			return nil, fmt.Errorf("STARTTLS with %s: %w", addr, err)
		}
	}

	// Cancellation mid-handshake closes the connection, which fails
	// the pending login or select below.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if err := client.Login(account.User, account.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		d.secLog.AuthFailure(account.User, account.Host, err.Error())
		return nil, fmt.Errorf("authentication failed for %s: %w", account.User, err)
	}

	if _, err := client.Select(folder, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", folder, err)
	}

	m := &imapMailbox{
		client:  client,
		updates: updates,
		logger:  d.logger,
	}
	m.beginIdle()

	return m, nil
}

// imapMailbox adapts an imapclient connection to the Mailbox
// interface. IDLE is suspended around every fetch because the protocol
// allows no other command while idling, and resumed afterwards.
type imapMailbox struct {
	client  *imapclient.Client
	updates chan struct{}
	logger  *slog.Logger

	mu   sync.Mutex
	idle *imapclient.IdleCommand
}

// FetchSince returns all messages received since the given time.
func (m *imapMailbox) FetchSince(ctx context.Context, since time.Time) ([]RawMessage, error) {
	return m.fetch(ctx, &imap.SearchCriteria{Since: since})
}

// FetchAfter returns all messages with UID strictly greater than uid.
func (m *imapMailbox) FetchAfter(ctx context.Context, uid uint32) ([]RawMessage, error) {
	var set imap.UIDSet
	set.AddRange(imap.UID(uid+1), 0)
	return m.fetch(ctx, &imap.SearchCriteria{UID: []imap.UIDSet{set}})
}

// Updates signals server-pushed mailbox changes.
func (m *imapMailbox) Updates() <-chan struct{} {
	return m.updates
}

// Close stops IDLE and logs out.
func (m *imapMailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endIdleLocked()
	close(m.updates)
	return m.client.Logout().Wait()
}

// fetch runs a UID search for the criteria and materializes the full
// bodies of every hit before returning.
func (m *imapMailbox) fetch(_ context.Context, criteria *imap.SearchCriteria) ([]RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.endIdleLocked()
	defer m.beginIdleLocked()

	searchData, err := m.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := m.client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})

	var msgs []RawMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("failed to collect message data", slog.Any("error", err))
			}
			continue
		}

		body := buf.FindBodySection(bodySection)
		if body == nil {
			continue
		}
		msgs = append(msgs, RawMessage{UID: uint32(buf.UID), Body: body})
	}

	if err := fetchCmd.Close(); err != nil {
		return msgs, fmt.Errorf("fetching messages: %w", err)
	}
	return msgs, nil
}

func (m *imapMailbox) beginIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beginIdleLocked()
}

func (m *imapMailbox) beginIdleLocked() {
	if m.idle != nil {
		return
	}
	idle, err := m.client.Idle()
	if err != nil {
		if m.logger != nil {
			m.logger.Error("failed to enter IDLE", slog.Any("error", err))
		}
		return
	}
	m.idle = idle
}

func (m *imapMailbox) endIdleLocked() {
	if m.idle == nil {
		return
	}
	if err := m.idle.Close(); err == nil {
		_ = m.idle.Wait()
	}
	m.idle = nil
}
