// Package imap ingests email from remote mailboxes: a per-account
// session performs a bounded historical backfill, then holds the
// connection open and drains new messages as the server announces them.
package imap

import (
	"context"
	"time"

	"github.com/oneboxhq/onebox-backend/internal/models"
)

// RawMessage is the protocol-level handle for one message: the
// per-connection UID and the raw RFC 822 payload. It is consumed once
// by the parser and not retained.
type RawMessage struct {
	UID  uint32
	Body []byte
}

// Mailbox is one authenticated connection to one folder of one
// account. Fetch results are fully materialized before they are
// returned, so slow downstream work never holds protocol state open.
type Mailbox interface {
	// FetchSince returns all messages received since the given time.
	FetchSince(ctx context.Context, since time.Time) ([]RawMessage, error)

	// FetchAfter returns all messages with UID strictly greater than
	// uid.
	FetchAfter(ctx context.Context, uid uint32) ([]RawMessage, error)

	// Updates signals server-pushed mailbox changes. The channel is
	// closed when the connection is lost.
	Updates() <-chan struct{}

	// Close terminates the connection.
	Close() error
}

// Dialer opens a Mailbox for an account.
type Dialer interface {
	Dial(ctx context.Context, account models.Account, folder string) (Mailbox, error)
}
