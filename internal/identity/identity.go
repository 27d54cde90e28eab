// Package identity derives the stable dedup token for an email.
//
// The token is an MD5 digest over (account, from, subject, date) and is
// independent of IMAP UIDs, which are only meaningful within a single
// connection. Two fetches of the same logical message, in the same
// process or across restarts, always produce the same token.
//
// Canonical empty-field convention: a missing From or Subject hashes as
// the empty string. The date component is always present because the
// parser substitutes the receive time when the header is absent, so
// field-less messages from the same sender still differ by timestamp.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Compute returns the dedup token for a message. It is a pure function:
// identical inputs always yield the identical token.
func Compute(account, from, subject string, date time.Time) string {
	var b strings.Builder
	b.WriteString(account)
	b.WriteByte('|')
	b.WriteString(from)
	b.WriteByte('|')
	b.WriteString(subject)
	b.WriteByte('|')
	b.WriteString(date.UTC().Format(time.RFC3339))

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
