// Package fixtures provides builders for email test data.
package fixtures

import (
	"fmt"
	"time"

	"github.com/oneboxhq/onebox-backend/internal/identity"
	"github.com/oneboxhq/onebox-backend/internal/models"
)

// EmailBuilder creates test Email documents with a fluent API
type EmailBuilder struct {
	email models.Email
}

// NewEmailBuilder creates a new EmailBuilder with sensible defaults
func NewEmailBuilder() *EmailBuilder {
	return &EmailBuilder{
		email: models.Email{
			Account: "alice@example.com",
			Folder:  "INBOX",
			From:    "sender@corp.com",
			To:      "alice@example.com",
			Subject: "Test Subject",
			Date:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			Text:    "test body",
			HTML:    "<p>test body</p>",
			Label:   "Unknown",
		},
	}
}

// WithAccount sets the owning account
func (b *EmailBuilder) WithAccount(account string) *EmailBuilder {
	b.email.Account = account
	return b
}

// WithFolder sets the source folder
func (b *EmailBuilder) WithFolder(folder string) *EmailBuilder {
	b.email.Folder = folder
	return b
}

// WithFrom sets the sender address
func (b *EmailBuilder) WithFrom(from string) *EmailBuilder {
	b.email.From = from
	return b
}

// WithSubject sets the subject
func (b *EmailBuilder) WithSubject(subject string) *EmailBuilder {
	b.email.Subject = subject
	return b
}

// WithDate sets the message date
func (b *EmailBuilder) WithDate(date time.Time) *EmailBuilder {
	b.email.Date = date
	return b
}

// WithText sets the plain text body
func (b *EmailBuilder) WithText(text string) *EmailBuilder {
	b.email.Text = text
	return b
}

// WithLabel sets the classification label
func (b *EmailBuilder) WithLabel(label string) *EmailBuilder {
	b.email.Label = label
	return b
}

// Build returns the constructed Email with its content identity as ID
func (b *EmailBuilder) Build() *models.Email {
	email := b.email
	email.ID = identity.Compute(email.Account, email.From, email.Subject, email.Date)
	return &email
}

// RawEmail renders a minimal RFC 822 message for parser and session
// tests.
func RawEmail(from, to, subject string, date time.Time, body string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from, to, subject, date.Format(time.RFC1123Z), body))
}

// RawMultipartEmail renders a multipart/alternative message with both
// text and HTML parts.
func RawMultipartEmail(from, to, subject string, date time.Time, text, html string) []byte {
	const boundary = "fixture-boundary"
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\n"+
			"MIME-Version: 1.0\r\nContent-Type: multipart/alternative; boundary=%s\r\n\r\n"+
			"--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n"+
			"--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n"+
			"--%s--\r\n",
		from, to, subject, date.Format(time.RFC1123Z),
		boundary, boundary, text, boundary, html, boundary))
}
