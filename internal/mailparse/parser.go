// Package mailparse turns raw RFC 822 message bytes into the normalized
// form consumed by the indexing pipeline.
package mailparse

import (
	"fmt"
	"io"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

// snippetMaxRunes caps the snippet length, matching the snippet column
// width.
const snippetMaxRunes = 255

// ParsedEmail is a normalized email message. It is transient: built per
// message, handed to the indexing pipeline, then discarded.
type ParsedEmail struct {
	From    string
	To      string
	Subject string
	Date    time.Time
	Text    string
	HTML    string
}

// Parse reads an email from r and normalizes it. The Date falls back to
// the current time when the header is missing or unparseable, so the
// field is always set. A malformed message returns an error; callers
// skip the message and keep going.
func Parse(r io.Reader) (*ParsedEmail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	parsed := &ParsedEmail{
		From:    formatAddressList(env.GetHeader("From")),
		To:      formatAddressList(env.GetHeader("To")),
		Subject: env.GetHeader("Subject"),
		Text:    env.Text,
		HTML:    env.HTML,
	}

	parsed.Date = parseDate(env.GetHeader("Date"))

	return parsed, nil
}

// Snippet returns a short plain-text preview of the message body,
// suitable for list views and push payloads.
func (p *ParsedEmail) Snippet() string {
	text := p.Text
	if text == "" && p.HTML != "" {
		text = stripHTMLTags(p.HTML)
	}

	text = strings.Join(strings.Fields(text), " ")
	// Truncate on a rune boundary so a multi-byte character at the
	// cut never produces invalid UTF-8.
	if runes := []rune(text); len(runes) > snippetMaxRunes {
		text = string(runes[:snippetMaxRunes-3]) + "..."
	}
	return text
}

// formatAddressList renders an address header as a display string.
// Multiple addresses are joined with ", ". An unparseable header is
// passed through as-is rather than dropped.
func formatAddressList(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	addrs, err := mail.ParseAddressList(header)
	if err != nil {
		return header
	}

	parts := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", addr.Name, addr.Address))
		} else {
			parts = append(parts, addr.Address)
		}
	}
	return strings.Join(parts, ", ")
}

// parseDate parses an RFC 822 date header, substituting the current
// time when the header is absent or malformed.
func parseDate(header string) time.Time {
	header = strings.TrimSpace(header)
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// stripHTMLTags removes HTML tags from a string
func stripHTMLTags(html string) string {
	// Remove script and style elements
	re := regexp.MustCompile(`(?i)<script[^>]*>[\s\S]*?</script>|<style[^>]*>[\s\S]*?</style>`)
	html = re.ReplaceAllString(html, "")

	// Remove HTML tags
	re = regexp.MustCompile(`<[^>]*>`)
	html = re.ReplaceAllString(html, " ")

	// Decode common HTML entities
	html = strings.ReplaceAll(html, "&nbsp;", " ")
	html = strings.ReplaceAll(html, "&amp;", "&")
	html = strings.ReplaceAll(html, "&lt;", "<")
	html = strings.ReplaceAll(html, "&gt;", ">")
	html = strings.ReplaceAll(html, "&quot;", `"`)
	html = strings.ReplaceAll(html, "&#39;", "'")

	return html
}
