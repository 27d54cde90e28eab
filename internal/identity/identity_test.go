package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestCompute_Deterministic tests that identical inputs produce identical tokens
func TestCompute_Deterministic(t *testing.T) {
	date := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	a := Compute("user@example.com", "sender@test.com", "Hello", date)
	b := Compute("user@example.com", "sender@test.com", "Hello", date)

	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

// TestCompute_DiffersByField tests that changing any input changes the token
func TestCompute_DiffersByField(t *testing.T) {
	date := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	base := Compute("user@example.com", "sender@test.com", "Hello", date)

	assert.NotEqual(t, base, Compute("other@example.com", "sender@test.com", "Hello", date))
	assert.NotEqual(t, base, Compute("user@example.com", "other@test.com", "Hello", date))
	assert.NotEqual(t, base, Compute("user@example.com", "sender@test.com", "Bye", date))
	assert.NotEqual(t, base, Compute("user@example.com", "sender@test.com", "Hello", date.Add(time.Second)))
}

// TestCompute_TimezoneNormalized tests that the same instant in different
// zones produces the same token
func TestCompute_TimezoneNormalized(t *testing.T) {
	utc := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	east := utc.In(time.FixedZone("UTC+7", 7*3600))

	assert.Equal(t,
		Compute("user@example.com", "sender@test.com", "Hello", utc),
		Compute("user@example.com", "sender@test.com", "Hello", east),
	)
}

// TestCompute_EmptyFields tests the canonical empty-field convention:
// messages missing a subject do not collide with messages whose subject
// happens to be some placeholder text
func TestCompute_EmptyFields(t *testing.T) {
	date := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	missing := Compute("user@example.com", "sender@test.com", "", date)
	placeholder := Compute("user@example.com", "sender@test.com", "(no subject)", date)

	assert.NotEqual(t, missing, placeholder)

	// Two messages both missing a subject at the same instant collide by
	// design; the parser's date fallback keeps real traffic apart.
	assert.Equal(t, missing, Compute("user@example.com", "sender@test.com", "", date))
}
