package viewers

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected errorClass
	}{
		{"no errors", `{"items":[]}`, errNone},
		{"empty errors", `{"error":{"errors":[]}}`, errNone},
		{"quota", `{"error":{"code":403,"errors":[{"reason":"quotaExceeded"}]}}`, errQuotaExceeded},
		{"daily limit", `{"error":{"errors":[{"reason":"dailyLimitExceeded"}]}}`, errQuotaExceeded},
		{"rate limit", `{"error":{"errors":[{"reason":"rateLimitExceeded"}]}}`, errRateLimited},
		{"key invalid", `{"error":{"code":400,"errors":[{"reason":"keyInvalid"}]}}`, errKeyInvalid},
		{"forbidden", `{"error":{"errors":[{"reason":"forbidden"}]}}`, errForbidden},
		{"not found", `{"error":{"errors":[{"reason":"videoNotFound"}]}}`, errNotFound},
		{"backend", `{"error":{"errors":[{"reason":"backendError"}]}}`, errBackend},
		{"first known reason wins", `{"error":{"errors":[{"reason":"weird"},{"reason":"keyExpired"}]}}`, errKeyInvalid},
		{"unknown reason", `{"error":{"errors":[{"reason":"weird"}]}}`, errNone},
		{"invalid json", `{invalid`, errNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifyError([]byte(tt.body))
			if result != tt.expected {
				t.Fatalf("classifyError(%s) = %d, want %d", tt.body, result, tt.expected)
			}
		})
	}
}

func TestErrorReason(t *testing.T) {
	assert.Equal(t, "quota", errorReason(fmt.Errorf("poll: %w", ErrQuotaExceeded)))
	assert.Equal(t, "not_found", errorReason(errNotFound.err()))
	assert.Equal(t, "other", errorReason(fmt.Errorf("boom")))
	assert.Nil(t, errBackend.err())
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(120*time.Second), parseRetryAfter("120", now))
	assert.Equal(t, time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC),
		parseRetryAfter("Sun, 10 Mar 2024 13:00:00 GMT", now))
	assert.Equal(t, now.Add(15*time.Minute), parseRetryAfter("", now))
	assert.Equal(t, now.Add(15*time.Minute), parseRetryAfter("not-a-number", now))
}
