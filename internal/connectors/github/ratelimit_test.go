package github

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

func TestRateLimiter(t *testing.T) {
	t.Run("creates rate limiter with defaults", func(t *testing.T) {
		rl := NewRateLimiter(0)

		require.NotNil(t, rl)
		assert.Equal(t, GitHubRateLimit, rl.Limit())
		assert.Equal(t, GitHubRateLimit, rl.Remaining())
	})

	t.Run("updates from response headers", func(t *testing.T) {
		rl := NewRateLimiter(-1)
		reset := time.Now().Add(time.Hour).Unix()

		rl.UpdateFromResponse(&http.Response{Header: http.Header{
			"X-Ratelimit-Remaining": []string{"100"},
			"X-Ratelimit-Limit":     []string{"60"},
			"X-Ratelimit-Reset":     []string{strconv.FormatInt(reset, 10)},
		}})

		assert.Equal(t, 100, rl.Remaining())
		assert.Equal(t, 60, rl.Limit())
		assert.Equal(t, reset, rl.ResetTime().Unix())
	})

	t.Run("waits for reset when quota is low", func(t *testing.T) {
		rl := NewRateLimiter(-1)
		rl.UpdateFromResponse(&http.Response{Header: http.Header{
			"X-Ratelimit-Remaining": []string{"5"},
			"X-Ratelimit-Reset":     []string{strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)},
		}})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := rl.Wait(ctx)

		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("wait respects context cancellation", func(t *testing.T) {
		rl := NewRateLimiter(0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Error(t, rl.Wait(ctx))
	})
}

func TestErrors(t *testing.T) {
	notFound := &APIError{StatusCode: http.StatusNotFound, Message: "Not Found"}
	assert.True(t, IsNotFound(notFound))
	assert.True(t, errors.Is(notFound, domain.ErrNotFound))
	assert.False(t, domain.IsTransient(notFound))

	unavailable := &APIError{StatusCode: http.StatusServiceUnavailable}
	assert.True(t, domain.IsTransient(unavailable))

	unauthorized := &APIError{StatusCode: http.StatusUnauthorized}
	assert.True(t, IsUnauthorized(unauthorized))
	assert.False(t, domain.IsTransient(unauthorized))

	limited := &RateLimitError{ResetAt: time.Unix(0, 0).UTC()}
	assert.True(t, IsRateLimited(limited))
	assert.True(t, domain.IsTransient(limited))
	assert.Contains(t, limited.Error(), "1970-01-01T00:00:00Z")
}
