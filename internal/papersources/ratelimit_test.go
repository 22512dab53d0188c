package papersources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows burst then denies", func(t *testing.T) {
		rl := NewRateLimiter(1, 3)
		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow(), "request %d within burst", i+1)
		}
		assert.False(t, rl.Allow())
	})

	t.Run("wait returns when token available", func(t *testing.T) {
		rl := NewRateLimiter(100, 1)
		require.NoError(t, rl.Wait(context.Background()))
		require.NoError(t, rl.Wait(context.Background()))
	})

	t.Run("wait honours cancelled context", func(t *testing.T) {
		rl := NewRateLimiter(0.001, 1)
		require.True(t, rl.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.Error(t, rl.Wait(ctx))
	})

	t.Run("tokens reflect consumption", func(t *testing.T) {
		rl := NewRateLimiter(0.001, 2)
		assert.InDelta(t, 2.0, rl.Tokens(), 0.01)
		rl.Allow()
		assert.InDelta(t, 1.0, rl.Tokens(), 0.01)
	})
}
