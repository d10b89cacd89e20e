package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	t.Run("empty when unset", func(t *testing.T) {
		assert.Empty(t, CorrelationID(context.Background()))
	})

	t.Run("round-trips through context", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "abc123")
		assert.Equal(t, "abc123", CorrelationID(ctx))
	})

	t.Run("ignores values of the wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ContextKeyCorrelationID, 42)
		assert.Empty(t, CorrelationID(ctx))
	})
}

func TestNow(t *testing.T) {
	fixed := time.Date(2020, 3, 3, 0, 0, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), fixed)
	assert.Equal(t, fixed, Now(ctx))

	before := time.Now()
	got := Now(context.Background())
	assert.False(t, got.Before(before))
}
