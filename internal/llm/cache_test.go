package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls atomic.Int32
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func TestNewCachedEmbedder_Disabled(t *testing.T) {
	next := &countingEmbedder{}

	assert.Same(t, next, NewCachedEmbedder(next, 0, time.Minute))
	assert.Same(t, next, NewCachedEmbedder(next, 10, 0))
}

func TestCachedEmbedder_Embed(t *testing.T) {
	next := &countingEmbedder{}
	e := NewCachedEmbedder(next, 10, time.Minute)
	ctx := context.Background()

	first, err := e.Embed(ctx, "paris")
	require.NoError(t, err)
	first[0] = 99 // callers may mutate their copy

	second, err := e.Embed(ctx, "paris")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, second)
	assert.EqualValues(t, 1, next.calls.Load())

	_, err = e.Embed(ctx, "london")
	require.NoError(t, err)
	assert.EqualValues(t, 2, next.calls.Load())
	assert.Equal(t, 2, e.(*CachedEmbedder).Len())
	assert.Equal(t, "counting", e.ModelName())
}

func TestCachedEmbedder_ErrorsNotCached(t *testing.T) {
	next := &countingEmbedder{err: ErrEmbeddingService}
	e := NewCachedEmbedder(next, 10, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := e.Embed(context.Background(), "paris")
		assert.True(t, errors.Is(err, ErrEmbeddingService))
	}
	assert.EqualValues(t, 2, next.calls.Load())
}

func TestCachedEmbedder_Expires(t *testing.T) {
	next := &countingEmbedder{}
	e := NewCachedEmbedder(next, 10, 20*time.Millisecond)

	_, err := e.Embed(context.Background(), "paris")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = e.Embed(context.Background(), "paris")
	require.NoError(t, err)

	assert.EqualValues(t, 2, next.calls.Load())
}
