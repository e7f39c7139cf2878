package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(ctx context.Context, req recipe.Request) (*recipe.Result, error) {
	if req.Source == "bad" {
		return nil, recipe.ErrInvalidInput
	}
	return &recipe.Result{Recipe: recipe.Candidate{SourceURL: req.Source}, TierChain: []recipe.Tier{recipe.TierGeneric}}, nil
}

func TestManager_Submit(t *testing.T) {
	m := NewManager(2, 4, echoHandler)
	defer m.Close()

	res, err := m.Submit(context.Background(), recipe.Request{Source: "https://example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", res.Recipe.SourceURL)
	assert.Equal(t, int64(1), m.GetQueueStatus().ProcessedCount)
}

func TestManager_Batch(t *testing.T) {
	var peak, current int32
	handler := func(ctx context.Context, req recipe.Request) (*recipe.Result, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return echoHandler(ctx, req)
	}
	m := NewManager(2, 10, handler)
	defer m.Close()

	reqs := make([]recipe.Request, 6)
	for i := range reqs {
		reqs[i] = recipe.Request{Source: fmt.Sprintf("https://example.com/%d", i)}
	}
	reqs[3].Source = "bad"

	out := m.Batch(context.Background(), reqs)
	require.Len(t, out, 6)
	for i, o := range out {
		if i == 3 {
			assert.ErrorIs(t, o.Err, recipe.ErrInvalidInput)
			continue
		}
		require.NoError(t, o.Err)
		assert.Equal(t, reqs[i].Source, o.Result.Recipe.SourceURL)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestManager_QueueFull(t *testing.T) {
	release := make(chan struct{})
	handler := func(ctx context.Context, req recipe.Request) (*recipe.Result, error) {
		<-release
		return &recipe.Result{}, nil
	}
	m := NewManager(1, 1, handler)
	defer m.Close()
	defer close(release)

	_, err := m.Enqueue(context.Background(), recipe.Request{Source: "1"})
	require.NoError(t, err)
	// 等待 worker 取走第一個請求
	require.Eventually(t, func() bool { return m.GetQueueStatus().Active == 1 }, time.Second, time.Millisecond)

	_, err = m.Enqueue(context.Background(), recipe.Request{Source: "2"})
	require.NoError(t, err)
	_, err = m.Enqueue(context.Background(), recipe.Request{Source: "3"})
	assert.True(t, errors.Is(err, common.ErrQueueFull))
}

func TestManager_CancelledWhileWaiting(t *testing.T) {
	m := NewManager(1, 2, func(ctx context.Context, req recipe.Request) (*recipe.Result, error) {
		<-ctx.Done()
		return nil, recipe.ErrCancelled
	})
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := m.Submit(ctx, recipe.Request{Source: "x"})
	assert.ErrorIs(t, err, recipe.ErrCancelled)
}

func TestManager_Closed(t *testing.T) {
	m := NewManager(1, 1, echoHandler)
	m.Close()
	m.Close()
	_, err := m.Enqueue(context.Background(), recipe.Request{Source: "x"})
	assert.ErrorIs(t, err, ErrClosed)
}
