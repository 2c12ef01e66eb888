package invoker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"telemed-portal/internal/apperr"
)

func testInvoker() *Invoker {
	return New(zap.NewNop()).WithBaseWait(time.Millisecond)
}

func TestInvokeSucceedsFirstAttempt(t *testing.T) {
	iv := testInvoker()
	calls := 0
	err := iv.Invoke(context.Background(), "save-draft", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

// Repeated server failures get exactly three total attempts before the
// classified error surfaces.
func TestInvokeRetriesServerErrors(t *testing.T) {
	iv := testInvoker()
	calls := 0
	err := iv.Invoke(context.Background(), "generate-preview", func(ctx context.Context) error {
		calls++
		return apperr.FromStatus(500, "boom")
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Server))
	assert.Equal(t, 3, calls)
}

func TestInvokeRetriesNetworkErrors(t *testing.T) {
	iv := testInvoker()
	calls := 0
	err := iv.Invoke(context.Background(), "save-draft", func(ctx context.Context) error {
		calls++
		return apperr.New(apperr.Network, "connection refused")
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Network))
	assert.Equal(t, 3, calls)
}

func TestInvokeRecoversMidway(t *testing.T) {
	iv := testInvoker()
	calls := 0
	err := iv.Invoke(context.Background(), "generate-preview", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperr.FromStatus(500, "transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

// Client-class failures are terminal: zero retries.
func TestInvokeDoesNotRetryClientErrors(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404} {
		iv := testInvoker()
		calls := 0
		err := iv.Invoke(context.Background(), "sign-and-send", func(ctx context.Context) error {
			calls++
			return apperr.FromStatus(status, "rejected")
		})
		require.Error(t, err, "status %d", status)
		assert.Equal(t, 1, calls, "status %d", status)
	}
}

func TestInvokeBackoffIsLinear(t *testing.T) {
	iv := New(zap.NewNop()).WithBaseWait(20 * time.Millisecond)
	start := time.Now()
	_ = iv.Invoke(context.Background(), "save-draft", func(ctx context.Context) error {
		return apperr.FromStatus(500, "boom")
	})
	elapsed := time.Since(start)
	// Two waits: 1*base + 2*base = 60ms.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestInvokeInFlightGuard(t *testing.T) {
	iv := testInvoker()
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = iv.Invoke(context.Background(), "sign-and-send:C1", func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	err := iv.Invoke(context.Background(), "sign-and-send:C1", func(ctx context.Context) error {
		t.Error("duplicate command must not reach the remote")
		return nil
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Contains(t, err.Error(), "already in progress")

	// A different command name is independent.
	otherErr := iv.Invoke(context.Background(), "sign-and-send:C2", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, otherErr)

	close(release)
	wg.Wait()

	// Once the first invocation finishes the name is free again.
	assert.NoError(t, iv.Invoke(context.Background(), "sign-and-send:C1", func(ctx context.Context) error {
		return nil
	}))
}

func TestInvokeStopsWhenContextCancelled(t *testing.T) {
	iv := New(zap.NewNop()).WithBaseWait(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := iv.Invoke(ctx, "save-draft", func(ctx context.Context) error {
		calls++
		return apperr.FromStatus(500, "boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "no further attempts after cancellation")
}
