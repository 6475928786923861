package upload_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"video-service/internal/upload"
	"video-service/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxAttempts int) upload.RetryPolicy {
	return upload.RetryPolicy{
		MaxAttempts: maxAttempts,
		Base:        time.Millisecond,
		Cap:         2 * time.Millisecond,
		Retryable:   utils.IsTransient,
	}
}

func TestRetryPolicy_FirstTrySuccess(t *testing.T) {
	calls := 0
	err := fastPolicy(4).Do(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_TransientThenSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy(4).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return utils.UpstreamTransient("op", assert.AnError)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_PermanentFailsImmediately(t *testing.T) {
	calls := 0
	permanent := utils.Upstream("op", assert.AnError)
	err := fastPolicy(4).Do(context.Background(), func() error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_BudgetExhausted(t *testing.T) {
	calls := 0
	transient := utils.UpstreamTransient("op", assert.AnError)
	err := fastPolicy(4).Do(context.Background(), func() error {
		calls++
		return transient
	})
	require.ErrorIs(t, err, transient)
	assert.Equal(t, 4, calls)
}

func TestRetryPolicy_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fastPolicy(100).Do(ctx, func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return utils.UpstreamTransient("op", assert.AnError)
	})
	require.Error(t, err)
	assert.True(t, calls < 100)
	assert.True(t, errors.Is(err, context.Canceled) || utils.IsTransient(err))
}
