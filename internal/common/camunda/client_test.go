// internal/common/camunda/client_test.go
package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"quote-workers/internal/common/config"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(max int) *RetryConfig {
	return &RetryConfig{MaxRetries: max, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, Retryable: isRetryableZeebeError}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"i/o timeout", true},
		{"write: broken pipe", true},
		{"rpc error: code = NotFound desc = job not found", false},
		{"permission denied", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.err)))
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewTestLogger(t)

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry(5), log, "connect", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry(5), log, "connect", func(context.Context) error {
			calls++
			return errors.New("permission denied")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Contains(t, err.Error(), "connect failed")
	})

	t.Run("gives up after budget", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry(3), log, "connect", func(context.Context) error {
			calls++
			return errors.New("unavailable")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "after 3 attempts")
	})

	t.Run("nil predicate retries everything", func(t *testing.T) {
		calls := 0
		rc := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}
		_ = RetryWithBackoff(context.Background(), rc, log, "ping", func(context.Context) error {
			calls++
			return errors.New("pq: password authentication failed")
		})
		assert.Equal(t, 2, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rc := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour}
		err := RetryWithBackoff(ctx, rc, log, "connect", func(context.Context) error {
			return errors.New("unavailable")
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestClientConfigFrom(t *testing.T) {
	cc := ClientConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", UsePlaintext: true, RequestTimeout: 1500})
	assert.Equal(t, "zeebe:26500", cc.GatewayAddress)
	assert.True(t, cc.UsePlaintextConnection)
	assert.Equal(t, 1500*time.Millisecond, cc.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cc.RetryConfig)
}

func TestInstrument(t *testing.T) {
	const taskType = "instrument-test"
	called := false
	wrapped := Instrument(taskType, func(_ worker.JobClient, job entities.Job) {
		called = true
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	}, nil)

	wrapped(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Type: taskType}})

	assert.True(t, called)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}
