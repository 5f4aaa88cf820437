// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_ExportsToRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New("quote-workers-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "calculate-quote-price", "completed")
	obs.RecordJobDuration(ctx, "calculate-quote-price", 12*time.Millisecond)
	obs.RecordQuotePrice(ctx, "USD", 250)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "jobs_processed")
	assert.Contains(t, joined, "jobs_duration")
	assert.Contains(t, joined, "quotes_price")
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	obs.RecordJobProcessed(context.Background(), "x", "failed")
	obs.RecordQuotePrice(context.Background(), "USD", 1)
	assert.NoError(t, obs.Shutdown(context.Background()))
}
