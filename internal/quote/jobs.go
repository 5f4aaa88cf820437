// internal/quote/jobs.go
package quote

import (
	"context"

	apperrors "quote-workers/internal/common/errors"
	"quote-workers/internal/common/metrics"
)

// RecordJob counts a finished worker job; failed is nil on success.
func (s *Service) RecordJob(ctx context.Context, taskType string, failed *apperrors.StandardError) {
	if failed == nil {
		metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		s.obs.RecordJobProcessed(ctx, taskType, "completed")
		return
	}
	metrics.WorkerJobsFailed.WithLabelValues(taskType, string(failed.Code)).Inc()
	s.obs.RecordJobProcessed(ctx, taskType, "failed")
}
