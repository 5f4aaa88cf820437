// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"quote-workers/internal/common/config"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/metrics"
	"quote-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandlerFunc matches the handler signature the Zeebe job worker expects.
// Handlers complete, fail or throw on the job themselves.
type JobHandlerFunc func(client worker.JobClient, job entities.Job)

// WorkerSet opens job workers against one Zeebe client and closes them
// together on shutdown.
type WorkerSet struct {
	client zbc.Client
	obs    *observability.Observability
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkerSet(client zbc.Client, obs *observability.Observability, log logger.Logger) *WorkerSet {
	return &WorkerSet{
		client:  client,
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"component": "worker-set"}),
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType unless the worker is disabled.
// It reports whether a worker was opened.
func (s *WorkerSet) Start(taskType string, wcfg config.WorkerConfig, handler JobHandlerFunc) bool {
	if !wcfg.Enabled {
		s.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jw := s.client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, handler, s.obs))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	s.mu.Lock()
	s.workers[taskType] = jw
	s.mu.Unlock()

	s.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// Running lists the task types with an open worker.
func (s *WorkerSet) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.workers))
	for taskType := range s.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops polling and waits for in-flight jobs, or until ctx ends.
func (s *WorkerSet) Close(ctx context.Context) {
	s.mu.Lock()
	workers := s.workers
	s.workers = make(map[string]worker.JobWorker)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for taskType, jw := range workers {
			jw.Close()
			jw.AwaitClose()
			s.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("workers did not stop before shutdown deadline", map[string]interface{}{
			"error": ctx.Err().Error(),
		})
	}
}

// Instrument wraps handler with the active-jobs gauge and duration metrics.
func Instrument(taskType string, handler JobHandlerFunc, obs *observability.Observability) JobHandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		start := time.Now()
		defer func() {
			active.Dec()
			elapsed := time.Since(start)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			obs.RecordJobDuration(context.Background(), taskType, elapsed)
		}()

		handler(client, job)
	}
}
