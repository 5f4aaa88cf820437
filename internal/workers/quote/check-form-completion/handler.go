// internal/workers/quote/check-form-completion/handler.go
package checkformcompletion

import (
	"context"
	"encoding/json"

	apperrors "quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/pricing"
	"quote-workers/internal/quote"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-form-completion"
)

type Handler struct {
	config       *Config
	service      *quote.Service
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service *quote.Service, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: apperrors.NewErrorHandler(scoped),
		logger:       scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, apperrors.NewParseError(err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	resolved, err := h.service.Resolve(ctx, input.Request)
	if err != nil {
		return nil, err
	}

	completion := resolved.Form.CheckCompletion(pricing.Values(input.Values))
	if !completion.IsCompleted {
		h.logger.Debug("form incomplete", map[string]interface{}{
			"missingFields": completion.MissingFields,
		})
		if input.FailOnIncomplete {
			return nil, apperrors.NewFormIncompleteError(completion.MissingFields)
		}
	}

	return &Output{
		IsCompleted:   completion.IsCompleted,
		MissingFields: completion.MissingFields,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	ctx := context.Background()
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		h.failJob(client, job, err)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	h.service.RecordJob(ctx, TaskType, nil)
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	ctx := context.Background()
	h.service.RecordJob(ctx, TaskType, apperrors.FromEngineError(err))
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
