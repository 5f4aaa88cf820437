// internal/workers/infrastructure/validate-subscription/handler.go
package validatesubscription

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/metrics"
	"quote-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "validate-subscription"
)

var (
	ErrSubscriptionInvalid     = errors.New("SUBSCRIPTION_INVALID")
	ErrSubscriptionExpired     = errors.New("SUBSCRIPTION_EXPIRED")
	ErrSubscriptionCheckFailed = errors.New("SUBSCRIPTION_CHECK_FAILED")
)

const subscriptionQuery = `SELECT business_id, plan, expires_at, is_active FROM business_subscriptions WHERE business_id = $1`

// Plans that may publish quote forms.
var validPlans = map[string]bool{
	"starter": true, "growth": true, "pro": true, "enterprise": true,
}

type Handler struct {
	config       *Config
	db           *sql.DB
	redis        *redis.Client
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		redis:        redis,
		errorHandler: apperrors.NewErrorHandler(scoped),
		logger:       scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewParseError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, toStandardError(err, input.BusinessID))
		return
	}

	h.completeJob(client, job, output)
}

// Check returns nil when businessID may quote, else a *StandardError.
func (h *Handler) Check(ctx context.Context, businessID string) error {
	if _, err := h.execute(ctx, &Input{BusinessID: businessID}); err != nil {
		return toStandardError(err, businessID)
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.BusinessID == "" {
		return nil, ErrSubscriptionInvalid
	}

	cacheKey := "sub:" + input.BusinessID
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var sub models.BusinessSubscription
		if err := json.Unmarshal([]byte(val), &sub); err == nil {
			return h.checkSubscription(&sub)
		}
	}

	var (
		sub       models.BusinessSubscription
		expiresAt sql.NullString
	)
	err := h.db.QueryRowContext(ctx, subscriptionQuery, input.BusinessID).Scan(
		&sub.BusinessID, &sub.Plan, &expiresAt, &sub.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionInvalid
		}
		return nil, fmt.Errorf("%w: %v", ErrSubscriptionCheckFailed, err)
	}
	sub.ExpiresAt = expiresAt.String

	output, err := h.checkSubscription(&sub)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(sub)
	h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)

	return output, nil
}

// checkSubscription applies the active, expiry and plan rules. Cached
// entries go through it too, so a plan expiring mid-TTL stops quoting.
func (h *Handler) checkSubscription(sub *models.BusinessSubscription) (*Output, error) {
	if !sub.IsActive {
		return nil, ErrSubscriptionInvalid
	}

	if sub.ExpiresAt != "" {
		exp, parseErr := time.Parse(time.RFC3339, sub.ExpiresAt)
		if parseErr != nil {
			h.logger.Debug("failed to parse expiration date, skipping expiration check", map[string]interface{}{
				"businessId": sub.BusinessID,
				"expiresAt":  sub.ExpiresAt,
				"error":      parseErr.Error(),
			})
		} else if time.Now().After(exp) {
			return nil, ErrSubscriptionExpired
		}
	}

	if !validPlans[sub.Plan] {
		return nil, ErrSubscriptionInvalid
	}

	return &Output{IsValid: true, Plan: sub.Plan}, nil
}

func toStandardError(err error, businessID string) *apperrors.StandardError {
	details := "businessId: " + businessID
	switch {
	case errors.Is(err, ErrSubscriptionExpired):
		return apperrors.NewSubscriptionExpiredError(details)
	case errors.Is(err, ErrSubscriptionInvalid):
		return apperrors.NewSubscriptionInvalidError(details)
	case errors.Is(err, ErrSubscriptionCheckFailed):
		return apperrors.NewSubscriptionCheckFailedError(err)
	default:
		return apperrors.FromEngineError(err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
