// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	apperrors "quote-workers/internal/common/errors"
	vs "quote-workers/internal/workers/infrastructure/validate-subscription"
	cqp "quote-workers/internal/workers/quote/calculate-quote-price"
	cfc "quote-workers/internal/workers/quote/check-form-completion"
	rfv "quote-workers/internal/workers/quote/resolve-field-visibility"
)

const Version = "1.0.0"

var formInputs = []string{"businessId", "serviceId", "fields", "formula", "values"}

// Builtin is the catalogue of job types this module serves.
func Builtin() *TaskRegistry {
	reg := &TaskRegistry{
		Version: Version,
		Tasks: []Task{
			{
				ID:              vs.TaskType,
				DisplayName:     "Validate Subscription",
				Description:     "Checks the business has an active plan before quoting",
				Category:        "infrastructure",
				TaskType:        vs.TaskType,
				InputVariables:  []string{"businessId"},
				OutputVariables: []string{"isValid", "plan"},
				ErrorCodes:      codes(apperrors.ErrCodeSubscriptionInvalid, apperrors.ErrCodeSubscriptionExpired, apperrors.ErrCodeSubscriptionCheckFailed),
			},
			{
				ID:              rfv.TaskType,
				DisplayName:     "Resolve Field Visibility",
				Description:     "Works out which quote form fields are shown and resets hidden answers",
				Category:        "quote",
				TaskType:        rfv.TaskType,
				InputVariables:  formInputs,
				OutputVariables: []string{"visibleFieldIds", "hiddenFieldIds", "values", "ruleWarnings"},
				ErrorCodes:      codes(apperrors.ErrCodeFormDefinitionInvalid, apperrors.ErrCodeFormNotFound, apperrors.ErrCodeFormLoadFailed),
			},
			{
				ID:              cfc.TaskType,
				DisplayName:     "Check Form Completion",
				Description:     "Lists visible fields the customer has not answered",
				Category:        "quote",
				TaskType:        cfc.TaskType,
				InputVariables:  append(append([]string{}, formInputs...), "failOnIncomplete"),
				OutputVariables: []string{"isCompleted", "missingFields"},
				ErrorCodes:      codes(apperrors.ErrCodeFormIncomplete, apperrors.ErrCodeFormDefinitionInvalid, apperrors.ErrCodeFormNotFound, apperrors.ErrCodeFormLoadFailed),
			},
			{
				ID:              cqp.TaskType,
				DisplayName:     "Calculate Quote Price",
				Description:     "Evaluates the merchant's pricing formula for a completed form",
				Category:        "quote",
				TaskType:        cqp.TaskType,
				InputVariables:  formInputs,
				OutputVariables: []string{"quoteId", "price", "currency", "businessId", "serviceId", "calculatedAt"},
				ErrorCodes:      codes(apperrors.ErrCodeCalculationFailed, apperrors.ErrCodeFormIncomplete, apperrors.ErrCodeFormDefinitionInvalid, apperrors.ErrCodeFormNotFound, apperrors.ErrCodeFormLoadFailed),
			},
		},
	}
	for i := range reg.Tasks {
		reg.Tasks[i].Retries = retryBudget(reg.Tasks[i].ErrorCodes)
	}
	return reg
}

func codes(cs ...apperrors.ErrorCode) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

// retryBudget is the largest retry count any of the task's errors gets.
func retryBudget(errorCodes []string) int {
	budget := 0
	for _, c := range errorCodes {
		if n := apperrors.GetRetryCount(apperrors.ErrorCode(c)); n > budget {
			budget = n
		}
	}
	return budget
}

func LoadRegistry(path string) (*TaskRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TaskRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Find returns the task for taskType.
func (r *TaskRegistry) Find(taskType string) (*Task, bool) {
	for i := range r.Tasks {
		if r.Tasks[i].TaskType == taskType {
			return &r.Tasks[i], true
		}
	}
	return nil, false
}

// Validate checks ids are unique and every error code is one the workers
// can actually throw.
func (r *TaskRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Tasks))
	for _, t := range r.Tasks {
		if t.ID == "" || t.TaskType == "" {
			return fmt.Errorf("task %q: id and taskType are required", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate task id %q", t.ID)
		}
		seen[t.ID] = true
		for _, c := range t.ErrorCodes {
			if _, ok := apperrors.BPMNErrorMapping[apperrors.ErrorCode(c)]; !ok {
				return fmt.Errorf("task %q: unknown error code %q", t.ID, c)
			}
		}
	}
	return nil
}
