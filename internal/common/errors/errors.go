// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"quote-workers/internal/pricing"
)

type ErrorCode string

const (
	// Input
	ErrCodeParseError      ErrorCode = "PARSE_ERROR"
	ErrCodeInputValidation ErrorCode = "INPUT_VALIDATION_FAILED"

	// Pricing engine
	ErrCodeCalculationFailed     ErrorCode = "CALCULATION_FAILED"
	ErrCodeFormDefinitionInvalid ErrorCode = "FORM_DEFINITION_INVALID"
	ErrCodeFormIncomplete        ErrorCode = "FORM_INCOMPLETE"

	// Form store
	ErrCodeFormNotFound   ErrorCode = "FORM_NOT_FOUND"
	ErrCodeFormLoadFailed ErrorCode = "FORM_LOAD_FAILED"

	// Subscription
	ErrCodeSubscriptionInvalid     ErrorCode = "SUBSCRIPTION_INVALID"
	ErrCodeSubscriptionExpired     ErrorCode = "SUBSCRIPTION_EXPIRED"
	ErrCodeSubscriptionCheckFailed ErrorCode = "SUBSCRIPTION_CHECK_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error shape every worker and the HTTP API report.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata adds a key to Metadata and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// BPMNError is what a worker throws back into the process.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// Constructors
// ==========================

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Failed to parse job variables", err.Error(), false, err)
}

func NewInputValidationError(details string) *StandardError {
	return newError(ErrCodeInputValidation, "Input validation failed", details, false, nil)
}

// NewCalculationFailedError carries the formula and field so the form
// author can find what to fix.
func NewCalculationFailedError(err *pricing.CalculationError) *StandardError {
	e := newError(ErrCodeCalculationFailed, "Price could not be calculated", err.Error(), false, err)
	e.WithMetadata("formula", err.Formula)
	if err.FieldID != "" {
		e.WithMetadata("fieldId", err.FieldID)
	}
	return e
}

func NewFormDefinitionInvalidError(err error) *StandardError {
	e := newError(ErrCodeFormDefinitionInvalid, "Form definition is invalid", err.Error(), false, err)
	var defErr *pricing.DefinitionError
	if stderrors.As(err, &defErr) {
		e.WithMetadata("fieldId", defErr.FieldID)
		if defErr.DependsOn != "" {
			e.WithMetadata("dependsOn", defErr.DependsOn)
		}
	}
	return e
}

func NewFormIncompleteError(missing []string) *StandardError {
	return newError(ErrCodeFormIncomplete, "Form has unanswered visible fields",
		"missing: "+strings.Join(missing, ", "), false, nil).
		WithMetadata("missingFields", missing)
}

func NewFormNotFoundError(businessID, serviceID string) *StandardError {
	return newError(ErrCodeFormNotFound, "No active form for service",
		fmt.Sprintf("businessId: %s, serviceId: %s", businessID, serviceID), false, nil)
}

func NewFormLoadFailedError(err error) *StandardError {
	return newError(ErrCodeFormLoadFailed, "Form definition could not be loaded", err.Error(), true, err)
}

func NewSubscriptionInvalidError(details string) *StandardError {
	return newError(ErrCodeSubscriptionInvalid, "Invalid or not found subscription", details, false, nil)
}

func NewSubscriptionExpiredError(details string) *StandardError {
	return newError(ErrCodeSubscriptionExpired, "Subscription has expired", details, false, nil)
}

func NewSubscriptionCheckFailedError(err error) *StandardError {
	return newError(ErrCodeSubscriptionCheckFailed, "Database error during subscription check", err.Error(), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// FromEngineError maps pricing engine errors onto error codes. Anything
// already a *StandardError passes through; unknown errors become
// INTERNAL_ERROR.
func FromEngineError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	var calcErr *pricing.CalculationError
	if stderrors.As(err, &calcErr) {
		return NewCalculationFailedError(calcErr)
	}
	var defErr *pricing.DefinitionError
	if stderrors.As(err, &defErr) {
		return NewFormDefinitionInvalidError(err)
	}
	return NewInternalError(err)
}

// ==========================
// BPMN mapping
// ==========================

// BPMNErrorMapping lists the codes modelled as BPMN error events. Codes
// missing here are thrown under their own name.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCalculationFailed:       "CALCULATION_FAILED",
	ErrCodeFormDefinitionInvalid:   "FORM_DEFINITION_INVALID",
	ErrCodeFormIncomplete:          "FORM_INCOMPLETE",
	ErrCodeFormNotFound:            "FORM_NOT_FOUND",
	ErrCodeFormLoadFailed:          "FORM_LOAD_FAILED",
	ErrCodeSubscriptionInvalid:     "SUBSCRIPTION_INVALID",
	ErrCodeSubscriptionExpired:     "SUBSCRIPTION_EXPIRED",
	ErrCodeSubscriptionCheckFailed: "SUBSCRIPTION_CHECK_FAILED",
	ErrCodeInputValidation:         "INPUT_VALIDATION_FAILED",
}

// GetRetryCount is how many times a job failing with code is retried before
// it is thrown as a BPMN error. Business errors are never retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeFormLoadFailed, ErrCodeSubscriptionCheckFailed:
		return 3
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		bpmnCode = string(stdErr.Code)
	}
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	s := string(code)
	switch {
	case strings.HasPrefix(s, "SUBSCRIPTION"):
		return "SUBSCRIPTION"
	case strings.HasPrefix(s, "FORM_NOT_FOUND"), strings.HasPrefix(s, "FORM_LOAD"):
		return "FORM_STORE"
	case s == string(ErrCodeCalculationFailed), strings.HasPrefix(s, "FORM_"):
		return "PRICING"
	case strings.Contains(s, "PARSE"), strings.Contains(s, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
