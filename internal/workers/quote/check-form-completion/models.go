// internal/workers/quote/check-form-completion/models.go
package checkformcompletion

import "quote-workers/internal/quote"

type Input struct {
	quote.Request
	// FailOnIncomplete throws FORM_INCOMPLETE instead of completing the job
	// with isCompleted=false.
	FailOnIncomplete bool `json:"failOnIncomplete"`
}

type Output struct {
	IsCompleted   bool     `json:"isCompleted"`
	MissingFields []string `json:"missingFields"`
}
