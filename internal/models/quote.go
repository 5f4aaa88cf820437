// internal/models/quote.go
package models

import (
	"time"

	"quote-workers/internal/pricing"
)

// QuoteEvaluation is the combined answer to "what does the customer see and
// what does it cost so far". Price and QuoteID are only set once the form is
// complete.
type QuoteEvaluation struct {
	VisibleFieldIDs []string            `json:"visibleFieldIds"`
	HiddenFieldIDs  []string            `json:"hiddenFieldIds"`
	Completion      pricing.Completion  `json:"completion"`
	Price           *float64            `json:"price,omitempty"`
	Currency        string              `json:"currency,omitempty"`
	QuoteID         string              `json:"quoteId,omitempty"`
	CalculatedAt    *time.Time          `json:"calculatedAt,omitempty"`
	RuleWarnings    []pricing.RuleError `json:"ruleWarnings,omitempty"`
}
