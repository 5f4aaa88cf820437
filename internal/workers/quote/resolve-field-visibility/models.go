// internal/workers/quote/resolve-field-visibility/models.go
package resolvefieldvisibility

import (
	"quote-workers/internal/pricing"
	"quote-workers/internal/quote"
)

type Input struct {
	quote.Request
}

// Output carries Values with every hidden field reset to its default, so
// downstream tasks never see stale answers for hidden questions.
type Output struct {
	VisibleFieldIDs []string               `json:"visibleFieldIds"`
	HiddenFieldIDs  []string               `json:"hiddenFieldIds"`
	Values          map[string]interface{} `json:"values"`
	RuleWarnings    []pricing.RuleError    `json:"ruleWarnings,omitempty"`
}
