// internal/quote/lint.go
package quote

import (
	"encoding/json"
	"errors"

	"quote-workers/internal/common/validation"
	"quote-workers/internal/models"
	"quote-workers/internal/pricing"
)

// LintReport is what authoring tools show for a draft form definition.
type LintReport struct {
	Valid        bool                         `json:"valid"`
	SchemaErrors []validation.ValidationError `json:"schemaErrors,omitempty"`
	Error        string                       `json:"error,omitempty"`
	FieldID      string                       `json:"fieldId,omitempty"`
	RuleWarnings []pricing.RuleError          `json:"ruleWarnings,omitempty"`
	// AvailableDependencies lists, per field, which earlier fields its
	// visibility rule may depend on.
	AvailableDependencies map[string][]string `json:"availableDependencies,omitempty"`
	Identifiers           []string            `json:"identifiers,omitempty"`
}

// Lint checks a raw definition: JSON schema first, then field ordering and
// formula. Rule warnings never make a definition invalid.
func Lint(raw []byte) (*LintReport, error) {
	result, err := validation.ValidateFormDefinition(raw)
	if err != nil {
		return nil, err
	}
	report := &LintReport{SchemaErrors: result.Errors}
	if !result.Valid {
		return report, nil
	}

	var def models.FormDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, err
	}

	report.RuleWarnings = pricing.CheckRules(def.Fields)
	report.AvailableDependencies = make(map[string][]string, len(def.Fields))
	for _, f := range def.Fields {
		deps := pricing.AvailableDependencies(f, def.Fields)
		ids := make([]string, 0, len(deps))
		for _, d := range deps {
			ids = append(ids, d.ID)
		}
		report.AvailableDependencies[f.ID] = ids
	}

	if _, err := def.Compile(); err != nil {
		report.Error = err.Error()
		var defErr *pricing.DefinitionError
		var calcErr *pricing.CalculationError
		switch {
		case errors.As(err, &defErr):
			report.FieldID = defErr.FieldID
		case errors.As(err, &calcErr):
			report.FieldID = calcErr.FieldID
		}
		return report, nil
	}

	formula, err := pricing.ParseFormula(def.Formula)
	if err == nil {
		report.Identifiers = formula.Identifiers()
	}
	report.Valid = true
	return report, nil
}
