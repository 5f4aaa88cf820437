package pricing

import "fmt"

// CalculationError means a formula could not produce a trustworthy price.
// It names the formula and, when one is implicated, the field.
type CalculationError struct {
	Formula string
	FieldID string
	Reason  string
	Err     error
}

func (e *CalculationError) Error() string {
	msg := "calculate " + quoteFormula(e.Formula)
	if e.FieldID != "" {
		msg += fmt.Sprintf(": field %q", e.FieldID)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CalculationError) Unwrap() error { return e.Err }

func quoteFormula(f string) string {
	const max = 120
	if len(f) > max {
		f = f[:max] + "..."
	}
	return fmt.Sprintf("%q", f)
}

// DefinitionError rejects a field list that breaks the ordering rules: ids
// must be unique and a rule may only depend on an earlier field.
type DefinitionError struct {
	FieldID   string
	DependsOn string
	Reason    string
}

func (e *DefinitionError) Error() string {
	if e.DependsOn != "" {
		return fmt.Sprintf("field %q depends on %q: %s", e.FieldID, e.DependsOn, e.Reason)
	}
	return fmt.Sprintf("field %q: %s", e.FieldID, e.Reason)
}

// RuleError describes a visibility rule that the resolver absorbs instead of
// failing. It is only ever reported, never returned as an error from IsVisible.
type RuleError struct {
	FieldID   string    `json:"fieldId"`
	Condition Condition `json:"condition"`
	Message   string    `json:"message"`
}

func (e RuleError) Error() string {
	return fmt.Sprintf("field %q rule %q: %s", e.FieldID, e.Condition, e.Message)
}
