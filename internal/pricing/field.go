// Package pricing evaluates quote forms: which fields are visible for the
// answers given so far, whether the visible fields are filled in, and what a
// merchant's pricing formula yields for those answers.
//
// Everything here is a pure function of its inputs. Callers own the field
// list and the value map and pass them in on every call.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

// FieldType names the widget a field renders as and how its value decodes
// into a formula number.
type FieldType string

const (
	FieldTypeNumber         FieldType = "number"
	FieldTypeText           FieldType = "text"
	FieldTypeCheckbox       FieldType = "checkbox"
	FieldTypeSelect         FieldType = "select"
	FieldTypeDropdown       FieldType = "dropdown"
	FieldTypeMultipleChoice FieldType = "multiple-choice"
)

// Condition is the comparison a conditional-logic rule applies.
type Condition string

const (
	ConditionEquals      Condition = "equals"
	ConditionNotEquals   Condition = "not_equals"
	ConditionGreaterThan Condition = "greater_than"
	ConditionLessThan    Condition = "less_than"
	ConditionContains    Condition = "contains"
	ConditionIsEmpty     Condition = "is_empty"
	ConditionIsNotEmpty  Condition = "is_not_empty"
)

// Option is one choice of a select, dropdown or multiple-choice field.
// Value is a string or a number.
type Option struct {
	Label        string   `json:"label"`
	Value        any      `json:"value"`
	Multiplier   *float64 `json:"multiplier,omitempty"`
	NumericValue *float64 `json:"numericValue,omitempty"`
}

// ConditionalLogic hides a field unless the field it depends on satisfies
// Condition.
type ConditionalLogic struct {
	Enabled           bool      `json:"enabled"`
	DependsOnVariable string    `json:"dependsOnVariable,omitempty"`
	Condition         Condition `json:"condition,omitempty"`
	ExpectedValue     any       `json:"expectedValue,omitempty"`
	ExpectedValues    []any     `json:"expectedValues"`
	DefaultValue      any       `json:"defaultValue,omitempty"`
}

// Field is a single question of a quote form. ID doubles as the token that
// references the field inside a formula.
type Field struct {
	ID                     string            `json:"id"`
	Name                   string            `json:"name"`
	Type                   FieldType         `json:"type"`
	Options                []Option          `json:"options,omitempty"`
	AllowMultipleSelection bool              `json:"allowMultipleSelection,omitempty"`
	ConditionalLogic       *ConditionalLogic `json:"conditionalLogic,omitempty"`
}

// DisplayName is what a customer sees when the field is reported missing.
func (f Field) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ID
}

// hasRule reports whether the field's visibility depends on another field.
func (f Field) hasRule() bool {
	return f.ConditionalLogic != nil &&
		f.ConditionalLogic.Enabled &&
		f.ConditionalLogic.DependsOnVariable != ""
}

// Values maps field ids to the raw answers a customer gave. A missing key and
// a nil value both mean "not answered".
type Values map[string]any

// Clone returns a shallow copy; slice values are copied too.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		switch s := val.(type) {
		case []string:
			out[k] = append([]string(nil), s...)
		case []any:
			out[k] = append([]any(nil), s...)
		default:
			out[k] = val
		}
	}
	return out
}

// asList returns the elements of a multi-select value.
func asList(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

// asNumber reports v as float64 when it already is a number. Strings are not
// coerced.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// strictEqual compares the way a typed form value is compared: both operands
// must share a kind (number, string or bool) and be equal. Two absent values
// are equal.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if an, ok := asNumber(a); ok {
		bn, ok := asNumber(b)
		return ok && an == bn
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

// truthy mirrors loose truthiness of a form value: nil, false, 0, NaN and ""
// are false; everything else, including empty lists, is true.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	if n, ok := asNumber(v); ok {
		return n != 0 && !math.IsNaN(n)
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	}
	return true
}

// IsEmpty reports whether a value counts as unanswered for the is_empty
// condition: falsy values and empty lists.
func IsEmpty(v any) bool {
	if list, ok := asList(v); ok {
		return len(list) == 0
	}
	return !truthy(v)
}

// isFilled is the completion test: nil, "" and empty lists are unfilled;
// false and 0 are real answers.
func isFilled(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	if list, ok := asList(v); ok {
		return len(list) > 0
	}
	return true
}

// stringify renders an option value the way it appears inside a submitted
// multi-select list.
func stringify(v any) string {
	if n, ok := asNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	return ""
}

// toNumber converts a raw number-field answer, falling back to 0 for
// anything that is not numeric.
func toNumber(v any) float64 {
	if n, ok := asNumber(v); ok {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	}
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	}
	return 0
}
