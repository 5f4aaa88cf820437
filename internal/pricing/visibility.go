package pricing

import "strings"

// IsVisible decides whether field should be shown given the answers so far.
// A field whose prerequisite is unanswered stays hidden. Malformed rules
// never panic: an unknown condition leaves the field visible and a numeric
// comparison on non-numbers is simply not met.
func IsVisible(field Field, values Values) bool {
	if !field.hasRule() {
		return true
	}
	rule := field.ConditionalLogic

	actual, ok := values[rule.DependsOnVariable]
	if !ok || actual == nil {
		return false
	}

	// A multi-select source compares by its first selection only.
	if rule.Condition == ConditionEquals || rule.Condition == ConditionNotEquals {
		if list, isList := asList(actual); isList {
			if len(list) == 0 {
				actual = nil
			} else {
				actual = list[0]
			}
		}
	}

	switch rule.Condition {
	case ConditionEquals:
		return strictEqual(actual, rule.ExpectedValue)
	case ConditionNotEquals:
		return !strictEqual(actual, rule.ExpectedValue)
	case ConditionGreaterThan:
		a, aok := asNumber(actual)
		e, eok := asNumber(rule.ExpectedValue)
		return aok && eok && a > e
	case ConditionLessThan:
		a, aok := asNumber(actual)
		e, eok := asNumber(rule.ExpectedValue)
		return aok && eok && a < e
	case ConditionContains:
		return contains(actual, rule)
	case ConditionIsEmpty:
		return IsEmpty(actual)
	case ConditionIsNotEmpty:
		return !IsEmpty(actual)
	default:
		return true
	}
}

func contains(actual any, rule *ConditionalLogic) bool {
	if rule.ExpectedValues != nil {
		if list, ok := asList(actual); ok {
			for _, a := range list {
				if memberOf(a, rule.ExpectedValues) {
					return true
				}
			}
			return false
		}
		return memberOf(actual, rule.ExpectedValues)
	}

	a, aok := actual.(string)
	e, eok := rule.ExpectedValue.(string)
	if !aok || !eok {
		return false
	}
	return strings.Contains(strings.ToLower(a), strings.ToLower(e))
}

func memberOf(v any, set []any) bool {
	for _, s := range set {
		if strictEqual(v, s) {
			return true
		}
	}
	return false
}

// VisibleFields returns the fields currently shown, in form order.
func VisibleFields(fields []Field, values Values) []Field {
	visible := make([]Field, 0, len(fields))
	for _, f := range fields {
		if IsVisible(f, values) {
			visible = append(visible, f)
		}
	}
	return visible
}

// HiddenFieldIDs returns the ids of fields currently hidden, in form order.
func HiddenFieldIDs(fields []Field, values Values) []string {
	hidden := []string{}
	for _, f := range fields {
		if !IsVisible(f, values) {
			hidden = append(hidden, f.ID)
		}
	}
	return hidden
}
