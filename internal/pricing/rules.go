package pricing

// CheckRules lists rules IsVisible will quietly absorb: conditions it does
// not know, numeric comparisons against something that is not a number, and
// contains rules with nothing to look for. Nothing here changes visibility;
// the result is for telling a form author what to fix.
func CheckRules(fields []Field) []RuleError {
	var out []RuleError
	for _, f := range fields {
		if !f.hasRule() {
			continue
		}
		rule := f.ConditionalLogic
		report := func(msg string) {
			out = append(out, RuleError{FieldID: f.ID, Condition: rule.Condition, Message: msg})
		}

		switch rule.Condition {
		case ConditionEquals, ConditionNotEquals, ConditionIsEmpty, ConditionIsNotEmpty:
		case ConditionGreaterThan, ConditionLessThan:
			if _, ok := asNumber(rule.ExpectedValue); !ok {
				report("expected value is not a number, condition is never met")
			}
		case ConditionContains:
			if rule.ExpectedValues == nil {
				if _, ok := rule.ExpectedValue.(string); !ok {
					report("neither expected values nor a text expected value, condition is never met")
				}
			}
		default:
			report("unknown condition, field is always visible")
		}
	}
	return out
}
