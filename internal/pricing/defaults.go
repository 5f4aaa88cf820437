package pricing

// DefaultValueFor returns the value substituted for field while it is
// hidden: the rule's explicit default when one is set, otherwise the zero
// value of the field's type.
func DefaultValueFor(field Field) any {
	if field.ConditionalLogic != nil && field.ConditionalLogic.DefaultValue != nil {
		return field.ConditionalLogic.DefaultValue
	}
	return field.Variant().zero()
}

// ApplyDefaults returns a copy of values in which every hidden field holds
// its default. values itself is left untouched.
func ApplyDefaults(fields []Field, values Values) Values {
	out := values.Clone()
	for _, f := range fields {
		if !IsVisible(f, values) {
			out[f.ID] = DefaultValueFor(f)
		}
	}
	return out
}
