package pricing

import "errors"

var errOptionNotFound = errors.New("value matches no option")

// Variant is the decoded shape of a field type. Each variant carries only the
// data it needs and knows both its zero value and its formula contribution,
// so a new field type cannot be added without deciding both.
type Variant interface {
	zero() any
	contribution(raw any) (float64, error)
}

// NumberVariant is a free numeric input.
type NumberVariant struct{}

// TextVariant is lead metadata only; it never contributes to a price.
type TextVariant struct{}

// CheckboxVariant contributes 1 when ticked.
type CheckboxVariant struct{}

// SingleSelectVariant covers select and dropdown fields. Select options
// prefer their multiplier; dropdown options only carry a numeric value.
type SingleSelectVariant struct {
	Options       []Option
	UseMultiplier bool
}

// MultiSelectVariant is a multiple-choice field.
type MultiSelectVariant struct {
	Options       []Option
	AllowMultiple bool
}

// UnknownVariant keeps forms with an unrecognised type evaluable.
type UnknownVariant struct {
	Type FieldType
}

// Variant decodes the field's type into its variant.
func (f Field) Variant() Variant {
	switch f.Type {
	case FieldTypeNumber:
		return NumberVariant{}
	case FieldTypeText:
		return TextVariant{}
	case FieldTypeCheckbox:
		return CheckboxVariant{}
	case FieldTypeSelect:
		return SingleSelectVariant{Options: f.Options, UseMultiplier: true}
	case FieldTypeDropdown:
		return SingleSelectVariant{Options: f.Options}
	case FieldTypeMultipleChoice:
		return MultiSelectVariant{Options: f.Options, AllowMultiple: f.AllowMultipleSelection}
	default:
		return UnknownVariant{Type: f.Type}
	}
}

func (NumberVariant) zero() any { return float64(0) }

func (NumberVariant) contribution(raw any) (float64, error) {
	return toNumber(raw), nil
}

func (TextVariant) zero() any { return "" }

func (TextVariant) contribution(any) (float64, error) { return 0, nil }

func (CheckboxVariant) zero() any { return false }

func (CheckboxVariant) contribution(raw any) (float64, error) {
	if truthy(raw) {
		return 1, nil
	}
	return 0, nil
}

func (SingleSelectVariant) zero() any { return "" }

func (v SingleSelectVariant) contribution(raw any) (float64, error) {
	for _, opt := range v.Options {
		if !strictEqual(opt.Value, raw) {
			continue
		}
		if v.UseMultiplier && opt.Multiplier != nil {
			return *opt.Multiplier, nil
		}
		if opt.NumericValue != nil {
			return *opt.NumericValue, nil
		}
		return 0, nil
	}
	if isFilled(raw) {
		return 0, errOptionNotFound
	}
	return 0, nil
}

func (MultiSelectVariant) zero() any { return []string{} }

func (v MultiSelectVariant) contribution(raw any) (float64, error) {
	list, ok := asList(raw)
	if !ok {
		return 0, nil
	}
	chosen := make(map[string]struct{}, len(list))
	for _, e := range list {
		chosen[stringify(e)] = struct{}{}
	}
	var sum float64
	for _, opt := range v.Options {
		if _, ok := chosen[stringify(opt.Value)]; ok && opt.NumericValue != nil {
			sum += *opt.NumericValue
		}
	}
	return sum, nil
}

func (UnknownVariant) zero() any { return float64(0) }

func (UnknownVariant) contribution(any) (float64, error) { return 0, nil }
