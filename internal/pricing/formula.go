package pricing

import (
	"fmt"
	"math"
)

// Evaluate computes the price formula yields for values. Each field the
// formula references is decoded into its numeric contribution; absent values
// decode as the field type's zero. Callers that hide fields should pass the
// output of ApplyDefaults. The result is rounded half up to a whole unit.
func Evaluate(formula string, fields []Field, values Values) (float64, error) {
	f, err := ParseFormula(formula)
	if err != nil {
		return 0, &CalculationError{Formula: formula, Reason: "invalid formula", Err: err}
	}
	return f.price(fields, values)
}

func (f *Formula) price(fields []Field, values Values) (float64, error) {
	byID := make(map[string]Field, len(fields))
	for _, field := range fields {
		byID[field.ID] = field
	}

	vars := make(map[string]float64, len(f.idents))
	for _, id := range f.idents {
		field, ok := byID[id]
		if !ok {
			return 0, &CalculationError{
				Formula: f.text,
				FieldID: id,
				Reason:  "formula references a field that is not in the form",
				Err:     ErrUnknownIdentifier,
			}
		}
		v, err := contribution(field, values[id])
		if err != nil {
			return 0, &CalculationError{
				Formula: f.text,
				FieldID: id,
				Reason:  fmt.Sprintf("cannot decode value %v", values[id]),
				Err:     err,
			}
		}
		vars[id] = v
	}

	result, err := f.Eval(vars)
	if err != nil {
		return 0, &CalculationError{Formula: f.text, Reason: "evaluation failed", Err: err}
	}
	return roundHalfUp(result), nil
}

func contribution(field Field, raw any) (float64, error) {
	variant := field.Variant()
	if raw == nil {
		raw = variant.zero()
	}
	return variant.contribution(raw)
}

func roundHalfUp(v float64) float64 {
	r := math.Floor(v + 0.5)
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

// Form is a validated field list together with its parsed formula. Building
// one up front checks the ordering invariant and every formula reference
// once, instead of on each evaluation.
type Form struct {
	fields  []Field
	formula *Formula
}

// NewForm validates fields, parses formula and checks that the formula only
// references fields of the form. Field list problems are returned as
// *DefinitionError, formula problems as *CalculationError.
func NewForm(fields []Field, formula string) (*Form, error) {
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}
	f, err := ParseFormula(formula)
	if err != nil {
		return nil, &CalculationError{Formula: formula, Reason: "invalid formula", Err: err}
	}

	known := make(map[string]bool, len(fields))
	for _, field := range fields {
		known[field.ID] = true
	}
	for _, id := range f.idents {
		if !known[id] {
			return nil, &CalculationError{
				Formula: formula,
				FieldID: id,
				Reason:  "formula references a field that is not in the form",
				Err:     ErrUnknownIdentifier,
			}
		}
	}

	return &Form{fields: append([]Field(nil), fields...), formula: f}, nil
}

func (f *Form) Fields() []Field { return append([]Field(nil), f.fields...) }

func (f *Form) Formula() string { return f.formula.text }

func (f *Form) VisibleFields(values Values) []Field { return VisibleFields(f.fields, values) }

func (f *Form) HiddenFieldIDs(values Values) []string { return HiddenFieldIDs(f.fields, values) }

func (f *Form) CheckCompletion(values Values) Completion { return CheckCompletion(f.fields, values) }

func (f *Form) ApplyDefaults(values Values) Values { return ApplyDefaults(f.fields, values) }

// Price applies defaults for hidden fields and evaluates the formula.
func (f *Form) Price(values Values) (float64, error) {
	return f.formula.price(f.fields, ApplyDefaults(f.fields, values))
}
