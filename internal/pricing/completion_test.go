// internal/pricing/completion_test.go
package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func gatedForm() []Field {
	return []Field{
		{ID: "A", Name: "Has pets", Type: FieldTypeSelect},
		{ID: "B", Name: "Number of pets", Type: FieldTypeNumber, ConditionalLogic: &ConditionalLogic{
			Enabled: true, DependsOnVariable: "A", Condition: ConditionEquals, ExpectedValue: "yes",
		}},
	}
}

// ==========================
// Completion
// ==========================

func TestCheckCompletion_HiddenFieldsDoNotBlock(t *testing.T) {
	got := CheckCompletion(gatedForm(), Values{"A": "no"})
	assert.True(t, got.IsCompleted)
	assert.Empty(t, got.MissingFields)
}

func TestCheckCompletion_VisibleUnfilledField(t *testing.T) {
	got := CheckCompletion(gatedForm(), Values{"A": "yes"})
	assert.False(t, got.IsCompleted)
	assert.Equal(t, []string{"Number of pets"}, got.MissingFields)

	got = CheckCompletion(gatedForm(), Values{"A": "yes", "B": 2.0})
	assert.True(t, got.IsCompleted)
}

func TestCheckCompletion_FilledSemantics(t *testing.T) {
	fields := []Field{
		{ID: "n", Name: "Count", Type: FieldTypeNumber},
		{ID: "c", Name: "Agree", Type: FieldTypeCheckbox},
		{ID: "m", Name: "Extras", Type: FieldTypeMultipleChoice},
		{ID: "t", Type: FieldTypeText},
	}

	tests := []struct {
		name    string
		values  Values
		missing []string
	}{
		{"nothing answered", Values{}, []string{"Count", "Agree", "Extras", "t"}},
		{"zero and false are answers", Values{"n": 0.0, "c": false, "m": []string{"x"}, "t": "hi"}, []string{}},
		{"empty string and empty list are not", Values{"n": 1.0, "c": true, "m": []string{}, "t": ""}, []string{"Extras", "t"}},
		{"nil is not", Values{"n": nil, "c": true, "m": []any{"x"}, "t": "x"}, []string{"Count"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckCompletion(fields, tt.values)
			assert.Equal(t, tt.missing, got.MissingFields)
			assert.Equal(t, len(tt.missing) == 0, got.IsCompleted)
		})
	}
}

// ==========================
// Defaults
// ==========================

func TestDefaultValueFor_TypeZeros(t *testing.T) {
	tests := []struct {
		typ  FieldType
		want any
	}{
		{FieldTypeCheckbox, false},
		{FieldTypeNumber, float64(0)},
		{FieldTypeMultipleChoice, []string{}},
		{FieldTypeText, ""},
		{FieldTypeSelect, ""},
		{FieldTypeDropdown, ""},
		{FieldType("slider"), float64(0)},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultValueFor(Field{ID: "f", Type: tt.typ}))
		})
	}
}

func TestDefaultValueFor_ExplicitDefault(t *testing.T) {
	f := Field{ID: "f", Type: FieldTypeNumber, ConditionalLogic: &ConditionalLogic{DefaultValue: 25.0}}
	assert.Equal(t, 25.0, DefaultValueFor(f))

	f = Field{ID: "g", Type: FieldTypeCheckbox, ConditionalLogic: &ConditionalLogic{DefaultValue: "verbatim"}}
	assert.Equal(t, "verbatim", DefaultValueFor(f))
}

func TestApplyDefaults(t *testing.T) {
	fields := gatedForm()
	fields[1].ConditionalLogic.DefaultValue = 1.0
	input := Values{"A": "no", "B": 7.0}

	got := ApplyDefaults(fields, input)

	assert.Equal(t, Values{"A": "no", "B": 1.0}, got)
	assert.Equal(t, Values{"A": "no", "B": 7.0}, input, "input must not be mutated")

	got = ApplyDefaults(fields, Values{"A": "yes", "B": 3.0})
	assert.Equal(t, 3.0, got["B"])
}

// ==========================
// Dependencies
// ==========================

func TestAvailableDependencies(t *testing.T) {
	fields := []Field{
		{ID: "a"},
		ruleField("b", dependsOn("a", ConditionEquals, "x")),
		{ID: "c"},
		{ID: "d"},
	}

	ids := func(fs []Field) []string {
		out := []string{}
		for _, f := range fs {
			out = append(out, f.ID)
		}
		return out
	}

	assert.Equal(t, []string{}, ids(AvailableDependencies(fields[0], fields)))
	assert.Equal(t, []string{"a"}, ids(AvailableDependencies(fields[2], fields)))
	assert.Equal(t, []string{"a", "c"}, ids(AvailableDependencies(fields[3], fields)))
	assert.Equal(t, []string{"a", "c", "d"}, ids(AvailableDependencies(Field{ID: "new"}, fields)))
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		wantErr string
	}{
		{
			name:   "valid",
			fields: []Field{{ID: "a"}, ruleField("b", dependsOn("a", ConditionEquals, "x"))},
		},
		{
			name:   "disabled rule may reference anything",
			fields: []Field{{ID: "a", ConditionalLogic: &ConditionalLogic{DependsOnVariable: "zzz"}}},
		},
		{
			name:    "empty id",
			fields:  []Field{{ID: ""}},
			wantErr: "empty field id",
		},
		{
			name:    "numeric id",
			fields:  []Field{{ID: "1"}},
			wantErr: "field id is not a valid formula identifier",
		},
		{
			name:    "hyphenated id",
			fields:  []Field{{ID: "sq-ft"}},
			wantErr: "field id is not a valid formula identifier",
		},
		{
			name:    "id with space",
			fields:  []Field{{ID: "lawn area"}},
			wantErr: "field id is not a valid formula identifier",
		},
		{
			name:   "underscore dollar and digits",
			fields: []Field{{ID: "_base"}, {ID: "$rate2"}, {ID: "area_m2"}},
		},
		{
			name:    "duplicate id",
			fields:  []Field{{ID: "a"}, {ID: "a"}},
			wantErr: "duplicate field id",
		},
		{
			name:    "self reference",
			fields:  []Field{ruleField("a", dependsOn("a", ConditionEquals, "x"))},
			wantErr: "field cannot depend on itself",
		},
		{
			name:    "unknown reference",
			fields:  []Field{{ID: "a"}, ruleField("b", dependsOn("nope", ConditionEquals, "x"))},
			wantErr: "unknown field",
		},
		{
			name: "forward reference",
			fields: []Field{
				ruleField("a", dependsOn("b", ConditionEquals, "x")),
				{ID: "b"},
			},
			wantErr: "dependency must appear earlier in the form",
		},
		{
			name: "cycle",
			fields: []Field{
				ruleField("a", dependsOn("b", ConditionEquals, "x")),
				ruleField("b", dependsOn("a", ConditionEquals, "x")),
			},
			wantErr: "dependency must appear earlier in the form",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFields(tt.fields)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var defErr *DefinitionError
			require.True(t, errors.As(err, &defErr))
			assert.Equal(t, tt.wantErr, defErr.Reason)
		})
	}
}

// ==========================
// Rule Diagnostics
// ==========================

func TestCheckRules(t *testing.T) {
	fields := []Field{
		{ID: "a"},
		ruleField("ok", dependsOn("a", ConditionEquals, "x")),
		ruleField("gt", dependsOn("a", ConditionGreaterThan, "ten")),
		ruleField("lt", dependsOn("a", ConditionLessThan, 10.0)),
		ruleField("contains", dependsOn("a", ConditionContains, nil)),
		ruleField("list", ConditionalLogic{DependsOnVariable: "a", Condition: ConditionContains, ExpectedValues: []any{"x"}}),
		ruleField("odd", dependsOn("a", Condition("matches"), "x")),
		{ID: "off", ConditionalLogic: &ConditionalLogic{Condition: Condition("matches")}},
	}

	got := CheckRules(fields)
	require.Len(t, got, 3)
	assert.Equal(t, "gt", got[0].FieldID)
	assert.Equal(t, "contains", got[1].FieldID)
	assert.Equal(t, "odd", got[2].FieldID)
	assert.Contains(t, got[2].Error(), "always visible")
}
