// internal/pricing/expr_test.go
package pricing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormula_Eval(t *testing.T) {
	vars := map[string]float64{"a": 6, "b": 4, "zero": 0}

	tests := []struct {
		formula string
		want    float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		{"a / b", 1.5},
		{"a % b", 2},
		{"-a + +b", -2},
		{"--a", 6},
		{"2 * -b", -8},
		{".5 + 1.25", 1.75},
		{"1e3 / 10", 100},
		{"2.5E-1 * 4", 1},
		{"a > b", 1},
		{"a < b", 0},
		{"a >= 6", 1},
		{"a <= 5", 0},
		{"a == 6", 1},
		{"a === 6", 1},
		{"a != 6", 0},
		{"a !== 7", 1},
		{"a > b ? 100 : 200", 100},
		{"a < b ? 100 : 200", 200},
		{"zero ? 1 : b > 3 ? 2 : 3", 2},
		{"(a > b) * 50 + 10", 60},
		{"zero ? 1 / zero : 7", 7},
		{"  a\n*\tb ", 24},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			f, err := ParseFormula(tt.formula)
			require.NoError(t, err)
			got, err := f.Eval(vars)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseFormula_Identifiers(t *testing.T) {
	f, err := ParseFormula("base + sqft * base_rate + sqft - $extra + _x1")
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "sqft", "base_rate", "$extra", "_x1"}, f.Identifiers())
	assert.Equal(t, "base + sqft * base_rate + sqft - $extra + _x1", f.String())

	ids := f.Identifiers()
	ids[0] = "changed"
	assert.Equal(t, "base", f.Identifiers()[0])
}

func TestParseFormula_SyntaxErrors(t *testing.T) {
	tests := []string{
		"",
		"1 +",
		"(1 + 2",
		"1 + 2)",
		"a b",
		"1 ? 2",
		"1 ? 2 :",
		"3a",
		"1.2.3",
		"a = 1",
		"Math.max(1, 2)",
		"a & b",
		"*2",
		"f(1)",
	}

	for _, formula := range tests {
		t.Run(formula, func(t *testing.T) {
			_, err := ParseFormula(formula)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax), "got %v", err)
		})
	}
}

func TestParseFormula_DepthLimit(t *testing.T) {
	deep := strings.Repeat("(", maxDepth+10) + "1" + strings.Repeat(")", maxDepth+10)
	_, err := ParseFormula(deep)
	assert.True(t, errors.Is(err, ErrSyntax))

	negs := strings.Repeat("-", maxDepth+10) + "1"
	_, err = ParseFormula(negs)
	assert.True(t, errors.Is(err, ErrSyntax))
}

func TestFormula_EvalErrors(t *testing.T) {
	f, err := ParseFormula("a / b")
	require.NoError(t, err)

	_, err = f.Eval(map[string]float64{"a": 1})
	assert.True(t, errors.Is(err, ErrUnknownIdentifier))

	_, err = f.Eval(map[string]float64{"a": 1, "b": 0})
	assert.True(t, errors.Is(err, ErrDivisionByZero))
}
