// internal/quote/lint_test.go
package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint(t *testing.T) {
	t.Run("valid definition", func(t *testing.T) {
		report, err := Lint([]byte(`{
			"formula": "sqft * rate + sqft2",
			"fields": [
				{"id": "sqft", "name": "Square feet", "type": "number"},
				{"id": "sqft2", "name": "Garage", "type": "number"},
				{"id": "rate", "name": "Rate", "type": "number",
				 "conditionalLogic": {"enabled": true, "dependsOnVariable": "sqft", "condition": "greater_than", "expectedValue": "big"}}
			]}`))
		require.NoError(t, err)

		assert.True(t, report.Valid)
		assert.Empty(t, report.Error)
		assert.Equal(t, []string{"sqft", "rate", "sqft2"}, report.Identifiers)
		assert.Equal(t, []string{}, report.AvailableDependencies["sqft"])
		assert.Equal(t, []string{"sqft"}, report.AvailableDependencies["sqft2"])
		assert.Equal(t, []string{"sqft", "sqft2"}, report.AvailableDependencies["rate"])
		require.Len(t, report.RuleWarnings, 1)
		assert.Equal(t, "rate", report.RuleWarnings[0].FieldID)
	})

	t.Run("schema errors", func(t *testing.T) {
		report, err := Lint([]byte(`{"fields": [{"type": "number"}], "formula": "1"}`))
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.NotEmpty(t, report.SchemaErrors)
	})

	t.Run("forward reference", func(t *testing.T) {
		report, err := Lint([]byte(`{"formula": "a", "fields": [
			{"id": "a", "type": "number", "conditionalLogic": {"enabled": true, "dependsOnVariable": "b", "condition": "is_empty"}},
			{"id": "b", "type": "number"}]}`))
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.Equal(t, "a", report.FieldID)
		assert.Contains(t, report.Error, "earlier")
	})

	t.Run("formula references unknown field", func(t *testing.T) {
		report, err := Lint([]byte(`{"formula": "a * tax", "fields": [{"id": "a", "type": "number"}]}`))
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.Equal(t, "tax", report.FieldID)
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := Lint([]byte(`fields:`))
		assert.Error(t, err)
	})
}
