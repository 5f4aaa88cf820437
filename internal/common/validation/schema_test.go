// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFormDefinition(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantField string
	}{
		{
			name: "valid definition",
			doc: `{"formula": "base + tier", "fields": [
				{"id": "base", "name": "Base", "type": "number"},
				{"id": "tier", "name": "Tier", "type": "select",
				 "options": [{"label": "Gold", "value": "gold", "multiplier": 2}],
				 "conditionalLogic": {"enabled": true, "dependsOnVariable": "base", "condition": "greater_than", "expectedValue": 0}}
			]}`,
			wantValid: true,
		},
		{
			name:      "null conditional logic is allowed",
			doc:       `{"formula": "a", "fields": [{"id": "a", "type": "number", "conditionalLogic": null}]}`,
			wantValid: true,
		},
		{
			name:      "unknown field type still loads",
			doc:       `{"formula": "0", "fields": [{"id": "map1", "type": "map-area"}]}`,
			wantValid: true,
		},
		{
			name:      "missing formula",
			doc:       `{"fields": []}`,
			wantValid: false,
		},
		{
			name:      "id is not an identifier",
			doc:       `{"formula": "1", "fields": [{"id": "pool size", "type": "number"}]}`,
			wantValid: false,
			wantField: "fields.0.id",
		},
		{
			name:      "option value must be scalar",
			doc:       `{"formula": "1", "fields": [{"id": "t", "type": "select", "options": [{"value": {"x": 1}}]}]}`,
			wantValid: false,
			wantField: "fields.0.options.0.value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateFormDefinition([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid, result.GetErrorMessages())
			if tt.wantField != "" {
				assert.True(t, result.HasErrors(tt.wantField), result.GetErrorMessages())
			}
		})
	}
}

func TestValidateFormDefinition_NotJSON(t *testing.T) {
	_, err := ValidateFormDefinition([]byte("{not json"))
	assert.Error(t, err)
}

func TestValidateFormDefinitionValue(t *testing.T) {
	result, err := ValidateFormDefinitionValue(map[string]interface{}{
		"formula": "qty * 10",
		"fields":  []interface{}{map[string]interface{}{"id": "qty", "type": "number"}},
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Error())
}
