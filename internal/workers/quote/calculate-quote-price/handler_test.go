// internal/workers/quote/calculate-quote-price/handler_test.go
package calculatequoteprice

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apperrors "quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/formstore"
	"quote-workers/internal/pricing"
	"quote-workers/internal/quote"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	varsJSON, _ := json.Marshal(variables)
	return entities.Job{
		ActivatedJob: &pb.ActivatedJob{
			Key:                key,
			Type:               TaskType,
			ProcessInstanceKey: 2251799813685249,
			Variables:          string(varsJSON),
			Retries:            3,
		},
	}
}

func ptr(v float64) *float64 { return &v }

func cleaningFields() []pricing.Field {
	return []pricing.Field{
		{ID: "bedrooms", Name: "Bedrooms", Type: pricing.FieldTypeNumber},
		{
			ID: "frequency", Name: "Frequency", Type: pricing.FieldTypeDropdown,
			Options: []pricing.Option{
				{Label: "Weekly", Value: "weekly", NumericValue: ptr(0.8)},
				{Label: "One-off", Value: "once", NumericValue: ptr(1)},
			},
		},
		{
			ID: "extras", Name: "Extras", Type: pricing.FieldTypeMultipleChoice, AllowMultipleSelection: true,
			Options: []pricing.Option{
				{Label: "Oven", Value: "oven", NumericValue: ptr(40)},
				{Label: "Windows", Value: "windows", NumericValue: ptr(25)},
			},
		},
	}
}

const cleaningFormula = "bedrooms * 30 * frequency + extras"

func createTestHandler(t *testing.T, service *quote.Service, config *Config) *Handler {
	if config == nil {
		config = &Config{Timeout: 5 * time.Second}
	}
	if service == nil {
		service = quote.NewService(nil, "USD", nil, logger.NewNoOpLogger())
	}
	return NewHandler(config, service, logger.NewTestLogger(t))
}

func inlineInput(values map[string]interface{}) *Input {
	return &Input{Request: quote.Request{Fields: cleaningFields(), Formula: cleaningFormula, Values: values}}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, nil, nil)

	job := createMockJob(1, map[string]interface{}{
		"businessId": "biz-1",
		"serviceId":  "cleaning",
		"values":     map[string]interface{}{"bedrooms": 3, "extras": []string{"oven"}},
	})
	input, err := h.parseInput(job)
	require.NoError(t, err)
	assert.Equal(t, "biz-1", input.BusinessID)
	assert.Equal(t, "cleaning", input.ServiceID)
	assert.Equal(t, 3.0, input.Values["bedrooms"])
	assert.Equal(t, []interface{}{"oven"}, input.Values["extras"])
	assert.False(t, input.Inline())

	bad := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 2, Variables: "{"}}
	_, err = h.parseInput(bad)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeParseError, apperrors.FromEngineError(err).Code)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Inline(t *testing.T) {
	tests := []struct {
		name      string
		values    map[string]interface{}
		wantPrice float64
	}{
		{"weekly with extras", map[string]interface{}{"bedrooms": 3.0, "frequency": "weekly", "extras": []interface{}{"oven", "windows"}}, 137},
		{"one-off no extras", map[string]interface{}{"bedrooms": 2.0, "frequency": "once", "extras": []interface{}{"windows"}}, 85},
		{"string bedroom count", map[string]interface{}{"bedrooms": "4", "frequency": "weekly", "extras": []interface{}{"oven"}}, 136},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, nil, nil)
			output, err := h.Execute(context.Background(), inlineInput(tt.values))
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, output.Price)
			assert.Equal(t, "USD", output.Currency)
			assert.NotEmpty(t, output.QuoteID)
			_, err = time.Parse(time.RFC3339, output.CalculatedAt)
			assert.NoError(t, err)
		})
	}
}

func TestHandler_Execute_StoredForm(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	fieldsJSON, err := json.Marshal(cleaningFields())
	require.NoError(t, err)
	mock.ExpectQuery("SELECT name, fields, formula").
		WithArgs("biz-9", "cleaning").
		WillReturnRows(sqlmock.NewRows([]string{"name", "fields", "formula", "currency", "version", "updated_at"}).
			AddRow("Home cleaning", fieldsJSON, cleaningFormula, "CAD", 2, time.Now()))

	store := formstore.New(db, redisClient, time.Minute, logger.NewNoOpLogger())
	service := quote.NewService(store, "USD", nil, logger.NewNoOpLogger())
	h := createTestHandler(t, service, nil)

	output, err := h.Execute(context.Background(), &Input{Request: quote.Request{
		BusinessID: "biz-9",
		ServiceID:  "cleaning",
		Values:     map[string]interface{}{"bedrooms": 1.0, "frequency": "once", "extras": []interface{}{}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 30.0, output.Price)
	assert.Equal(t, "CAD", output.Currency)
	assert.Equal(t, "biz-9", output.BusinessID)
	assert.Equal(t, "cleaning", output.ServiceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		input    *Input
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "incomplete form",
			config:   &Config{Timeout: time.Second, RequireComplete: true},
			input:    inlineInput(map[string]interface{}{"bedrooms": 2.0}),
			wantCode: apperrors.ErrCodeFormIncomplete,
		},
		{
			name:     "dropdown value not offered",
			input:    inlineInput(map[string]interface{}{"bedrooms": 2.0, "frequency": "daily", "extras": []interface{}{}}),
			wantCode: apperrors.ErrCodeCalculationFailed,
		},
		{
			name: "formula syntax error",
			input: &Input{Request: quote.Request{
				Fields:  cleaningFields(),
				Formula: "bedrooms * (30",
			}},
			wantCode: apperrors.ErrCodeCalculationFailed,
		},
		{
			name:     "nothing to price",
			input:    &Input{},
			wantCode: apperrors.ErrCodeInputValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, nil, tt.config)
			output, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, output)

			stdErr := apperrors.FromEngineError(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, 0, apperrors.ConvertToBPMNError(stdErr).Retries)
		})
	}
}

func TestHandler_Execute_IncompleteAllowed(t *testing.T) {
	h := createTestHandler(t, nil, &Config{Timeout: time.Second, RequireComplete: false})
	output, err := h.Execute(context.Background(), inlineInput(map[string]interface{}{"bedrooms": 2.0, "frequency": "once"}))
	require.NoError(t, err)
	assert.Equal(t, 60.0, output.Price)
}

func TestHandler_CalculationErrorVariables(t *testing.T) {
	h := createTestHandler(t, nil, nil)
	_, err := h.Execute(context.Background(), inlineInput(map[string]interface{}{"bedrooms": 2.0, "frequency": "daily"}))
	require.Error(t, err)

	vars := apperrors.ConvertToBPMNError(apperrors.FromEngineError(err)).ToErrorVariables()
	assert.Equal(t, "CALCULATION_FAILED", vars["errorCode"])
	assert.Equal(t, cleaningFormula, vars["formula"])
	assert.Equal(t, "frequency", vars["fieldId"])
}
