// internal/formstore/store.go
package formstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/validation"
	"quote-workers/internal/models"
	"quote-workers/internal/pricing"

	"github.com/redis/go-redis/v9"
)

var (
	ErrFormNotFound   = errors.New("FORM_NOT_FOUND")
	ErrFormLoadFailed = errors.New("FORM_LOAD_FAILED")
	ErrFormInvalid    = errors.New("FORM_DEFINITION_INVALID")
)

const formQuery = `SELECT name, fields, formula, currency, version, updated_at
FROM service_forms
WHERE business_id = $1 AND service_id = $2 AND is_active = true`

// Store reads published quote forms. Postgres is the source of truth and
// Redis holds validated copies for TTL.
type Store struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func New(db *sql.DB, redisClient *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		db:     db,
		redis:  redisClient,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "formstore"}),
	}
}

// CacheKey is scoped by business so tenants never share entries.
func CacheKey(businessID, serviceID string) string {
	return "form:" + businessID + ":" + serviceID
}

// Get returns the active form for a business's service with Form compiled.
func (s *Store) Get(ctx context.Context, businessID, serviceID string) (*models.ServiceForm, error) {
	if businessID == "" || serviceID == "" {
		return nil, fmt.Errorf("%w: businessId and serviceId are required", ErrFormNotFound)
	}

	key := CacheKey(businessID, serviceID)
	if sf, ok := s.fromCache(ctx, key); ok {
		return sf, nil
	}

	sf, rawFields, err := s.fromDatabase(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(newCachedForm(sf, rawFields)); err == nil {
		if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Warn("failed to cache form", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return sf, nil
}

// Invalidate drops the cached copy; the next Get reads Postgres.
func (s *Store) Invalidate(ctx context.Context, businessID, serviceID string) error {
	if err := s.redis.Del(ctx, CacheKey(businessID, serviceID)).Err(); err != nil {
		return fmt.Errorf("invalidate form cache: %w", err)
	}
	return nil
}

func (s *Store) fromCache(ctx context.Context, key string) (*models.ServiceForm, bool) {
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("form cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var cached cachedForm
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		s.logger.Warn("discarding undecodable cached form", map[string]interface{}{"key": key})
		return nil, false
	}
	sf := cached.serviceForm()
	if err := json.Unmarshal(cached.Fields, &sf.Fields); err != nil {
		s.logger.Warn("discarding undecodable cached form", map[string]interface{}{"key": key})
		return nil, false
	}
	form, err := pricing.NewForm(sf.Fields, sf.Formula)
	if err != nil {
		return nil, false
	}
	sf.Form = form
	return sf, true
}

// cachedForm keeps the field list exactly as stored so a cache hit decodes
// the same bytes as a database read.
type cachedForm struct {
	BusinessID string          `json:"businessId"`
	ServiceID  string          `json:"serviceId"`
	Name       string          `json:"name"`
	Fields     json.RawMessage `json:"fields"`
	Formula    string          `json:"formula"`
	Currency   string          `json:"currency,omitempty"`
	Version    int             `json:"version"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func newCachedForm(sf *models.ServiceForm, rawFields []byte) cachedForm {
	return cachedForm{
		BusinessID: sf.BusinessID,
		ServiceID:  sf.ServiceID,
		Name:       sf.Name,
		Fields:     json.RawMessage(rawFields),
		Formula:    sf.Formula,
		Currency:   sf.Currency,
		Version:    sf.Version,
		UpdatedAt:  sf.UpdatedAt,
	}
}

func (c cachedForm) serviceForm() *models.ServiceForm {
	return &models.ServiceForm{
		BusinessID: c.BusinessID,
		ServiceID:  c.ServiceID,
		Name:       c.Name,
		Formula:    c.Formula,
		Currency:   c.Currency,
		Version:    c.Version,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (s *Store) fromDatabase(ctx context.Context, businessID, serviceID string) (*models.ServiceForm, []byte, error) {
	var (
		sf        = models.ServiceForm{BusinessID: businessID, ServiceID: serviceID}
		rawFields []byte
		currency  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, formQuery, businessID, serviceID).Scan(
		&sf.Name, &rawFields, &sf.Formula, &currency, &sf.Version, &sf.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrFormNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrFormLoadFailed, err)
	}
	sf.Currency = currency.String

	if err := Decode(rawFields, sf.Formula, &sf); err != nil {
		s.logger.Error("stored form is invalid", map[string]interface{}{
			"businessId": businessID,
			"serviceId":  serviceID,
			"version":    sf.Version,
			"error":      err.Error(),
		})
		return nil, nil, err
	}

	for _, w := range pricing.CheckRules(sf.Fields) {
		s.logger.Warn("form rule will be ignored", map[string]interface{}{
			"businessId": businessID,
			"serviceId":  serviceID,
			"fieldId":    w.FieldID,
			"condition":  w.Condition,
			"message":    w.Message,
		})
	}
	return &sf, rawFields, nil
}

// Decode checks the stored field JSON and formula against the form schema,
// then decodes and compiles them into sf.
func Decode(rawFields []byte, formula string, sf *models.ServiceForm) error {
	doc, err := json.Marshal(map[string]interface{}{
		"fields":  json.RawMessage(rawFields),
		"formula": formula,
	})
	if err != nil {
		return fmt.Errorf("%w: fields are not JSON: %v", ErrFormInvalid, err)
	}

	result, err := validation.ValidateFormDefinition(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormInvalid, err)
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", ErrFormInvalid, result.Error())
	}

	if err := json.Unmarshal(rawFields, &sf.Fields); err != nil {
		return fmt.Errorf("%w: %v", ErrFormInvalid, err)
	}
	sf.Formula = formula

	form, err := pricing.NewForm(sf.Fields, formula)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFormInvalid, err)
	}
	sf.Form = form
	return nil
}

// StandardError maps store errors onto the shared error codes.
func StandardError(err error, businessID, serviceID string) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrFormNotFound):
		return apperrors.NewFormNotFoundError(businessID, serviceID)
	case errors.Is(err, ErrFormInvalid):
		return apperrors.NewFormDefinitionInvalidError(err)
	case errors.Is(err, ErrFormLoadFailed):
		return apperrors.NewFormLoadFailedError(err)
	default:
		return apperrors.FromEngineError(err)
	}
}
