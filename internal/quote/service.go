// internal/quote/service.go
package quote

import (
	"context"
	"time"

	apperrors "quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/metrics"
	"quote-workers/internal/common/observability"
	"quote-workers/internal/formstore"
	"quote-workers/internal/models"
	"quote-workers/internal/pricing"

	"github.com/google/uuid"
)

// FormSource loads stored forms. *formstore.Store satisfies it.
type FormSource interface {
	Get(ctx context.Context, businessID, serviceID string) (*models.ServiceForm, error)
}

// Request names a form either by reference or inline, plus the answers.
type Request struct {
	BusinessID string                 `json:"businessId,omitempty"`
	ServiceID  string                 `json:"serviceId,omitempty"`
	Fields     []pricing.Field        `json:"fields,omitempty"`
	Formula    string                 `json:"formula,omitempty"`
	Values     map[string]interface{} `json:"values"`
}

// Inline reports whether the request carries its own definition.
func (r Request) Inline() bool {
	return len(r.Fields) > 0
}

// Resolved is a compiled form ready to answer questions.
type Resolved struct {
	Form     *pricing.Form
	Currency string
}

type Service struct {
	forms    FormSource
	currency string
	obs      *observability.Observability
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(forms FormSource, currency string, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		forms:    forms,
		currency: currency,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "quote-service"}),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

// Resolve compiles an inline definition or loads the referenced one. All
// failures come back as *apperrors.StandardError.
func (s *Service) Resolve(ctx context.Context, req Request) (*Resolved, error) {
	if req.Inline() {
		form, err := models.FormDefinition{Fields: req.Fields, Formula: req.Formula}.Compile()
		if err != nil {
			return nil, apperrors.FromEngineError(err).WithMetadata("source", "inline")
		}
		return &Resolved{Form: form, Currency: s.currency}, nil
	}

	if req.BusinessID == "" || req.ServiceID == "" {
		return nil, apperrors.NewInputValidationError("either fields and formula, or businessId and serviceId, are required")
	}
	if s.forms == nil {
		return nil, apperrors.NewInputValidationError("stored forms are not available, send the definition inline")
	}

	sf, err := s.forms.Get(ctx, req.BusinessID, req.ServiceID)
	if err != nil {
		return nil, formstore.StandardError(err, req.BusinessID, req.ServiceID)
	}
	currency := sf.Currency
	if currency == "" {
		currency = s.currency
	}
	return &Resolved{Form: sf.Form, Currency: currency}, nil
}

// Price applies defaults to hidden fields and evaluates the formula. It does
// not check completion.
func (s *Service) Price(ctx context.Context, r *Resolved, values pricing.Values) (float64, error) {
	price, err := r.Form.Price(values)
	if err != nil {
		return 0, apperrors.FromEngineError(err)
	}
	s.obs.RecordQuotePrice(ctx, r.Currency, price)
	return price, nil
}

// Evaluate answers everything a quote form needs after each answer:
// visibility, completion and, once complete, the price.
func (s *Service) Evaluate(ctx context.Context, req Request, source string) (*models.QuoteEvaluation, error) {
	started := time.Now()

	resolved, err := s.Resolve(ctx, req)
	if err != nil {
		metrics.ObserveQuote(source, metrics.OutcomeError, started)
		return nil, err
	}

	values := pricing.Values(req.Values)
	form := resolved.Form

	visible := form.VisibleFields(values)
	eval := &models.QuoteEvaluation{
		VisibleFieldIDs: make([]string, 0, len(visible)),
		HiddenFieldIDs:  form.HiddenFieldIDs(values),
		Completion:      form.CheckCompletion(values),
		RuleWarnings:    pricing.CheckRules(form.Fields()),
	}
	for _, f := range visible {
		eval.VisibleFieldIDs = append(eval.VisibleFieldIDs, f.ID)
	}

	if !eval.Completion.IsCompleted {
		metrics.ObserveQuote(source, metrics.OutcomeIncomplete, started)
		return eval, nil
	}

	price, err := s.Price(ctx, resolved, values)
	if err != nil {
		metrics.ObserveQuote(source, metrics.OutcomeFailed, started)
		s.logger.Warn("quote calculation failed", map[string]interface{}{
			"businessId": req.BusinessID,
			"serviceId":  req.ServiceID,
			"error":      err,
		})
		return eval, err
	}

	now := s.now()
	eval.Price = &price
	eval.Currency = resolved.Currency
	eval.QuoteID = s.newID()
	eval.CalculatedAt = &now
	metrics.ObserveQuote(source, metrics.OutcomePriced, started)
	return eval, nil
}

// NewQuoteID is exposed for workers that price outside Evaluate.
func (s *Service) NewQuoteID() string { return s.newID() }

// Now is the service clock.
func (s *Service) Now() time.Time { return s.now() }
