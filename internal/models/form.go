// internal/models/form.go
package models

import (
	"time"

	"quote-workers/internal/pricing"
)

// ServiceForm is a merchant's quote form for one priced service.
type ServiceForm struct {
	BusinessID string          `json:"businessId"`
	ServiceID  string          `json:"serviceId"`
	Name       string          `json:"name"`
	Fields     []pricing.Field `json:"fields"`
	Formula    string          `json:"formula"`
	Currency   string          `json:"currency,omitempty"`
	Version    int             `json:"version"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	// Form is the validated, parsed definition. Set by the form store.
	Form *pricing.Form `json:"-"`
}

// FormDefinition is the inline shape callers may send instead of a
// businessId/serviceId reference.
type FormDefinition struct {
	Fields  []pricing.Field `json:"fields"`
	Formula string          `json:"formula"`
}

// Compile validates the definition and parses its formula.
func (d FormDefinition) Compile() (*pricing.Form, error) {
	return pricing.NewForm(d.Fields, d.Formula)
}
