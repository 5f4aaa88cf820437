// internal/workers/quote/calculate-quote-price/models.go
package calculatequoteprice

import "quote-workers/internal/quote"

type Input struct {
	quote.Request
}

type Output struct {
	QuoteID      string  `json:"quoteId"`
	BusinessID   string  `json:"businessId,omitempty"`
	ServiceID    string  `json:"serviceId,omitempty"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	CalculatedAt string  `json:"calculatedAt"`
}
