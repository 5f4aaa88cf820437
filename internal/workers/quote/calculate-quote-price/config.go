// internal/workers/quote/calculate-quote-price/config.go
package calculatequoteprice

import "time"

type Config struct {
	Timeout time.Duration
	// RequireComplete throws FORM_INCOMPLETE instead of pricing a form
	// with unanswered visible fields.
	RequireComplete bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		RequireComplete: true,
	}
}
