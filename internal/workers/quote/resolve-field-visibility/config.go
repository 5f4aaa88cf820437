// internal/workers/quote/resolve-field-visibility/config.go
package resolvefieldvisibility

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
