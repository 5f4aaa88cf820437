// internal/workers/quote/check-form-completion/config.go
package checkformcompletion

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
