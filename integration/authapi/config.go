package authapi

import "time"

// Config holds the remote API settings with environment variable
// mapping for core/config.
type Config struct {
	BaseURL string        `env:"IJAA_API_BASE_URL" envDefault:"http://localhost:8000"`
	Timeout time.Duration `env:"IJAA_API_TIMEOUT" envDefault:"30s"`
}
