package config

import (
	"strings"
	"time"
)

// APIConfig configures the outbound API client used for remote login and
// authenticated calls.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://api.example.com/v1".
	BaseURL   string        `env:"API_BASE_URL"`
	Timeout   time.Duration `env:"API_TIMEOUT"    envDefault:"10s"`
	LoginPath string        `env:"API_LOGIN_PATH" envDefault:"/auth/login"`
}

// Sanitize normalises API client settings.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.LoginPath = strings.TrimSpace(c.LoginPath)
	if c.LoginPath == "" {
		c.LoginPath = "/auth/login"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// IsConfigured reports whether an API base URL was provided.
func (c *APIConfig) IsConfigured() bool { return c.BaseURL != "" }
