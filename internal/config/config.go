package config

import (
	"os"
	"strings"
	"time"
)

// DefaultBaseURL is the production endpoint of the BFL API.
const DefaultBaseURL = "https://api.bfl.ml"

// Environment variables read by FromEnv.
const (
	EnvAPIKey  = "BFL_API_KEY"
	EnvBaseURL = "BFL_API_URL"
)

// Config carries everything the client needs to reach the service. It is
// built once at startup and read-only afterwards; nothing in the client
// mutates it during polling.
type Config struct {
	// APIKey authenticates requests. May be empty at construction; the
	// client reports domain.ErrMissingAPIKey on first use instead.
	APIKey string
	// BaseURL of the API. Defaults to DefaultBaseURL when empty.
	BaseURL string
	// HTTPTimeout bounds a single request, not the overall poll loop.
	HTTPTimeout time.Duration
}

// FromEnv builds a Config from the process environment.
func FromEnv() Config {
	cfg := Config{
		APIKey:      strings.TrimSpace(os.Getenv(EnvAPIKey)),
		BaseURL:     DefaultBaseURL,
		HTTPTimeout: 60 * time.Second,
	}
	if u := strings.TrimSpace(os.Getenv(EnvBaseURL)); u != "" {
		cfg.BaseURL = u
	}
	return cfg
}
