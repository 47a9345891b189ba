package ratelimit

import (
	"strings"
	"time"
)

// Paths with their own buckets.
const (
	WebhookPath = "/webhook"
	TokenPath   = "/api/v1/auth/token"
	HealthPath  = "/health"
	AdminPrefix = "/api/v1/"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// NewConfig builds the limiter configuration for the intake server.
// perMinute and burst apply to webhook submissions, keyed by sender.
// exempt lists client IDs (sender numbers or IPs) that are never limited.
func NewConfig(perMinute, burst int, exempt string) *Config {
	return &Config{
		Enabled:         perMinute > 0,
		DefaultLimit:    120,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       parseList(exempt),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: EndpointConfigs(perMinute, burst),
	}
}

// EndpointConfigs returns the endpoint-specific configurations.
func EndpointConfigs(perMinute, burst int) []EndpointConfig {
	return []EndpointConfig{
		// Each submission can cost an LLM call and a store write.
		{Path: WebhookPath, Method: "POST", Limit: perMinute, Window: time.Minute, Burst: burst},

		// Admin login is cheap to guess against, so keep it tight.
		{Path: TokenPath, Method: "POST", Limit: 10, Window: time.Minute, Burst: 3},

		// Admin reads share one bucket per IP; health is exempt (see MatchEndpoint).
		{Path: AdminPrefix, Method: "GET", Limit: 120, Window: time.Minute, Burst: 120},
	}
}

// parseList parses a comma-separated list of client IDs into a set.
func parseList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	for _, id := range strings.Split(list, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			result[id] = true
		}
	}

	return result
}
