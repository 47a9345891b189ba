package ratelimit

import "strings"

// exemptPaths are never limited. Load balancers poll them.
var exemptPaths = map[string]bool{HealthPath: true}

// MatchEndpoint picks the configuration that governs a request. An exact
// path match wins; otherwise the longest configured prefix ending in "/"
// applies. Exempt paths get an unlimited configuration, and nil means the
// limiter's default.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if exemptPaths[path] {
		return &EndpointConfig{Path: path}
	}

	var prefix *EndpointConfig
	for i := range configs {
		ec := &configs[i]
		if ec.Method != method {
			continue
		}
		if ec.Path == path {
			return ec
		}
		if strings.HasSuffix(ec.Path, "/") && strings.HasPrefix(path, ec.Path) {
			if prefix == nil || len(ec.Path) > len(prefix.Path) {
				prefix = ec
			}
		}
	}
	return prefix
}
