package ratelimit

import "strings"

// unlimited paths are never throttled.
var unlimited = map[string]bool{
	"/":       true,
	"/health": true,
}

// MatchEndpoint returns the config for path and method, or nil for the default tier.
// Exact paths win over prefix entries (paths ending in "/").
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && unlimited[path] {
		return &EndpointConfig{Path: path, Method: method}
	}

	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}
