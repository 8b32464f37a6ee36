package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited is returned for routes that are never throttled.
var unlimited = EndpointConfig{}

// MatchEndpoint returns the config for a request, or nil when none applies
// and the default limit should be used. An exact path wins over a prefix
// config, and the longest prefix wins among prefixes. GET /health is never
// throttled.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "/health" && strings.EqualFold(method, http.MethodGet) {
		ec := unlimited
		return &ec
	}

	var best *EndpointConfig
	for i := range configs {
		ec := &configs[i]
		if !strings.EqualFold(ec.Method, method) {
			continue
		}
		if ec.Path == path {
			return ec
		}
		if strings.HasSuffix(ec.Path, "/") && strings.HasPrefix(path, ec.Path) &&
			(best == nil || len(ec.Path) > len(best.Path)) {
			best = ec
		}
	}
	return best
}
