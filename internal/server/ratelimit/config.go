package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the budget of one route: Limit requests per Window with
// a bucket of Burst tokens (0 uses Limit). A zero Limit is unlimited. A Path
// ending in "/" covers every path below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// Environment variables read by LoadConfig.
const (
	EnvEnabled         = "RATE_LIMIT_ENABLED"
	EnvDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	EnvWhitelist       = "RATE_LIMIT_WHITELIST"
	EnvBlacklist       = "RATE_LIMIT_BLACKLIST"
)

// LoadConfig builds a Config from the environment. Unparseable values fall
// back to their defaults.
func LoadConfig() *Config {
	return loadConfig(os.LookupEnv)
}

func loadConfig(lookup func(string) (string, bool)) *Config {
	if !envValue(lookup, EnvEnabled, true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	atoi := strconv.Atoi
	return &Config{
		Enabled:         true,
		DefaultLimit:    envValue(lookup, EnvDefaultLimit, 1000, atoi),
		DefaultWindow:   envValue(lookup, EnvDefaultWindow, time.Minute, time.ParseDuration),
		CleanupInterval: envValue(lookup, EnvCleanupInterval, 5*time.Minute, time.ParseDuration),
		Whitelist:       addressSet(lookup, EnvWhitelist),
		Blacklist:       addressSet(lookup, EnvBlacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits for the mentor API.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Model-backed routes share the provider's quota.
		{Path: "/chat", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/feedback", Method: "GET", Limit: 20, Window: time.Hour, Burst: 3},

		// Account writes.
		{Path: "/auth/signup", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},
		{Path: "/auth/login", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/me/handles", Method: "PUT", Limit: 30, Window: time.Minute, Burst: 5},

		// Dashboard reads fan out to three upstream sites.
		{Path: "/dashboard", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/recommendations", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func envValue[T any](lookup func(string) (string, bool), key string, def T, parse func(string) (T, error)) T {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

// addressSet reads a comma-separated list of client addresses.
func addressSet(lookup func(string) (string, bool), key string) map[string]bool {
	set := make(map[string]bool)
	raw, _ := lookup(key)
	for _, addr := range strings.Split(raw, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			set[addr] = true
		}
	}
	return set
}
