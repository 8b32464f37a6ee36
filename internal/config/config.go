// Package config loads service settings from the environment, an optional
// .env file and an optional JSON config file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for upstream endpoints and limits.
const (
	DefaultPort             = 8080
	DefaultCodeforcesAPIURL = "https://codeforces.com/api/"
	DefaultNodeAPIURL       = "http://localhost:3000"
	DefaultLeetCodeProfile  = "https://alfa-leetcode-api.onrender.com"
	DefaultCompeteAPIURL    = "https://competeapi.vercel.app"
	DefaultCacheTTL         = time.Hour
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultLogLevel         = "info"
)

// Config holds the service settings. Every field may come from the
// environment or from a JSON file; zero values mean "use the default".
type Config struct {
	Port        int    `json:"port,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`

	RedisAddr     string `json:"redis_addr,omitempty"` // empty uses the in-process cache
	RedisPassword string `json:"redis_password,omitempty"`

	GeminiAPIKey string `json:"gemini_api_key,omitempty"`

	CodeforcesAPIURL      string `json:"codeforces_api_url,omitempty"`
	NodeAPIURL            string `json:"node_api_url,omitempty"` // LeetCode proxy
	LeetCodeProfileAPIURL string `json:"leetcode_profile_api_url,omitempty"`
	CompeteAPIURL         string `json:"compete_api_url,omitempty"`

	CacheTTL    Duration `json:"cache_ttl,omitempty"`
	HTTPTimeout Duration `json:"http_timeout,omitempty"`

	LogLevel     string `json:"log_level,omitempty"`
	TaxonomyFile string `json:"taxonomy_file,omitempty"`
}

// Duration is a time.Duration that reads "90s"-style strings or plain
// seconds from JSON and the environment.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Duration(time.Duration(n * float64(time.Second)))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string or number of seconds: %w", err)
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// ParseDuration accepts Go duration syntax or an integer number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// Defaults returns a Config with every default filled in.
func Defaults() Config {
	return Config{
		Port:                  DefaultPort,
		CodeforcesAPIURL:      DefaultCodeforcesAPIURL,
		NodeAPIURL:            DefaultNodeAPIURL,
		LeetCodeProfileAPIURL: DefaultLeetCodeProfile,
		CompeteAPIURL:         DefaultCompeteAPIURL,
		CacheTTL:              Duration(DefaultCacheTTL),
		HTTPTimeout:           Duration(DefaultHTTPTimeout),
		LogLevel:              DefaultLogLevel,
	}
}

// Load reads .env (if present) and the environment, fills defaults and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// LoadWithFile is Load with a JSON config file layered between the
// environment and the defaults. An empty path behaves like Load.
func LoadWithFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	_ = godotenv.Load()
	fileCfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	envCfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	merged := envCfg.MergeWithDefaults(fileCfg.MergeWithDefaults(Defaults()))
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// FromEnv reads the settings present in the environment without defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		CodeforcesAPIURL:      os.Getenv("CODEFORCES_API_URL"),
		NodeAPIURL:            os.Getenv("NODE_API_URL"),
		LeetCodeProfileAPIURL: os.Getenv("LEETCODE_PROFILE_API_URL"),
		CompeteAPIURL:         os.Getenv("COMPETE_API_URL"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		TaxonomyFile:          os.Getenv("TAXONOMY_FILE"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}
	for name, dst := range map[string]*Duration{"CACHE_TTL": &cfg.CacheTTL, "HTTP_TIMEOUT": &cfg.HTTPTimeout} {
		d, err := ParseDuration(os.Getenv(name))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = Duration(d)
	}
	return cfg, nil
}

// LoadFile loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config error: 'cache_ttl' must be non-negative")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("config error: 'http_timeout' must be non-negative")
	}
	for name, u := range map[string]string{
		"codeforces_api_url":       c.CodeforcesAPIURL,
		"node_api_url":             c.NodeAPIURL,
		"leetcode_profile_api_url": c.LeetCodeProfileAPIURL,
		"compete_api_url":          c.CompeteAPIURL,
	} {
		if u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("config error: '%s' must be an http(s) URL", name)
		}
	}
	if c.TaxonomyFile != "" {
		if _, err := os.Stat(c.TaxonomyFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: taxonomy file not found: %s", c.TaxonomyFile)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// Values already set on c win; this is how a config file sits under the
// environment and both sit over Defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	setString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	setString(&result.DatabaseURL, defaults.DatabaseURL)
	setString(&result.RedisAddr, defaults.RedisAddr)
	setString(&result.RedisPassword, defaults.RedisPassword)
	setString(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	setString(&result.CodeforcesAPIURL, defaults.CodeforcesAPIURL)
	setString(&result.NodeAPIURL, defaults.NodeAPIURL)
	setString(&result.LeetCodeProfileAPIURL, defaults.LeetCodeProfileAPIURL)
	setString(&result.CompeteAPIURL, defaults.CompeteAPIURL)
	setString(&result.LogLevel, defaults.LogLevel)
	setString(&result.TaxonomyFile, defaults.TaxonomyFile)

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.CacheTTL == 0 {
		result.CacheTTL = defaults.CacheTTL
	}
	if result.HTTPTimeout == 0 {
		result.HTTPTimeout = defaults.HTTPTimeout
	}

	return result
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
