// Package llm wraps the text-generation service behind a small client
// interface with model tiers.
package llm

import (
	"fmt"
	"strconv"
	"strings"
)

// ModelTier selects a model by how much work the prompt needs.
type ModelTier string

const (
	// TierLite answers short mentor chat turns.
	TierLite ModelTier = "lite"
	// TierStandard produces the schema-constrained daily feedback.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long analyses over a full activity history.
	TierAdvanced ModelTier = "advanced"
)

// fallbackOrder is tried when a tier has no model of its own.
var fallbackOrder = []ModelTier{TierStandard, TierLite}

// Defaults for the Gemini models.
const (
	DefaultTemperature     float32 = 0.4
	DefaultMaxOutputTokens int32   = 4096
)

// Config selects models and sampling settings.
type Config struct {
	Models          map[ModelTier]string
	Temperature     float32
	MaxOutputTokens int32
}

// DefaultConfig returns the Gemini model lineup.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// ModelName resolves the model for tier, falling back to the standard and
// then the lite model. It returns "" when nothing is configured.
func (c *Config) ModelName(tier ModelTier) string {
	if name := strings.TrimSpace(c.Models[tier]); name != "" {
		return name
	}
	for _, t := range fallbackOrder {
		if name := strings.TrimSpace(c.Models[t]); name != "" {
			return name
		}
	}
	return ""
}

// Environment overrides read by ApplyEnv.
const (
	EnvModelLite       = "GEMINI_MODEL_LITE"
	EnvModelStandard   = "GEMINI_MODEL_STANDARD"
	EnvModelAdvanced   = "GEMINI_MODEL_ADVANCED"
	EnvTemperature     = "GEMINI_TEMPERATURE"
	EnvMaxOutputTokens = "GEMINI_MAX_OUTPUT_TOKENS"
)

// ApplyEnv returns a copy of c with any GEMINI_* overrides applied.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) (*Config, error) {
	out := &Config{
		Models:          make(map[ModelTier]string, len(c.Models)),
		Temperature:     c.Temperature,
		MaxOutputTokens: c.MaxOutputTokens,
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}

	for key, tier := range map[string]ModelTier{
		EnvModelLite:     TierLite,
		EnvModelStandard: TierStandard,
		EnvModelAdvanced: TierAdvanced,
	} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			out.Models[tier] = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(EnvTemperature); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
		if err != nil || f < 0 || f > 2 {
			return nil, fmt.Errorf("invalid %s %q: want a number in [0, 2]", EnvTemperature, v)
		}
		out.Temperature = float32(f)
	}
	if v, ok := lookup(EnvMaxOutputTokens); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s %q: want a positive integer", EnvMaxOutputTokens, v)
		}
		out.MaxOutputTokens = int32(n)
	}
	return out, nil
}
