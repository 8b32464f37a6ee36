// Package feedback asks the text-generation service for coaching: a daily
// structured report and free-form mentor chat.
package feedback

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jonathan/algomentor/internal/llm"
	"github.com/jonathan/algomentor/internal/prompts"
	"github.com/jonathan/algomentor/internal/schemas"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Generator produces daily feedback reports.
type Generator struct {
	client llm.Client
	log    zerolog.Logger
}

// NewGenerator creates a Generator over client.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{
		client: client,
		log:    log.With().Str("component", "feedback").Logger(),
	}
}

// BuildPrompt renders the daily feedback prompt for fc.
func BuildPrompt(fc types.FeedbackContext) (string, error) {
	schema, err := schemas.DailyFeedbackSchema()
	if err != nil {
		return "", err
	}
	payload, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return "", err
	}
	return prompts.Mentor(prompts.KeyDailyFeedback, map[string]string{
		"Context": string(payload),
		"Schema":  schema,
	})
}

// Generate asks for a report on fc and returns it only if it satisfies the
// schema. Any failure is total; there is no partial report.
func (g *Generator) Generate(ctx context.Context, fc types.FeedbackContext) (*types.DailyFeedback, error) {
	prompt, err := BuildPrompt(fc)
	if err != nil {
		return nil, &GenerationError{Message: "failed to build prompt", Cause: err}
	}

	raw, err := g.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		if llm.IsRateLimited(err) {
			g.log.Warn().Err(err).Msg("feedback generation rate limited")
			return nil, &RateLimitedError{Cause: err}
		}
		g.log.Error().Err(err).Msg("feedback generation failed")
		return nil, &GenerationError{Message: "model call failed", Cause: err}
	}

	return Decode(raw)
}

// Decode strips any fences around raw, validates it against the report
// schema and decodes it.
func Decode(raw string) (*types.DailyFeedback, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if !json.Valid([]byte(cleaned)) {
		return nil, &ParseError{Message: "response is not valid JSON"}
	}

	if err := schemas.ValidateDailyFeedback(cleaned); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			return nil, &ValidationError{Fields: ve.Fields(), Cause: err}
		}
		return nil, &ParseError{Message: "failed to validate response", Cause: err}
	}

	var out types.DailyFeedback
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &ParseError{Message: "failed to decode response", Cause: err}
	}
	return &out, nil
}
