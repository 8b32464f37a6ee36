package feedback

import (
	"context"

	"github.com/jonathan/algomentor/internal/llm"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	ModelNameFunc       func(tier llm.ModelTier) string
	CloseFunc           func() error
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "What is the brute force here?", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return validReport, nil
}

func (m *MockLLMClient) ModelName(tier llm.ModelTier) string {
	if m.ModelNameFunc != nil {
		return m.ModelNameFunc(tier)
	}
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

const validReport = `{
  "failed_submission_analysis": {
    "summary": "Wrong answers on greedy problems.",
    "common_mistakes": ["Sorting by the wrong key"],
    "problem_insights": ["1791C fails on duplicates"]
  },
  "rating_diagnosis": {
    "current_state": "Stable around 1400",
    "trend": "flat",
    "bottlenecks": ["Div2 C speed"]
  },
  "tag_feedback": {
    "strengths": ["math"],
    "weaknesses": ["dp"],
    "recommendations": ["Three 1500-rated dp problems"]
  },
  "resource_suggestions": {
    "topics": ["knapsack"],
    "practice_strategy": ["Time-box to 40 minutes"],
    "reading": ["CSES dp section"]
  },
  "suggested_priorities": {
    "today": ["Upsolve 1791C"],
    "this_week": ["Five BFS problems"],
    "long_term": ["Reach 1600"]
  }
}`
