package types

// DailyFeedback is the structured coaching report produced once per user per day.
type DailyFeedback struct {
	FailedSubmissionAnalysis FailedSubmissionAnalysis `json:"failed_submission_analysis"`
	RatingDiagnosis          RatingDiagnosis          `json:"rating_diagnosis"`
	TagFeedback              TagFeedback              `json:"tag_feedback"`
	ResourceSuggestions      ResourceSuggestions      `json:"resource_suggestions"`
	SuggestedPriorities      SuggestedPriorities      `json:"suggested_priorities"`
}

// FailedSubmissionAnalysis reviews recent failed attempts.
type FailedSubmissionAnalysis struct {
	Summary         string   `json:"summary"`
	CommonMistakes  []string `json:"common_mistakes"`
	ProblemInsights []string `json:"problem_insights"`
}

// RatingDiagnosis describes rating progress.
type RatingDiagnosis struct {
	CurrentState string   `json:"current_state"`
	Trend        string   `json:"trend"`
	Bottlenecks  []string `json:"bottlenecks"`
}

// TagFeedback covers strengths and weaknesses by topic.
type TagFeedback struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

// ResourceSuggestions lists what to study and how.
type ResourceSuggestions struct {
	Topics           []string `json:"topics"`
	PracticeStrategy []string `json:"practice_strategy"`
	Reading          []string `json:"reading"`
}

// SuggestedPriorities orders next actions by horizon.
type SuggestedPriorities struct {
	Today    []string `json:"today"`
	ThisWeek []string `json:"this_week"`
	LongTerm []string `json:"long_term"`
}

// FeedbackContext is everything the coach sees when writing daily feedback.
type FeedbackContext struct {
	TagDistribution  TagDistribution    `json:"tag_distribution"`
	Profiles         PlatformProfiles   `json:"dashboard_info"`
	FailedLeetCode   []FailedSubmission `json:"failed_leetcode"`
	FailedCodeforces []FailedSubmission `json:"failed_codeforces"`
}

// FeedbackFailureKind classifies why feedback could not be produced.
type FeedbackFailureKind string

// Failure kinds surfaced to clients.
const (
	FeedbackRateLimited FeedbackFailureKind = "rate_limited"
	FeedbackFailed      FeedbackFailureKind = "generation_failed"
)

// FeedbackFailure is the structured error returned in place of feedback.
type FeedbackFailure struct {
	Error   FeedbackFailureKind `json:"error"`
	Message string              `json:"message"`
}

// ChatTurn is one exchange with the mentor.
type ChatTurn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// ChatRequest is the body of a chat call.
type ChatRequest struct {
	Doubt string `json:"doubt" validate:"required"`
}

// ChatResponse is returned from a successful chat call.
type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}
