package models

import "time"

// Status is the verdict of evaluating one rule against one cluster.
type Status string

const (
	StatusPassed       Status = "Passed"
	StatusFailed       Status = "Failed"
	StatusUndetermined Status = "Undetermined"
)

// RunStatus is the terminal state of an assessment run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RuleResult is the outcome of evaluating a single rule.
// It is the atomic output unit of the assessment engine.
type RuleResult struct {
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Category string `json:"category"`
	Status   Status `json:"status"`

	// ActualValue is the stringified resolved value for direct-mode rules,
	// or error text when evaluation degraded. Empty for query-mode rules.
	ActualValue string `json:"actual_value,omitempty"`

	// ExpectedValue is the stringified expected value, when the rule has one.
	ExpectedValue string `json:"expected_value,omitempty"`

	Description   string `json:"description,omitempty"`
	Remediation   string `json:"remediation,omitempty"`
	LearnMoreLink string `json:"learn_more_link,omitempty"`
}

// PillarScore aggregates rule results belonging to one pillar.
type PillarScore struct {
	// Score is round(passed/(passed+failed)*100) over the pillar's rules,
	// 0 when the pillar has no conclusively validated rules.
	Score        int `json:"score"`
	Passed       int `json:"passed"`
	Failed       int `json:"failed"`
	NotValidated int `json:"not_validated"`
	Total        int `json:"total"`
}

// AssessmentSummary is derived entirely from a RuleResult list.
type AssessmentSummary struct {
	// OverallScore is round(passed/(passed+failed)*100). Undetermined results
	// are excluded from both numerator and denominator so an inconclusive
	// check neither depresses nor inflates the score; they are visible via
	// NotValidated instead.
	OverallScore int `json:"overall_score"`

	TotalChecks  int `json:"total_checks"`
	Passed       int `json:"passed"`
	Failed       int `json:"failed"`
	NotValidated int `json:"not_validated"`

	// PillarScores always contains every fixed pillar, including pillars
	// with zero applicable rules.
	PillarScores map[string]PillarScore `json:"pillar_scores"`
}

// AssessmentRun is the top-level output of one assessment of one cluster.
// Ownership passes to the caller; the engine holds no state across runs.
type AssessmentRun struct {
	RunID          string    `json:"run_id"`
	SubscriptionID string    `json:"subscription_id"`
	ResourceGroup  string    `json:"resource_group"`
	ClusterName    string    `json:"cluster_name"`
	ClusterID      string    `json:"cluster_id,omitempty"`
	Status         RunStatus `json:"status"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`

	// Summary is nil when the run failed before any rule was evaluated.
	Summary *AssessmentSummary `json:"summary,omitempty"`

	// Results are in catalog order after deduplication by rule name,
	// regardless of evaluation completion order.
	Results []RuleResult `json:"results"`

	// ErrorMessage is set only when Status is RunFailed.
	ErrorMessage string `json:"error_message,omitempty"`
}
