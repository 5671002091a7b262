package engine

import (
	"testing"

	"github.com/aksbpa/aksbpa/internal/catalog"
	"github.com/aksbpa/aksbpa/internal/models"
)

func results(category string, statuses ...models.Status) []models.RuleResult {
	out := make([]models.RuleResult, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, models.RuleResult{Category: category, Status: s})
	}
	return out
}

// TestSummarize_PillarScore verifies the pillar formula excludes
// undetermined checks from the denominator while still counting them in
// Total: {P×3, F×1, U×1} → round(3/4*100) = 75 with Total = 5.
func TestSummarize_PillarScore(t *testing.T) {
	rs := results("Reliability",
		models.StatusPassed, models.StatusPassed, models.StatusPassed,
		models.StatusFailed, models.StatusUndetermined)

	summary := Summarize(rs)
	ps := summary.PillarScores["Reliability"]
	if ps.Total != 5 {
		t.Errorf("Total = %d; want 5", ps.Total)
	}
	if ps.Score != 75 {
		t.Errorf("Score = %d; want 75", ps.Score)
	}
	if ps.Passed != 3 || ps.Failed != 1 || ps.NotValidated != 1 {
		t.Errorf("counts = %d/%d/%d; want 3/1/1", ps.Passed, ps.Failed, ps.NotValidated)
	}
}

// TestSummarize_OverallScoreExcludesUndetermined verifies that inconclusive
// checks are dropped from both sides of the overall score:
// {Passed×2, Failed×2, Undetermined×6} → round(2/4*100) = 50, not 20.
func TestSummarize_OverallScoreExcludesUndetermined(t *testing.T) {
	rs := results("Security",
		models.StatusPassed, models.StatusPassed,
		models.StatusFailed, models.StatusFailed,
		models.StatusUndetermined, models.StatusUndetermined, models.StatusUndetermined,
		models.StatusUndetermined, models.StatusUndetermined, models.StatusUndetermined)

	summary := Summarize(rs)
	if summary.OverallScore != 50 {
		t.Errorf("OverallScore = %d; want 50", summary.OverallScore)
	}
	if summary.TotalChecks != 10 {
		t.Errorf("TotalChecks = %d; want 10", summary.TotalChecks)
	}
	if summary.NotValidated != 6 {
		t.Errorf("NotValidated = %d; want 6", summary.NotValidated)
	}
}

// TestSummarize_AllPillarsAlwaysPresent verifies every fixed pillar appears
// in the map even with zero applicable rules, scored 0 with zero counts.
func TestSummarize_AllPillarsAlwaysPresent(t *testing.T) {
	summary := Summarize(results("Security", models.StatusPassed))

	if len(summary.PillarScores) != len(catalog.Pillars()) {
		t.Fatalf("pillar map has %d entries; want %d", len(summary.PillarScores), len(catalog.Pillars()))
	}
	for _, pillar := range catalog.Pillars() {
		ps, ok := summary.PillarScores[pillar.Name]
		if !ok {
			t.Errorf("pillar %q missing from map", pillar.Name)
			continue
		}
		if pillar.Name != "Security" && (ps.Score != 0 || ps.Total != 0) {
			t.Errorf("empty pillar %q: score=%d total=%d; want zeros", pillar.Name, ps.Score, ps.Total)
		}
	}
}

// TestSummarize_NoValidatedResults verifies an all-undetermined run scores 0
// rather than dividing by zero.
func TestSummarize_NoValidatedResults(t *testing.T) {
	summary := Summarize(results("Reliability",
		models.StatusUndetermined, models.StatusUndetermined))
	if summary.OverallScore != 0 {
		t.Errorf("OverallScore = %d; want 0", summary.OverallScore)
	}
}

// TestSummarize_EmptyInput verifies zero rules is a valid (if useless)
// outcome with all pillars reported.
func TestSummarize_EmptyInput(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalChecks != 0 || summary.OverallScore != 0 {
		t.Errorf("summary = %+v; want zeros", summary)
	}
	if len(summary.PillarScores) != len(catalog.Pillars()) {
		t.Errorf("pillar map has %d entries; want %d", len(summary.PillarScores), len(catalog.Pillars()))
	}
}

// TestRoundPercent_HalfAwayFromZero documents the rounding choice: halves
// round away from zero, so 1 of 8 → 12.5 → 13.
func TestRoundPercent_HalfAwayFromZero(t *testing.T) {
	if got := roundPercent(1, 8); got != 13 {
		t.Errorf("roundPercent(1, 8) = %d; want 13", got)
	}
	if got := roundPercent(1, 3); got != 33 {
		t.Errorf("roundPercent(1, 3) = %d; want 33", got)
	}
}
