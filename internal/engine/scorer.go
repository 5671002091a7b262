package engine

import (
	"math"

	"github.com/aksbpa/aksbpa/internal/catalog"
	"github.com/aksbpa/aksbpa/internal/models"
)

// Summarize aggregates raw rule results into per-pillar and overall scores.
//
// Every fixed pillar appears in PillarScores even with zero applicable
// rules. Undetermined results count toward TotalChecks and NotValidated
// only; they are excluded from the overall score's numerator and
// denominator so an inconclusive check cannot move the score either way.
// Rounding is half away from zero (math.Round).
func Summarize(results []models.RuleResult) models.AssessmentSummary {
	summary := models.AssessmentSummary{
		TotalChecks:  len(results),
		PillarScores: make(map[string]models.PillarScore, len(catalog.Pillars())),
	}

	for _, r := range results {
		switch r.Status {
		case models.StatusPassed:
			summary.Passed++
		case models.StatusFailed:
			summary.Failed++
		default:
			summary.NotValidated++
		}
	}

	for _, pillar := range catalog.Pillars() {
		var ps models.PillarScore
		for _, r := range results {
			if r.Category != pillar.Name {
				continue
			}
			ps.Total++
			switch r.Status {
			case models.StatusPassed:
				ps.Passed++
			case models.StatusFailed:
				ps.Failed++
			default:
				ps.NotValidated++
			}
		}
		// Same policy as the overall score: undetermined checks are not in
		// the denominator, but they still count toward Total.
		if validated := ps.Passed + ps.Failed; validated > 0 {
			ps.Score = roundPercent(ps.Passed, validated)
		}
		summary.PillarScores[pillar.Name] = ps
	}

	if validated := summary.Passed + summary.Failed; validated > 0 {
		summary.OverallScore = roundPercent(summary.Passed, validated)
	}
	return summary
}

func roundPercent(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
