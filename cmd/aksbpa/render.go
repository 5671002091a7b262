package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/aksbpa/aksbpa/internal/catalog"
	"github.com/aksbpa/aksbpa/internal/models"
)

var (
	passColor  = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed)
	undetColor = color.New(color.FgYellow)
)

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// statusLabel renders a result status with its conventional color.
func statusLabel(s models.Status) string {
	switch s {
	case models.StatusPassed:
		return passColor.Sprint(string(s))
	case models.StatusFailed:
		return failColor.Sprint(string(s))
	default:
		return undetColor.Sprint(string(s))
	}
}

// scoreLabel colors a 0-100 score: green ≥ 80, yellow ≥ 50, red below.
func scoreLabel(score int) string {
	switch {
	case score >= 80:
		return passColor.Sprintf("%d", score)
	case score >= 50:
		return undetColor.Sprintf("%d", score)
	default:
		return failColor.Sprintf("%d", score)
	}
}

// printRun renders one assessment run: a header, the per-pillar score table,
// and the full per-rule results table.
func printRun(w io.Writer, run *models.AssessmentRun) {
	fmt.Fprintf(w, "Run:      %s\n", run.RunID)
	fmt.Fprintf(w, "Cluster:  %s (%s/%s)\n", run.ClusterName, run.SubscriptionID, run.ResourceGroup)
	fmt.Fprintf(w, "Started:  %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Status:   %s\n", string(run.Status))

	if run.Status == models.RunFailed {
		fmt.Fprintf(w, "Error:    %s\n", run.ErrorMessage)
		return
	}

	s := run.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Overall Score:  %s  (passed %d, failed %d, not validated %d of %d checks)\n",
		scoreLabel(s.OverallScore), s.Passed, s.Failed, s.NotValidated, s.TotalChecks)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-26s  %-6s  %-7s  %-7s  %-14s  %s\n", "PILLAR", "SCORE", "PASSED", "FAILED", "NOT VALIDATED", "TOTAL")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, pillar := range catalog.Pillars() {
		ps := s.PillarScores[pillar.Name]
		fmt.Fprintf(w, "%-26s  %-6s  %-7d  %-7d  %-14d  %d\n",
			pillar.Name, scoreLabel(ps.Score), ps.Passed, ps.Failed, ps.NotValidated, ps.Total)
	}

	if len(run.Results) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-52s  %-24s  %s\n", "RULE", "PILLAR", "STATUS")
	fmt.Fprintln(w, strings.Repeat("-", 92))
	for _, r := range run.Results {
		fmt.Fprintf(w, "%-52s  %-24s  %s\n", truncate(r.RuleName, 52), r.Category, statusLabel(r.Status))
		if r.Status == models.StatusFailed && r.ExpectedValue != "" {
			fmt.Fprintf(w, "    expected: %s    actual: %s\n", r.ExpectedValue, r.ActualValue)
		}
	}
}

// printRunList renders the scan history table.
func printRunList(w io.Writer, runs []models.AssessmentRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-20s  %-10s  %-6s  %s\n", "RUN ID", "CLUSTER", "STATUS", "SCORE", "STARTED")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for _, run := range runs {
		score := "-"
		if run.Summary != nil {
			score = fmt.Sprintf("%d", run.Summary.OverallScore)
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-10s  %-6s  %s\n",
			run.RunID, truncate(run.ClusterName, 20), string(run.Status), score,
			run.StartedAt.Format(time.RFC3339))
	}
}

// printSubscriptions renders the subscriptions table.
func printSubscriptions(w io.Writer, subs []models.Subscription) {
	if len(subs) == 0 {
		fmt.Fprintln(w, "No accessible subscriptions.")
		return
	}
	fmt.Fprintf(w, "%-38s  %-32s  %s\n", "SUBSCRIPTION ID", "NAME", "STATE")
	fmt.Fprintln(w, strings.Repeat("-", 84))
	for _, s := range subs {
		fmt.Fprintf(w, "%-38s  %-32s  %s\n", s.ID, truncate(s.Name, 32), s.State)
	}
}

// printClusters renders the cluster listing table.
func printClusters(w io.Writer, clusters []models.Cluster) {
	if len(clusters) == 0 {
		fmt.Fprintln(w, "No clusters found.")
		return
	}
	fmt.Fprintf(w, "%-28s  %-20s  %-14s  %-10s  %-9s  %s\n",
		"NAME", "RESOURCE GROUP", "LOCATION", "VERSION", "TIER", "POWER")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for _, c := range clusters {
		tier := c.SKU.Tier
		if tier == "" {
			tier = "-"
		}
		fmt.Fprintf(w, "%-28s  %-20s  %-14s  %-10s  %-9s  %s\n",
			truncate(c.Name, 28), truncate(c.ResourceGroup, 20), c.Location,
			c.KubernetesVersion, tier, c.PowerState)
	}
}

// printRules renders the catalog listing table.
func printRules(w io.Writer, rules []models.Rule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "No rules in catalog.")
		return
	}
	fmt.Fprintf(w, "%-28s  %-24s  %-7s  %s\n", "ID", "PILLAR", "MODE", "NAME")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range rules {
		fmt.Fprintf(w, "%-28s  %-24s  %-7s  %s\n",
			r.EffectiveID(), r.Category, modeLabel(r.Mode()), truncate(r.Name, 46))
	}
}

// printRuleDetail renders one rule in full, including its query body for
// query-mode rules.
func printRuleDetail(w io.Writer, rule models.Rule, cat catalog.Catalog) {
	fmt.Fprintf(w, "Rule:         %s\n", rule.EffectiveID())
	fmt.Fprintf(w, "Name:         %s\n", rule.Name)
	fmt.Fprintf(w, "Pillar:       %s\n", rule.Category)
	fmt.Fprintf(w, "Mode:         %s\n", modeLabel(rule.Mode()))
	if rule.Description != "" {
		fmt.Fprintf(w, "Description:  %s\n", rule.Description)
	}
	if rule.Remediation != "" {
		fmt.Fprintf(w, "Remediation:  %s\n", rule.Remediation)
	}
	if rule.LearnMoreLink != "" {
		fmt.Fprintf(w, "Learn more:   %s\n", rule.LearnMoreLink)
	}
	switch rule.Mode() {
	case models.ModeDirect:
		fmt.Fprintf(w, "Path:         %s\n", rule.AttributePath)
		if rule.ExpectedValue != nil {
			fmt.Fprintf(w, "Expected:     %v\n", rule.ExpectedValue)
		}
	case models.ModeQuery:
		fmt.Fprintf(w, "Query ref:    %s\n", rule.QueryReference)
		if body, ok := cat.QueryBody(rule.QueryReference); ok {
			fmt.Fprintln(w, "Query:")
			for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
}

func modeLabel(m models.EvaluationMode) string {
	switch m {
	case models.ModeDirect:
		return "direct"
	case models.ModeQuery:
		return "query"
	default:
		return "none"
	}
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
