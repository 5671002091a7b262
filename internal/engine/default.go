package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aksbpa/aksbpa/internal/catalog"
	"github.com/aksbpa/aksbpa/internal/models"
	"github.com/aksbpa/aksbpa/internal/providers/azure"
)

// DefaultEngine is the production implementation of Engine.
// It coordinates configuration fetch, rule evaluation, and score assembly.
// It never talks to Azure directly; all remote access goes through the
// injected ClusterProvider.
type DefaultEngine struct {
	provider     azure.ClusterProvider
	catalog      catalog.Catalog
	queryTimeout time.Duration
}

// NewDefaultEngine constructs a DefaultEngine wired to the supplied provider
// and rule catalog.
func NewDefaultEngine(provider azure.ClusterProvider, cat catalog.Catalog) *DefaultEngine {
	return &DefaultEngine{
		provider:     provider,
		catalog:      cat,
		queryTimeout: defaultQueryTimeout,
	}
}

// WithQueryTimeout overrides the per-query timeout for query-mode rules.
func (e *DefaultEngine) WithQueryTimeout(d time.Duration) *DefaultEngine {
	if d > 0 {
		e.queryTimeout = d
	}
	return e
}

// RunAssessment implements Engine.
//
// The configuration fetch is the only fatal path: when it fails the run is
// returned with Status=RunFailed, no results, and no summary. Every per-rule
// failure after that point is absorbed into an Undetermined result, so a
// fetched cluster always produces a completed run with exactly one result
// per distinct rule name, in catalog order.
func (e *DefaultEngine) RunAssessment(ctx context.Context, opts Options) (*models.AssessmentRun, error) {
	if opts.SubscriptionID == "" || opts.ResourceGroup == "" || opts.ClusterName == "" {
		return nil, fmt.Errorf("subscription, resource group, and cluster name are all required")
	}

	run := &models.AssessmentRun{
		RunID:          uuid.NewString(),
		SubscriptionID: opts.SubscriptionID,
		ResourceGroup:  opts.ResourceGroup,
		ClusterName:    opts.ClusterName,
		StartedAt:      time.Now().UTC(),
		Results:        []models.RuleResult{},
	}

	cluster, err := e.provider.GetCluster(ctx, opts.SubscriptionID, opts.ResourceGroup, opts.ClusterName)
	if err != nil {
		run.Status = models.RunFailed
		run.ErrorMessage = err.Error()
		run.CompletedAt = time.Now().UTC()
		return run, nil
	}
	run.ClusterID = cluster.ID

	rules, _, err := e.catalog.Rules()
	if err != nil {
		run.Status = models.RunFailed
		run.ErrorMessage = fmt.Sprintf("load rule catalog: %v", err)
		run.CompletedAt = time.Now().UTC()
		return run, nil
	}

	distinct := dedupeByName(rules)
	run.Results = e.evaluateAll(ctx, distinct, cluster, opts)

	summary := Summarize(run.Results)
	run.Summary = &summary
	run.Status = models.RunCompleted
	run.CompletedAt = time.Now().UTC()
	return run, nil
}

// dedupeByName keeps the first occurrence of each rule name, preserving
// catalog order. The catalog may carry repeated names across pillar
// variants; only one result is produced per distinct name.
func dedupeByName(rules []models.Rule) []models.Rule {
	seen := make(map[string]struct{}, len(rules))
	distinct := make([]models.Rule, 0, len(rules))
	for _, r := range rules {
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}
		distinct = append(distinct, r)
	}
	return distinct
}

// evaluateAll runs every distinct rule with bounded parallelism. Results are
// written into an index-addressed slice so the output order matches catalog
// order regardless of completion order. The shared configuration tree is
// read-only across workers.
func (e *DefaultEngine) evaluateAll(
	ctx context.Context,
	rules []models.Rule,
	cluster *models.Cluster,
	opts Options,
) []models.RuleResult {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]models.RuleResult, len(rules))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, rule := range rules {
		g.Go(func() error {
			results[i] = e.evaluateRule(ctx, rule, cluster, opts.SubscriptionID)
			return nil
		})
	}
	// Workers never return errors; failures are already Undetermined results.
	_ = g.Wait()
	return results
}

// evaluateRule produces exactly one result for one rule. The evaluators are
// total functions, and a residual panic from unexpected tree shapes is still
// converted to Undetermined with the panic text as the actual value.
func (e *DefaultEngine) evaluateRule(
	ctx context.Context,
	rule models.Rule,
	cluster *models.Cluster,
	subscriptionID string,
) (result models.RuleResult) {
	result = models.RuleResult{
		RuleID:        rule.EffectiveID(),
		RuleName:      rule.Name,
		Category:      rule.Category,
		Status:        models.StatusUndetermined,
		ExpectedValue: expectedDisplay(rule.ExpectedValue),
		Description:   rule.Description,
		Remediation:   rule.Remediation,
		LearnMoreLink: rule.LearnMoreLink,
	}

	defer func() {
		if r := recover(); r != nil {
			result.Status = models.StatusUndetermined
			result.ActualValue = fmt.Sprintf("Error: %v", r)
		}
	}()

	switch rule.Mode() {
	case models.ModeQuery:
		result.Status = evaluateQuery(ctx, e.provider, e.catalog, rule, subscriptionID, cluster.Name, e.queryTimeout)
	case models.ModeDirect:
		result.Status, result.ActualValue = evaluatePath(rule, cluster.Raw)
	}
	// ModeNone stays Undetermined.
	return result
}

// expectedDisplay stringifies the catalog's expected value for result
// records; rules without one (query mode) render empty.
func expectedDisplay(expected any) string {
	if expected == nil {
		return ""
	}
	return stringify(expected)
}
