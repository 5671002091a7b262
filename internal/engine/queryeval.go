package engine

import (
	"context"
	"time"

	"github.com/aksbpa/aksbpa/internal/catalog"
	"github.com/aksbpa/aksbpa/internal/models"
	"github.com/aksbpa/aksbpa/internal/providers/azure"
)

// defaultQueryTimeout caps one Resource Graph round-trip so a stuck query
// degrades to Undetermined instead of stalling the whole run.
const defaultQueryTimeout = 30 * time.Second

// evaluateQuery checks a query-mode rule. Catalog queries are written to
// surface non-compliant resources across the fleet, so the verdict is
// inverted: finding the assessed cluster in the match set means Failed, not
// finding it means Passed. Any provider failure (timeout, malformed query,
// denied access) yields Undetermined; query evaluation never aborts a run.
func evaluateQuery(
	ctx context.Context,
	provider azure.ClusterProvider,
	cat catalog.Catalog,
	rule models.Rule,
	subscriptionID, clusterName string,
	timeout time.Duration,
) models.Status {
	query, ok := cat.QueryBody(rule.QueryReference)
	if !ok {
		return models.StatusUndetermined
	}

	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	records, err := provider.RunResourceQuery(qctx, query, []string{subscriptionID})
	if err != nil {
		return models.StatusUndetermined
	}

	for _, record := range records {
		if name, ok := record["name"].(string); ok && name == clusterName {
			return models.StatusFailed
		}
	}
	return models.StatusPassed
}
