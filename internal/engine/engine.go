package engine

import (
	"context"

	"github.com/aksbpa/aksbpa/internal/models"
)

// DefaultConcurrency bounds parallel rule evaluation when Options leaves
// Concurrency unset. Kept small so fleet queries respect the Resource Graph
// rate limits.
const DefaultConcurrency = 4

// Options configures a single assessment run.
// It is the sole input to Engine.RunAssessment.
type Options struct {
	// SubscriptionID, ResourceGroup, and ClusterName identify the target
	// cluster. All three are required.
	SubscriptionID string
	ResourceGroup  string
	ClusterName    string

	// Concurrency bounds parallel rule evaluation. Defaults to
	// DefaultConcurrency when zero or negative.
	Concurrency int
}

// Engine runs the full rule catalog against one cluster.
//
// RunAssessment always returns a non-nil run: a configuration fetch failure
// is reported as a run with Status=RunFailed and ErrorMessage set, not as an
// error. The error return covers only invalid options, so a caller can
// distinguish "we could not assess this cluster" from "the request itself
// was malformed".
type Engine interface {
	RunAssessment(ctx context.Context, opts Options) (*models.AssessmentRun, error)
}
