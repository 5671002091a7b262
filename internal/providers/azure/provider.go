// Package azure implements the resource-provider surface of the assessment
// engine: fetching AKS cluster configuration through Azure Resource Manager
// and executing fleet-wide Resource Graph queries.
package azure

import (
	"context"

	"github.com/aksbpa/aksbpa/internal/models"
)

// ClusterProvider is the engine's only window into Azure. The engine never
// constructs SDK clients itself; inject a fake implementation in tests.
type ClusterProvider interface {
	// ListSubscriptions returns every subscription the credential can read.
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)

	// ListClusters returns summary projections of all AKS clusters in the
	// subscription.
	ListClusters(ctx context.Context, subscriptionID string) ([]models.Cluster, error)

	// ListClustersInResourceGroup returns summary projections of the AKS
	// clusters in one resource group.
	ListClustersInResourceGroup(ctx context.Context, subscriptionID, resourceGroup string) ([]models.Cluster, error)

	// GetCluster returns one cluster including its full ARM configuration
	// tree in Cluster.Raw. It fails when the cluster does not exist or
	// access is denied; that failure aborts an assessment run.
	GetCluster(ctx context.Context, subscriptionID, resourceGroup, clusterName string) (*models.Cluster, error)

	// RunResourceQuery executes a Resource Graph query scoped to the given
	// subscriptions and returns the matching records. When subscriptions is
	// empty the query runs against every accessible subscription.
	RunResourceQuery(ctx context.Context, query string, subscriptions []string) ([]map[string]any, error)
}
