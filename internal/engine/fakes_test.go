package engine

import (
	"context"
	"errors"

	"github.com/aksbpa/aksbpa/internal/models"
)

// fakeProvider is a test double for azure.ClusterProvider. Each behavior is
// a swappable func so tests configure only what they exercise.
type fakeProvider struct {
	getCluster func(ctx context.Context, sub, rg, name string) (*models.Cluster, error)
	runQuery   func(ctx context.Context, query string, subs []string) ([]map[string]any, error)
}

func (f *fakeProvider) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	return nil, errors.New("not implemented in fake")
}

func (f *fakeProvider) ListClusters(ctx context.Context, sub string) ([]models.Cluster, error) {
	return nil, errors.New("not implemented in fake")
}

func (f *fakeProvider) ListClustersInResourceGroup(ctx context.Context, sub, rg string) ([]models.Cluster, error) {
	return nil, errors.New("not implemented in fake")
}

func (f *fakeProvider) GetCluster(ctx context.Context, sub, rg, name string) (*models.Cluster, error) {
	if f.getCluster == nil {
		return nil, errors.New("getCluster not configured")
	}
	return f.getCluster(ctx, sub, rg, name)
}

func (f *fakeProvider) RunResourceQuery(ctx context.Context, query string, subs []string) ([]map[string]any, error) {
	if f.runQuery == nil {
		return nil, errors.New("runQuery not configured")
	}
	return f.runQuery(ctx, query, subs)
}

// fakeCatalog is a test double for catalog.Catalog backed by in-memory rules
// and query bodies.
type fakeCatalog struct {
	rules    []models.Rule
	warnings []string
	err      error
	bodies   map[string]string
}

func (f *fakeCatalog) Rules() ([]models.Rule, []string, error) {
	return f.rules, f.warnings, f.err
}

func (f *fakeCatalog) QueryBody(ref string) (string, bool) {
	body, ok := f.bodies[ref]
	return body, ok
}
