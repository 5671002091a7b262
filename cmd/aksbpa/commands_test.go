package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aksbpa/aksbpa/internal/models"
	"github.com/aksbpa/aksbpa/internal/store"
)

// stubProvider implements azure.ClusterProvider for the listing helper.
type stubProvider struct {
	clusters []models.Cluster
	err      error
	calls    int
}

func (s *stubProvider) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	return nil, errors.New("not used")
}

func (s *stubProvider) ListClusters(ctx context.Context, sub string) ([]models.Cluster, error) {
	s.calls++
	return s.clusters, s.err
}

func (s *stubProvider) ListClustersInResourceGroup(ctx context.Context, sub, rg string) ([]models.Cluster, error) {
	s.calls++
	return s.clusters, s.err
}

func (s *stubProvider) GetCluster(ctx context.Context, sub, rg, name string) (*models.Cluster, error) {
	return nil, errors.New("not used")
}

func (s *stubProvider) RunResourceQuery(ctx context.Context, query string, subs []string) ([]map[string]any, error) {
	return nil, errors.New("not used")
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TestRootCommandTree verifies every top-level command is registered.
func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	want := []string{"scan", "subscriptions", "clusters", "rules", "version"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(buf.String(), "aksbpa version") {
		t.Errorf("version output = %q", buf.String())
	}
}

func TestScanRun_RequiresTargetFlags(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"scan", "run"})
	if err := root.Execute(); err == nil {
		t.Error("scan run without flags must fail")
	}
}

// TestListClusters_PopulatesAndServesCache verifies the first listing hits
// the provider and fills the cache, and the second is served locally.
func TestListClusters_PopulatesAndServesCache(t *testing.T) {
	st := testStore(t)
	provider := &stubProvider{clusters: []models.Cluster{
		{
			ID:             "/subscriptions/sub-1/resourceGroups/rg/providers/Microsoft.ContainerService/managedClusters/prod",
			Name:           "prod",
			SubscriptionID: "sub-1",
			ResourceGroup:  "rg",
			Location:       "westeurope",
		},
	}}
	ctx := context.Background()

	first, err := listClusters(ctx, provider, st, "sub-1", "", false)
	if err != nil {
		t.Fatalf("first listing: %v", err)
	}
	if len(first) != 1 || provider.calls != 1 {
		t.Fatalf("first listing = %d clusters, %d provider calls", len(first), provider.calls)
	}

	second, err := listClusters(ctx, provider, st, "sub-1", "", false)
	if err != nil {
		t.Fatalf("second listing: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("second listing hit the provider (%d calls); want cache", provider.calls)
	}
	if len(second) != 1 || second[0].Name != "prod" {
		t.Errorf("cached listing = %+v", second)
	}
}

// TestListClusters_NoCacheBypassesStore verifies --no-cache always goes to
// the provider.
func TestListClusters_NoCacheBypassesStore(t *testing.T) {
	st := testStore(t)
	provider := &stubProvider{clusters: []models.Cluster{
		{ID: "id-1", Name: "prod", SubscriptionID: "sub-1", ResourceGroup: "rg"},
	}}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := listClusters(ctx, provider, st, "sub-1", "", true); err != nil {
			t.Fatalf("listing %d: %v", i, err)
		}
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d; want 2 with cache bypassed", provider.calls)
	}
}

func TestListClusters_ProviderErrorPropagates(t *testing.T) {
	st := testStore(t)
	provider := &stubProvider{err: errors.New("permission denied")}
	if _, err := listClusters(context.Background(), provider, st, "sub-1", "rg", true); err == nil {
		t.Error("provider error was swallowed")
	}
}

func TestWriteRunToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	run := &models.AssessmentRun{
		RunID:     "run-1",
		Status:    models.RunCompleted,
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := writeRunToFile(path, run); err != nil {
		t.Fatalf("writeRunToFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got models.AssessmentRun
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("parse written run: %v", err)
	}
	if got.RunID != "run-1" || got.Status != models.RunCompleted {
		t.Errorf("written run = %+v", got)
	}
}
