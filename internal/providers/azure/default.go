package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"

	"github.com/aksbpa/aksbpa/internal/models"
)

// Credentials holds optional service principal settings. When all three
// fields are set the provider authenticates as that principal; otherwise it
// falls back to the Azure CLI credential and then the default chain, which
// covers local development and managed-identity environments.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// DefaultClusterProvider is the production ClusterProvider backed by the
// Azure SDK. Managed-cluster clients are created lazily per subscription and
// cached for the provider's lifetime.
type DefaultClusterProvider struct {
	cred  azcore.TokenCredential
	graph *armresourcegraph.Client
	subs  *armsubscriptions.Client

	mu sync.Mutex
	mc map[string]*armcontainerservice.ManagedClustersClient
}

// NewDefaultClusterProvider builds a provider from the given credentials.
func NewDefaultClusterProvider(creds Credentials) (*DefaultClusterProvider, error) {
	cred, err := buildCredential(creds)
	if err != nil {
		return nil, fmt.Errorf("build azure credential: %w", err)
	}

	graph, err := armresourcegraph.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create resource graph client: %w", err)
	}
	subs, err := armsubscriptions.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create subscriptions client: %w", err)
	}

	return &DefaultClusterProvider{
		cred:  cred,
		graph: graph,
		subs:  subs,
		mc:    make(map[string]*armcontainerservice.ManagedClustersClient),
	}, nil
}

// buildCredential returns a service principal credential when configured,
// otherwise a chain of the Azure CLI credential and the default chain.
func buildCredential(creds Credentials) (azcore.TokenCredential, error) {
	if creds.TenantID != "" && creds.ClientID != "" && creds.ClientSecret != "" {
		return azidentity.NewClientSecretCredential(creds.TenantID, creds.ClientID, creds.ClientSecret, nil)
	}

	var chain []azcore.TokenCredential
	if cli, err := azidentity.NewAzureCLICredential(nil); err == nil {
		chain = append(chain, cli)
	}
	if def, err := azidentity.NewDefaultAzureCredential(nil); err == nil {
		chain = append(chain, def)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no usable azure credential source")
	}
	return azidentity.NewChainedTokenCredential(chain, nil)
}

// clustersClient returns the cached managed-clusters client for the
// subscription, creating it on first use.
func (p *DefaultClusterProvider) clustersClient(subscriptionID string) (*armcontainerservice.ManagedClustersClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.mc[subscriptionID]; ok {
		return c, nil
	}
	c, err := armcontainerservice.NewManagedClustersClient(subscriptionID, p.cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create managed clusters client for %s: %w", subscriptionID, err)
	}
	p.mc[subscriptionID] = c
	return c, nil
}

// ListSubscriptions implements ClusterProvider.
func (p *DefaultClusterProvider) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var out []models.Subscription
	pager := p.subs.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		for _, sub := range page.Value {
			s := models.Subscription{
				ID:       deref(sub.SubscriptionID),
				Name:     deref(sub.DisplayName),
				TenantID: deref(sub.TenantID),
				State:    "Unknown",
			}
			if sub.State != nil {
				s.State = string(*sub.State)
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// ListClusters implements ClusterProvider.
func (p *DefaultClusterProvider) ListClusters(ctx context.Context, subscriptionID string) ([]models.Cluster, error) {
	client, err := p.clustersClient(subscriptionID)
	if err != nil {
		return nil, err
	}
	var out []models.Cluster
	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list clusters in %s: %w", subscriptionID, err)
		}
		for _, mc := range page.Value {
			out = append(out, clusterFromARM(mc))
		}
	}
	return out, nil
}

// ListClustersInResourceGroup implements ClusterProvider.
func (p *DefaultClusterProvider) ListClustersInResourceGroup(ctx context.Context, subscriptionID, resourceGroup string) ([]models.Cluster, error) {
	client, err := p.clustersClient(subscriptionID)
	if err != nil {
		return nil, err
	}
	var out []models.Cluster
	pager := client.NewListByResourceGroupPager(resourceGroup, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list clusters in %s/%s: %w", subscriptionID, resourceGroup, err)
		}
		for _, mc := range page.Value {
			out = append(out, clusterFromARM(mc))
		}
	}
	return out, nil
}

// GetCluster implements ClusterProvider. The returned cluster carries the
// full ARM resource as a configuration tree in Raw.
func (p *DefaultClusterProvider) GetCluster(ctx context.Context, subscriptionID, resourceGroup, clusterName string) (*models.Cluster, error) {
	client, err := p.clustersClient(subscriptionID)
	if err != nil {
		return nil, err
	}
	resp, err := client.Get(ctx, resourceGroup, clusterName, nil)
	if err != nil {
		return nil, fmt.Errorf("get cluster %s/%s/%s: %w", subscriptionID, resourceGroup, clusterName, err)
	}

	cluster := clusterFromARM(&resp.ManagedCluster)

	raw, err := armTree(resp.ManagedCluster)
	if err != nil {
		return nil, fmt.Errorf("decode cluster %s configuration: %w", clusterName, err)
	}
	cluster.Raw = raw
	return &cluster, nil
}

// RunResourceQuery implements ClusterProvider.
func (p *DefaultClusterProvider) RunResourceQuery(ctx context.Context, query string, subscriptions []string) ([]map[string]any, error) {
	if len(subscriptions) == 0 {
		subs, err := p.ListSubscriptions(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range subs {
			subscriptions = append(subscriptions, s.ID)
		}
	}

	subPtrs := make([]*string, 0, len(subscriptions))
	for _, s := range subscriptions {
		subPtrs = append(subPtrs, to.Ptr(s))
	}

	resp, err := p.graph.Resources(ctx, armresourcegraph.QueryRequest{
		Query:         to.Ptr(query),
		Subscriptions: subPtrs,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("resource graph query: %w", err)
	}

	rows, ok := resp.Data.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if record, ok := row.(map[string]any); ok {
			out = append(out, record)
		}
	}
	return out, nil
}

// armTree converts an ARM model into a generic configuration tree through
// its JSON wire form, so attribute paths use ARM field names.
func armTree(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// clusterFromARM builds the summary projection used by cluster listings.
func clusterFromARM(mc *armcontainerservice.ManagedCluster) models.Cluster {
	c := models.Cluster{
		ID:             deref(mc.ID),
		Name:           deref(mc.Name),
		Location:       deref(mc.Location),
		ResourceGroup:  ExtractResourceGroup(deref(mc.ID)),
		SubscriptionID: ExtractSubscriptionID(deref(mc.ID)),
	}
	if mc.SKU != nil {
		if mc.SKU.Name != nil {
			c.SKU.Name = string(*mc.SKU.Name)
		}
		if mc.SKU.Tier != nil {
			c.SKU.Tier = string(*mc.SKU.Tier)
		}
	}
	props := mc.Properties
	if props == nil {
		return c
	}
	c.KubernetesVersion = deref(props.KubernetesVersion)
	c.ProvisioningState = deref(props.ProvisioningState)
	c.NodeResourceGroup = deref(props.NodeResourceGroup)
	c.FQDN = deref(props.Fqdn)
	c.PrivateFQDN = deref(props.PrivateFQDN)
	if props.PowerState != nil && props.PowerState.Code != nil {
		c.PowerState = string(*props.PowerState.Code)
	}
	for _, pool := range props.AgentPoolProfiles {
		if pool == nil {
			continue
		}
		ap := models.AgentPool{
			Name:   deref(pool.Name),
			VMSize: deref(pool.VMSize),
		}
		if pool.Count != nil {
			ap.Count = *pool.Count
		}
		if pool.OSType != nil {
			ap.OSType = string(*pool.OSType)
		}
		if pool.Mode != nil {
			ap.Mode = string(*pool.Mode)
		}
		for _, z := range pool.AvailabilityZones {
			if z != nil {
				ap.AvailabilityZones = append(ap.AvailabilityZones, *z)
			}
		}
		if pool.EnableAutoScaling != nil {
			ap.EnableAutoScaling = *pool.EnableAutoScaling
		}
		if pool.MinCount != nil {
			ap.MinCount = *pool.MinCount
		}
		if pool.MaxCount != nil {
			ap.MaxCount = *pool.MaxCount
		}
		if pool.OSDiskType != nil {
			ap.OSDiskType = string(*pool.OSDiskType)
		}
		c.AgentPools = append(c.AgentPools, ap)
	}
	return c
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
