package models

// Subscription is one accessible Azure subscription.
type Subscription struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	TenantID string `json:"tenant_id,omitempty"`
}

// SKU is the managed cluster's pricing tier.
type SKU struct {
	Name string `json:"name,omitempty"`
	Tier string `json:"tier,omitempty"`
}

// AgentPool is a summary projection of one AKS node pool.
type AgentPool struct {
	Name              string   `json:"name"`
	Count             int32    `json:"count"`
	VMSize            string   `json:"vm_size"`
	OSType            string   `json:"os_type"`
	Mode              string   `json:"mode"`
	AvailabilityZones []string `json:"availability_zones,omitempty"`
	EnableAutoScaling bool     `json:"enable_auto_scaling"`
	MinCount          int32    `json:"min_count,omitempty"`
	MaxCount          int32    `json:"max_count,omitempty"`
	OSDiskType        string   `json:"os_disk_type,omitempty"`
}

// Cluster is a summary projection of one AKS cluster plus, when fetched for
// assessment, the full ARM configuration tree.
type Cluster struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Location          string      `json:"location"`
	ResourceGroup     string      `json:"resource_group"`
	SubscriptionID    string      `json:"subscription_id"`
	KubernetesVersion string      `json:"kubernetes_version,omitempty"`
	ProvisioningState string      `json:"provisioning_state,omitempty"`
	PowerState        string      `json:"power_state,omitempty"`
	SKU               SKU         `json:"sku"`
	NodeResourceGroup string      `json:"node_resource_group,omitempty"`
	FQDN              string      `json:"fqdn,omitempty"`
	PrivateFQDN       string      `json:"private_fqdn,omitempty"`
	AgentPools        []AgentPool `json:"agent_pool_profiles"`

	// Raw is the cluster's full ARM resource as a configuration tree
	// (mappings, sequences, scalars). Populated only by GetCluster; rule
	// evaluation reads it and must never mutate it.
	Raw map[string]any `json:"-"`
}
