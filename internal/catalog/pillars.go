package catalog

import "strings"

// Pillar is one of the five fixed best-practice categories. The set is
// static for the process lifetime.
type Pillar struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// pillars is the canonical pillar table. Rule categories in the catalog must
// match a Pillar.Name; the scorer reports every pillar even when no rule
// applies to it.
var pillars = []Pillar{
	{
		ID:          "reliability",
		Name:        "Reliability",
		Icon:        "✅",
		Description: "Ensure your clusters are resilient and highly available",
		Color:       "#22c55e",
	},
	{
		ID:          "security",
		Name:        "Security",
		Icon:        "🔐",
		Description: "Protect your workloads, data, and access",
		Color:       "#ef4444",
	},
	{
		ID:          "cost-optimization",
		Name:        "Cost Optimization",
		Icon:        "💰",
		Description: "Optimize resource usage and reduce costs",
		Color:       "#f59e0b",
	},
	{
		ID:          "operational-excellence",
		Name:        "Operational Excellence",
		Icon:        "⚙️",
		Description: "Streamline operations, monitoring, and DevOps practices",
		Color:       "#3b82f6",
	},
	{
		ID:          "performance-efficiency",
		Name:        "Performance Efficiency",
		Icon:        "🚀",
		Description: "Maximize performance and scalability",
		Color:       "#8b5cf6",
	},
}

// Pillars returns the fixed pillar set in presentation order.
// The returned slice is shared; callers must not modify it.
func Pillars() []Pillar {
	return pillars
}

// PillarByName returns the pillar whose display name matches name,
// case-insensitively.
func PillarByName(name string) (Pillar, bool) {
	for _, p := range pillars {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Pillar{}, false
}
