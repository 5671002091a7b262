package azure

import "strings"

// ExtractResourceGroup returns the resource group segment of an ARM resource
// ID. ARM IDs are case-insensitive in their static segments, so both
// "resourceGroups" and "resourcegroups" are accepted. Returns "" when the ID
// has no resource group segment.
func ExtractResourceGroup(resourceID string) string {
	return segmentAfter(resourceID, "resourcegroups")
}

// ExtractSubscriptionID returns the subscription segment of an ARM resource
// ID, or "" when absent.
func ExtractSubscriptionID(resourceID string) string {
	return segmentAfter(resourceID, "subscriptions")
}

func segmentAfter(resourceID, marker string) string {
	parts := strings.Split(resourceID, "/")
	for i, part := range parts {
		if strings.EqualFold(part, marker) && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
