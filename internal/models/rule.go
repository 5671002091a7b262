package models

// EvaluationMode identifies how a recommendation rule is checked against a
// cluster.
type EvaluationMode int

const (
	// ModeNone marks a rule that declares neither an attribute path nor a
	// query reference. Such rules always evaluate to Undetermined.
	ModeNone EvaluationMode = iota

	// ModeDirect rules read a single attribute path out of the cluster's
	// configuration tree and compare it against an expected value.
	ModeDirect

	// ModeQuery rules run a Resource Graph query against the fleet and check
	// whether the assessed cluster appears in the (non-compliant) match set.
	ModeQuery
)

// CannotValidateSentinel is the attribute-path marker used in the catalog for
// rules that have no machine-checkable path yet. Rules carrying it evaluate
// to Undetermined.
const CannotValidateSentinel = "CouldNotValidated"

// Rule is one best-practice recommendation from the catalog.
// Rules are immutable after load and safe to share across goroutines.
type Rule struct {
	// ID is the stable rule identifier. May be empty in older catalog
	// entries; EffectiveID falls back to Name.
	ID string `json:"id,omitempty"`

	// Name is the unique human-readable identifier. The engine deduplicates
	// the catalog by Name, keeping the first occurrence.
	Name string `json:"name"`

	// Category is one of the five pillar names (see catalog.Pillars).
	Category string `json:"category"`

	Description   string `json:"description,omitempty"`
	Remediation   string `json:"remediation,omitempty"`
	LearnMoreLink string `json:"learn_more_link,omitempty"`

	// AttributePath is the dot/bracket path into the cluster configuration
	// tree for direct-mode rules, e.g. "properties.agentPoolProfiles[0].availabilityZones".
	AttributePath string `json:"attribute_path,omitempty"`

	// ExpectedValue is the value the resolved attribute must match.
	// It is a string (optionally pipe-delimited alternatives), a list of
	// required elements, a bool, or a number, exactly as decoded from JSON.
	ExpectedValue any `json:"expected_value,omitempty"`

	// QueryReference names the query body resolved through the catalog for
	// query-mode rules, e.g. "cluster_without_defender.kql".
	QueryReference string `json:"query_reference,omitempty"`
}

// EffectiveID returns ID, falling back to Name when ID is empty.
func (r Rule) EffectiveID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Name
}

// Mode reports how the rule is evaluated. A rule that declares both a query
// reference and an attribute path is evaluated as a query rule, matching the
// catalog's precedence; Validate flags such rules at load time.
func (r Rule) Mode() EvaluationMode {
	switch {
	case r.QueryReference != "":
		return ModeQuery
	case r.AttributePath != "":
		return ModeDirect
	default:
		return ModeNone
	}
}

// Validate returns human-readable problems with the rule definition.
// Problems are load-time warnings, never runtime errors: an invalid rule
// stays in the catalog and evaluates to Undetermined.
func (r Rule) Validate() []string {
	var problems []string
	if r.Name == "" {
		problems = append(problems, "rule has no name")
	}
	if r.QueryReference != "" && r.AttributePath != "" {
		problems = append(problems, "rule declares both attribute_path and query_reference; query takes precedence")
	}
	if r.QueryReference == "" && r.AttributePath == "" {
		problems = append(problems, "rule declares neither attribute_path nor query_reference; it will always be Undetermined")
	}
	return problems
}
