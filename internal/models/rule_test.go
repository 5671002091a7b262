package models

import "testing"

func TestRuleMode_QueryTakesPrecedence(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
		want EvaluationMode
	}{
		{"neither", Rule{Name: "r"}, ModeNone},
		{"path only", Rule{Name: "r", AttributePath: "sku.tier"}, ModeDirect},
		{"query only", Rule{Name: "r", QueryReference: "q.kql"}, ModeQuery},
		{"both declared", Rule{Name: "r", AttributePath: "sku.tier", QueryReference: "q.kql"}, ModeQuery},
		{"sentinel path", Rule{Name: "r", AttributePath: CannotValidateSentinel}, ModeDirect},
	}
	for _, tc := range cases {
		if got := tc.rule.Mode(); got != tc.want {
			t.Errorf("%s: Mode() = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestEffectiveID_FallsBackToName(t *testing.T) {
	if got := (Rule{ID: "sec-1", Name: "Enable RBAC"}).EffectiveID(); got != "sec-1" {
		t.Errorf("EffectiveID with ID = %q", got)
	}
	if got := (Rule{Name: "Enable RBAC"}).EffectiveID(); got != "Enable RBAC" {
		t.Errorf("EffectiveID without ID = %q", got)
	}
}

func TestValidate_FlagsDefinitionProblems(t *testing.T) {
	if problems := (Rule{Name: "ok", AttributePath: "sku.tier"}).Validate(); len(problems) != 0 {
		t.Errorf("valid rule flagged: %v", problems)
	}
	if problems := (Rule{AttributePath: "sku.tier"}).Validate(); len(problems) != 1 {
		t.Errorf("nameless rule: %v", problems)
	}
	if problems := (Rule{Name: "r"}).Validate(); len(problems) != 1 {
		t.Errorf("modeless rule: %v", problems)
	}
	both := Rule{Name: "r", AttributePath: "sku.tier", QueryReference: "q.kql"}
	if problems := both.Validate(); len(problems) != 1 {
		t.Errorf("dual-mode rule: %v", problems)
	}
}
