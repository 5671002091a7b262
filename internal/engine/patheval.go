package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aksbpa/aksbpa/internal/models"
)

// evaluatePath checks a direct-mode rule by resolving its attribute path
// against the cluster configuration tree and comparing the resolved value to
// the expected value. It is a total function: any structural anomaly during
// traversal or comparison yields StatusUndetermined, never a panic.
func evaluatePath(rule models.Rule, tree map[string]any) (status models.Status, actualValue string) {
	defer func() {
		if r := recover(); r != nil {
			status = models.StatusUndetermined
			actualValue = fmt.Sprintf("Error: %v", r)
		}
	}()

	if rule.AttributePath == "" || rule.AttributePath == models.CannotValidateSentinel {
		return models.StatusUndetermined, ""
	}

	value, degraded := resolvePath(tree, tokenizePath(rule.AttributePath))
	actual := stringify(value)
	if degraded {
		// The walk hit a missing key, out-of-range index, or unexpected
		// shape. The check is inconclusive; the degraded value is still
		// surfaced for display.
		return models.StatusUndetermined, actual
	}

	if compareExpected(value, rule.ExpectedValue) {
		return models.StatusPassed, actual
	}
	return models.StatusFailed, actual
}

// tokenizePath splits a dot/bracket path into traversal tokens:
// "a.b[2].c" → ["a", "b", "[2]", "c"]. Field access and sequence indexing
// compose in a single grammar.
func tokenizePath(path string) []string {
	split := strings.Split(strings.ReplaceAll(path, "[", ".["), ".")
	tokens := split[:0]
	for _, t := range split {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// resolvePath walks the tree token by token. On any anomaly (missing key,
// non-bracket token against a sequence, out-of-range index, descending into
// a scalar) the current value degrades to an empty mapping and the walk
// continues, so the caller always receives a value plus a degraded flag.
func resolvePath(root map[string]any, tokens []string) (any, bool) {
	var value any = root
	degraded := false

	for _, token := range tokens {
		switch v := value.(type) {
		case map[string]any:
			next, ok := v[token]
			if !ok {
				next = map[string]any{}
				degraded = true
			}
			value = next
		case []any:
			idx, ok := bracketIndex(token)
			if !ok || idx < 0 || idx >= len(v) {
				value = map[string]any{}
				degraded = true
				continue
			}
			value = v[idx]
		default:
			value = map[string]any{}
			degraded = true
		}
	}
	return value, degraded
}

// bracketIndex parses a "[n]" token into n.
func bracketIndex(token string) (int, bool) {
	if len(token) < 3 || token[0] != '[' || token[len(token)-1] != ']' {
		return 0, false
	}
	idx, err := strconv.Atoi(token[1 : len(token)-1])
	if err != nil {
		return 0, false
	}
	return idx, true
}

// compareExpected applies the three comparison rules in order:
//
//  1. pipe-delimited string: the resolved value must match one of the
//     alternatives, case-insensitively;
//  2. list: every listed element must be present in the resolved container;
//  3. anything else: case-insensitive string equality.
func compareExpected(value, expected any) bool {
	if s, ok := expected.(string); ok && strings.Contains(s, "|") {
		actual := strings.ToLower(stringify(value))
		for _, alt := range strings.Split(s, "|") {
			if actual == strings.ToLower(strings.TrimSpace(alt)) {
				return true
			}
		}
		return false
	}

	if list, ok := expected.([]any); ok {
		for _, elem := range list {
			if !containsElement(value, elem) {
				return false
			}
		}
		return true
	}

	return strings.EqualFold(stringify(value), stringify(expected))
}

// containsElement reports whether a resolved container holds elem: sequence
// membership, mapping key presence, or substring for strings. Scalars never
// contain anything.
func containsElement(container, elem any) bool {
	switch c := container.(type) {
	case []any:
		for _, item := range c {
			if stringify(item) == stringify(elem) {
				return true
			}
		}
		return false
	case map[string]any:
		_, ok := c[stringify(elem)]
		return ok
	case string:
		return strings.Contains(c, stringify(elem))
	default:
		return false
	}
}

// stringify renders any resolved or expected value for comparison and
// display. Mappings render as "{}" or "{k1, k2}" so a degraded traversal is
// recognizable in output; JSON numbers drop their float form when integral.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringify(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		if len(t) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "{" + strings.Join(keys, ", ") + "}"
	default:
		return fmt.Sprintf("%v", t)
	}
}
