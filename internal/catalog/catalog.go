// Package catalog loads and indexes the best-practice rule definitions that
// the assessment engine evaluates. The default catalog is compiled into the
// binary; an override directory with the same layout can be supplied to test
// new rules without rebuilding.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/aksbpa/aksbpa/internal/models"
)

//go:embed definitions
var embeddedDefinitions embed.FS

const (
	rulesFile = "recommendations.json"
	queryDir  = "kql"
)

// Catalog resolves the rule set and the query bodies referenced by
// query-mode rules. Implementations must be safe for concurrent use.
type Catalog interface {
	// Rules returns the full rule set in catalog order, plus any load-time
	// validation warnings. A missing definitions source yields an empty rule
	// set and no error: assessing zero rules is a valid outcome.
	Rules() ([]models.Rule, []string, error)

	// QueryBody resolves a rule's query reference to its query text.
	// ok is false when the reference does not exist; callers must treat a
	// missing body as Undetermined, never as a failure.
	QueryBody(ref string) (body string, ok bool)
}

// FSCatalog reads rule definitions from an fs.FS with the layout
//
//	recommendations.json
//	kql/<reference>.kql
//
// Loading is idempotent; rules are parsed on every call so an override
// directory can change between assessments.
type FSCatalog struct {
	fsys fs.FS
}

// NewEmbedded returns the catalog compiled into the binary.
func NewEmbedded() *FSCatalog {
	sub, err := fs.Sub(embeddedDefinitions, "definitions")
	if err != nil {
		// The embedded tree always contains "definitions"; reaching this
		// means the binary itself is broken.
		panic(fmt.Sprintf("embedded catalog missing: %v", err))
	}
	return &FSCatalog{fsys: sub}
}

// NewFromDir returns a catalog backed by dir. The directory does not need to
// exist; a missing directory behaves as an empty catalog.
func NewFromDir(dir string) *FSCatalog {
	return &FSCatalog{fsys: os.DirFS(dir)}
}

// NewFromFS returns a catalog backed by an arbitrary fs.FS. Intended for
// tests using fstest.MapFS.
func NewFromFS(fsys fs.FS) *FSCatalog {
	return &FSCatalog{fsys: fsys}
}

// Rules implements Catalog. Definition problems (unparseable file, rules
// with zero or two evaluation modes) are reported as warnings; only a
// malformed JSON document is an error.
func (c *FSCatalog) Rules() ([]models.Rule, []string, error) {
	data, err := fs.ReadFile(c.fsys, rulesFile)
	if err != nil {
		// Soft failure: no definitions means no rules.
		return nil, nil, nil
	}

	var rules []models.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", rulesFile, err)
	}

	var warnings []string
	for _, r := range rules {
		for _, p := range r.Validate() {
			warnings = append(warnings, fmt.Sprintf("rule %q: %s", r.EffectiveID(), p))
		}
		if r.Mode() == models.ModeQuery {
			if _, ok := c.QueryBody(r.QueryReference); !ok {
				warnings = append(warnings, fmt.Sprintf("rule %q: query body %q not found", r.EffectiveID(), r.QueryReference))
			}
		}
	}
	return rules, warnings, nil
}

// QueryBody implements Catalog. References are file names under kql/;
// path separators are rejected so a reference cannot escape the query
// directory.
func (c *FSCatalog) QueryBody(ref string) (string, bool) {
	if ref == "" || strings.ContainsAny(ref, `/\`) {
		return "", false
	}
	data, err := fs.ReadFile(c.fsys, path.Join(queryDir, ref))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// RulesByCategory returns the rules whose category matches the given pillar
// name, case-insensitively, in catalog order.
func RulesByCategory(rules []models.Rule, category string) []models.Rule {
	var out []models.Rule
	for _, r := range rules {
		if strings.EqualFold(r.Category, category) {
			out = append(out, r)
		}
	}
	return out
}

// RuleByID returns the first rule whose effective ID matches id.
func RuleByID(rules []models.Rule, id string) (models.Rule, bool) {
	for _, r := range rules {
		if r.EffectiveID() == id {
			return r, true
		}
	}
	return models.Rule{}, false
}
