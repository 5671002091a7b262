// Package store persists assessment runs and cached cluster summaries in a
// local SQLite database. The engine itself never touches storage; the CLI
// hands completed runs to the store and reads history back out of it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aksbpa/aksbpa/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id              TEXT PRIMARY KEY,
	subscription_id TEXT NOT NULL,
	resource_group  TEXT NOT NULL,
	cluster_name    TEXT NOT NULL,
	cluster_id      TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	started_at      TEXT NOT NULL,
	completed_at    TEXT NOT NULL,
	total_checks    INTEGER NOT NULL DEFAULT 0,
	passed          INTEGER NOT NULL DEFAULT 0,
	failed          INTEGER NOT NULL DEFAULT 0,
	not_validated   INTEGER NOT NULL DEFAULT 0,
	overall_score   INTEGER NOT NULL DEFAULT 0,
	pillar_scores   TEXT,
	error_message   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scans_subscription ON scans(subscription_id);

CREATE TABLE IF NOT EXISTS scan_results (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id         TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	rule_id         TEXT NOT NULL,
	rule_name       TEXT NOT NULL,
	category        TEXT NOT NULL,
	status          TEXT NOT NULL,
	actual_value    TEXT NOT NULL DEFAULT '',
	expected_value  TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	remediation     TEXT NOT NULL DEFAULT '',
	learn_more_link TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scan_results_scan ON scan_results(scan_id);

CREATE TABLE IF NOT EXISTS cluster_cache (
	id                 TEXT PRIMARY KEY,
	subscription_id    TEXT NOT NULL,
	resource_group     TEXT NOT NULL,
	name               TEXT NOT NULL,
	cluster_data       TEXT NOT NULL,
	cached_at          TEXT NOT NULL,
	expires_at         TEXT NOT NULL
);
`

// Store wraps the SQLite database holding scan history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Pass ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", path, err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under the CLI's modest load.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists a completed or failed assessment run with its results.
func (s *Store) SaveRun(ctx context.Context, run *models.AssessmentRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	var (
		totalChecks, passed, failed, notValidated, overallScore int
		pillarJSON                                              []byte
	)
	if run.Summary != nil {
		totalChecks = run.Summary.TotalChecks
		passed = run.Summary.Passed
		failed = run.Summary.Failed
		notValidated = run.Summary.NotValidated
		overallScore = run.Summary.OverallScore
		pillarJSON, err = json.Marshal(run.Summary.PillarScores)
		if err != nil {
			return fmt.Errorf("encode pillar scores: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scans (
			id, subscription_id, resource_group, cluster_name, cluster_id,
			status, started_at, completed_at,
			total_checks, passed, failed, not_validated, overall_score,
			pillar_scores, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SubscriptionID, run.ResourceGroup, run.ClusterName, run.ClusterID,
		string(run.Status), run.StartedAt.UTC().Format(time.RFC3339Nano), run.CompletedAt.UTC().Format(time.RFC3339Nano),
		totalChecks, passed, failed, notValidated, overallScore,
		nullableString(pillarJSON), run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", run.RunID, err)
	}

	for _, r := range run.Results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scan_results (
				scan_id, rule_id, rule_name, category, status,
				actual_value, expected_value, description, remediation, learn_more_link
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, r.RuleID, r.RuleName, r.Category, string(r.Status),
			r.ActualValue, r.ExpectedValue, r.Description, r.Remediation, r.LearnMoreLink,
		)
		if err != nil {
			return fmt.Errorf("insert result %s/%s: %w", run.RunID, r.RuleID, err)
		}
	}
	return tx.Commit()
}

// GetRun returns one run with its full result list, or sql.ErrNoRows when
// the run does not exist.
func (s *Store) GetRun(ctx context.Context, runID string) (*models.AssessmentRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subscription_id, resource_group, cluster_name, cluster_id,
		       status, started_at, completed_at,
		       total_checks, passed, failed, not_validated, overall_score,
		       pillar_scores, error_message
		FROM scans WHERE id = ?`, runID)

	run, err := scanRunRow(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, rule_name, category, status,
		       actual_value, expected_value, description, remediation, learn_more_link
		FROM scan_results WHERE scan_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load results for %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.RuleResult
		var status string
		if err := rows.Scan(&r.RuleID, &r.RuleName, &r.Category, &status,
			&r.ActualValue, &r.ExpectedValue, &r.Description, &r.Remediation, &r.LearnMoreLink); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		r.Status = models.Status(status)
		run.Results = append(run.Results, r)
	}
	return run, rows.Err()
}

// ListRuns returns up to limit runs, newest first, without their result
// lists. A non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.AssessmentRun, error) {
	q := `
		SELECT id, subscription_id, resource_group, cluster_name, cluster_id,
		       status, started_at, completed_at,
		       total_checks, passed, failed, not_validated, overall_score,
		       pillar_scores, error_message
		FROM scans ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.AssessmentRun
	for rows.Next() {
		run, err := scanRunRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and, via the foreign key cascade, its results.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CacheCluster stores a cluster summary with the given time-to-live, used to
// avoid repeated ARM round-trips from cluster listings.
func (s *Store) CacheCluster(ctx context.Context, cluster *models.Cluster, ttl time.Duration) error {
	data, err := json.Marshal(cluster)
	if err != nil {
		return fmt.Errorf("encode cluster %s: %w", cluster.ID, err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cluster_cache (id, subscription_id, resource_group, name, cluster_data, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cluster_data = excluded.cluster_data,
			cached_at    = excluded.cached_at,
			expires_at   = excluded.expires_at`,
		cluster.ID, cluster.SubscriptionID, cluster.ResourceGroup, cluster.Name,
		string(data), now.Format(time.RFC3339Nano), now.Add(ttl).Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("cache cluster %s: %w", cluster.ID, err)
	}
	return nil
}

// CachedClusters returns all unexpired cached cluster summaries for a
// subscription, optionally narrowed to one resource group. Expired entries
// are pruned as a side effect.
func (s *Store) CachedClusters(ctx context.Context, subscriptionID, resourceGroup string) ([]models.Cluster, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cluster_cache WHERE expires_at <= ?`, now); err != nil {
		return nil, fmt.Errorf("prune cluster cache: %w", err)
	}

	q := `SELECT cluster_data FROM cluster_cache WHERE subscription_id = ?`
	args := []any{subscriptionID}
	if resourceGroup != "" {
		q += ` AND resource_group = ?`
		args = append(args, resourceGroup)
	}
	q += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("read cluster cache: %w", err)
	}
	defer rows.Close()

	var clusters []models.Cluster
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan cluster cache row: %w", err)
		}
		var c models.Cluster
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("decode cached cluster: %w", err)
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

// CachedCluster returns the cached summary for the given cluster resource
// ID. ok is false on a miss or when the entry has expired; expired entries
// are removed on read.
func (s *Store) CachedCluster(ctx context.Context, clusterID string) (*models.Cluster, bool, error) {
	var data, expiresAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT cluster_data, expires_at FROM cluster_cache WHERE id = ?`, clusterID,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cluster cache %s: %w", clusterID, err)
	}

	expiry, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil || time.Now().After(expiry) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cluster_cache WHERE id = ?`, clusterID)
		return nil, false, nil
	}

	var cluster models.Cluster
	if err := json.Unmarshal([]byte(data), &cluster); err != nil {
		return nil, false, fmt.Errorf("decode cluster cache %s: %w", clusterID, err)
	}
	return &cluster, true, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunRow(row rowScanner) (*models.AssessmentRun, error) {
	var (
		run                                                     models.AssessmentRun
		status, startedAt, completedAt, errorMessage            string
		totalChecks, passed, failed, notValidated, overallScore int
		pillarJSON                                              sql.NullString
	)
	err := row.Scan(
		&run.RunID, &run.SubscriptionID, &run.ResourceGroup, &run.ClusterName, &run.ClusterID,
		&status, &startedAt, &completedAt,
		&totalChecks, &passed, &failed, &notValidated, &overallScore,
		&pillarJSON, &errorMessage,
	)
	if err != nil {
		return nil, err
	}

	run.Status = models.RunStatus(status)
	run.ErrorMessage = errorMessage
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	run.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt)

	if run.Status == models.RunCompleted {
		summary := models.AssessmentSummary{
			OverallScore: overallScore,
			TotalChecks:  totalChecks,
			Passed:       passed,
			Failed:       failed,
			NotValidated: notValidated,
		}
		if pillarJSON.Valid {
			if err := json.Unmarshal([]byte(pillarJSON.String), &summary.PillarScores); err != nil {
				return nil, fmt.Errorf("decode pillar scores for %s: %w", run.RunID, err)
			}
		}
		run.Summary = &summary
	}
	return &run, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
