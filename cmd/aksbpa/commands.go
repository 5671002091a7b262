package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aksbpa/aksbpa/internal/catalog"
	"github.com/aksbpa/aksbpa/internal/config"
	"github.com/aksbpa/aksbpa/internal/engine"
	"github.com/aksbpa/aksbpa/internal/models"
	"github.com/aksbpa/aksbpa/internal/providers/azure"
	"github.com/aksbpa/aksbpa/internal/store"
	"github.com/aksbpa/aksbpa/internal/version"
)

// clusterCacheTTL bounds how long cluster listings are served from the local
// cache before hitting ARM again.
const clusterCacheTTL = 15 * time.Minute

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aksbpa",
		Short: "Assess AKS clusters against best-practice rules",
	}
	root.AddCommand(newScanCmd())
	root.AddCommand(newSubscriptionsCmd())
	root.AddCommand(newClustersCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig reads the user configuration, falling back to defaults when no
// file exists.
func loadConfig() (*config.Config, error) {
	path, err := config.Path()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// buildCatalog returns the configured rule catalog: the override directory
// when set, otherwise the embedded definitions.
func buildCatalog(cfg *config.Config) catalog.Catalog {
	if cfg.Assessment.CatalogDir != "" {
		return catalog.NewFromDir(cfg.Assessment.CatalogDir)
	}
	return catalog.NewEmbedded()
}

func buildProvider(cfg *config.Config) (*azure.DefaultClusterProvider, error) {
	return azure.NewDefaultClusterProvider(azure.Credentials{
		TenantID:     cfg.Azure.TenantID,
		ClientID:     cfg.Azure.ClientID,
		ClientSecret: cfg.Azure.ClientSecret,
	})
}

func openStore(cfg *config.Config) (*store.Store, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run and inspect best-practice assessments",
	}
	cmd.AddCommand(newScanRunCmd())
	cmd.AddCommand(newScanListCmd())
	cmd.AddCommand(newScanShowCmd())
	cmd.AddCommand(newScanDeleteCmd())
	return cmd
}

func newScanRunCmd() *cobra.Command {
	var (
		subscription  string
		resourceGroup string
		clusterName   string
		reportFmt     string
		output        string
		noSave        bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Assess one AKS cluster against the full rule catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			cat := buildCatalog(cfg)

			// Surface catalog problems before the run; they are warnings,
			// not failures.
			if _, warnings, err := cat.Rules(); err != nil {
				return fmt.Errorf("load rule catalog: %w", err)
			} else {
				for _, w := range warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
				}
			}

			eng := engine.NewDefaultEngine(provider, cat).
				WithQueryTimeout(cfg.Assessment.QueryTimeout())

			run, err := eng.RunAssessment(cmd.Context(), engine.Options{
				SubscriptionID: subscription,
				ResourceGroup:  resourceGroup,
				ClusterName:    clusterName,
				Concurrency:    cfg.Assessment.Concurrency,
			})
			if err != nil {
				return fmt.Errorf("assessment failed: %w", err)
			}

			if !noSave {
				st, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.SaveRun(cmd.Context(), run); err != nil {
					return fmt.Errorf("save run: %w", err)
				}
			}

			if output != "" {
				if err := writeRunToFile(output, run); err != nil {
					return err
				}
			}

			if reportFmt == "json" {
				return printJSON(cmd.OutOrStdout(), run)
			}
			printRun(cmd.OutOrStdout(), run)
			if run.Status == models.RunFailed {
				return fmt.Errorf("assessment of %s did not complete: %s", clusterName, run.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subscription, "subscription", "", "Azure subscription ID (required)")
	cmd.Flags().StringVar(&resourceGroup, "resource-group", "", "Resource group of the cluster (required)")
	cmd.Flags().StringVar(&clusterName, "cluster", "", "AKS cluster name (required)")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().StringVar(&output, "output", "", "Write the full JSON run to this file path (in addition to stdout output)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not record this run in the local scan history")
	_ = cmd.MarkFlagRequired("subscription")
	_ = cmd.MarkFlagRequired("resource-group")
	_ = cmd.MarkFlagRequired("cluster")
	return cmd
}

func newScanListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded assessment runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRunList(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newScanShowCmd() *cobra.Command {
	var reportFmt string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded assessment run in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(cmd.Context(), args[0])
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("run not found: %s", args[0])
			}
			if err != nil {
				return err
			}

			if reportFmt == "json" {
				return printJSON(cmd.OutOrStdout(), run)
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	return cmd
}

func newScanDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete one recorded assessment run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteRun(cmd.Context(), args[0]); errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("run not found: %s", args[0])
			} else if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
			return nil
		},
	}
}

func newSubscriptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscriptions",
		Short: "List accessible Azure subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			subs, err := provider.ListSubscriptions(cmd.Context())
			if err != nil {
				return err
			}
			printSubscriptions(cmd.OutOrStdout(), subs)
			return nil
		},
	}
}

func newClustersCmd() *cobra.Command {
	var (
		subscription  string
		resourceGroup string
		noCache       bool
	)
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "List AKS clusters in a subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			clusters, err := listClusters(cmd.Context(), provider, st, subscription, resourceGroup, noCache)
			if err != nil {
				return err
			}
			printClusters(cmd.OutOrStdout(), clusters)
			return nil
		},
	}
	cmd.Flags().StringVar(&subscription, "subscription", "", "Azure subscription ID (required)")
	cmd.Flags().StringVar(&resourceGroup, "resource-group", "", "Limit the listing to one resource group")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the local cluster cache")
	_ = cmd.MarkFlagRequired("subscription")
	return cmd
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the best-practice rule catalog",
	}
	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesShowCmd())
	return cmd
}

func newRulesListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog rules, optionally filtered by pillar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rules, warnings, err := buildCatalog(cfg).Rules()
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			if category != "" {
				rules = catalog.RulesByCategory(rules, category)
			}
			printRules(cmd.OutOrStdout(), rules)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Pillar name to filter by (e.g. Security)")
	return cmd
}

func newRulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <rule-id>",
		Short: "Show one catalog rule in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat := buildCatalog(cfg)
			rules, _, err := cat.Rules()
			if err != nil {
				return err
			}
			rule, ok := catalog.RuleByID(rules, args[0])
			if !ok {
				return fmt.Errorf("rule not found: %s", args[0])
			}
			printRuleDetail(cmd.OutOrStdout(), rule, cat)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// listClusters serves cluster listings from the local cache when fresh
// entries exist, falling back to ARM and repopulating the cache.
func listClusters(
	ctx context.Context,
	provider azure.ClusterProvider,
	st *store.Store,
	subscription, resourceGroup string,
	noCache bool,
) ([]models.Cluster, error) {
	if !noCache {
		cached, err := st.CachedClusters(ctx, subscription, resourceGroup)
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	var (
		clusters []models.Cluster
		err      error
	)
	if resourceGroup != "" {
		clusters, err = provider.ListClustersInResourceGroup(ctx, subscription, resourceGroup)
	} else {
		clusters, err = provider.ListClusters(ctx, subscription)
	}
	if err != nil {
		return nil, err
	}

	for i := range clusters {
		// Cache misses are non-fatal; the listing already succeeded.
		_ = st.CacheCluster(ctx, &clusters[i], clusterCacheTTL)
	}
	return clusters, nil
}

// writeRunToFile serialises run as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeRunToFile(path string, run any) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run file %q: %w", path, err)
	}
	return nil
}
