package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Assessment.Concurrency != 4 {
		t.Errorf("Concurrency = %d; want 4", cfg.Assessment.Concurrency)
	}
	if cfg.Assessment.QueryTimeout() != 30*time.Second {
		t.Errorf("QueryTimeout = %v; want 30s", cfg.Assessment.QueryTimeout())
	}
	if cfg.Azure.ClientID != "" {
		t.Errorf("default config carries credentials: %+v", cfg.Azure)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
azure:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: shhh
store:
  path: /var/lib/aksbpa/history.db
assessment:
  concurrency: 8
  query_timeout_seconds: 5
  catalog_dir: /etc/aksbpa/rules
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Azure.TenantID != "tenant-1" || cfg.Azure.ClientSecret != "shhh" {
		t.Errorf("azure = %+v", cfg.Azure)
	}
	if cfg.Store.Path != "/var/lib/aksbpa/history.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Assessment.Concurrency != 8 {
		t.Errorf("Concurrency = %d; want 8", cfg.Assessment.Concurrency)
	}
	if cfg.Assessment.QueryTimeout() != 5*time.Second {
		t.Errorf("QueryTimeout = %v; want 5s", cfg.Assessment.QueryTimeout())
	}
	if cfg.Assessment.CatalogDir != "/etc/aksbpa/rules" {
		t.Errorf("CatalogDir = %q", cfg.Assessment.CatalogDir)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("assessment:\n  concurrency: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Assessment.Concurrency != 4 {
		t.Errorf("zero concurrency not reset to default: %d", cfg.Assessment.Concurrency)
	}
	if cfg.Assessment.QueryTimeoutSeconds != 30 {
		t.Errorf("QueryTimeoutSeconds = %d; want default 30", cfg.Assessment.QueryTimeoutSeconds)
	}
}

func TestLoad_MalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("azure: [not a mapping"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestStorePath_ExplicitWins(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = "/tmp/custom.db"
	got, err := cfg.StorePath()
	if err != nil {
		t.Fatalf("StorePath: %v", err)
	}
	if got != "/tmp/custom.db" {
		t.Errorf("StorePath = %q", got)
	}
}

func TestStorePath_DefaultsUnderConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got, err := Default().StorePath()
	if err != nil {
		t.Fatalf("StorePath: %v", err)
	}
	if filepath.Base(got) != "history.db" {
		t.Errorf("StorePath = %q; want .../history.db", got)
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Errorf("config dir was not created: %v", err)
	}
}
