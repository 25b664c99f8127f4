package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/backoffice-runner/pkg/core"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "backoffice.yaml")

	content := `
tenant: mcm
tier: staging
email: qa@example.com
password: secret
registerId: "7"
productName: Widget
timeout: 45s
allowRedirectLogin: true
failure:
  scenario: checkout
env:
  FEATURE_FLAG: "on"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Tenant != "mcm" || cfg.Tier != "staging" {
		t.Errorf("expected mcm/staging, got %s/%s", cfg.Tenant, cfg.Tier)
	}
	if cfg.Email != "qa@example.com" || cfg.Password != "secret" {
		t.Errorf("unexpected credentials %s/%s", cfg.Email, cfg.Password)
	}
	if cfg.RegisterID != "7" {
		t.Errorf("expected registerId 7, got %s", cfg.RegisterID)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %v", cfg.Timeout)
	}
	if !cfg.AllowRedirectLogin {
		t.Error("expected allowRedirectLogin true")
	}
	if cfg.Failure.Scenario != "checkout" {
		t.Errorf("expected failure scenario checkout, got %s", cfg.Failure.Scenario)
	}
	if cfg.Env["FEATURE_FLAG"] != "on" {
		t.Errorf("expected env FEATURE_FLAG=on, got %v", cfg.Env)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/backoffice.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "backoffice.yaml")

	if err := os.WriteFile(configPath, []byte(`tenant: [invalid yaml`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir_PrefersBackofficeYaml(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "backoffice.yaml"), []byte(`tenant: first`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`tenant: second`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tenant != "first" {
		t.Errorf("expected tenant from backoffice.yaml, got %s", cfg.Tenant)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tenant != "" {
		t.Errorf("expected empty tenant, got %s", cfg.Tenant)
	}
}

func TestApplyEnv_Aliases(t *testing.T) {
	r := NewResolver(MapSource(map[string]string{
		"myParameter":               "fallback-tenant",
		"ANDROID_ACTIVATE_EMAIL":    "ci@example.com",
		"ANDROID_ACTIVATE_PASSWORD": "pw",
		"ENV":                       "production",
		"DRY_RUN":                   "true",
		"BACKOFFICE_TIMEOUT":        "5s",
	}))

	cfg := Config{Tenant: "from-file"}.ApplyEnv(r)

	if cfg.Tenant != "fallback-tenant" {
		t.Errorf("expected myParameter alias to set tenant, got %s", cfg.Tenant)
	}
	if cfg.Email != "ci@example.com" || cfg.Password != "pw" {
		t.Errorf("expected CLI-variant credentials, got %s/%s", cfg.Email, cfg.Password)
	}
	if cfg.Tier != "production" {
		t.Errorf("expected tier production, got %s", cfg.Tier)
	}
	if !cfg.DryRun {
		t.Error("expected dry run")
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Timeout)
	}
}

func TestApplyEnv_KeepsFileValuesWhenUnset(t *testing.T) {
	cfg := Config{Tenant: "from-file", RegisterID: "3"}.ApplyEnv(NewResolver())
	if cfg.Tenant != "from-file" || cfg.RegisterID != "3" {
		t.Errorf("file values overwritten: %+v", cfg)
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.Tier != DefaultTier {
		t.Errorf("expected tier %s, got %s", DefaultTier, cfg.Tier)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.ReportsDir != DefaultReportsDir {
		t.Errorf("expected reports dir %s, got %s", DefaultReportsDir, cfg.ReportsDir)
	}
}

func TestRequire(t *testing.T) {
	if err := Require([2]string{"myEmail", "a@b.c"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := Require(
		[2]string{"myProductName", ""},
		[2]string{"myEmail", "a@b.c"},
		[2]string{"myPassword", "  "},
	)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, core.ErrMissingConfiguration) {
		t.Errorf("expected MissingConfiguration, got %v", err)
	}
	if core.ExitCode(err) != core.ExitMissingConfig {
		t.Errorf("expected exit code 2, got %d", core.ExitCode(err))
	}
	want := "missing required environment variable: myProductName, myPassword"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
