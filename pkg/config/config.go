// Package config handles configuration for backoffice-runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/backoffice-runner/pkg/core"
)

// DefaultTimeout is the overall per-request timeout.
const DefaultTimeout = 30 * time.Second

// Defaults substituted silently when register deactivation runs without input.
const (
	DefaultTier       = "fat"
	DefaultTenant     = "mcm"
	DefaultRegisterID = "19"
	DefaultReportsDir = "reports"
)

// Config represents the workspace configuration (backoffice.yaml) merged with
// the environment. It is populated once at process start and passed by value.
type Config struct {
	// Target
	Tenant  string `yaml:"tenant"`  // Business subdomain
	Tier    string `yaml:"tier"`    // fat, staging, production
	BaseURL string `yaml:"baseUrl"` // Overrides tenant/tier when set

	// Credentials
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// Action parameters
	RegisterID  string `yaml:"registerId"`
	ProductName string `yaml:"productName"`
	DryRun      bool   `yaml:"dryRun"`

	// Failure metadata
	Failure FailureInfo `yaml:"failure"`

	// Execution settings
	Timeout            time.Duration     `yaml:"timeout"`
	AllowRedirectLogin bool              `yaml:"allowRedirectLogin"` // Treat 301/302 on login as success
	ReportsDir         string            `yaml:"reportsDir"`
	Pushgateway        string            `yaml:"pushgateway"`
	Env                map[string]string `yaml:"env"` // Host bindings visible to the resolver and scripts
}

// FailureInfo describes a failed test scenario.
type FailureInfo struct {
	Scenario string `yaml:"scenario"`
	Error    string `yaml:"error"`
	Device   string `yaml:"device"`
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadFromDir looks for backoffice.yaml, backoffice.yml or config.yaml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"backoffice.yaml", "backoffice.yml", "config.yaml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// ApplyEnv overlays values found by the resolver on top of cfg.
// Empty lookups leave the file value untouched.
func (c Config) ApplyEnv(r *Resolver) Config {
	set := func(dst *string, names ...string) {
		if v := r.First(names, ""); v != "" {
			*dst = v
		}
	}

	set(&c.Tenant, "myAccount", "myParameter")
	set(&c.Tier, "ENV")
	set(&c.BaseURL, "WEB_URL")
	set(&c.Email, "myEmail", "ANDROID_ACTIVATE_EMAIL")
	set(&c.Password, "myPassword", "ANDROID_ACTIVATE_PASSWORD")
	set(&c.RegisterID, "myRegisterId")
	set(&c.ProductName, "myProductName")
	set(&c.Failure.Scenario, "FAILED_SCENARIO")
	set(&c.Failure.Error, "FAILURE_ERROR")
	set(&c.Failure.Device, "MAESTRO_DEVICE_ID")
	set(&c.ReportsDir, "BACKOFFICE_REPORTS_DIR")
	set(&c.Pushgateway, "BACKOFFICE_PUSHGATEWAY")

	if v := r.Get("DRY_RUN", ""); v != "" {
		c.DryRun = parseBool(v)
	}
	if v := r.Get("BACKOFFICE_ALLOW_REDIRECT_LOGIN", ""); v != "" {
		c.AllowRedirectLogin = parseBool(v)
	}
	if v := r.Get("BACKOFFICE_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	return c
}

// WithDefaults fills settings that every command can silently default.
func (c Config) WithDefaults() Config {
	if c.Tier == "" {
		c.Tier = DefaultTier
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ReportsDir == "" {
		c.ReportsDir = DefaultReportsDir
	}
	return c
}

// Require fails with a MissingConfiguration error naming every empty field.
// Each field is given as display name (usually the env var) and value.
func Require(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return core.ErrMissingConfiguration.
		WithMessage("missing required environment variable: " + strings.Join(missing, ", ")).
		WithDetails(map[string]interface{}{"missing": missing})
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return strings.EqualFold(strings.TrimSpace(v), "yes")
	}
	return b
}
