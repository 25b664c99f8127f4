package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/backoffice-runner/pkg/config"
	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// settings is the resolved configuration of one invocation.
type settings struct {
	cfg config.Config

	// environment is the tier as given, before defaults; "" when unset.
	environment string

	// bindings is every variable visible to scripts.
	bindings map[string]string

	resultFile string
}

// lookup returns the context in which name was set, walking from the
// command up to the app.
func lookup(c *cli.Context, name string) (*cli.Context, bool) {
	for _, ctx := range c.Lineage() {
		if ctx != nil && ctx.IsSet(name) {
			return ctx, true
		}
	}
	return nil, false
}

func stringFlag(c *cli.Context, name string) string {
	if ctx, ok := lookup(c, name); ok {
		return ctx.String(name)
	}
	return ""
}

// loadSettings merges, lowest priority first: defaults, config file fields,
// config file env map, .env file, process env, -e bindings, flags.
func loadSettings(c *cli.Context) (*settings, error) {
	fileCfg, err := loadConfigFile(stringFlag(c, "config"))
	if err != nil {
		return nil, err
	}

	envFile := stringFlag(c, "env-file")
	dotenv, err := config.LoadDotEnv(envFile, envFile != "")
	if err != nil {
		return nil, core.ErrMissingConfiguration.WithMessage("load env file").WithCause(err)
	}

	return newSettings(c, *fileCfg, envBindings(c), dotenv), nil
}

// fallbackSettings resolves from -e bindings, the process env and flags only.
// Used by commands that must run even when the config or .env file is broken.
func fallbackSettings(c *cli.Context) *settings {
	return newSettings(c, config.Config{}, envBindings(c), nil)
}

func envBindings(c *cli.Context) map[string]string {
	var envs []string
	if ctx, ok := lookup(c, "env"); ok {
		envs = ctx.StringSlice("env")
	}
	return parseEnvVars(envs)
}

func newSettings(c *cli.Context, fileCfg config.Config, bindings, dotenv map[string]string) *settings {
	resolver := config.DefaultResolver(bindings, dotenv, fileCfg.Env)
	cfg := fileCfg.ApplyEnv(resolver)

	overrides := map[string]*string{
		"tenant":      &cfg.Tenant,
		"tier":        &cfg.Tier,
		"base-url":    &cfg.BaseURL,
		"email":       &cfg.Email,
		"password":    &cfg.Password,
		"reports-dir": &cfg.ReportsDir,
		"pushgateway": &cfg.Pushgateway,
	}
	for name, dst := range overrides {
		if ctx, ok := lookup(c, name); ok {
			*dst = ctx.String(name)
		}
	}
	if ctx, ok := lookup(c, "timeout"); ok {
		cfg.Timeout = ctx.Duration("timeout")
	}
	if ctx, ok := lookup(c, "allow-redirect-login"); ok {
		cfg.AllowRedirectLogin = ctx.Bool("allow-redirect-login")
	}

	s := &settings{
		environment: cfg.Tier,
		bindings:    config.Bindings(bindings, dotenv, fileCfg.Env),
		resultFile:  stringFlag(c, "result-file"),
	}
	s.cfg = cfg.WithDefaults()

	logger.Debug("Resolved settings: tenant=%q tier=%q baseUrl=%q timeout=%v", s.cfg.Tenant, s.cfg.Tier, s.cfg.BaseURL, s.cfg.Timeout)
	return s
}

func loadConfigFile(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, core.ErrMissingConfiguration.WithMessage("load config").WithCause(err)
	}
	return cfg, nil
}

// parseEnvVars parses KEY=VALUE pairs; entries without '=' are ignored.
func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		if k, v, ok := strings.Cut(e, "="); ok && k != "" {
			result[k] = v
		}
	}
	return result
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
