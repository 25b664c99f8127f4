// Package cli provides the command-line interface for backoffice-runner.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to workspace config (default: backoffice.yaml in the current directory)",
		EnvVars: []string{"BACKOFFICE_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "env-file",
		Usage:   "Path to .env file (default: .env if present)",
		EnvVars: []string{"BACKOFFICE_ENV_FILE"},
	},
	&cli.StringSliceFlag{
		Name:    "env",
		Aliases: []string{"e"},
		Usage:   "Variables (KEY=VALUE), highest priority",
	},
	&cli.StringFlag{
		Name:    "tenant",
		Aliases: []string{"t"},
		Usage:   "Business subdomain (myAccount)",
	},
	&cli.StringFlag{
		Name:  "tier",
		Usage: "Deployment tier: fat, staging, production (ENV)",
	},
	&cli.StringFlag{
		Name:  "base-url",
		Usage: "Explicit backoffice URL, overrides tenant and tier (WEB_URL)",
	},
	&cli.StringFlag{
		Name:  "email",
		Usage: "Login email (myEmail)",
	},
	&cli.StringFlag{
		Name:  "password",
		Usage: "Login password (myPassword)",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "Per-request timeout",
	},
	&cli.BoolFlag{
		Name:  "allow-redirect-login",
		Usage: "Treat a 301/302 login response as authenticated",
	},
	&cli.StringFlag{
		Name:    "result-file",
		Usage:   "Also write the result record to this file",
		EnvVars: []string{"BACKOFFICE_RESULT_FILE"},
	},
	&cli.StringFlag{
		Name:  "reports-dir",
		Usage: "Directory for failure logs (default: reports)",
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Append logs to this file",
		EnvVars: []string{"BACKOFFICE_LOG_FILE"},
	},
	&cli.StringFlag{
		Name:  "pushgateway",
		Usage: "Prometheus Pushgateway URL to push run metrics to",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"BACKOFFICE_VERBOSE"},
	},
}

// NewApp builds the CLI application. Result records go to stdout.
func NewApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:    "backoffice-runner",
		Usage:   "Backoffice side-effects for Maestro test flows",
		Version: Version,
		Description: `Backoffice Runner logs in to a tenant backoffice and performs one
administrative action, printing a JSON result record.

Exit codes: 0 success, 1 request or action failure, 2 missing configuration,
3 product not found.

Examples:
  backoffice-runner -t mcm --tier staging deactivate-register --register-id 19
  backoffice-runner -e myProductName="Latte" delete-product --dry-run
  backoffice-runner record-failure --scenario checkout --error "button not found"
  backoffice-runner script hooks/cleanup.js`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			loginCommand,
			deactivateRegisterCommand,
			deleteProductCommand,
			recordFailureCommand,
			scriptCommand,
		},
		Before: func(c *cli.Context) error {
			logger.SetVerbose(c.Bool("verbose"))
			if path := c.String("log-file"); path != "" {
				if err := logger.Init(path); err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
			}
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
		DisableSliceFlagSeparator: true,
		Writer:                    stdout,
		ErrWriter:                 stderr,
	}
}

// Execute runs the CLI.
func Execute() {
	app := NewApp(os.Stdout, os.Stderr)

	// Exit codes carried by cli.Exit are applied by the app itself.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
