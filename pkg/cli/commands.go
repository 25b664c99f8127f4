package cli

import (
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/backoffice-runner/pkg/backoffice"
	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/executor"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
	"github.com/devicelab-dev/backoffice-runner/pkg/metrics"
	"github.com/devicelab-dev/backoffice-runner/pkg/report"
)

var loginCommand = &cli.Command{
	Name:  "login",
	Usage: "Check that the credentials are accepted",
	Action: func(c *cli.Context) error {
		return runAction(c, executor.LoginAction{})
	},
}

var deactivateRegisterCommand = &cli.Command{
	Name:  "deactivate-register",
	Usage: "Deactivate a point-of-sale register",
	Description: `Posts the register id to settings/registers/deactivate, then reads the
register status back for diagnostics. Tenant defaults to "mcm" and the
register id to "19" when neither is configured.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "register-id",
			Usage: "Register to deactivate (myRegisterId)",
		},
	},
	Action: func(c *cli.Context) error {
		return runAction(c, &executor.DeactivateRegisterAction{RegisterID: c.String("register-id")})
	},
}

var deleteProductCommand = &cli.Command{
	Name:      "delete-product",
	Usage:     "Delete a product by its exact display name",
	ArgsUsage: "[<product-name>]",
	Description: `Searches the inventory, picks the product whose name matches exactly
(case-insensitive, surrounding whitespace ignored) and deletes it.
The name defaults to myProductName.`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Find the product but do not delete it (DRY_RUN)",
		},
	},
	Action: func(c *cli.Context) error {
		return runAction(c, &executor.DeleteProductAction{
			ProductName: c.Args().First(),
			DryRun:      c.Bool("dry-run"),
		})
	},
}

var recordFailureCommand = &cli.Command{
	Name:  "record-failure",
	Usage: "Record a failed test scenario in the dated failure log",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "scenario", Usage: "Scenario name (FAILED_SCENARIO)"},
		&cli.StringFlag{Name: "error", Usage: "Error text (FAILURE_ERROR)"},
		&cli.StringFlag{Name: "device", Usage: "Device id (MAESTRO_DEVICE_ID)"},
	},
	Action: runRecordFailure,
}

var scriptCommand = &cli.Command{
	Name:      "script",
	Usage:     "Run JavaScript hook scripts",
	ArgsUsage: "<file.js>...",
	Description: `Runs the scripts in order on one engine with console, json, http, output
and backoffice builtins. Every resolved variable is available as a global and
output carries over between scripts; relative paths after the first resolve
against the previous script's directory. The record printed is output.result
when set, otherwise the whole output object. The first failing script stops
the run.`,
	Action: runScript,
}

// runAction resolves settings, runs one authenticated action and emits its record.
func runAction(c *cli.Context, action executor.Action) error {
	s, err := loadSettings(c)
	if err != nil {
		result := core.FailedResult(err)
		action.Annotate(result)
		return emit(c, stringFlag(c, "result-file"), result, core.ExitCode(err))
	}

	ctx, stop := signalContext()
	defer stop()

	rec := metrics.New()
	client := newClient(s, rec)

	result, err := executor.New(s.cfg, client, rec).Run(ctx, action)
	pushMetrics(s, rec, action.Name())

	return emit(c, s.resultFile, result, exitCode(result, err))
}

// runRecordFailure never fails: the record is emitted and the exit code is 0.
// A broken config or .env file falls back to the environment and flags.
func runRecordFailure(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		logger.Warn("Could not load settings, using environment and flags only: %v", err)
		s = fallbackSettings(c)
	}

	info := s.cfg.Failure
	if v := c.String("scenario"); v != "" {
		info.Scenario = v
	}
	if v := c.String("error"); v != "" {
		info.Error = v
	}
	if v := c.String("device"); v != "" {
		info.Device = v
	}

	start := time.Now()
	details := report.NewFailureDetails(info.Scenario, info.Error, info.Device, s.environment, start)
	record := report.RecordFailure(details, s.cfg.ReportsDir)
	record.RunID = uuid.NewString()

	rec := metrics.New()
	rec.ObserveAction("record-failure", executor.OutcomeSuccess, time.Since(start))
	pushMetrics(s, rec, "record-failure")

	return emit(c, s.resultFile, record, core.ExitOK)
}

func runScript(c *cli.Context) error {
	if c.NArg() < 1 {
		err := core.ErrMissingConfiguration.WithMessage("at least one script file is required")
		return emit(c, stringFlag(c, "result-file"), core.FailedResult(err), core.ExitCode(err))
	}

	s, err := loadSettings(c)
	if err != nil {
		return emit(c, stringFlag(c, "result-file"), core.FailedResult(err), core.ExitCode(err))
	}

	ctx, stop := signalContext()
	defer stop()

	rec := metrics.New()
	client := newClient(s, rec)

	record, err := executor.New(s.cfg, client, rec).RunScripts(ctx, c.Args().Slice(), s.bindings)
	pushMetrics(s, rec, "script")

	code := core.ExitOK
	if err != nil {
		code = core.ExitCode(err)
	} else if ok, isBool := record["success"].(bool); isBool && !ok {
		code = core.ExitFailure
	}
	return emit(c, s.resultFile, record, code)
}

func newClient(s *settings, rec *metrics.Recorder) *backoffice.Client {
	return backoffice.NewClient(backoffice.Options{
		Timeout:            s.cfg.Timeout,
		AllowRedirectLogin: s.cfg.AllowRedirectLogin,
		Observer:           rec,
	})
}
