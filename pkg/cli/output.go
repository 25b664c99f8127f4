package cli

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
	"github.com/devicelab-dev/backoffice-runner/pkg/metrics"
	"github.com/devicelab-dev/backoffice-runner/pkg/report"
)

// pushJob is the Pushgateway job name of every run.
const pushJob = "backoffice_runner"

// emit prints the record to stdout and, when requested, to the result file,
// then converts code into a cli exit error.
func emit(c *cli.Context, resultFile string, record interface{}, code int) error {
	if err := report.WriteRecord(c.App.Writer, record); err != nil {
		logger.Error("Failed to write result: %v", err)
		return cli.Exit("", core.ExitFailure)
	}
	if resultFile != "" {
		if err := report.WriteRecordFile(resultFile, record); err != nil {
			logger.Warn("Failed to write result file %s: %v", resultFile, err)
		} else {
			logger.Debug("Result written to %s", resultFile)
		}
	}

	if code == core.ExitOK {
		return nil
	}
	// Errors are already logged; the exit code is the signal.
	return cli.Exit("", code)
}

// exitCode maps an action outcome to the process exit code.
func exitCode(result *core.Result, err error) int {
	if err != nil {
		return core.ExitCode(err)
	}
	if result == nil || !result.Success {
		return core.ExitFailure
	}
	return core.ExitOK
}

// pushMetrics sends the run metrics to the Pushgateway when one is configured.
// Failures are logged only.
func pushMetrics(s *settings, rec *metrics.Recorder, action string) {
	if s == nil || s.cfg.Pushgateway == "" {
		return
	}

	grouping := map[string]string{"action": action}
	if s.cfg.Tenant != "" {
		grouping["tenant"] = s.cfg.Tenant
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rec.Push(ctx, s.cfg.Pushgateway, pushJob, grouping); err != nil {
		logger.Warn("Failed to push metrics to %s: %v", s.cfg.Pushgateway, err)
		return
	}
	logger.Debug("Metrics pushed to %s", s.cfg.Pushgateway)
}
