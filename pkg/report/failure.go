// Package report records test failures and writes result records.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// FailureStatus is the status reported once a failure has been recorded.
const FailureStatus = "failure_handled"

// timestampLayout is ISO-8601 in UTC with milliseconds, e.g. 2026-10-16T09:30:00.123Z.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FailureDetails describes one failed test scenario.
type FailureDetails struct {
	Scenario    string `json:"scenario"`
	Error       string `json:"error"`
	Timestamp   string `json:"timestamp"`
	Device      string `json:"device"`
	Environment string `json:"environment"`
}

// FailureRecord is the result record of the failure recorder.
type FailureRecord struct {
	RunID   string         `json:"runId,omitempty"`
	Status  string         `json:"status"`
	Details FailureDetails `json:"details"`
	LogFile string         `json:"logFile,omitempty"`
}

// NewFailureDetails fills unknown fields with placeholders and stamps now.
func NewFailureDetails(scenario, errText, device, environment string, now time.Time) FailureDetails {
	orDefault := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return FailureDetails{
		Scenario:    orDefault(scenario, "Unknown"),
		Error:       orDefault(errText, "Unknown error"),
		Timestamp:   now.UTC().Format(timestampLayout),
		Device:      orDefault(device, "Unknown device"),
		Environment: orDefault(environment, "Unknown environment"),
	}
}

// FailureLogPath returns <dir>/failures_<date>.log for the given timestamp.
func FailureLogPath(dir string, ts time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("failures_%s.log", ts.UTC().Format("2006-01-02")))
}

// RecordFailure logs the failure and appends one line to the dated failure log
// under dir. It never fails; write problems are logged and LogFile stays empty.
func RecordFailure(details FailureDetails, dir string) FailureRecord {
	logger.Info("=== TEST FAILURE CALLBACK ===")
	logger.Info("Scenario: %s", details.Scenario)
	logger.Info("Error: %s", details.Error)
	logger.Info("Time: %s", details.Timestamp)
	logger.Info("Device: %s", details.Device)
	logger.Info("Environment: %s", details.Environment)
	logger.Info("=============================")

	record := FailureRecord{Status: FailureStatus, Details: details}

	ts, err := time.Parse(timestampLayout, details.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	path := FailureLogPath(dir, ts)

	if err := appendFailureLine(path, details); err != nil {
		logger.Warn("Could not write to log file: %v", err)
		return record
	}

	logger.Info("Logged to: %s", path)
	record.LogFile = path
	return record
}

func appendFailureLine(path string, details FailureDetails) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("[%s] %s: %s\n", details.Timestamp, details.Scenario, details.Error)
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
