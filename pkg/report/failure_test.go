package report

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestNewFailureDetails_Defaults(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 123000000, time.UTC)
	d := NewFailureDetails("", "", "", "", now)

	if d.Scenario != "Unknown" || d.Error != "Unknown error" {
		t.Errorf("unexpected defaults %+v", d)
	}
	if d.Device != "Unknown device" || d.Environment != "Unknown environment" {
		t.Errorf("unexpected defaults %+v", d)
	}
	if d.Timestamp != "2026-10-16T09:30:00.123Z" {
		t.Errorf("Timestamp = %q", d.Timestamp)
	}
}

func TestNewFailureDetails_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	now := time.Date(2026, 10, 17, 1, 0, 0, 0, loc)
	d := NewFailureDetails("login", "timeout", "emulator-5554", "fat", now)
	if d.Timestamp != "2026-10-16T17:00:00.000Z" {
		t.Errorf("Timestamp = %q", d.Timestamp)
	}
}

func TestRecordFailure_CreatesDirAndAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

	first := RecordFailure(NewFailureDetails("checkout", "button not found", "emulator-5554", "fat", now), dir)
	second := RecordFailure(NewFailureDetails("login", "timeout", "emulator-5554", "fat", now), dir)

	wantPath := filepath.Join(dir, "failures_2026-10-16.log")
	if first.LogFile != wantPath || second.LogFile != wantPath {
		t.Errorf("LogFile = %q / %q, want %q", first.LogFile, second.LogFile, wantPath)
	}
	if first.Status != FailureStatus {
		t.Errorf("Status = %q", first.Status)
	}

	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", data)
	}
	if lines[0] != "[2026-10-16T09:30:00.000Z] checkout: button not found" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "[2026-10-16T09:30:00.000Z] login: timeout" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestRecordFailure_NeverFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file-as-directory semantics differ on windows")
	}
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	record := RecordFailure(NewFailureDetails("s", "e", "d", "fat", time.Now()), blocker)
	if record.Status != FailureStatus {
		t.Errorf("Status = %q, want %q", record.Status, FailureStatus)
	}
	if record.LogFile != "" {
		t.Errorf("LogFile should be empty on write failure, got %q", record.LogFile)
	}
}

func TestWriteRecordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	record := FailureRecord{Status: FailureStatus, Details: FailureDetails{Scenario: "checkout"}}

	if err := WriteRecordFile(path, record); err != nil {
		t.Fatalf("WriteRecordFile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"status": "failure_handled"`) || !strings.Contains(string(data), `"scenario": "checkout"`) {
		t.Errorf("unexpected file contents %s", data)
	}
}
