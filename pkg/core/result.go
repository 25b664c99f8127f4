package core

import "errors"

// Result is the record handed back to the invoking test harness.
// Exactly one is produced per invocation, on success and failure paths alike.
type Result struct {
	RunID string `json:"runId,omitempty"`

	// Register deactivation shape
	Status int         `json:"status,omitempty"`
	Data   interface{} `json:"data,omitempty"`

	Success bool `json:"success"`

	// Product deletion shape
	ProductID   string `json:"productId,omitempty"`
	ProductName string `json:"productName,omitempty"`
	DryRun      bool   `json:"dryRun,omitempty"`

	Message string `json:"message,omitempty"`

	// Failure info
	Error         string                 `json:"error,omitempty"`
	ErrorCategory string                 `json:"errorCategory,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// FailedResult builds a failure record from err, keeping the structured
// details of an ExecutionError when present.
func FailedResult(err error) *Result {
	r := &Result{Success: false}
	if err == nil {
		return r
	}
	r.Error = err.Error()
	r.ErrorCategory = CategoryOf(err).String()
	var execErr *ExecutionError
	if errors.As(err, &execErr) && len(execErr.Details) > 0 {
		r.Details = execErr.Details
	}
	return r
}
