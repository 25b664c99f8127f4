package core

// ErrorCategory classifies the type of error for reporting and exit codes
type ErrorCategory int

const (
	ErrCategoryNone     ErrorCategory = iota // No error
	ErrCategoryConfig                        // Required env var or argument missing
	ErrCategoryAuth                          // Login rejected, no cookies, HTML where JSON was expected
	ErrCategoryRequest                       // Non-2xx business call or transport failure
	ErrCategoryNotFound                      // No exact product-name match
	ErrCategoryParse                         // Body was not valid JSON when JSON was expected
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryAuth:
		return "authentication"
	case ErrCategoryRequest:
		return "request"
	case ErrCategoryNotFound:
		return "not_found"
	case ErrCategoryParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Process exit codes reported to the calling test harness.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitMissingConfig = 2
	ExitNotFound      = 3
)

// ExitCode returns the process exit code for a category.
func (c ErrorCategory) ExitCode() int {
	switch c {
	case ErrCategoryNone:
		return ExitOK
	case ErrCategoryConfig:
		return ExitMissingConfig
	case ErrCategoryNotFound:
		return ExitNotFound
	default:
		return ExitFailure
	}
}
