package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategorySchema     ErrorCategory = "schema"
	CategoryValidation ErrorCategory = "validation"

	// CategorySource represents content acquisition errors.
	CategorySource  ErrorCategory = "source"
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"

	// CategoryEmit represents artifact generation errors.
	CategoryEmit       ErrorCategory = "emit"
	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryRuntime represents runtime and infrastructure errors.
	CategoryRuntime ErrorCategory = "runtime"
	CategoryStorage ErrorCategory = "storage"
	CategoryNotify  ErrorCategory = "notify"
	CategoryDaemon  ErrorCategory = "daemon"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set returns a copy of the context with the key added or updated. The
// receiver is never mutated; classified errors share context maps, so an
// in-place write would leak into already-built errors.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	result := make(ErrorContext, len(c)+1)
	maps.Copy(result, c)
	result[key] = value
	return result
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext)
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
