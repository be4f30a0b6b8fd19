package errors

// ErrorCategory groups errors by the part of the system that failed. It
// selects the CLI exit code and the HTTP status.
type ErrorCategory string

const (
	// Problems the user fixes in the config file or on the command line.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Problems confined to one source file.
	CategoryTransform ErrorCategory = "transform"
	CategoryLayout    ErrorCategory = "layout"

	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryNetwork    ErrorCategory = "network"
	CategoryLiveReload ErrorCategory = "livereload"
	CategoryRuntime    ErrorCategory = "runtime"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity says how far an error reaches.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // stops the command
	SeverityError   ErrorSeverity = "error"   // fails one operation
	SeverityWarning ErrorSeverity = "warning" // degraded, work continues
)

// Context keys with dedicated builder methods.
const (
	KeyFile   = "file"
	KeyLayout = "layout"
)

// ErrorContext holds structured details about an error.
type ErrorContext map[string]any

// Set adds or updates a value, allocating the map if needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get returns the value for key.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString returns the value for key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}
