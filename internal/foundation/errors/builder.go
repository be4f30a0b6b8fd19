package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category at SeverityError.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
	}}
}

// WrapError starts an error that wraps err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// WithFile records the source file the error belongs to.
func (b *ErrorBuilder) WithFile(path string) *ErrorBuilder {
	return b.WithContext(KeyFile, path)
}

// WithLayout records the layout reference involved.
func (b *ErrorBuilder) WithLayout(ref string) *ErrorBuilder {
	return b.WithContext(KeyLayout, ref)
}

// Build returns the error. The builder must not be reused.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	return &e
}

// ConfigError reports an unusable config file or flag. It is fatal.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).WithSeverity(SeverityFatal)
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).WithSeverity(SeverityFatal)
}

func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

// TransformError reports a source file that could not be transformed.
func TransformError(message string) *ErrorBuilder {
	return NewError(CategoryTransform, message)
}

// LayoutError reports a layout that is missing, unparsable or fails to render.
func LayoutError(message string) *ErrorBuilder {
	return NewError(CategoryLayout, message)
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message)
}

// LiveReloadError reports a live-reload channel problem; serving continues.
func LiveReloadError(message string) *ErrorBuilder {
	return NewError(CategoryLiveReload, message).WithSeverity(SeverityWarning)
}

func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).WithSeverity(SeverityFatal)
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).WithSeverity(SeverityFatal)
}
