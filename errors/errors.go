package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Retryable: IsRetryableCode(code)}
}

// --- Stage constructors ---

// JSONParse reports text that is not parseable JSON.
func JSONParse(cause error) *AppError {
	return New(ErrCodeJSONParse, "response is not valid JSON").WithCause(cause)
}

// Deserialize reports JSON that does not decode into the named type.
func Deserialize(typeName string, cause error) *AppError {
	return New(ErrCodeDeserialize, fmt.Sprintf("cannot decode response into %s", typeName)).
		WithCause(cause).
		WithDetail("type", typeName)
}

// Validation reports a constraint violation.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Transform reports a failed post-processing step.
func Transform(cause error) *AppError {
	return New(ErrCodeTransform, "transformation failed").WithCause(cause)
}

// Fingerprint reports a value that could not be hashed for dedup.
func Fingerprint(cause error) *AppError {
	return New(ErrCodeFingerprint, "cannot fingerprint value").WithCause(cause)
}

// NoObject reports an attempt that finished without a usable object.
func NoObject(finishReason string) *AppError {
	e := New(ErrCodeNoObject, "stream finished without a complete object")
	if finishReason != "" {
		e.WithDetail("finish_reason", finishReason)
	}
	return e
}

// --- Terminal constructors ---

// RetriesExhausted reports that every attempt failed. cause is the last failure.
func RetriesExhausted(attempts int, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeRetriesExhausted,
		Message: fmt.Sprintf("no valid response after %d attempts", attempts),
		Details: map[string]any{"attempts": attempts},
		Cause:   cause,
	}
}

// Transport reports a failure of the response stream itself.
func Transport(provider string, cause error) *AppError {
	return New(ErrCodeTransport, fmt.Sprintf("stream from %s failed", provider)).
		WithCause(cause).
		WithDetail("provider", provider)
}

// Canceled reports that the caller's context ended the run.
func Canceled(cause error) *AppError {
	return New(ErrCodeCanceled, "extraction canceled").WithCause(cause)
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason))
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// InvalidConfig creates a new AppError for a configuration value that fails validation.
func InvalidConfig(field, reason string) *AppError {
	return New(ErrCodeInvalidConfig, fmt.Sprintf("invalid config %s: %s", field, reason)).
		WithDetail("field", field)
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.").WithCause(cause)
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Wrap returns err as an AppError, wrapping plain errors as Internal.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}
