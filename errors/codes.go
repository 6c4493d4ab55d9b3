package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Stage errors. Recoverable inside an attempt and fed back to the model.
const (
	// ErrCodeJSONParse indicates the buffered text could not be parsed, even after repair.
	ErrCodeJSONParse ErrorCode = "JSON_PARSE"
	// ErrCodeDeserialize indicates parsed JSON could not be decoded into the target type.
	ErrCodeDeserialize ErrorCode = "DESERIALIZE"
	// ErrCodeValidation indicates a value violates its schema or constraints.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeTransform indicates a post-deserialize transformation failed.
	ErrCodeTransform ErrorCode = "TRANSFORM"
	// ErrCodeFingerprint indicates a value could not be fingerprinted for dedup.
	ErrCodeFingerprint ErrorCode = "FINGERPRINT"
	// ErrCodeNoObject indicates an attempt finished without producing an object.
	ErrCodeNoObject ErrorCode = "NO_OBJECT"
)

// Terminal errors.
const (
	// ErrCodeRetriesExhausted indicates every attempt failed.
	ErrCodeRetriesExhausted ErrorCode = "RETRIES_EXHAUSTED"
	// ErrCodeTransport indicates the response stream failed to open or broke mid-way.
	ErrCodeTransport ErrorCode = "TRANSPORT"
	// ErrCodeCanceled indicates the caller's context ended the extraction.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Input and internal errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeJSONParse:   true,
	ErrCodeDeserialize: true,
	ErrCodeValidation:  true,
	ErrCodeTransform:   true,
	ErrCodeNoObject:    true,
	ErrCodeTransport:   true,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
