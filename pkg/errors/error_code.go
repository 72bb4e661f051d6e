package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter  ErrorCode = 100
	ErrCodeInvalidType       ErrorCode = 101
	ErrCodeInvalidPeriod     ErrorCode = 102
	ErrCodeMissingParameter  ErrorCode = 103
	ErrCodeInvalidMultiplier ErrorCode = 104
	ErrCodeInvalidMode       ErrorCode = 105
	ErrCodeMalformedBar      ErrorCode = 106
	ErrCodeInvalidPolicy     ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeUnsupportedFormat     ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Configuration errors (400-499)
	ErrCodeConfigNotFound   ErrorCode = 400
	ErrCodeConfigParse      ErrorCode = 401
	ErrCodeConfigInvalid    ErrorCode = 402
	ErrCodeVersionMismatch  ErrorCode = 403
	ErrCodeSchemaGeneration ErrorCode = 404

	// Output errors (500-599)
	ErrCodeWriterNotInitialized ErrorCode = 500
	ErrCodeWriteFailed          ErrorCode = 501
	ErrCodeFinalizeFailed       ErrorCode = 502

	// API errors (600-699)
	ErrCodeBadRequest      ErrorCode = 600
	ErrCodeDecodeFailed    ErrorCode = 601
	ErrCodeContextCanceled ErrorCode = 602
)
