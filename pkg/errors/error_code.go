package errors

// ErrorCode identifies the category and kind of an error.
type ErrorCode int

const (
	// General errors (1-99).
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199). Fatal at setup time, surfaced before
	// any simulation work begins.
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidParameter     ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidWindowSize    ErrorCode = 103
	ErrCodeInvalidBounds        ErrorCode = 104
	ErrCodeUnknownStrategy      ErrorCode = 105
	ErrCodeUnknownModel         ErrorCode = 106

	// Data errors (200-299).
	ErrCodeDataUnavailable ErrorCode = 200
	ErrCodeQueryFailed     ErrorCode = 201
	ErrCodeIngestFailed    ErrorCode = 202
	ErrCodeDataOutOfOrder  ErrorCode = 203
	ErrCodeDownloadFailed  ErrorCode = 204

	// Trading errors (300-399).
	ErrCodeInsufficientFunds ErrorCode = 300
	ErrCodeInvalidOrder      ErrorCode = 301
	ErrCodeOrderRejected     ErrorCode = 302
	ErrCodePositionNotFound  ErrorCode = 303

	// Optimization errors (400-499).
	ErrCodeOptimizationFailure ErrorCode = 400
	ErrCodeWindowSkipped       ErrorCode = 401
	ErrCodeNoWindows           ErrorCode = 402
)
