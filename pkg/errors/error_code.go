package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidQuantity      ErrorCode = 103
	ErrCodeInvalidBar           ErrorCode = 104
	ErrCodeInvalidCommission    ErrorCode = 105

	// Data errors (200-299)
	ErrCodeOutOfOrderBar ErrorCode = 200
	ErrCodeUnknownSymbol ErrorCode = 201
	ErrCodeDataNotFound  ErrorCode = 202
	ErrCodeOrderNotFound ErrorCode = 203

	// Sequencing errors (300-399)
	ErrCodeSequencing      ErrorCode = 300
	ErrCodeEngineFinalized ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound     ErrorCode = 400
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402

	// Datasource errors (500-599)
	ErrCodeDatasourceUnavailable ErrorCode = 500
	ErrCodeQueryFailed           ErrorCode = 501

	// Results errors (600-699)
	ErrCodeResultsWriteFailed ErrorCode = 600
)
