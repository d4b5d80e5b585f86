package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidTradeRequest  ErrorCode = 102
	ErrCodeInvalidQuantity      ErrorCode = 103
	ErrCodeInvalidPrice         ErrorCode = 104
	ErrCodeInvalidOffset        ErrorCode = 105
	ErrCodeInsufficientBalance  ErrorCode = 106
	ErrCodeInsufficientShares   ErrorCode = 107
	ErrCodeInvalidUniverse      ErrorCode = 108

	// Data/Resource errors (200-299)
	ErrCodeInstrumentNotFound ErrorCode = 200
	ErrCodePositionNotFound   ErrorCode = 201
	ErrCodeQueryFailed        ErrorCode = 202

	// Order/engine errors (500-599)
	ErrCodeOrderNotFound     ErrorCode = 500
	ErrCodeOrderNotEditable  ErrorCode = 501
	ErrCodeExecutionRejected ErrorCode = 502
	ErrCodeEngineNotReady    ErrorCode = 503
	ErrCodeProposalStale     ErrorCode = 504

	// History errors (600-699)
	ErrCodeHistoryInitFailed  ErrorCode = 600
	ErrCodeHistoryWriteFailed ErrorCode = 601

	// Insight errors (700-799)
	ErrCodeInsightUnavailable ErrorCode = 700
	ErrCodeInsightFetchFailed ErrorCode = 701
	ErrCodeInsightParseFailed ErrorCode = 702
)
